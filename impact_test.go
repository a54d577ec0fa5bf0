package main

import (
	"reflect"
	"testing"
)

func TestCalculateImpact_FiveMegabytes(t *testing.T) {
	est := CalculateImpact(5 * 1024 * 1024)
	got := roundImpacts(est)

	want := Impacts{EnergyWH: 4.05, Carbon: 1.79, Water: 0.0073}
	if got != want {
		t.Errorf("expected %+v, got %+v", want, got)
	}
}

func TestCalculateImpact_Zero(t *testing.T) {
	if got := CalculateImpact(0); got != (ImpactEstimate{}) {
		t.Errorf("expected zero estimate, got %+v", got)
	}
}

func TestCalculateImpact_Monotonic(t *testing.T) {
	var prev ImpactEstimate
	for _, n := range []int64{0, 1, 1023, 1024, 500_000, 1 << 20, 5 << 20, 1 << 30} {
		cur := CalculateImpact(n)
		if cur.EnergyWh < prev.EnergyWh || cur.CarbonG < prev.CarbonG || cur.WaterL < prev.WaterL {
			t.Fatalf("impact decreased at %d bytes: %+v after %+v", n, cur, prev)
		}
		prev = cur
	}
}

func TestRound(t *testing.T) {
	cases := []struct {
		v      float64
		places int
		want   float64
	}{
		{1.005, 0, 1},
		{1.2345, 2, 1.23},
		{1.235, 1, 1.2},
		{0.00729, 4, 0.0073},
		{4.050000000000001, 3, 4.05},
		{2.5, 0, 3},
	}
	for _, c := range cases {
		if got := round(c.v, c.places); got != c.want {
			t.Errorf("round(%v, %d): expected %v, got %v", c.v, c.places, c.want, got)
		}
	}
}

func TestToKB(t *testing.T) {
	if got := toKB(1536); got != 1.5 {
		t.Errorf("expected 1.5, got %v", got)
	}
	if got := toKB(1000); got != 0.98 {
		t.Errorf("expected 0.98, got %v", got)
	}
}

func TestAssembleResult_FiveMegabytePage(t *testing.T) {
	res := AssembleResult("https://example.com", ResourceAggregate{RequestCount: 1, HTML: 5 * 1024 * 1024})

	if res.PageSizeMB != 5 {
		t.Errorf("expected 5 MB, got %v", res.PageSizeMB)
	}
	if res.Resources.HTML != 5120 || res.Resources.TotalBytes != 5120 {
		t.Errorf("expected 5120 KB, got %+v", res.Resources)
	}
	// 5.00 MB is not above the 5 MB threshold; only the carbon check fires.
	if len(res.Suggestions) != 1 || res.Suggestions[0].Severity != SeverityHigh {
		t.Fatalf("expected one high suggestion, got %+v", res.Suggestions)
	}
	if res.Suggestions[0].ID != "1" {
		t.Errorf("expected id 1, got %q", res.Suggestions[0].ID)
	}
}

func TestAssembleResult_LargePage(t *testing.T) {
	res := AssembleResult("https://example.com", ResourceAggregate{RequestCount: 3, Image: 6 * 1024 * 1024})

	if res.PageSizeMB != 6 {
		t.Errorf("expected 6 MB, got %v", res.PageSizeMB)
	}
	var messages []string
	for _, s := range res.Suggestions {
		messages = append(messages, s.ID+":"+string(s.Severity))
	}
	// page size, image payload (6144 KB) and carbon
	want := []string{"1:medium", "2:high", "3:high"}
	if !reflect.DeepEqual(messages, want) {
		t.Errorf("expected %v, got %v", want, messages)
	}
}

func TestAssembleResult_RoundingIdempotent(t *testing.T) {
	aggs := []ResourceAggregate{
		{},
		{RequestCount: 4, HTML: 12345, CSS: 6789, JS: 98765, Image: 1, APIBytes: 333, APICalls: 2},
		{RequestCount: 9, JS: 7_777_777, ThirdPartyBytes: 1_234_567, ThirdPartyCalls: 5},
	}
	for _, agg := range aggs {
		res := AssembleResult("https://example.com", agg)
		if again := reRounded(*res); !reflect.DeepEqual(again, *res) {
			t.Errorf("re-rounding changed result:\n got %+v\nwant %+v", again, *res)
		}
	}
}

// reRounded re-applies the reporting precision to every numeric field.
func reRounded(r AnalysisResult) AnalysisResult {
	out := r
	out.PageSizeMB = round(r.PageSizeMB, 2)
	res := &out.Resources
	res.TotalBytes = round(res.TotalBytes, 2)
	res.HTML = round(res.HTML, 2)
	res.CSS = round(res.CSS, 2)
	res.JS = round(res.JS, 2)
	res.Image = round(res.Image, 2)
	res.APIBytes = round(res.APIBytes, 2)
	res.ThirdPartyAPIBytes = round(res.ThirdPartyAPIBytes, 2)
	out.Impacts = Impacts{
		EnergyWH: round(r.Impacts.EnergyWH, 3),
		Carbon:   round(r.Impacts.Carbon, 3),
		Water:    round(r.Impacts.Water, 4),
	}
	return out
}
