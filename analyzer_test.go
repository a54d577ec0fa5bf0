package main

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestAnalyzer_Analyze(t *testing.T) {
	loader := &fakeLoader{events: samplePage()}
	a := NewAnalyzer(loader, 0)

	res, err := a.Analyze(context.Background(), "https://example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.URL != "https://example.com" {
		t.Errorf("expected url to be kept, got %q", res.URL)
	}
	if res.Resources.RequestCount != 5 {
		t.Errorf("expected 5 requests, got %d", res.Resources.RequestCount)
	}
	if res.Resources.JS != 4 || res.Resources.ThirdPartyAPIBytes != 4 || res.Resources.ThirdPartyAPICalls != 1 {
		t.Errorf("unexpected third-party accounting: %+v", res.Resources)
	}
	if res.Resources.APICalls != 1 || res.Resources.APIBytes != 0.25 {
		t.Errorf("unexpected api accounting: %+v", res.Resources)
	}
	if res.Resources.TotalBytes != 11.75 {
		t.Errorf("expected 11.75 KB total, got %v", res.Resources.TotalBytes)
	}
	if res.PageSizeMB != 0.01 {
		t.Errorf("expected 0.01 MB, got %v", res.PageSizeMB)
	}
	if len(res.Suggestions) != 1 || res.Suggestions[0].Severity != SeverityLow {
		t.Errorf("expected the well optimized suggestion, got %+v", res.Suggestions)
	}
}

func TestAnalyzer_LoaderErrorsPropagate(t *testing.T) {
	cases := []struct {
		name string
		err  error
	}{
		{"launch", fmt.Errorf("%w: exec: \"google-chrome\": not found", ErrLaunch)},
		{"navigation", fmt.Errorf("%w: %w", ErrNavigation, context.DeadlineExceeded)},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			a := NewAnalyzer(&fakeLoader{events: samplePage(), err: c.err}, 0)
			res, err := a.Analyze(context.Background(), "https://example.com")
			if res != nil {
				t.Errorf("expected no partial result, got %+v", res)
			}
			if !errors.Is(err, c.err) {
				t.Errorf("expected %v, got %v", c.err, err)
			}
		})
	}
}

func TestAnalyzer_InvalidURLSkipsLoader(t *testing.T) {
	loader := &fakeLoader{}
	a := NewAnalyzer(loader, 0)
	if _, err := a.Analyze(context.Background(), "http://[::1"); !errors.Is(err, ErrInvalidURL) {
		t.Errorf("expected ErrInvalidURL, got %v", err)
	}
	if loader.calls.Load() != 0 {
		t.Errorf("loader should not run for an invalid url")
	}
}

func TestAnalyzer_RunsAreIndependent(t *testing.T) {
	a := NewAnalyzer(&fakeLoader{events: samplePage()}, 0)
	first, err := a.Analyze(context.Background(), "https://example.com")
	if err != nil {
		t.Fatal(err)
	}
	second, err := a.Analyze(context.Background(), "https://example.com")
	if err != nil {
		t.Fatal(err)
	}
	if first.Resources != second.Resources {
		t.Errorf("second run saw state from the first: %+v vs %+v", first.Resources, second.Resources)
	}
}
