package main

// ResourceSummary is the reported view of a ResourceAggregate; byte fields are in KB.
type ResourceSummary struct {
	RequestCount       int     `json:"requestCount"`
	TotalBytes         float64 `json:"totalBytes"`
	HTML               float64 `json:"html"`
	CSS                float64 `json:"css"`
	JS                 float64 `json:"js"`
	Image              float64 `json:"image"`
	APICalls           int     `json:"apiCalls"`
	APIBytes           float64 `json:"apiBytes"`
	ThirdPartyAPICalls int     `json:"thirdPartyAPICalls"`
	ThirdPartyAPIBytes float64 `json:"thirdPartyAPIBytes"`
}

// Impacts is the rounded ImpactEstimate as reported to callers.
type Impacts struct {
	EnergyWH float64 `json:"energyWH"`
	Carbon   float64 `json:"carbon"`
	Water    float64 `json:"water"`
}

// AnalysisResult is the outcome of a single page analysis.
type AnalysisResult struct {
	URL         string          `json:"url"`
	PageSizeMB  float64         `json:"pageSizeMB"`
	Resources   ResourceSummary `json:"resources"`
	Impacts     Impacts         `json:"impacts"`
	Suggestions []Suggestion    `json:"suggestions"`
}

func summarize(agg ResourceAggregate) ResourceSummary {
	return ResourceSummary{
		RequestCount:       agg.RequestCount,
		TotalBytes:         toKB(agg.TotalBytes()),
		HTML:               toKB(agg.HTML),
		CSS:                toKB(agg.CSS),
		JS:                 toKB(agg.JS),
		Image:              toKB(agg.Image),
		APICalls:           agg.APICalls,
		APIBytes:           toKB(agg.APIBytes),
		ThirdPartyAPICalls: agg.ThirdPartyCalls,
		ThirdPartyAPIBytes: toKB(agg.ThirdPartyBytes),
	}
}

func roundImpacts(est ImpactEstimate) Impacts {
	return Impacts{
		EnergyWH: round(est.EnergyWh, 3),
		Carbon:   round(est.CarbonG, 3),
		Water:    round(est.WaterL, 4),
	}
}

// AssembleResult rounds the aggregate and its impact estimate and attaches suggestions
// computed over the rounded values.
func AssembleResult(pageURL string, agg ResourceAggregate) *AnalysisResult {
	total := agg.TotalBytes()
	res := &AnalysisResult{
		URL:        pageURL,
		PageSizeMB: round(pageSizeMB(total), 2),
		Resources:  summarize(agg),
		Impacts:    roundImpacts(CalculateImpact(total)),
	}
	res.Suggestions = safeSuggestions(func() []Suggestion {
		return GenerateSuggestions(res.PageSizeMB, res.Resources, res.Impacts)
	})
	return res
}
