package main

import (
	"log"
	"strconv"
)

type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

type Suggestion struct {
	ID       string   `json:"id"`
	Message  string   `json:"message"`
	Severity Severity `json:"severity"`
}

// Suggestion thresholds, compared against the rounded values reported to the caller.
const (
	maxPageSizeMB      = 5
	maxAPICalls        = 15
	maxThirdPartyCalls = 50
	maxJSKB            = 2000
	maxImageKB         = 3000
	maxCarbonG         = 1
	maxWaterL          = 1
	maxEnergyWh        = 50
)

// GenerateSuggestions runs the threshold checks in a fixed order and returns one
// suggestion per check that fires. When none fire a single low-severity note is returned.
func GenerateSuggestions(sizeMB float64, res ResourceSummary, imp Impacts) []Suggestion {
	suggestions := make([]Suggestion, 0, 8)
	push := func(message string, severity Severity) {
		suggestions = append(suggestions, Suggestion{
			ID:       strconv.Itoa(len(suggestions) + 1),
			Message:  message,
			Severity: severity,
		})
	}

	if sizeMB > maxPageSizeMB {
		push("Large Page Size: consider optimizing assets and reducing the number of resources.", SeverityMedium)
	}
	if res.APICalls > maxAPICalls {
		push("Excessive API Calls: reduce or combine API requests.", SeverityMedium)
	}
	if res.ThirdPartyAPICalls > maxThirdPartyCalls {
		push("High third-party API usage: limit external requests to improve performance.", SeverityHigh)
	}
	if res.JS > maxJSKB {
		push("Large JavaScript payload: use code-splitting and remove unused libraries.", SeverityMedium)
	}
	if res.Image > maxImageKB {
		push("Large image payload: optimize images to reduce load times.", SeverityHigh)
	}
	if imp.Carbon > maxCarbonG {
		push("High carbon impact: optimize resources to reduce energy consumption.", SeverityHigh)
	}
	if imp.Water > maxWaterL {
		push("High water usage: optimize resource usage to minimize environmental impact.", SeverityMedium)
	}
	if imp.EnergyWH > maxEnergyWh {
		push("High energy consumption: optimize code and resources.", SeverityHigh)
	}

	if len(suggestions) == 0 {
		push("Good Job! Your website is well optimized with no significant issues detected.", SeverityLow)
	}
	return suggestions
}

// safeSuggestions degrades to an empty list if generation panics.
func safeSuggestions(gen func() []Suggestion) (out []Suggestion) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Printf("[suggestions] generation failed: %v", rec)
			out = []Suggestion{}
		}
	}()
	return gen()
}
