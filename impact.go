package main

import "math"

// Linear coefficients used to turn transferred bytes into environmental estimates.
const (
	EnergyPerMB = 0.81   // Wh per MB transferred
	CarbonPerWh = 0.442  // g CO2 per Wh
	WaterPerWh  = 0.0018 // litres per Wh

	bytesPerKB = 1024
	bytesPerMB = 1024 * 1024
)

// ImpactEstimate is the unrounded energy, carbon and water estimate for a page.
type ImpactEstimate struct {
	EnergyWh float64
	CarbonG  float64
	WaterL   float64
}

func pageSizeMB(totalBytes int64) float64 {
	return float64(totalBytes) / bytesPerMB
}

// CalculateImpact derives the impact estimate from the total transferred bytes.
func CalculateImpact(totalBytes int64) ImpactEstimate {
	energy := pageSizeMB(totalBytes) * EnergyPerMB
	return ImpactEstimate{
		EnergyWh: energy,
		CarbonG:  energy * CarbonPerWh,
		WaterL:   energy * WaterPerWh,
	}
}

// round rounds v to the given number of decimal places, half away from zero.
func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

func toKB(bytes int64) float64 {
	return round(float64(bytes)/bytesPerKB, 2)
}
