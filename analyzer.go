package main

import (
	"context"
	"log"
	"time"
)

// Analyzer runs one page analysis per call. Runs share nothing but the loader.
type Analyzer struct {
	loader       PageLoader
	maxBodyBytes int64
}

func NewAnalyzer(loader PageLoader, maxBodyBytes int64) *Analyzer {
	if maxBodyBytes <= 0 {
		maxBodyBytes = DefaultMaxBodyBytes
	}
	return &Analyzer{loader: loader, maxBodyBytes: maxBodyBytes}
}

// Analyze loads pageURL, which must already be normalized and validated, and returns
// the assembled result. Partial data from a failed load is discarded.
func (a *Analyzer) Analyze(ctx context.Context, pageURL string) (*AnalysisResult, error) {
	start := time.Now()

	acc, err := NewAccountant(pageURL, a.maxBodyBytes)
	if err != nil {
		return nil, err
	}

	if err := a.loader.Load(ctx, pageURL, acc.Record); err != nil {
		log.Printf("[analyze] url=%s err=%v", pageURL, err)
		return nil, err
	}

	agg := acc.Aggregate()
	result := AssembleResult(pageURL, agg)
	log.Printf("[analyze] url=%s requests=%d size=%.2fMB took=%s",
		pageURL, agg.RequestCount, result.PageSizeMB, time.Since(start).Round(time.Millisecond))
	return result, nil
}
