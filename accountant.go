package main

import (
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
)

// DefaultMaxBodyBytes caps the body read used when a response declares no size.
const DefaultMaxBodyBytes int64 = 2 * 1024 * 1024

// ResourceType is the lower-cased browser resource type of a response.
type ResourceType string

const (
	ResourceDocument   ResourceType = "document"
	ResourceStylesheet ResourceType = "stylesheet"
	ResourceScript     ResourceType = "script"
	ResourceImage      ResourceType = "image"
	ResourceXHR        ResourceType = "xhr"
	ResourceFetch      ResourceType = "fetch"
	ResourceOther      ResourceType = "other"
)

// ResponseEvent describes one network response seen while the page loads.
type ResponseEvent struct {
	URL     string
	Type    ResourceType
	Headers http.Header
	// Body reads the response body on demand. It may be nil.
	Body func() ([]byte, error)
}

// ResourceAggregate accumulates byte and call counts for a single run.
// Third-party bytes are counted twice: once in their type bucket and once in ThirdPartyBytes.
type ResourceAggregate struct {
	RequestCount    int
	HTML            int64
	CSS             int64
	JS              int64
	Image           int64
	APIBytes        int64
	APICalls        int
	ThirdPartyBytes int64
	ThirdPartyCalls int
}

func (a ResourceAggregate) TotalBytes() int64 {
	return a.HTML + a.CSS + a.JS + a.Image + a.APIBytes + a.ThirdPartyBytes
}

// Accountant classifies responses for one page load and tallies them into its aggregate.
// It is not safe for concurrent use; responses must be recorded one at a time.
type Accountant struct {
	pageHost     string
	maxBodyBytes int64
	agg          ResourceAggregate
}

func NewAccountant(pageURL string, maxBodyBytes int64) (*Accountant, error) {
	host, err := hostOf(pageURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if maxBodyBytes <= 0 {
		maxBodyBytes = DefaultMaxBodyBytes
	}
	return &Accountant{pageHost: host, maxBodyBytes: maxBodyBytes}, nil
}

// Aggregate returns a copy of the counters collected so far.
func (a *Accountant) Aggregate() ResourceAggregate {
	return a.agg
}

// Record accounts a single response. Responses that cannot be sized or classified are
// skipped and logged; Record never fails the run.
func (a *Accountant) Record(ev ResponseEvent) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Printf("[accountant] url=%s panic=%v", ev.URL, rec)
		}
	}()

	if err := a.record(ev); err != nil {
		log.Printf("[accountant] skip url=%s err=%v", ev.URL, err)
	}
}

func (a *Accountant) record(ev ResponseEvent) error {
	if !isNetworkURL(ev.URL) {
		return nil
	}

	size, ok := a.responseSize(ev)
	if !ok {
		return nil
	}

	host, err := hostOf(ev.URL)
	if err != nil {
		return err
	}
	thirdParty := host != a.pageHost

	a.agg.RequestCount++

	if thirdParty {
		a.agg.ThirdPartyBytes += size
		a.agg.ThirdPartyCalls++
	}

	switch ev.Type {
	case ResourceDocument:
		a.agg.HTML += size
	case ResourceStylesheet:
		a.agg.CSS += size
	case ResourceScript:
		a.agg.JS += size
	case ResourceImage:
		a.agg.Image += size
	case ResourceXHR, ResourceFetch:
		a.agg.APIBytes += size
		a.agg.APICalls++
	}
	return nil
}

// responseSize prefers a declared Content-Length and falls back to the capped body length.
// A declared length of zero also falls back to the body, as redirects and empty
// responses often report 0.
func (a *Accountant) responseSize(ev ResponseEvent) (int64, bool) {
	if n, ok := contentLength(ev.Headers); ok && n > 0 {
		return n, true
	}

	if ev.Body == nil {
		return 0, false
	}
	body, err := ev.Body()
	if err != nil {
		return 0, false
	}
	if int64(len(body)) > a.maxBodyBytes {
		return a.maxBodyBytes, true
	}
	return int64(len(body)), true
}

func contentLength(h http.Header) (int64, bool) {
	if h == nil {
		return 0, false
	}
	v := strings.TrimSpace(h.Get("Content-Length"))
	if v == "" {
		return 0, false
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// isNetworkURL rejects inline data, in-memory blobs and browser-internal pages.
func isNetworkURL(u string) bool {
	if u == "" {
		return false
	}
	lower := strings.ToLower(u)
	return !strings.HasPrefix(lower, "data:") &&
		!strings.HasPrefix(lower, "blob:") &&
		!strings.HasPrefix(lower, "chrome")
}
