package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

// DefaultNavigationTimeout bounds a page load, including the wait for network idle.
const DefaultNavigationTimeout = 60 * time.Second

var errBodyUnavailable = errors.New("response body unavailable")

// PageLoader loads a page and reports every network response it produced.
// onResponse is called sequentially, never from two goroutines at once.
type PageLoader interface {
	Load(ctx context.Context, pageURL string, onResponse func(ResponseEvent)) error
}

// ChromeLoader is a PageLoader backed by a fresh headless Chrome per load.
type ChromeLoader struct {
	ExecPath string
	Timeout  time.Duration
}

func (l *ChromeLoader) allocatorOptions() []chromedp.ExecAllocatorOption {
	// Chromium options suitable for containers
	opts := append(
		chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Headless,
		chromedp.DisableGPU,
		chromedp.NoSandbox,
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("mute-audio", true),
		chromedp.Flag("no-first-run", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-setuid-sandbox", true),
		chromedp.Flag("no-zygote", true),
		chromedp.Flag("disable-background-networking", true),
		chromedp.Flag("disable-default-apps", true),
		chromedp.Flag("disable-sync", true),
		chromedp.Flag("disable-translate", true),
		chromedp.Flag("disable-background-timer-throttling", true),
		chromedp.Flag("disable-renderer-backgrounding", true),
		chromedp.Flag("disable-backgrounding-occluded-windows", true),
		chromedp.Flag("disable-features", "BackForwardCache"),
	)
	if l.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(l.ExecPath))
	}
	return opts
}

// capturedResponse is a response seen on the wire, kept until the page settles.
type capturedResponse struct {
	id       network.RequestID
	url      string
	typ      ResourceType
	headers  http.Header
	finished bool
	failed   bool
}

// responseLog records responses in arrival order and tracks the main frame lifecycle.
type responseLog struct {
	mu        sync.Mutex
	order     []*capturedResponse
	byID      map[network.RequestID]*capturedResponse
	mainFrame cdp.FrameID
	armed     bool
	sawInit   bool
	idle      chan struct{}
	idleOnce  sync.Once
}

func newResponseLog() *responseLog {
	return &responseLog{
		byID: make(map[network.RequestID]*capturedResponse),
		idle: make(chan struct{}),
	}
}

// arm starts watching lifecycle events of frame for the navigation about to begin.
func (rl *responseLog) arm(frame cdp.FrameID) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.mainFrame = frame
	rl.armed = true
}

// listen must not block; chromedp delivers target events on a single goroutine.
func (rl *responseLog) listen(ev interface{}) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	switch e := ev.(type) {
	case *network.EventRequestWillBeSent:
		// 3xx hops only surface here; they have no body and are sized by header alone.
		if e.RedirectResponse == nil {
			return
		}
		rl.order = append(rl.order, &capturedResponse{
			id:      e.RequestID,
			url:     e.RedirectResponse.URL,
			typ:     ResourceType(strings.ToLower(string(e.Type))),
			headers: toHTTPHeader(e.RedirectResponse.Headers),
			failed:  true,
		})
	case *network.EventResponseReceived:
		if e.Response == nil {
			return
		}
		r := &capturedResponse{
			id:      e.RequestID,
			url:     e.Response.URL,
			typ:     ResourceType(strings.ToLower(string(e.Type))),
			headers: toHTTPHeader(e.Response.Headers),
		}
		rl.order = append(rl.order, r)
		rl.byID[e.RequestID] = r
	case *network.EventLoadingFinished:
		if r, ok := rl.byID[e.RequestID]; ok {
			r.finished = true
		}
	case *network.EventLoadingFailed:
		if r, ok := rl.byID[e.RequestID]; ok {
			r.failed = true
		}
	case *page.EventLifecycleEvent:
		if !rl.armed || e.FrameID != rl.mainFrame {
			return
		}
		switch e.Name {
		case "init":
			rl.sawInit = true
		case "networkAlmostIdle":
			if rl.sawInit {
				rl.idleOnce.Do(func() { close(rl.idle) })
			}
		}
	}
}

func (rl *responseLog) snapshot() []capturedResponse {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	out := make([]capturedResponse, 0, len(rl.order))
	for _, r := range rl.order {
		out = append(out, *r)
	}
	return out
}

func toHTTPHeader(h network.Headers) http.Header {
	out := make(http.Header, len(h))
	for k, v := range h {
		out.Add(k, fmt.Sprint(v))
	}
	return out
}

// Load launches Chrome, navigates to pageURL, waits until the network is almost idle
// and then replays the captured responses to onResponse. The browser is closed on
// every return path.
func (l *ChromeLoader) Load(ctx context.Context, pageURL string, onResponse func(ResponseEvent)) error {
	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, l.allocatorOptions()...)
	defer allocCancel()

	taskCtx, taskCancel := chromedp.NewContext(allocCtx)
	defer taskCancel()

	// An empty Run starts the browser so launch failures are told apart from page failures.
	if err := chromedp.Run(taskCtx); err != nil {
		return fmt.Errorf("%w: %w", ErrLaunch, err)
	}

	timeout := l.Timeout
	if timeout <= 0 {
		timeout = DefaultNavigationTimeout
	}
	navCtx, navCancel := context.WithTimeout(taskCtx, timeout)
	defer navCancel()

	rl := newResponseLog()
	chromedp.ListenTarget(navCtx, rl.listen)

	err := chromedp.Run(navCtx,
		network.Enable(),
		page.SetLifecycleEventsEnabled(true),
		chromedp.ActionFunc(func(ctx context.Context) error {
			c := chromedp.FromContext(ctx)
			if c == nil || c.Target == nil {
				return errors.New("no target for page")
			}
			rl.arm(cdp.FrameID(c.Target.TargetID))
			return nil
		}),
		chromedp.Navigate(pageURL),
		chromedp.ActionFunc(func(ctx context.Context) error {
			select {
			case <-rl.idle:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		}),
	)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrNavigation, err)
	}

	// Bodies are read from the browser's cache after the page settles; responses are
	// handed over one at a time in the order they arrived.
	responses := rl.snapshot()
	err = chromedp.Run(taskCtx, chromedp.ActionFunc(func(ctx context.Context) error {
		for _, r := range responses {
			onResponse(ResponseEvent{
				URL:     r.url,
				Type:    r.typ,
				Headers: r.headers,
				Body: func() ([]byte, error) {
					if r.failed || !r.finished {
						return nil, errBodyUnavailable
					}
					return network.GetResponseBody(r.id).Do(ctx)
				},
			})
		}
		return nil
	}))
	if err != nil {
		return fmt.Errorf("reading responses: %w", err)
	}
	return nil
}
