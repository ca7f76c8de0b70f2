package fetch

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/dom"
	"github.com/chromedp/chromedp"
)

// The site serves a different layout to mobile browsers, so sessions always
// identify as a desktop Chrome.
const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// SessionConfig carries the browser options shared by all sessions.
type SessionConfig struct {
	ChromePath string
	UserAgent  string
}

// Session is a single long-lived headless browser tab.
type Session struct {
	allocCtx    context.Context
	cancelAlloc context.CancelFunc
	tabCtx      context.Context
	cancelTab   context.CancelFunc
}

// NewSession starts a headless browser and opens one tab. The browser process
// is started eagerly so that a broken chrome setup surfaces at startup, not
// on the first navigation.
func NewSession(sc SessionConfig) (*Session, error) {
	opts := append(
		chromedp.DefaultExecAllocatorOptions[:],
		chromedp.WindowSize(1920, 1080),
		chromedp.Flag("disable-web-security", true),
		chromedp.Flag("disable-features", "VizDisplayCompositor"),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-plugins", true),
		// images are never read, only text and attributes
		chromedp.Flag("blink-settings", "imagesEnabled=false"),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
	)
	ua := sc.UserAgent
	if ua == "" {
		ua = defaultUserAgent
	}
	opts = append(opts, chromedp.UserAgent(ua))
	if sc.ChromePath != "" {
		opts = append(opts, chromedp.ExecPath(sc.ChromePath))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), opts...)
	tabCtx, cancelTab := chromedp.NewContext(allocCtx)
	if err := chromedp.Run(tabCtx); err != nil {
		cancelTab()
		cancelAlloc()
		return nil, fmt.Errorf("failed to start browser session: %w", err)
	}
	return &Session{
		allocCtx:    allocCtx,
		cancelAlloc: cancelAlloc,
		tabCtx:      tabCtx,
		cancelTab:   cancelTab,
	}, nil
}

func (s *Session) Navigate(ctx context.Context, url string) error {
	return s.run(ctx, chromedp.Navigate(url))
}

func (s *Session) HTML(ctx context.Context) (string, error) {
	var body string
	err := s.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		node, err := dom.GetDocument().Do(ctx)
		if err != nil {
			return err
		}
		body, err = dom.GetOuterHTML().WithNodeID(node.NodeID).Do(ctx)
		return err
	}))
	return body, err
}

func (s *Session) Click(ctx context.Context, selector string) error {
	return s.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		var nodes []*cdp.Node
		if err := chromedp.Nodes(selector, &nodes, chromedp.AtLeast(0)).Do(ctx); err != nil {
			return err
		}
		if len(nodes) == 0 {
			return fmt.Errorf("no node found for selector %q", selector)
		}
		return chromedp.MouseClickNode(nodes[0]).Do(ctx)
	}))
}

func (s *Session) ClickJS(ctx context.Context, selector string) error {
	script := fmt.Sprintf("document.querySelector(%q).click()", selector)
	return s.run(ctx, chromedp.Evaluate(script, nil))
}

func (s *Session) WaitVisible(ctx context.Context, selector string, timeout time.Duration) error {
	runCtx, cancel := context.WithTimeout(s.tabCtx, timeout)
	defer cancel()
	if err := chromedp.Run(runCtx, chromedp.WaitVisible(selector, chromedp.ByQuery)); err != nil {
		return fmt.Errorf("selector %q never appeared: %w", selector, err)
	}
	return nil
}

func (s *Session) Close() {
	s.cancelTab()
	s.cancelAlloc()
}

// run executes chromedp actions against the session's tab, honoring the
// deadline of the caller's context if it has one.
func (s *Session) run(ctx context.Context, actions ...chromedp.Action) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	runCtx := s.tabCtx
	if deadline, ok := ctx.Deadline(); ok {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithDeadline(runCtx, deadline)
		defer cancel()
	}
	return chromedp.Run(runCtx, actions...)
}
