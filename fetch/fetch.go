// Package fetch provides long-lived browser automation sessions built on
// chromedp, plus a scripted mock session for tests.
package fetch

import (
	"context"
	"time"
)

// A PageSession drives one live browser tab. All methods take the caller's
// context for cancellation; the tab itself outlives individual calls.
type PageSession interface {
	// Navigate loads the given url in the tab.
	Navigate(ctx context.Context, url string) error
	// HTML returns the outer HTML of the currently rendered document.
	HTML(ctx context.Context) (string, error)
	// Click performs a real mouse click on the first node matching the
	// selector. It returns an error when no node matches.
	Click(ctx context.Context, selector string) error
	// ClickJS dispatches a click from javascript, for elements a real mouse
	// click cannot reach.
	ClickJS(ctx context.Context, selector string) error
	// WaitVisible blocks until the selector matches a visible node or the
	// timeout expires.
	WaitVisible(ctx context.Context, selector string, timeout time.Duration) error
	// Close tears the tab and its browser process down.
	Close()
}
