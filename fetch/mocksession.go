package fetch

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// MockSession replays scripted page snapshots, for tests. Navigate swaps the
// current snapshot for the one registered under the url; clicks are forwarded
// to OnClick which may replace the current snapshot.
type MockSession struct {
	// Pages maps a url to the HTML snapshot shown after navigating there.
	Pages map[string]string
	// OnClick is invoked for every Click and ClickJS. A non-empty return
	// value replaces the current snapshot.
	OnClick func(selector string) (string, error)
	// NavErr, when set, is returned by every Navigate call.
	NavErr error
	// HTMLErr, when set, is returned by every HTML call.
	HTMLErr error

	Navigations []string
	Clicked     []string
	current     string
}

func (m *MockSession) Navigate(_ context.Context, url string) error {
	if m.NavErr != nil {
		return m.NavErr
	}
	m.Navigations = append(m.Navigations, url)
	p, ok := m.Pages[url]
	if !ok {
		return fmt.Errorf("no scripted page for %s", url)
	}
	m.current = p
	return nil
}

func (m *MockSession) HTML(_ context.Context) (string, error) {
	if m.HTMLErr != nil {
		return "", m.HTMLErr
	}
	return m.current, nil
}

func (m *MockSession) Click(_ context.Context, selector string) error {
	return m.click(selector)
}

func (m *MockSession) ClickJS(_ context.Context, selector string) error {
	return m.click(selector)
}

func (m *MockSession) click(selector string) error {
	m.Clicked = append(m.Clicked, selector)
	if m.OnClick == nil {
		return nil
	}
	html, err := m.OnClick(selector)
	if err != nil {
		return err
	}
	if html != "" {
		m.current = html
	}
	return nil
}

// WaitVisible reports the selector visible iff it matches the current
// snapshot, regardless of the timeout.
func (m *MockSession) WaitVisible(_ context.Context, selector string, _ time.Duration) error {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(m.current))
	if err != nil {
		return err
	}
	if doc.Find(selector).Length() == 0 {
		return fmt.Errorf("selector %q never appeared", selector)
	}
	return nil
}

func (m *MockSession) Close() {}
