package scrape

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/froosterton/lookup/fetch"
	"github.com/froosterton/lookup/log"
)

const (
	playerLinkSelector = `a[href*="/player/"]`

	tradeAdsExactSelector = "span.card-title.mb-1.text-light.stat-data.text-nowrap"
	rapSelector           = "#player_rap"
	valueSelector         = "#player_value"
	lastSeenSelector      = "#location_pane_last_seen_online"
	avatarSelector        = "img.mx-auto.d-block.w-100.h-100"
	avatarURLPrefix       = "https://tr.rbxcdn.com/"
)

// maxPlausibleTradeAds rejects unrelated numeric text picked up by the
// generic selector layer.
const maxPlausibleTradeAds = 50000

// rowIdentity resolves the username and absolute profile url for a listing
// row. Fallback order: rendered link text, raw text node content, last
// non-empty url path segment, UnknownName. ok is false when the row carries
// no profile link at all.
func rowIdentity(row *goquery.Selection, baseURL string) (name, profileURL string, ok bool) {
	link := row.Find(playerLinkSelector).First()
	if link.Length() == 0 {
		return "", "", false
	}
	name = strings.TrimSpace(link.Text())
	if name == "" {
		name = strings.TrimSpace(rawTextContent(link))
	}
	profileURL, _ = link.Attr("href")
	if profileURL != "" && !strings.HasPrefix(profileURL, "http") {
		profileURL = strings.TrimRight(baseURL, "/") + profileURL
	}
	if name == "" {
		name = lastPathSegment(profileURL)
	}
	if name == "" {
		name = UnknownName
	}
	return name, profileURL, true
}

// rawTextContent concatenates the direct text nodes of the selection's first
// node, for links whose rendered text is empty but that still carry raw text
// content.
func rawTextContent(sel *goquery.Selection) string {
	if len(sel.Nodes) == 0 {
		return ""
	}
	var b strings.Builder
	for n := sel.Nodes[0].FirstChild; n != nil; n = n.NextSibling {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
	}
	return b.String()
}

func lastPathSegment(u string) string {
	parts := strings.Split(u, "/")
	for i := len(parts) - 1; i >= 0; i-- {
		if parts[i] != "" {
			return parts[i]
		}
	}
	return ""
}

// A countStrategy tries to read a numeric statistic from a rendered profile
// document. Strategies are tried in order, first success wins.
type countStrategy func(doc *goquery.Document) (int, bool)

var tradeAdsStrategies = []countStrategy{
	tradeAdsExact,
	tradeAdsByLabel,
	tradeAdsGeneric,
}

func tradeAdsExact(doc *goquery.Document) (int, bool) {
	text := strings.TrimSpace(doc.Find(tradeAdsExactSelector).First().Text())
	if text == "" {
		return 0, false
	}
	n := parseCount(text)
	return n, n > 0
}

// tradeAdsByLabel locates the innermost element labeled "Trade Ads Created"
// and reads the stat value next to it.
func tradeAdsByLabel(doc *goquery.Document) (int, bool) {
	result, found := 0, false
	doc.Find("*").Each(func(_ int, s *goquery.Selection) {
		if found {
			return
		}
		text := s.Text()
		if !strings.Contains(text, "Trade Ads") || !strings.Contains(text, "Created") {
			return
		}
		// skip elements that only contain the label through a child
		inner := false
		s.Children().Each(func(_ int, c *goquery.Selection) {
			ct := c.Text()
			if strings.Contains(ct, "Trade Ads") && strings.Contains(ct, "Created") {
				inner = true
			}
		})
		if inner {
			return
		}
		stat := s.Parent().Find(".stat-data").First()
		if stat.Length() == 0 {
			return
		}
		if n := parseCount(stat.Text()); n > 0 {
			result, found = n, true
		}
	})
	return result, found
}

// genericStatSelectors are tried in ranked order when neither the exact nor
// the label-based locator produced a value.
var genericStatSelectors = []string{
	".card-title.mb-1.text-light.stat-data.text-nowrap",
	"span.stat-data.text-nowrap",
	".stat-data.text-nowrap",
	".card-title.stat-data",
}

var groupedNumberRe = regexp.MustCompile(`^\d{1,3}(,\d{3})*$`)

func tradeAdsGeneric(doc *goquery.Document) (int, bool) {
	for _, sel := range genericStatSelectors {
		n, found := 0, false
		doc.Find(sel).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			text := strings.TrimSpace(s.Text())
			if !groupedNumberRe.MatchString(text) {
				return true
			}
			if v := parseCount(text); v > 0 && v <= maxPlausibleTradeAds {
				n, found = v, true
				return false
			}
			return true
		})
		if found {
			return n, true
		}
	}
	return 0, false
}

// extractProfile reads the trade statistics from a rendered profile document.
// Unreadable fields degrade to their defaults instead of failing the row.
func extractProfile(doc *goquery.Document) Account {
	acc := Account{}
	for _, strat := range tradeAdsStrategies {
		if n, ok := strat(doc); ok {
			acc.TradeAds = n
			break
		}
	}
	acc.RAP = parseCount(doc.Find(rapSelector).Text())
	acc.Value = parseCount(doc.Find(valueSelector).Text())
	acc.LastOnlineText = strings.TrimSpace(doc.Find(lastSeenSelector).Text())
	acc.LastOnlineDays = ParseLastOnlineDays(acc.LastOnlineText)
	if acc.LastOnlineText == "" {
		acc.LastOnlineText = UnknownName
	}
	doc.Find(avatarSelector).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if src, ok := s.Attr("src"); ok && strings.HasPrefix(src, avatarURLPrefix) {
			acc.AvatarURL = src
			return false
		}
		return true
	})
	return acc
}

// Extractor enriches listing rows with statistics read from the profile
// session.
type Extractor struct {
	session func() fetch.PageSession
	delays  Delays
	retries int
}

// Profile navigates the profile session to profileURL and extracts the
// account statistics. Fatal session errors are retried a bounded number of
// times; after that a zero-valued account is returned so the row never stops
// the crawl.
func (e *Extractor) Profile(ctx context.Context, profileURL string) Account {
	logger := log.LoggerFromContext(ctx)
	for attempt := 0; ; attempt++ {
		acc, err := e.profileOnce(ctx, profileURL)
		if err == nil {
			return acc
		}
		if Classify(err) != FailureFatal || attempt >= e.retries {
			logger.Warn("failed to scrape profile",
				slog.String("url", profileURL),
				slog.String("err", err.Error()))
			return Account{LastOnlineText: UnknownName, LastOnlineDays: UnknownLastOnlineDays}
		}
		logger.Warn("retrying profile scrape",
			slog.String("url", profileURL),
			slog.Int("attempt", attempt+1),
			slog.Int("max", e.retries))
		sleepCtx(ctx, e.delays.ProfileRetry)
	}
}

func (e *Extractor) profileOnce(ctx context.Context, profileURL string) (Account, error) {
	if err := e.session().Navigate(ctx, profileURL); err != nil {
		return Account{}, fmt.Errorf("failed to open profile: %w", err)
	}
	sleepCtx(ctx, e.delays.ProfileSettle)
	body, err := e.session().HTML(ctx)
	if err != nil {
		return Account{}, fmt.Errorf("failed to read profile page: %w", err)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return Account{}, fmt.Errorf("failed to parse profile page: %w", err)
	}
	return extractProfile(doc), nil
}
