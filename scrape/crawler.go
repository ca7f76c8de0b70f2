package scrape

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/froosterton/lookup/fetch"
	"github.com/froosterton/lookup/log"
)

// RestartFunc tears down and recreates both browser sessions, returning the
// fresh ones.
type RestartFunc func(ctx context.Context) (listing, profile fetch.PageSession, err error)

// Options wires a Crawler together.
type Options struct {
	Listing    fetch.PageSession
	Profile    fetch.PageSession
	Restart    RestartFunc
	Lookup     LookupClient
	Notifier   Notifier
	State      *State
	BaseURL    string
	Delays     Delays
	Waits      Waits
	MaxRetries int
	// Classify overrides the default fatal-error classifier, mainly for
	// tests.
	Classify Classifier
}

// Crawler drives the whole pipeline: items in order, pages last to first,
// rows bottom to top, one dispatch at a time.
type Crawler struct {
	listing    fetch.PageSession
	profile    fetch.PageSession
	restart    RestartFunc
	classify   Classifier
	state      *State
	filter     *Filter
	dispatcher *Dispatcher
	delays     Delays
	waits      Waits
	base       string
	maxRetries int
}

func NewCrawler(opts Options) *Crawler {
	classify := opts.Classify
	if classify == nil {
		classify = Classify
	}
	return &Crawler{
		listing:    opts.Listing,
		profile:    opts.Profile,
		restart:    opts.Restart,
		classify:   classify,
		state:      opts.State,
		filter:     NewFilter(opts.State),
		dispatcher: &Dispatcher{lookup: opts.Lookup, notifier: opts.Notifier},
		delays:     opts.Delays,
		waits:      opts.Waits,
		base:       opts.BaseURL,
		maxRetries: opts.MaxRetries,
	}
}

// Run crawls the configured items strictly in order, one fully to completion
// (or exhaustion of retries) before the next begins.
func (c *Crawler) Run(ctx context.Context, itemIDs []string) {
	c.state.SetCrawling(true)
	defer c.state.SetCrawling(false)
	for _, id := range itemIDs {
		if ctx.Err() != nil {
			return
		}
		c.CrawlItem(ctx, id)
	}
}

// CrawlItem crawls one item inside the bounded retry envelope. A failed
// attempt restarts the browser sessions and tries again after a delay; the
// item is abandoned once maxRetries retries are spent, and the run moves on.
func (c *Crawler) CrawlItem(ctx context.Context, itemID string) {
	logger := log.LoggerFromContext(ctx).With(slog.String("item", itemID))
	ctx = log.ContextWithLogger(ctx, logger)

	retries := 0
	for {
		err := c.crawlItemOnce(ctx, itemID)
		if err == nil {
			return
		}
		if ctx.Err() != nil {
			return
		}
		if retries >= c.maxRetries {
			logger.Error("giving up on item",
				slog.Int("retries", retries),
				slog.String("err", err.Error()))
			return
		}
		retries++
		logger.Warn("restarting item crawl",
			slog.Int("attempt", retries),
			slog.Int("max", c.maxRetries),
			slog.String("err", err.Error()))
		c.restartSessions(ctx)
		sleepCtx(ctx, c.delays.Retry)
	}
}

func (c *Crawler) crawlItemOnce(ctx context.Context, itemID string) (err error) {
	// any panic escaping a single attempt lands in the retry envelope
	// instead of killing the whole run
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("item crawl panicked: %v", r)
		}
	}()

	logger := log.LoggerFromContext(ctx)
	nav := &Navigator{
		session: func() fetch.PageSession { return c.listing },
		base:    c.base,
		delays:  c.delays,
		waits:   c.waits,
	}
	ext := &Extractor{
		session: func() fetch.PageSession { return c.profile },
		delays:  c.delays,
		retries: c.maxRetries,
	}

	total, name, err := nav.Open(ctx, itemID)
	if err != nil {
		return err
	}
	logger.Info("crawling item", slog.String("name", name), slog.Int("pages", total))

	for page := total; page >= 1; page-- {
		if ctx.Err() != nil {
			return nil
		}
		if page != total {
			if err := nav.StepBack(ctx); err != nil {
				if errors.Is(err, ErrPrevDisabled) {
					logger.Info("previous control disabled, reached the first page",
						slog.Int("page", page))
					return nil
				}
				// remaining pages are unreachable, not retried
				logger.Warn("could not flip to previous page, stopping walk",
					slog.Int("page", page),
					slog.String("err", err.Error()))
				return nil
			}
		}
		nav.ProbePage(ctx, page)
		c.crawlPage(ctx, nav, ext, page, total)
	}
	logger.Info("all holders processed",
		slog.Int("total_matches", c.state.Snapshot().TotalMatches))
	return nil
}

func (c *Crawler) crawlPage(ctx context.Context, nav *Navigator, ext *Extractor, page, total int) {
	logger := log.LoggerFromContext(ctx).With(slog.Int("page", page))
	ctx = log.ContextWithLogger(ctx, logger)

	if err := nav.WaitRows(ctx); err != nil {
		logger.Warn("no rows rendered, skipping page", slog.String("err", err.Error()))
		return
	}
	rows, err := nav.Rows(ctx)
	if err != nil {
		logger.Warn("could not read rows, skipping page", slog.String("err", err.Error()))
		return
	}
	count := rows.Length()
	if count == 0 {
		logger.Warn("no holders on page, skipping")
		return
	}

	// newest listings sit at the bottom of the table
	logger.Info("processing holders bottom to top", slog.Int("rows", count))
	for i := count - 1; i >= 0; i-- {
		if ctx.Err() != nil {
			return
		}
		c.crawlRow(ctx, nav, ext, i)
	}
	logger.Info("finished page", slog.Int("of", total))
}

// crawlRow processes a single row offset. Errors are contained here: a
// transient error skips the row, a fatal one triggers session recovery and
// marks the row processed so the crawl cannot loop on it.
func (c *Crawler) crawlRow(ctx context.Context, nav *Navigator, ext *Extractor, offset int) {
	logger := log.LoggerFromContext(ctx).With(slog.Int("row", offset))
	ctx = log.ContextWithLogger(ctx, logger)

	name, err := c.processRow(ctx, nav, ext, offset)
	if err == nil {
		return
	}
	logger.Error("error processing row", slog.String("err", err.Error()))
	if c.classify(err) == FailureFatal {
		logger.Warn("fatal session error, recovering")
		sleepCtx(ctx, c.delays.Recovery)
		c.restartSessions(ctx)
		if name == "" {
			name = fmt.Sprintf("unknown_%d", offset)
		}
		c.state.MarkSeen(name)
	}
}

func (c *Crawler) processRow(ctx context.Context, nav *Navigator, ext *Extractor, offset int) (string, error) {
	logger := log.LoggerFromContext(ctx)

	// re-resolve the live row set; handles are not stable across DOM
	// mutations
	rows, err := nav.Rows(ctx)
	if err != nil {
		return "", err
	}
	if offset >= rows.Length() {
		logger.Debug("row no longer exists, skipping")
		return "", nil
	}
	name, profileURL, ok := rowIdentity(rows.Eq(offset), c.base)
	if !ok {
		return "", fmt.Errorf("no profile link in row %d", offset)
	}

	// duplicates are cheap to detect before the profile page is loaded
	if c.state.SeenBefore(name) {
		logger.Debug("skipping already processed user", slog.String("user", name))
		sleepCtx(ctx, c.delays.Skip)
		return name, nil
	}

	logger.Info("checking user", slog.String("user", name))
	acc := ext.Profile(ctx, profileURL)
	acc.Name = name
	acc.ProfileURL = profileURL

	decision, reason := c.filter.Admit(&acc)
	switch decision {
	case SkipDuplicate:
		logger.Debug("skipping already processed user", slog.String("user", name))
		sleepCtx(ctx, c.delays.Skip)
	case SkipFiltered:
		logger.Info("filtered out",
			slog.String("user", name),
			slog.String("reason", reason))
		sleepCtx(ctx, c.delays.Skip)
	case Admit:
		logger.Info("processing user",
			slog.String("user", name),
			slog.Int("trade_ads", acc.TradeAds),
			slog.Int("value", acc.Value),
			slog.Int("last_online_days", acc.LastOnlineDays))
		hit := c.dispatcher.Dispatch(ctx, &acc)
		sleepCtx(ctx, c.delays.Processed)
		c.state.MarkSeen(name)
		if hit {
			c.state.AddMatch()
			logger.Info("identity match",
				slog.String("user", name),
				slog.Int("total_matches", c.state.Snapshot().TotalMatches))
		}
	}
	return name, nil
}

func (c *Crawler) restartSessions(ctx context.Context) {
	if c.restart == nil {
		return
	}
	listing, profile, err := c.restart(ctx)
	if err != nil {
		log.LoggerFromContext(ctx).Error("failed to restart browser sessions",
			slog.String("err", err.Error()))
		return
	}
	c.listing, c.profile = listing, profile
}
