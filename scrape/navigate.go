package scrape

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/froosterton/lookup/fetch"
	"github.com/froosterton/lookup/log"
)

const (
	allCopiesTabSelector   = `a[href="#all_copies_table_container"]`
	tableRowSelector       = `#all_copies_table tbody tr`
	paginatorSelector      = `#all_copies_table_paginate`
	paginateButtonSelector = `#all_copies_table_paginate a.page-link[data-dt-idx]`
	prevButtonSelector     = `#all_copies_table_paginate a.page-link[data-dt-idx="0"]`
	tableInfoSelector      = `#all_copies_table_info`
	itemTitleSelector      = `h1.page_title.mb-0`
)

// ErrPrevDisabled reports that the previous control is disabled, meaning the
// first page has been reached and the backwards walk is done.
var ErrPrevDisabled = errors.New("previous control disabled")

var pageNumberRe = regexp.MustCompile(`^\d+$`)

// Navigator walks an item's holder listing from the last page back to the
// first. The paginator exposes no reliable direct-jump affordance, so every
// step after the initial jump goes through the previous control.
type Navigator struct {
	session func() fetch.PageSession
	base    string
	delays  Delays
	waits   Waits
}

// Open loads the item's holder listing, switches to the all-copies view and
// jumps to the last page. It returns the page count and the item name.
// Everything short of the initial navigation failing degrades to best effort.
func (n *Navigator) Open(ctx context.Context, itemID string) (totalPages int, itemName string, err error) {
	logger := log.LoggerFromContext(ctx)
	url := fmt.Sprintf("%s/item/%s", strings.TrimRight(n.base, "/"), itemID)
	if err := n.session().Navigate(ctx, url); err != nil {
		return 0, "", fmt.Errorf("failed to open listing %s: %w", url, err)
	}
	sleepCtx(ctx, n.delays.ListingSettle)

	n.selectAllCopies(ctx)
	if err := n.session().WaitVisible(ctx, tableRowSelector, n.waits.TableRender); err != nil {
		logger.Warn("holder table never rendered", slog.String("err", err.Error()))
	}
	sleepCtx(ctx, n.delays.TableInit)

	doc, err := n.document(ctx)
	if err != nil {
		return 0, "", fmt.Errorf("failed to read listing page: %w", err)
	}
	itemName = strings.TrimSpace(doc.Find(itemTitleSelector).First().Text())
	if itemName == "" {
		itemName = "Unknown Item"
	}
	return n.jumpToLastPage(ctx), itemName, nil
}

// selectAllCopies switches to the all-copies tab unless it is already active,
// so the walk covers every holder and not just the premium copies.
func (n *Navigator) selectAllCopies(ctx context.Context) {
	logger := log.LoggerFromContext(ctx)
	doc, err := n.document(ctx)
	if err != nil {
		logger.Warn("could not read listing page", slog.String("err", err.Error()))
		return
	}
	tab := doc.Find(allCopiesTabSelector).First()
	if tab.Length() == 0 {
		logger.Warn("all-copies tab not found")
		return
	}
	if cls, _ := tab.Attr("class"); strings.Contains(cls, "active") {
		logger.Debug("all-copies tab already active")
		return
	}
	if err := n.click(ctx, allCopiesTabSelector); err != nil {
		logger.Warn("could not click all-copies tab", slog.String("err", err.Error()))
	}
}

// jumpToLastPage scans the paginator for numeric page buttons, clicks the
// highest one and returns the total page count. A missing or single-page
// paginator yields 1; so does a failed jump, since walking backwards from an
// unknown position would revisit the wrong pages.
func (n *Navigator) jumpToLastPage(ctx context.Context) int {
	logger := log.LoggerFromContext(ctx)
	if err := n.session().WaitVisible(ctx, paginatorSelector, n.waits.Paginator); err != nil {
		logger.Warn("paginator never appeared, assuming single page", slog.String("err", err.Error()))
		return 1
	}
	doc, err := n.document(ctx)
	if err != nil {
		logger.Warn("could not re-read listing page, assuming single page", slog.String("err", err.Error()))
		return 1
	}

	total := 1
	lastIdx := ""
	doc.Find(paginateButtonSelector).Each(func(_ int, s *goquery.Selection) {
		text := strings.TrimSpace(s.Text())
		if !pageNumberRe.MatchString(text) {
			return
		}
		num, err := strconv.Atoi(text)
		if err != nil || num <= total {
			return
		}
		total = num
		lastIdx, _ = s.Attr("data-dt-idx")
	})
	if total == 1 || lastIdx == "" {
		logger.Debug("no numeric last page button found, single page")
		return 1
	}

	logger.Info("jumping to last page", slog.Int("total_pages", total))
	sel := fmt.Sprintf(`#all_copies_table_paginate a.page-link[data-dt-idx=%q]`, lastIdx)
	if err := n.click(ctx, sel); err != nil {
		logger.Warn("could not jump to last page, assuming single page", slog.String("err", err.Error()))
		return 1
	}
	sleepCtx(ctx, n.delays.PageFlip)
	return total
}

// StepBack flips the table one page backwards via the previous control.
func (n *Navigator) StepBack(ctx context.Context) error {
	doc, err := n.document(ctx)
	if err != nil {
		return fmt.Errorf("failed to read listing page: %w", err)
	}
	prev := doc.Find(prevButtonSelector).First()
	if prev.Length() == 0 {
		return fmt.Errorf("previous control not found")
	}
	cls, _ := prev.Parent().Attr("class")
	if strings.Contains(strings.ToLower(cls), "disabled") {
		return ErrPrevDisabled
	}
	if err := n.click(ctx, prevButtonSelector); err != nil {
		return fmt.Errorf("failed to flip page: %w", err)
	}
	sleepCtx(ctx, n.delays.PageFlip)
	return nil
}

// ProbePage logs the table's "Showing X to Y of Z" caption and the first
// row's username, so a stale table read shows up in the logs. The probe is
// informational only and never blocks the walk.
func (n *Navigator) ProbePage(ctx context.Context, page int) {
	logger := log.LoggerFromContext(ctx)
	doc, err := n.document(ctx)
	if err != nil {
		logger.Warn("could not probe page", slog.String("err", err.Error()))
		return
	}
	info := strings.TrimSpace(doc.Find(tableInfoSelector).Text())
	first := ""
	if row := doc.Find(tableRowSelector).First(); row.Length() > 0 {
		first, _, _ = rowIdentity(row, n.base)
	}
	logger.Info("page probe",
		slog.Int("page", page),
		slog.String("info", info),
		slog.String("first_user", first))
}

// WaitRows blocks until the holder table has rows rendered.
func (n *Navigator) WaitRows(ctx context.Context) error {
	return n.session().WaitVisible(ctx, tableRowSelector, n.waits.TableRender)
}

// Rows returns a fresh snapshot of the holder table rows. Row handles are not
// stable across page transitions, so callers re-resolve before every read.
func (n *Navigator) Rows(ctx context.Context) (*goquery.Selection, error) {
	doc, err := n.document(ctx)
	if err != nil {
		return nil, err
	}
	return doc.Find(tableRowSelector), nil
}

func (n *Navigator) document(ctx context.Context) (*goquery.Document, error) {
	body, err := n.session().HTML(ctx)
	if err != nil {
		return nil, err
	}
	return goquery.NewDocumentFromReader(strings.NewReader(body))
}

// click tries a real mouse click first and falls back to dispatching the
// click from javascript, which gets past overlays that swallow mouse events.
func (n *Navigator) click(ctx context.Context, selector string) error {
	if err := n.session().Click(ctx, selector); err != nil {
		log.LoggerFromContext(ctx).Debug("mouse click failed, dispatching js click",
			slog.String("selector", selector),
			slog.String("err", err.Error()))
		return n.session().ClickJS(ctx, selector)
	}
	return nil
}
