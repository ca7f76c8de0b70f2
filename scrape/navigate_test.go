package scrape

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"testing"

	"github.com/froosterton/lookup/fetch"
)

const testBase = "https://rolis.test"

func holderRow(name, href string) string {
	return fmt.Sprintf(`<tr><td><a href="%s">%s</a></td></tr>`, href, name)
}

// listingHTML renders one page of a holder listing: title, active all-copies
// tab, the holder table and a paginator whose numeric buttons use the page
// number as data-dt-idx. The previous control has idx 0 and is disabled on
// page 1, mirroring the live markup.
func listingHTML(item string, page, total int, rows []string) string {
	var b strings.Builder
	b.WriteString("<html><body>")
	fmt.Fprintf(&b, `<h1 class="page_title mb-0">%s</h1>`, item)
	b.WriteString(`<a href="#all_copies_table_container" class="nav-link active">All Copies</a>`)
	b.WriteString(`<table id="all_copies_table"><tbody>`)
	for _, r := range rows {
		b.WriteString(r)
	}
	b.WriteString("</tbody></table>")
	fmt.Fprintf(&b, `<div id="all_copies_table_info">Showing page %d of %d</div>`, page, total)
	b.WriteString(`<div id="all_copies_table_paginate"><ul>`)
	prevClass := "page-item"
	if page == 1 {
		prevClass = "page-item disabled"
	}
	fmt.Fprintf(&b, `<li class="%s"><a class="page-link" data-dt-idx="0">Previous</a></li>`, prevClass)
	for p := 1; p <= total; p++ {
		fmt.Fprintf(&b, `<li class="page-item"><a class="page-link" data-dt-idx="%d">%d</a></li>`, p, p)
	}
	b.WriteString("</ul></div></body></html>")
	return b.String()
}

var dtIdxRe = regexp.MustCompile(`data-dt-idx="(\d+)"`)

// newListingSession scripts a mock session over the given per-page snapshots.
// Clicking a numeric paginator button jumps to that page, clicking the
// previous control flips one page back.
func newListingSession(itemID string, pages map[int]string) *fetch.MockSession {
	current := 1
	mock := &fetch.MockSession{
		Pages: map[string]string{
			fmt.Sprintf("%s/item/%s", testBase, itemID): pages[1],
		},
	}
	mock.OnClick = func(selector string) (string, error) {
		m := dtIdxRe.FindStringSubmatch(selector)
		if m == nil {
			return "", nil
		}
		idx, _ := strconv.Atoi(m[1])
		if idx == 0 {
			current--
		} else {
			current = idx
		}
		page, ok := pages[current]
		if !ok {
			return "", fmt.Errorf("no scripted listing page %d", current)
		}
		return page, nil
	}
	return mock
}

func newNavigator(session fetch.PageSession) *Navigator {
	return &Navigator{
		session: func() fetch.PageSession { return session },
		base:    testBase,
	}
}

func TestNavigatorOpenJumpsToLastPage(t *testing.T) {
	pages := map[int]string{
		1: listingHTML("Valkyrie Helm", 1, 3, []string{holderRow("a", "/player/1/a")}),
		2: listingHTML("Valkyrie Helm", 2, 3, []string{holderRow("b", "/player/2/b")}),
		3: listingHTML("Valkyrie Helm", 3, 3, []string{holderRow("c", "/player/3/c")}),
	}
	mock := newListingSession("123", pages)
	nav := newNavigator(mock)

	total, name, err := nav.Open(context.Background(), "123")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if total != 3 {
		t.Errorf("total = %d, expected 3", total)
	}
	if name != "Valkyrie Helm" {
		t.Errorf("item name = %q", name)
	}

	jumped := false
	for _, sel := range mock.Clicked {
		if strings.Contains(sel, `data-dt-idx="3"`) {
			jumped = true
		}
	}
	if !jumped {
		t.Errorf("expected a click on the last page button, clicked: %v", mock.Clicked)
	}

	rows, err := nav.Rows(context.Background())
	if err != nil {
		t.Fatalf("Rows failed: %v", err)
	}
	if name, _, _ := rowIdentity(rows.First(), testBase); name != "c" {
		t.Errorf("expected last page rows after Open, first user = %q", name)
	}
}

func TestNavigatorOpenSinglePage(t *testing.T) {
	pages := map[int]string{
		1: listingHTML("Dominus", 1, 1, []string{holderRow("solo", "/player/7/solo")}),
	}
	mock := newListingSession("7", pages)
	nav := newNavigator(mock)

	total, _, err := nav.Open(context.Background(), "7")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if total != 1 {
		t.Errorf("total = %d, expected 1", total)
	}
}

func TestNavigatorStepBack(t *testing.T) {
	pages := map[int]string{
		1: listingHTML("Fedora", 1, 2, []string{holderRow("first", "/player/1/first")}),
		2: listingHTML("Fedora", 2, 2, []string{holderRow("second", "/player/2/second")}),
	}
	mock := newListingSession("42", pages)
	nav := newNavigator(mock)

	if _, _, err := nav.Open(context.Background(), "42"); err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if err := nav.StepBack(context.Background()); err != nil {
		t.Fatalf("StepBack failed: %v", err)
	}
	rows, err := nav.Rows(context.Background())
	if err != nil {
		t.Fatalf("Rows failed: %v", err)
	}
	if name, _, _ := rowIdentity(rows.First(), testBase); name != "first" {
		t.Errorf("expected page 1 after StepBack, first user = %q", name)
	}

	// page 1 renders the previous control disabled
	if err := nav.StepBack(context.Background()); !errors.Is(err, ErrPrevDisabled) {
		t.Fatalf("expected ErrPrevDisabled, got %v", err)
	}
}

func TestNavigatorOpenNavigateFailure(t *testing.T) {
	mock := &fetch.MockSession{NavErr: errors.New("tab crashed")}
	nav := newNavigator(mock)
	if _, _, err := nav.Open(context.Background(), "1"); err == nil {
		t.Fatal("expected error when navigation fails")
	}
}
