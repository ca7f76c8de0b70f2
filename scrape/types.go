// Package scrape implements the stateful pagination and enrichment pipeline
// that walks an item's holder listing from the last page back to the first,
// enriches each holder with profile statistics, filters them and hands the
// survivors to the identity lookup and notification collaborators.
package scrape

import (
	"context"
	"sync"
	"time"
)

// UnknownName is the final identity fallback for rows whose username cannot
// be resolved. Such rows still take part in dedup, filtering and lookup.
const UnknownName = "Unknown"

// Account is one enriched holder record flowing through the pipeline.
type Account struct {
	Name           string
	ProfileURL     string
	TradeAds       int
	RAP            int
	Value          int
	AvatarURL      string
	LastOnlineText string
	LastOnlineDays int
}

// State carries the process-wide crawl state: the set of already handled
// identities, the cumulative match count and the crawl-active flag. The
// pipeline is the only writer; the healthcheck endpoint reads snapshots from
// its own goroutine.
type State struct {
	mu           sync.Mutex
	seen         map[string]struct{}
	totalMatches int
	crawling     bool
}

func NewState() *State {
	return &State{seen: map[string]struct{}{}}
}

func (s *State) SeenBefore(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.seen[name]
	return ok
}

// MarkSeen records the identity as handled. The set only ever grows; the same
// identity is never reprocessed, even across items.
func (s *State) MarkSeen(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seen[name] = struct{}{}
}

func (s *State) SeenCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.seen)
}

func (s *State) AddMatch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.totalMatches++
}

func (s *State) SetCrawling(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.crawling = v
}

// Snapshot is a consistent read of the crawl counters.
type Snapshot struct {
	Crawling     bool
	TotalMatches int
}

func (s *State) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{Crawling: s.crawling, TotalMatches: s.totalMatches}
}

// Delays are the fixed pacing delays of the crawl, fixed-rate throttles
// rather than adaptive backoffs.
type Delays struct {
	ListingSettle time.Duration
	TableInit     time.Duration
	PageFlip      time.Duration
	ProfileSettle time.Duration
	Skip          time.Duration
	Processed     time.Duration
	Recovery      time.Duration
	Retry         time.Duration
	ProfileRetry  time.Duration
}

// Waits bound how long the navigator blocks on elements appearing.
type Waits struct {
	TableRender time.Duration
	Paginator   time.Duration
}

// sleepCtx blocks for d or until the context is canceled.
func sleepCtx(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	select {
	case <-time.After(d):
	case <-ctx.Done():
	}
}
