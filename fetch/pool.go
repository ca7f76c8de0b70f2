package fetch

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/froosterton/lookup/log"
)

// Pool owns the two browser sessions used by the crawler: one pinned to the
// holder listing, one for profile pages. The two stay independent so a
// profile navigation can never disturb the listing's pagination state.
type Pool struct {
	cfg     SessionConfig
	Listing *Session
	Profile *Session
}

func NewPool(cfg SessionConfig) (*Pool, error) {
	listing, err := NewSession(cfg)
	if err != nil {
		return nil, fmt.Errorf("listing session: %w", err)
	}
	profile, err := NewSession(cfg)
	if err != nil {
		listing.Close()
		return nil, fmt.Errorf("profile session: %w", err)
	}
	return &Pool{cfg: cfg, Listing: listing, Profile: profile}, nil
}

// Restart tears down both sessions and brings up fresh ones. Teardown errors
// are swallowed since the sessions are assumed corrupted already.
func (p *Pool) Restart(ctx context.Context) error {
	logger := log.LoggerFromContext(ctx)
	logger.Warn("restarting browser sessions")
	p.Close()
	listing, err := NewSession(p.cfg)
	if err != nil {
		return fmt.Errorf("listing session: %w", err)
	}
	profile, err := NewSession(p.cfg)
	if err != nil {
		listing.Close()
		return fmt.Errorf("profile session: %w", err)
	}
	p.Listing, p.Profile = listing, profile
	logger.Info("browser sessions restarted", slog.String("pool", "listing+profile"))
	return nil
}

func (p *Pool) Close() {
	if p.Listing != nil {
		p.Listing.Close()
	}
	if p.Profile != nil {
		p.Profile.Close()
	}
}
