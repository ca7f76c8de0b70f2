package scrape

import (
	"context"
	"log/slog"

	"github.com/froosterton/lookup/log"
	"github.com/froosterton/lookup/nexus"
	"github.com/froosterton/lookup/notify"
)

// LookupClient maps a Roblox username to an external identity record, if the
// lookup service knows one. A nil record with a nil error means "no match".
type LookupClient interface {
	Lookup(ctx context.Context, username string) (*nexus.Record, error)
}

// Notifier delivers the two outbound payload shapes for a confirmed match.
type Notifier interface {
	SendMatch(ctx context.Context, m notify.Match) error
	SendUsername(ctx context.Context, identity string) error
}

// Dispatcher serializes the downstream lookup and notification calls. It is
// strictly sequential: the crawl never advances to the next row until the
// current row's dispatch has completed, successfully or not.
type Dispatcher struct {
	lookup   LookupClient
	notifier Notifier
}

// Dispatch runs the identity lookup for an admitted account and sends both
// notifications on a hit. It returns true when the lookup produced a usable
// identity; downstream delivery errors are logged but do not turn a hit into
// a miss.
func (d *Dispatcher) Dispatch(ctx context.Context, acc *Account) bool {
	logger := log.LoggerFromContext(ctx)
	rec, err := d.lookup.Lookup(ctx, acc.Name)
	if err != nil {
		logger.Warn("identity lookup failed",
			slog.String("user", acc.Name),
			slog.String("err", err.Error()))
		return false
	}
	if rec == nil {
		logger.Debug("no identity match", slog.String("user", acc.Name))
		return false
	}
	identity := rec.Identity()
	if identity == "" {
		logger.Debug("lookup record carries no identity", slog.String("user", acc.Name))
		return false
	}

	m := notify.Match{
		RobloxName: acc.Name,
		Identity:   identity,
		UserID:     rec.UserID(),
		ProfileURL: acc.ProfileURL,
		Value:      acc.Value,
		TradeAds:   acc.TradeAds,
		AvatarURL:  acc.AvatarURL,
	}
	if err := d.notifier.SendMatch(ctx, m); err != nil {
		logger.Warn("match webhook failed", slog.String("err", err.Error()))
	}
	if err := d.notifier.SendUsername(ctx, identity); err != nil {
		logger.Warn("username webhook failed", slog.String("err", err.Error()))
	}
	return true
}
