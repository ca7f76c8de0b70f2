package scrape

import "fmt"

// Decision is the admission verdict for an enriched account.
type Decision int

const (
	Admit Decision = iota
	SkipDuplicate
	SkipFiltered
)

const (
	// MaxTradeAds is the trade ad ceiling. Accounts above it are treated as
	// bot or farm accounts.
	MaxTradeAds = 500
	// MaxValue is the value ceiling. Accounts at or above it are out of the
	// target range.
	MaxValue = 6_000_000
)

// Filter gates which accounts proceed to lookup and notification.
type Filter struct {
	state       *State
	maxTradeAds int
	maxValue    int
}

func NewFilter(state *State) *Filter {
	return &Filter{state: state, maxTradeAds: MaxTradeAds, maxValue: MaxValue}
}

// Admit decides whether acc proceeds downstream. Filtered accounts are marked
// seen immediately; admitted ones only after dispatch completes, so a crash
// in between does not permanently block the account within this process.
func (f *Filter) Admit(acc *Account) (Decision, string) {
	if f.state.SeenBefore(acc.Name) {
		return SkipDuplicate, "already processed"
	}
	if acc.TradeAds > f.maxTradeAds {
		f.state.MarkSeen(acc.Name)
		return SkipFiltered, fmt.Sprintf("too many trade ads (%d)", acc.TradeAds)
	}
	if acc.Value >= f.maxValue {
		f.state.MarkSeen(acc.Name)
		return SkipFiltered, fmt.Sprintf("value too high (%d)", acc.Value)
	}
	return Admit, ""
}
