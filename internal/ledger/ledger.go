// Package ledger tracks the four player currencies. Counters only ever grow;
// every change is written through to the store and announced to observers.
package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/samdwyer/trailquest/internal/store"
)

// Balance is the persisted currency record.
type Balance struct {
	Tokens     int `json:"tokens"`
	FreePlays  int `json:"freePlays"`
	CashPence  int `json:"cashPence"`
	BonusPence int `json:"bonusPence"`
}

// normalize clamps negative counters to zero.
func (b Balance) normalize() Balance {
	if b.Tokens < 0 {
		b.Tokens = 0
	}
	if b.FreePlays < 0 {
		b.FreePlays = 0
	}
	if b.CashPence < 0 {
		b.CashPence = 0
	}
	if b.BonusPence < 0 {
		b.BonusPence = 0
	}
	return b
}

// Ledger owns the currency balance.
type Ledger struct {
	store     store.Store
	log       zerolog.Logger
	balance   Balance
	observers []func(Balance)
}

// New creates a ledger backed by s. Call Load before use.
func New(s store.Store, log zerolog.Logger) *Ledger {
	return &Ledger{store: s, log: log}
}

// Load reads the persisted balance, defaulting to zero when absent or
// corrupt. Other read failures are returned and the balance is unchanged.
func (l *Ledger) Load(ctx context.Context) error {
	var b Balance
	if err := store.Load(ctx, l.store, store.SlotCurrencies, &b); err != nil {
		if !store.Recoverable(err) {
			return fmt.Errorf("load currencies: %w", err)
		}
		if !errors.Is(err, store.ErrNotFound) {
			l.log.Warn().Err(err).Msg("currencies unreadable, starting from zero")
		}
		b = Balance{}
	}
	l.balance = b.normalize()
	return nil
}

// Balance returns a snapshot of the counters.
func (l *Ledger) Balance() Balance {
	return l.balance
}

// Subscribe registers fn to be called after every change.
func (l *Ledger) Subscribe(fn func(Balance)) {
	l.observers = append(l.observers, fn)
}

// CreditTokens adds n tokens. n <= 0 is a no-op.
func (l *Ledger) CreditTokens(ctx context.Context, n int) {
	l.credit(ctx, n, &l.balance.Tokens)
}

// CreditFreePlays adds n free plays. n <= 0 is a no-op.
func (l *Ledger) CreditFreePlays(ctx context.Context, n int) {
	l.credit(ctx, n, &l.balance.FreePlays)
}

// CreditCashPence adds n pence of cash. n <= 0 is a no-op.
func (l *Ledger) CreditCashPence(ctx context.Context, n int) {
	l.credit(ctx, n, &l.balance.CashPence)
}

// CreditBonusPence adds n pence of bonus. n <= 0 is a no-op.
func (l *Ledger) CreditBonusPence(ctx context.Context, n int) {
	l.credit(ctx, n, &l.balance.BonusPence)
}

func (l *Ledger) credit(ctx context.Context, n int, counter *int) {
	if n <= 0 {
		return
	}
	*counter += n
	l.persist(ctx)
	l.notify()
}

// Reset zeroes every counter.
func (l *Ledger) Reset(ctx context.Context) {
	l.balance = Balance{}
	l.persist(ctx)
	l.notify()
}

func (l *Ledger) persist(ctx context.Context) {
	if err := store.Save(ctx, l.store, store.SlotCurrencies, l.balance); err != nil {
		l.log.Error().Err(err).Msg("persist currencies")
	}
}

func (l *Ledger) notify() {
	for _, fn := range l.observers {
		fn(l.balance)
	}
}
