package wallet

import (
	"context"
	"sync"
	"time"

	"github.com/AlexZinkM/pump-desk/internal/common"
	"github.com/AlexZinkM/pump-desk/internal/model"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const balanceConcurrency = 8

// BalanceFetcher looks up a SOL balance in lamports
type BalanceFetcher interface {
	GetBalance(ctx context.Context, address string) (uint64, error)
}

// RateSource returns the SOL/USD rate as a decimal string
type RateSource interface {
	GetSOLtoUSDRate(ctx context.Context) (string, error)
}

// FetchBalances queries every wallet's balance in parallel. A failed lookup is
// recorded with the error marker and never affects other wallets.
func (s *Store) FetchBalances(ctx context.Context, fetcher BalanceFetcher) map[string]model.WalletBalance {
	wallets := s.List()
	results := make([]model.WalletBalance, len(wallets))

	var g errgroup.Group
	g.SetLimit(balanceConcurrency)
	for i, w := range wallets {
		g.Go(func() error {
			lamports, err := fetcher.GetBalance(ctx, w.PublicKey)
			if err != nil {
				results[i] = model.WalletBalance{WalletID: w.ID, SOL: model.BalanceError, Error: err.Error()}
				return nil
			}
			results[i] = model.WalletBalance{WalletID: w.ID, SOL: common.LamportsToSOL(lamports)}
			return nil
		})
	}
	_ = g.Wait()

	out := make(map[string]model.WalletBalance, len(results))
	for _, r := range results {
		out[r.WalletID] = r
	}
	return out
}

// TotalSOL sums the numeric balances, skipping error markers
func TotalSOL(balances map[string]model.WalletBalance) decimal.Decimal {
	total := decimal.Zero
	for _, b := range balances {
		if !b.OK() {
			continue
		}
		v, err := decimal.NewFromString(b.SOL)
		if err != nil {
			continue
		}
		total = total.Add(v)
	}
	return total
}

// Tracker keeps a periodically refreshed balance snapshot
type Tracker struct {
	store    *Store
	fetcher  BalanceFetcher
	rates    RateSource
	interval time.Duration
	logger   *zap.Logger

	mu       sync.RWMutex
	snapshot model.BalancesResponse
}

// NewTracker creates a tracker. rates may be nil to skip USD valuation.
func NewTracker(store *Store, fetcher BalanceFetcher, rates RateSource, interval time.Duration, logger *zap.Logger) *Tracker {
	return &Tracker{
		store:    store,
		fetcher:  fetcher,
		rates:    rates,
		interval: interval,
		logger:   logger,
		snapshot: model.BalancesResponse{Balances: map[string]model.WalletBalance{}, TotalSOL: "0"},
	}
}

// Refresh fetches all balances now and stores the result as the latest snapshot
func (t *Tracker) Refresh(ctx context.Context) model.BalancesResponse {
	balances := t.store.FetchBalances(ctx, t.fetcher)
	total := TotalSOL(balances)

	resp := model.BalancesResponse{
		Balances:  balances,
		TotalSOL:  total.String(),
		UpdatedAt: time.Now().UTC().Format(time.RFC3339),
	}

	if t.rates != nil {
		rate, err := t.rates.GetSOLtoUSDRate(ctx)
		if err != nil {
			t.logger.Warn("Failed to get SOL rate", zap.Error(err))
		} else if r, err := decimal.NewFromString(rate); err == nil {
			resp.Rate = rate
			resp.TotalUSD = total.Mul(r).StringFixed(2)
		}
	}

	t.mu.Lock()
	t.snapshot = resp
	t.mu.Unlock()
	return resp
}

// Snapshot returns the last refreshed balances
func (t *Tracker) Snapshot() model.BalancesResponse {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.snapshot
}

// Run refreshes immediately and then every interval until ctx is done
func (t *Tracker) Run(ctx context.Context) {
	t.Refresh(ctx)

	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.Refresh(ctx)
		}
	}
}
