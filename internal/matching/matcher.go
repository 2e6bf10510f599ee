package matching

import (
	"context"
	"runtime"
	"sort"
	"sync"

	"payment-reconciliation/internal/domain"
	"payment-reconciliation/internal/observability"
)

// Thresholds partition match confidence into tiers.
type Thresholds struct {
	// Pairs at or below Minimum are discarded before conflict resolution.
	Minimum   float64 `toml:"minimum"`
	Suggested float64 `toml:"suggested"`
	Automatic float64 `toml:"automatic"`
}

// DefaultThresholds returns the production tier boundaries.
func DefaultThresholds() Thresholds {
	return Thresholds{
		Minimum:   0.5,
		Suggested: 0.7,
		Automatic: 0.9,
	}
}

// Matcher resolves scored pairs into a one-to-one set of matches.
type Matcher struct {
	scorer  *Scorer
	minimum float64
	workers int
}

// NewMatcher creates a matcher. workers <= 0 means one worker per CPU.
func NewMatcher(scorer *Scorer, minimum float64, workers int) *Matcher {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Matcher{scorer: scorer, minimum: minimum, workers: workers}
}

type candidate struct {
	match domain.Match
	order int // payment index * len(transactions) + transaction index
}

// Match scores every payment against every transaction of the same
// organization and greedily accepts the highest-confidence pairs so that no
// payment or transaction is used twice. On cancellation it returns ctx.Err()
// and no matches.
func (m *Matcher) Match(ctx context.Context, payments []domain.Payment, transactions []domain.Transaction) ([]domain.Match, error) {
	if len(payments) == 0 || len(transactions) == 0 {
		return []domain.Match{}, nil
	}

	candidates, err := m.score(ctx, payments, transactions)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].match.Confidence != candidates[j].match.Confidence {
			return candidates[i].match.Confidence > candidates[j].match.Confidence
		}
		return candidates[i].order < candidates[j].order
	})

	claimedPayments := make(map[string]bool, len(payments))
	claimedTransactions := make(map[string]bool, len(transactions))
	accepted := make([]domain.Match, 0, min(len(payments), len(transactions)))
	for _, c := range candidates {
		if claimedPayments[c.match.PaymentID] || claimedTransactions[c.match.TransactionID] {
			continue
		}
		claimedPayments[c.match.PaymentID] = true
		claimedTransactions[c.match.TransactionID] = true
		accepted = append(accepted, c.match)
	}
	return accepted, nil
}

// score fans payment rows out to the worker pool. Each worker writes only
// its own rows, so results need no locking and keep input order.
func (m *Matcher) score(ctx context.Context, payments []domain.Payment, transactions []domain.Transaction) ([]candidate, error) {
	rows := make([][]candidate, len(payments))
	jobs := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < min(m.workers, len(payments)); w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				rows[i] = m.scoreRow(ctx, i, payments[i], transactions)
			}
		}()
	}

feed:
	for i := range payments {
		select {
		case jobs <- i:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var out []candidate
	for _, row := range rows {
		out = append(out, row...)
	}
	observability.PairsScored.Add(float64(len(payments) * len(transactions)))
	return out, nil
}

func (m *Matcher) scoreRow(ctx context.Context, i int, p domain.Payment, transactions []domain.Transaction) []candidate {
	var row []candidate
	for j, t := range transactions {
		if ctx.Err() != nil {
			return nil
		}
		if p.OrganizationID != t.OrganizationID {
			continue
		}
		match := m.scorer.Score(p, t)
		if match.Confidence <= m.minimum {
			continue
		}
		row = append(row, candidate{match: match, order: i*len(transactions) + j})
	}
	return row
}
