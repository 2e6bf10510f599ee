package matching

import (
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"payment-reconciliation/internal/domain"
)

// Signal labels recorded in Match.Signals, in evaluation order.
const (
	SignalExactAmount       = "exact amount match"
	SignalSameDay           = "same-day timing"
	SignalNearTiming        = "near timing (within 3 days)"
	SignalExactReference    = "exact reference match"
	SignalPartialReference  = "partial reference match"
	SignalExternalID        = "external id found in reference"
	SignalPhone             = "phone number match"
	SignalHighNameSimilar   = "high name similarity"
	SignalModerateNameSimil = "moderate name similarity"
	SignalChannel           = "mobile money received on incoming channel"
)

var amountTolerance = decimal.New(1, -2) // 0.01

const (
	sameDayWindow = 24 * time.Hour
	nearWindow    = 3 * 24 * time.Hour

	highNameSimilarity     = 0.8
	moderateNameSimilarity = 0.6
)

// Weights holds the contribution of each signal to the confidence score.
type Weights struct {
	ExactAmount        float64 `toml:"exact_amount"`
	SameDay            float64 `toml:"same_day"`
	NearTiming         float64 `toml:"near_timing"`
	ExactReference     float64 `toml:"exact_reference"`
	PartialReference   float64 `toml:"partial_reference"`
	ExternalID         float64 `toml:"external_id"`
	Phone              float64 `toml:"phone"`
	HighNameSimilarity float64 `toml:"high_name_similarity"`
	ModerateNameSimil  float64 `toml:"moderate_name_similarity"`
	Channel            float64 `toml:"channel"`
}

// DefaultWeights returns the production signal weights.
func DefaultWeights() Weights {
	return Weights{
		ExactAmount:        0.40,
		SameDay:            0.30,
		NearTiming:         0.20,
		ExactReference:     0.30,
		PartialReference:   0.15,
		ExternalID:         0.20,
		Phone:              0.25,
		HighNameSimilarity: 0.20,
		ModerateNameSimil:  0.10,
		Channel:            0.10,
	}
}

// Scorer computes the confidence that a payment and a transaction describe
// the same real-world event. It is safe for concurrent use.
type Scorer struct {
	weights Weights
	phones  PhoneNormalizer
}

// NewScorer creates a scorer with the given weights and phone rules.
func NewScorer(weights Weights, phones PhoneNormalizer) *Scorer {
	return &Scorer{weights: weights, phones: phones}
}

// Score evaluates one pair. The caller guarantees both records belong to
// the same organization.
func (s *Scorer) Score(p domain.Payment, t domain.Transaction) domain.Match {
	var (
		total   float64
		signals []string
	)
	fire := func(signal string, weight float64) {
		total += weight
		signals = append(signals, signal)
	}

	if p.Amount.Sub(t.Amount).Abs().LessThan(amountTolerance) {
		fire(SignalExactAmount, s.weights.ExactAmount)
	}

	gap := p.PaymentDate.Sub(t.TransactionDate)
	if gap < 0 {
		gap = -gap
	}
	switch {
	case gap <= sameDayWindow:
		fire(SignalSameDay, s.weights.SameDay)
	case gap <= nearWindow:
		fire(SignalNearTiming, s.weights.NearTiming)
	}

	payRef := strings.TrimSpace(p.Reference)
	txnRef := strings.TrimSpace(t.Reference)
	if payRef != "" && txnRef != "" {
		switch {
		case payRef == txnRef:
			fire(SignalExactReference, s.weights.ExactReference)
		case strings.Contains(payRef, txnRef) || strings.Contains(txnRef, payRef):
			fire(SignalPartialReference, s.weights.PartialReference)
		}
	}

	externalID := strings.TrimSpace(t.ExternalID)
	if payRef != "" && externalID != "" &&
		(strings.Contains(payRef, externalID) || strings.Contains(externalID, payRef)) {
		fire(SignalExternalID, s.weights.ExternalID)
	}

	payPhone := s.phones.Normalize(p.CounterpartyPhone)
	if payPhone != "" && payPhone == s.phones.Normalize(t.CounterpartyPhone) {
		fire(SignalPhone, s.weights.Phone)
	}

	if strings.TrimSpace(p.CounterpartyName) != "" && strings.TrimSpace(t.CounterpartyName) != "" {
		similarity := Similarity(p.CounterpartyName, t.CounterpartyName)
		switch {
		case similarity > highNameSimilarity:
			fire(SignalHighNameSimilar, s.weights.HighNameSimilarity)
		case similarity > moderateNameSimilarity:
			fire(SignalModerateNameSimil, s.weights.ModerateNameSimil)
		}
	}

	if p.PaymentMethod == domain.PaymentMethodMobileMoney && t.Direction == domain.DirectionIncoming {
		fire(SignalChannel, s.weights.Channel)
	}

	return domain.Match{
		PaymentID:     p.ID,
		TransactionID: t.ID,
		Confidence:    capConfidence(total),
		Signals:       signals,
	}
}

// capConfidence clamps to [0,1] and rounds away float accumulation noise
// (0.4+0.3+0.2 must compare equal to 0.9).
func capConfidence(total float64) float64 {
	total = math.Round(total*10000) / 10000
	return math.Max(0, math.Min(1, total))
}
