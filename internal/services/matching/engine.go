// Package matching implements candidate generation and the deterministic
// matching engine that pairs statement items with ledger transactions.
package matching

import (
	"encoding/json"
	"math"
	"sort"
	"sync"

	"bank-reconciliation-backend/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Config holds the engine tunables. Amount matching is always exact to the
// smallest currency unit; there is no partial-amount matching.
type Config struct {
	// DateSlackDays widens the session period on both sides when selecting
	// the ledger transaction pool.
	DateSlackDays int
	// ExactDateToleranceDays bounds the exact pass (a unique exact-amount
	// candidate within this many days is matched at confidence 100).
	ExactDateToleranceDays int
	// AcceptThreshold is the minimum 0-100 score a scored candidate needs
	// to be committed. Below it the top candidate is only recorded as a
	// suggestion.
	AcceptThreshold float64
	// DateWeight and DescriptionWeight form the weighted confidence score.
	DateWeight        float64
	DescriptionWeight float64
}

func DefaultConfig() Config {
	return Config{
		DateSlackDays:          5,
		ExactDateToleranceDays: 1,
		AcceptThreshold:        70,
		DateWeight:             0.40,
		DescriptionWeight:      0.60,
	}
}

type Engine struct {
	cfg    Config
	scorer DescriptionScorer
}

// NewEngine builds an engine. A nil scorer falls back to token-set Jaccard.
func NewEngine(cfg Config, scorer DescriptionScorer) *Engine {
	if scorer == nil {
		scorer = JaccardScorer{}
	}
	return &Engine{cfg: cfg, scorer: scorer}
}

// Breakdown explains how a confidence score was produced. It is persisted
// as JSON on the matched item for review.
type Breakdown struct {
	Pass             string  `json:"pass"` // "exact" or "scored"
	DateScore        float64 `json:"date_score"`
	DescriptionScore float64 `json:"description_score"`
	FinalScore       float64 `json:"final_score"`
	CandidateCount   int     `json:"candidate_count"`
	TransactionID    string  `json:"transaction_id"`
}

func (b Breakdown) JSON() datatypes.JSON {
	raw, _ := json.Marshal(b)
	return raw
}

// Assignment is one item/transaction pairing the engine decided to commit.
type Assignment struct {
	Item        *models.StatementItem
	Transaction *models.LedgerTransaction
	Confidence  decimal.Decimal
	Breakdown   Breakdown
}

// Result is the outcome of one auto-match run. Suggestions cover items that
// stayed unmatched but had a ranked top candidate below the threshold.
type Result struct {
	Assignments []Assignment
	Suggestions []models.ItemSuggestion
}

type scoredCandidate struct {
	item           *models.StatementItem
	tx             *models.LedgerTransaction
	score          float64
	dateScore      float64
	descScore      float64
	dateDiff       float64
	candidateCount int
}

// Run matches the given unmatched items against the unmatched transaction
// pool. Pure: callers persist the returned assignments. Re-running over an
// already-matched session therefore yields an empty result, because its
// items and transactions are no longer in the inputs.
func (e *Engine) Run(items []*models.StatementItem, pool []*models.LedgerTransaction, window Window) *Result {
	// Deterministic claim order regardless of input order.
	items = sortedItems(items)

	claimedItems := make(map[uuid.UUID]bool)
	claimedTxs := make(map[uuid.UUID]bool)
	result := &Result{}

	// Exact pass: a unique exact-amount candidate within the exact date
	// tolerance wins outright.
	for _, item := range items {
		cands := GenerateCandidates(item, unclaimed(pool, claimedTxs), window)
		var exact []*models.LedgerTransaction
		for _, tx := range cands {
			if daysBetween(item.Date, tx.Date) <= float64(e.cfg.ExactDateToleranceDays) {
				exact = append(exact, tx)
			}
		}
		if len(exact) != 1 {
			continue
		}
		tx := exact[0]
		claimedItems[item.ID] = true
		claimedTxs[tx.ID] = true
		result.Assignments = append(result.Assignments, Assignment{
			Item:        item,
			Transaction: tx,
			Confidence:  decimal.NewFromInt(100),
			Breakdown: Breakdown{
				Pass:           "exact",
				DateScore:      1,
				FinalScore:     100,
				CandidateCount: len(cands),
				TransactionID:  tx.ID.String(),
			},
		})
	}

	// Scored pass: fan out candidate scoring per item, then a serialized
	// greedy assignment over the globally sorted candidate list.
	remaining := make([]*models.StatementItem, 0, len(items))
	for _, item := range items {
		if !claimedItems[item.ID] {
			remaining = append(remaining, item)
		}
	}
	availablePool := unclaimed(pool, claimedTxs)

	perItem := make([][]scoredCandidate, len(remaining))
	var wg sync.WaitGroup
	for i, item := range remaining {
		wg.Add(1)
		go func(i int, item *models.StatementItem) {
			defer wg.Done()
			perItem[i] = e.scoreItem(item, availablePool, window)
		}(i, item)
	}
	wg.Wait()

	var all []scoredCandidate
	for _, sc := range perItem {
		all = append(all, sc...)
	}
	sortCandidates(all)

	suggested := make(map[uuid.UUID]bool)
	for _, c := range all {
		if claimedItems[c.item.ID] || claimedTxs[c.tx.ID] {
			continue
		}
		if c.score >= e.cfg.AcceptThreshold {
			claimedItems[c.item.ID] = true
			claimedTxs[c.tx.ID] = true
			result.Assignments = append(result.Assignments, Assignment{
				Item:        c.item,
				Transaction: c.tx,
				Confidence:  roundScore(c.score),
				Breakdown: Breakdown{
					Pass:             "scored",
					DateScore:        c.dateScore,
					DescriptionScore: c.descScore,
					FinalScore:       c.score,
					CandidateCount:   c.candidateCount,
					TransactionID:    c.tx.ID.String(),
				},
			})
			continue
		}
		// Below threshold: record the top-ranked candidate as a suggestion
		// for manual review.
		if suggested[c.item.ID] {
			continue
		}
		suggested[c.item.ID] = true
		result.Suggestions = append(result.Suggestions, models.ItemSuggestion{
			ItemID:        c.item.ID,
			TransactionID: c.tx.ID,
			Score:         roundScore(c.score),
			Details: Breakdown{
				Pass:             "scored",
				DateScore:        c.dateScore,
				DescriptionScore: c.descScore,
				FinalScore:       c.score,
				CandidateCount:   c.candidateCount,
				TransactionID:    c.tx.ID.String(),
			}.JSON(),
		})
	}

	return result
}

func (e *Engine) scoreItem(item *models.StatementItem, pool []*models.LedgerTransaction, window Window) []scoredCandidate {
	cands := GenerateCandidates(item, pool, window)
	out := make([]scoredCandidate, 0, len(cands))
	for _, tx := range cands {
		dateScore := dateProximity(item.Date, tx.Date, window)
		descScore := e.scorer.Score(item.Description, tx.Description)
		out = append(out, scoredCandidate{
			item:           item,
			tx:             tx,
			score:          100 * (e.cfg.DateWeight*dateScore + e.cfg.DescriptionWeight*descScore),
			dateScore:      dateScore,
			descScore:      descScore,
			dateDiff:       daysBetween(item.Date, tx.Date),
			candidateCount: len(cands),
		})
	}
	return out
}

// sortCandidates orders by descending score, then smaller absolute date
// difference, then lowest transaction id, then lowest item id. The order is
// fully deterministic so repeated runs assign identically.
func sortCandidates(cs []scoredCandidate) {
	sort.Slice(cs, func(i, j int) bool {
		if cs[i].score != cs[j].score {
			return cs[i].score > cs[j].score
		}
		if cs[i].dateDiff != cs[j].dateDiff {
			return cs[i].dateDiff < cs[j].dateDiff
		}
		if cs[i].tx.ID != cs[j].tx.ID {
			return cs[i].tx.ID.String() < cs[j].tx.ID.String()
		}
		return cs[i].item.ID.String() < cs[j].item.ID.String()
	})
}

func sortedItems(items []*models.StatementItem) []*models.StatementItem {
	out := make([]*models.StatementItem, len(items))
	copy(out, items)
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out
}

func unclaimed(pool []*models.LedgerTransaction, claimed map[uuid.UUID]bool) []*models.LedgerTransaction {
	out := make([]*models.LedgerTransaction, 0, len(pool))
	for _, tx := range pool {
		if !claimed[tx.ID] {
			out = append(out, tx)
		}
	}
	return out
}

func roundScore(score float64) decimal.Decimal {
	return decimal.NewFromFloat(math.Round(score*100) / 100)
}
