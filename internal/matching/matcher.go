// Package matching links an extracted document to at most one journey using
// an ordered rule cascade: exact match on the normalized journey (LR) number
// first, then the normalized load (LCU) ID. No fuzzy matching.
package matching

import (
	"fmt"

	"github.com/smallbiznis/freightaudit/internal/extraction"
	"github.com/smallbiznis/freightaudit/internal/identifier"
	journeydomain "github.com/smallbiznis/freightaudit/internal/journey/domain"
)

// Outcome classifies the result of one match attempt. It reflects whether a
// journey was found, never how confident the OCR extraction was.
type Outcome string

const (
	OutcomeMatched     Outcome = "matched"
	OutcomeNeedsReview Outcome = "needs_review"
	OutcomeSkipped     Outcome = "skipped"
)

// Fixed scores per outcome, kept for reviewer-facing continuity with the
// legacy scoring scheme.
const (
	ScoreMatched     = 100
	ScoreNeedsReview = 50
	ScoreSkipped     = 0
)

// Result is the outcome of matching one document against the candidate set.
type Result struct {
	Outcome Outcome
	Journey *journeydomain.Journey
	Score   int
	Reason  string
}

// Index holds journeys keyed by their normalized natural keys. Build it once
// per batch so every file in the batch matches against the same snapshot.
type Index struct {
	byJourneyNumber map[string]*journeydomain.Journey
	byLoadID        map[string]*journeydomain.Journey
	duplicates      []string
}

// NewIndex indexes candidates in input order. When two journeys share a
// normalized journey number (a data-quality anomaly upstream), the earliest
// wins and the duplicate key is reported via DuplicateJourneyNumbers so the
// caller can surface it.
func NewIndex(journeys []journeydomain.Journey) *Index {
	ix := &Index{
		byJourneyNumber: make(map[string]*journeydomain.Journey, len(journeys)),
		byLoadID:        make(map[string]*journeydomain.Journey, len(journeys)),
	}
	for i := range journeys {
		j := &journeys[i]
		if key := identifier.Normalize(j.JourneyNumber); key != "" {
			if _, exists := ix.byJourneyNumber[key]; exists {
				ix.duplicates = append(ix.duplicates, key)
			} else {
				ix.byJourneyNumber[key] = j
			}
		}
		if key := identifier.Normalize(j.LoadID); key != "" {
			if _, exists := ix.byLoadID[key]; !exists {
				ix.byLoadID[key] = j
			}
		}
	}
	return ix
}

// DuplicateJourneyNumbers lists normalized journey numbers that appeared on
// more than one candidate.
func (ix *Index) DuplicateJourneyNumbers() []string { return ix.duplicates }

// Match runs the rule cascade for one document. Deterministic for a fixed
// index and document.
func (ix *Index) Match(doc extraction.Document) Result {
	rawLR, _ := doc.JourneyNumber()
	rawLoad, _ := doc.LoadID()
	lr := identifier.Normalize(rawLR)
	load := identifier.Normalize(rawLoad)

	if lr == "" && load == "" {
		return Result{
			Outcome: OutcomeSkipped,
			Score:   ScoreSkipped,
			Reason:  "no journey number or load id could be extracted from the document",
		}
	}

	if lr == "" {
		// A load ID alone never establishes a match; it is kept in the
		// reason purely for the reviewer's benefit.
		return Result{
			Outcome: OutcomeNeedsReview,
			Score:   ScoreNeedsReview,
			Reason:  fmt.Sprintf("no journey number extracted; load id %q requires manual confirmation", rawLoad),
		}
	}

	if j, ok := ix.byJourneyNumber[lr]; ok {
		return Result{
			Outcome: OutcomeMatched,
			Journey: j,
			Score:   ScoreMatched,
			Reason:  fmt.Sprintf("journey number %q matched journey %s (document value %q)", lr, j.JourneyNumber, rawLR),
		}
	}

	if load != "" {
		if j, ok := ix.byLoadID[load]; ok {
			return Result{
				Outcome: OutcomeMatched,
				Journey: j,
				Score:   ScoreMatched,
				Reason:  fmt.Sprintf("load id %q matched journey %s after journey number %q found no journey", load, j.JourneyNumber, lr),
			}
		}
	}

	return Result{
		Outcome: OutcomeNeedsReview,
		Score:   ScoreNeedsReview,
		Reason:  fmt.Sprintf("no journey matched extracted identifiers (journey number %q, load id %q)", rawLR, rawLoad),
	}
}
