// Package tableparse classifies raw tables detected in fund reports and
// extracts typed transaction records from them.
package tableparse

import (
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/anggi-susanto/fund-perfromance-analysis/internal/models"
)

// TableKind is the classified meaning of a detected table.
type TableKind string

const (
	KindCapitalCall  TableKind = "capital_call"
	KindDistribution TableKind = "distribution"
	KindAdjustment   TableKind = "adjustment"
	KindUnknown      TableKind = "unknown"
)

// Keyword weights. Adjustment keywords outweigh the others deliberately:
// "adjustment"/"rebalance" language is frequently a substring match against
// capital-call vocabulary and must not lose the tie to a plain capital call.
const (
	adjustmentKeywordWeight = 2
	standardKeywordWeight   = 1

	// minClassificationScore is the confidence floor below which a table is
	// Unknown rather than force-classified.
	minClassificationScore = 1

	// classificationRowSample is how many leading rows (header included)
	// contribute text to keyword scoring.
	classificationRowSample = 3
)

var capitalCallKeywords = []string{
	"capital call", "call", "contribution", "drawdown", "commitment",
	"called", "funding", "capital contributions",
}

var distributionKeywords = []string{
	"distribution", "return", "dividend", "payment", "proceeds",
	"distributions", "paid out", "returned",
}

var adjustmentKeywords = []string{
	"adjustment", "rebalance", "correction", "recallable", "clawback",
	"adjustments", "reconciliation", "true-up",
}

// ColumnMapping resolves canonical fields to header positions. -1 means the
// field has no column and extraction falls back to positional scanning.
type ColumnMapping struct {
	Date        int
	Amount      int
	Description int
	Type        int
	Category    int
	Recallable  int
}

// Classification is the full classifier output, kept around for reporting.
type Classification struct {
	Kind    TableKind
	Scores  map[TableKind]int
	Columns ColumnMapping
}

// Classify keyword-scores a table against each kind using the header and the
// first data rows, then maps headers to canonical fields. Classification is a
// pure function of the table content, so repeated calls agree.
func Classify(table models.RawTable) Classification {
	text := sampleText(table)

	scores := map[TableKind]int{
		KindAdjustment:   scoreKeywords(text, adjustmentKeywords, adjustmentKeywordWeight),
		KindDistribution: scoreKeywords(text, distributionKeywords, standardKeywordWeight),
		KindCapitalCall:  scoreKeywords(text, capitalCallKeywords, standardKeywordWeight),
	}

	kind := KindUnknown
	best := 0
	// Fixed evaluation order doubles as the tie-break: adjustment, then
	// distribution, then capital call.
	for _, k := range []TableKind{KindAdjustment, KindDistribution, KindCapitalCall} {
		if scores[k] > best {
			best = scores[k]
			kind = k
		}
	}
	if best < minClassificationScore {
		kind = KindUnknown
	}

	return Classification{
		Kind:    kind,
		Scores:  scores,
		Columns: MapColumns(table.Header),
	}
}

func sampleText(table models.RawTable) string {
	var b strings.Builder
	appendRow := func(cells []string) {
		for _, c := range cells {
			if c == "" {
				continue
			}
			b.WriteString(strings.ToLower(c))
			b.WriteString(" ")
		}
	}
	appendRow(table.Header)
	for i, row := range table.Rows {
		if i >= classificationRowSample-1 {
			break
		}
		appendRow(row)
	}
	return b.String()
}

func scoreKeywords(text string, keywords []string, weight int) int {
	score := 0
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			score += weight
		}
	}
	return score
}

// Canonical field vocabularies for header mapping.
var (
	dateHeaderWords        = []string{"date", "dated", "when", "period"}
	amountHeaderWords      = []string{"amount", "value", "sum", "total", "$", "usd", "price"}
	descriptionHeaderWords = []string{"description", "note", "memo", "comment", "detail", "purpose"}
	typeHeaderWords        = []string{"type", "kind", "class"}
	categoryHeaderWords    = []string{"category", "classification"}
	recallableHeaderWords  = []string{"recallable", "recall", "clawback"}
)

// MapColumns fuzzy-matches normalized header text to canonical fields, so
// "Call Date" and "Date" both land on the date column. First match wins;
// category is resolved before type so a "Category" header is not consumed by
// the broader type vocabulary.
func MapColumns(header []string) ColumnMapping {
	m := ColumnMapping{Date: -1, Amount: -1, Description: -1, Type: -1, Category: -1, Recallable: -1}
	for i, h := range header {
		norm := strings.ToLower(strings.TrimSpace(h))
		if norm == "" {
			continue
		}
		switch {
		case m.Date < 0 && matchesAny(norm, dateHeaderWords):
			m.Date = i
		case m.Amount < 0 && matchesAny(norm, amountHeaderWords):
			m.Amount = i
		case m.Recallable < 0 && matchesAny(norm, recallableHeaderWords):
			m.Recallable = i
		case m.Category < 0 && matchesAny(norm, categoryHeaderWords):
			m.Category = i
		case m.Description < 0 && matchesAny(norm, descriptionHeaderWords):
			m.Description = i
		case m.Type < 0 && matchesAny(norm, typeHeaderWords):
			m.Type = i
		}
	}
	return m
}

func matchesAny(header string, words []string) bool {
	for _, w := range words {
		if strings.Contains(header, w) {
			return true
		}
	}
	// Fuzzy fallback catches near-misses like "Descripton" or "Amnt".
	return len(fuzzy.FindNormalizedFold(header, words)) > 0
}
