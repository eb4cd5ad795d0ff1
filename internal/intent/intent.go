// Package intent classifies user questions so the query engine knows which
// answer paths to run.
package intent

import (
	"regexp"
	"strings"
)

// Kind is the classified question intent.
type Kind string

const (
	Definition  Kind = "definition"
	Calculation Kind = "calculation"
	Retrieval   Kind = "retrieval"
	// Mixed means the question matched more than one category. The engine
	// answers by running every matched path, not by guessing one.
	Mixed Kind = "mixed"
)

// Static keyword tables. Kept as package data rather than scattered literals
// so the classifier stays a pure function over fixed vocabularies.
var calculationVerbs = []string{
	"calculate", "compute", "what is the", "how much",
}

// metricNames alone also suggest a calculation, unless the question is
// phrased definitionally ("what does DPI mean" asks for words, not numbers).
var metricNames = []string{
	"dpi", "irr", "tvpi", "moic", "pic", "paid-in", "multiple",
}

var definitionKeywords = []string{
	"what does", "what is a", "define", "explain", "meaning", "mean",
}

var retrievalKeywords = []string{
	"show", "list", "get", "find", "retrieve", "when", "which",
	"capital call", "distribution", "adjustment",
}

// dateRangeRe catches date-range phrasing like "in 2024" or "between
// January and March", which signals a retrieval question.
var dateRangeRe = regexp.MustCompile(`\b(in|during|between|since|before|after)\s+(19|20)\d{2}\b|\bq[1-4]\b`)

// Classify keyword-matches the question against each category. Multiple hits
// resolve to Mixed; no hits default to Retrieval so the engine still grounds
// the answer in retrieved text.
func Classify(query string) Kind {
	q := strings.ToLower(query)

	isDef := matchesAny(q, definitionKeywords)
	isCalc := matchesAny(q, calculationVerbs) || (matchesAny(q, metricNames) && !isDef)
	isRetr := matchesAny(q, retrievalKeywords) || dateRangeRe.MatchString(q)

	matched := 0
	for _, hit := range []bool{isCalc, isDef, isRetr} {
		if hit {
			matched++
		}
	}

	switch {
	case matched > 1:
		return Mixed
	case isCalc:
		return Calculation
	case isDef:
		return Definition
	case isRetr:
		return Retrieval
	default:
		return Retrieval
	}
}

// NeedsMetrics reports whether the metrics path should run for this intent.
func (k Kind) NeedsMetrics() bool {
	return k == Calculation || k == Mixed
}

// NeedsRetrieval reports whether the retrieval path should run.
func (k Kind) NeedsRetrieval() bool {
	return k != Calculation
}

func matchesAny(q string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(q, kw) {
			return true
		}
	}
	return false
}
