// Package rag answers natural-language questions about fund performance by
// routing them through intent classification, vector retrieval, and the
// metrics calculator, then grounding the generation call in what was found.
package rag

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/anggi-susanto/fund-perfromance-analysis/internal/chromemdb"
	"github.com/anggi-susanto/fund-perfromance-analysis/internal/embedding"
	"github.com/anggi-susanto/fund-perfromance-analysis/internal/intent"
	"github.com/anggi-susanto/fund-perfromance-analysis/internal/llmservice"
	"github.com/anggi-susanto/fund-perfromance-analysis/internal/metrics"
	"github.com/anggi-susanto/fund-perfromance-analysis/internal/models"
)

// historyTurns is how many previous turns enter the prompt.
const historyTurns = 3

// Searcher is the vector-index collaborator.
type Searcher interface {
	Search(ctx context.Context, queryEmbedding []float32, topK int, fundID int64) ([]chromemdb.SearchResult, error)
}

// MetricsSource computes a fund's metrics breakdown.
type MetricsSource interface {
	ForFund(ctx context.Context, fundID int64) (*metrics.Breakdown, error)
}

// Source cites one retrieved chunk used to ground the answer.
type Source struct {
	DocumentID int64   `json:"document_id"`
	Page       int     `json:"page"`
	ChunkIndex int     `json:"chunk_index"`
	Score      float32 `json:"score"`
	Excerpt    string  `json:"excerpt"`
}

// AnswerResult is the full query engine output.
type AnswerResult struct {
	Answer         string             `json:"answer"`
	Intent         intent.Kind        `json:"intent"`
	Sources        []Source           `json:"sources,omitempty"`
	Metrics        *metrics.Breakdown `json:"metrics,omitempty"`
	ConversationID string             `json:"conversation_id"`
	// Degraded notes a path that failed while the rest of the answer stood.
	Degraded string `json:"degraded,omitempty"`

	ProcessingTime time.Duration `json:"processing_time"`
}

// RetrievalError means the retrieval path failed and nothing else could
// answer the question.
type RetrievalError struct{ Err error }

func (e *RetrievalError) Error() string { return fmt.Sprintf("retrieval failed: %v", e.Err) }
func (e *RetrievalError) Unwrap() error { return e.Err }

// GenerationError means the LLM call failed and no metrics were available to
// build a partial answer from.
type GenerationError struct{ Err error }

func (e *GenerationError) Error() string { return fmt.Sprintf("generation failed: %v", e.Err) }
func (e *GenerationError) Unwrap() error { return e.Err }

// RAG is the query engine. Stateless per call except for conversation
// lookup; the embedder and generator are process-wide handles injected once.
type RAG struct {
	embedder      embedding.Embedder
	index         Searcher
	metrics       MetricsSource
	llm           llmservice.Generator
	conversations *ConversationStore
	topK          int
}

func NewRAG(embedder embedding.Embedder, index Searcher, metricsSource MetricsSource, llm llmservice.Generator, topK int) *RAG {
	if topK <= 0 {
		topK = 5
	}
	return &RAG{
		embedder:      embedder,
		index:         index,
		metrics:       metricsSource,
		llm:           llm,
		conversations: NewConversationStore(),
		topK:          topK,
	}
}

var thinkTagRe = regexp.MustCompile(models.ThinkTag)

// Answer routes one question. Turns within a conversation are serialized and
// appended in submission order; queries on different conversations run
// concurrently without ordering.
func (r *RAG) Answer(ctx context.Context, query string, fundID int64, conversationID string) (*AnswerResult, error) {
	start := time.Now()
	conv := r.conversations.GetOrCreate(conversationID, fundID)
	conv.mu.Lock()
	defer conv.mu.Unlock()

	kind := intent.Classify(query)
	res := &AnswerResult{Intent: kind, ConversationID: conv.ID}

	var breakdown *metrics.Breakdown
	if kind.NeedsMetrics() && fundID > 0 {
		b, err := r.metrics.ForFund(ctx, fundID)
		if err != nil {
			// Metrics trouble is recoverable while retrieval can still
			// ground an answer.
			res.Degraded = fmt.Sprintf("metrics unavailable: %v", err)
			log.Warn().Err(err).Int64("fund_id", fundID).Msg("metrics path failed")
		} else {
			breakdown = b
		}
	}

	var sources []Source
	if kind.NeedsRetrieval() {
		found, err := r.retrieve(ctx, query, fundID)
		if err != nil {
			if breakdown == nil {
				return nil, &RetrievalError{Err: err}
			}
			res.Degraded = fmt.Sprintf("retrieval unavailable: %v", err)
			log.Warn().Err(err).Msg("retrieval path failed, answering from metrics only")
		}
		sources = found
	}
	res.Sources = sources
	res.Metrics = breakdown

	prompt := buildPrompt(query, sources, breakdown, conv.Recent(historyTurns))
	answer, err := r.llm.Generate(ctx, models.AnalystSystemPrompt, prompt)
	if err != nil {
		if breakdown == nil {
			return nil, &GenerationError{Err: err}
		}
		// Partial answer from structured metrics beats failing the request.
		res.Answer = metricsOnlyAnswer(breakdown)
		res.Degraded = fmt.Sprintf("generation unavailable: %v", err)
	} else {
		res.Answer = strings.TrimSpace(thinkTagRe.ReplaceAllString(answer, ""))
	}

	res.ProcessingTime = time.Since(start)
	conv.Append(Turn{
		Query:   query,
		Answer:  res.Answer,
		Sources: res.Sources,
		Metrics: res.Metrics,
		AskedAt: start,
	})
	return res, nil
}

func (r *RAG) retrieve(ctx context.Context, query string, fundID int64) ([]Source, error) {
	vec, err := r.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}
	hits, err := r.index.Search(ctx, vec, r.topK, fundID)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })

	sources := make([]Source, len(hits))
	for i, h := range hits {
		sources[i] = Source{
			DocumentID: h.DocumentID,
			Page:       h.Page,
			ChunkIndex: h.ChunkIndex,
			Score:      h.Score,
			Excerpt:    h.Content,
		}
	}
	return sources, nil
}

// buildPrompt assembles retrieved sources verbatim, the metrics block and
// recent history into the answer prompt.
func buildPrompt(query string, sources []Source, breakdown *metrics.Breakdown, history []Turn) string {
	var ctxStr strings.Builder
	for i, s := range sources {
		fmt.Fprintf(&ctxStr, "[Source %d] (document %d, page %d, score %.3f)\n%s\n\n",
			i+1, s.DocumentID, s.Page, s.Score, s.Excerpt)
	}
	if ctxStr.Len() == 0 {
		ctxStr.WriteString("(no documents retrieved)\n")
	}

	metricsStr := ""
	if breakdown != nil {
		metricsStr = "\nComputed metrics:\n" + FormatMetrics(breakdown)
	}

	historyStr := ""
	if len(history) > 0 {
		var b strings.Builder
		b.WriteString("\nPrevious conversation:\n")
		for _, t := range history {
			fmt.Fprintf(&b, "user: %s\nassistant: %s\n", t.Query, t.Answer)
		}
		historyStr = b.String()
	}

	return fmt.Sprintf(models.AnswerPromptTemplate, ctxStr.String(), metricsStr, historyStr, query)
}

// FormatMetrics renders a breakdown as key-value lines for prompt context
// and for metrics-only degraded answers. Undefined IRR is labeled undefined.
func FormatMetrics(b *metrics.Breakdown) string {
	var s strings.Builder
	fmt.Fprintf(&s, "- PIC (paid-in capital): %s\n", b.PaidInCapital.StringFixed(2))
	fmt.Fprintf(&s, "- Cumulative distributions: %s\n", b.CumulativeDistributions.StringFixed(2))
	fmt.Fprintf(&s, "- DPI: %s\n", b.DPI.String())
	if b.IRR != nil {
		fmt.Fprintf(&s, "- IRR: %s\n", b.IRR.String())
	} else {
		fmt.Fprintf(&s, "- IRR: undefined (%s)\n", b.IRRUndefined)
	}
	if b.NAVTracked {
		fmt.Fprintf(&s, "- TVPI: %s\n", b.TVPI.String())
	} else {
		fmt.Fprintf(&s, "- TVPI: %s (equals DPI; residual NAV not tracked)\n", b.TVPI.String())
	}
	return s.String()
}

func metricsOnlyAnswer(b *metrics.Breakdown) string {
	return "The answer service is temporarily unavailable, so here are the computed metrics:\n" + FormatMetrics(b)
}
