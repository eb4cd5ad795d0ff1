package rag

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/anggi-susanto/fund-perfromance-analysis/internal/metrics"
)

// Turn is one question/answer exchange in a conversation.
type Turn struct {
	Query   string
	Answer  string
	Sources []Source
	Metrics *metrics.Breakdown
	AskedAt time.Time
}

// Conversation is an ordered exchange history for one fund. Turns are
// appended in submission order; the per-conversation mutex serializes
// answering so concurrent submissions cannot interleave.
type Conversation struct {
	ID     string
	FundID int64

	mu    sync.Mutex
	turns []Turn
}

// Append records a completed turn.
func (c *Conversation) Append(t Turn) {
	c.turns = append(c.turns, t)
}

// Recent returns up to n of the latest turns, oldest first.
func (c *Conversation) Recent(n int) []Turn {
	if n <= 0 || len(c.turns) == 0 {
		return nil
	}
	if len(c.turns) < n {
		n = len(c.turns)
	}
	out := make([]Turn, n)
	copy(out, c.turns[len(c.turns)-n:])
	return out
}

// ConversationStore keeps conversations for the process lifetime. Durable
// conversation history is an external collaborator choice; this store only
// guarantees ordering and identity within the process.
type ConversationStore struct {
	mu    sync.RWMutex
	convs map[string]*Conversation
}

func NewConversationStore() *ConversationStore {
	return &ConversationStore{convs: make(map[string]*Conversation)}
}

// GetOrCreate returns the conversation for id, creating one (with a fresh
// UUID when id is empty) on first use.
func (s *ConversationStore) GetOrCreate(id string, fundID int64) *Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id == "" {
		id = uuid.NewString()
	}
	if c, ok := s.convs[id]; ok {
		return c
	}
	c := &Conversation{ID: id, FundID: fundID}
	s.convs[id] = c
	return c
}
