package models

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

// Fund is the owning entity for all extracted records.
type Fund struct {
	bun.BaseModel `bun:"table:funds,alias:f"`

	ID          int64     `bun:"id,pk,autoincrement"`
	Name        string    `bun:"name,notnull"`
	GPName      string    `bun:"gp_name"`
	FundType    string    `bun:"fund_type"`
	VintageYear int       `bun:"vintage_year"`
	CreatedAt   time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

// CapitalCall is capital drawn from LPs. Amount is always positive.
type CapitalCall struct {
	bun.BaseModel `bun:"table:capital_calls,alias:cc"`

	ID          int64           `bun:"id,pk,autoincrement"`
	FundID      int64           `bun:"fund_id,notnull"`
	DocumentID  int64           `bun:"document_id"`
	CallDate    time.Time       `bun:"call_date,notnull"`
	CallType    string          `bun:"call_type"`
	Amount      decimal.Decimal `bun:"amount,notnull,type:numeric(18,2)"`
	Description string          `bun:"description"`
}

// Distribution is capital returned to LPs. Amount is always positive.
type Distribution struct {
	bun.BaseModel `bun:"table:distributions,alias:dist"`

	ID               int64           `bun:"id,pk,autoincrement"`
	FundID           int64           `bun:"fund_id,notnull"`
	DocumentID       int64           `bun:"document_id"`
	DistributionDate time.Time       `bun:"distribution_date,notnull"`
	DistributionType string          `bun:"distribution_type"`
	Amount           decimal.Decimal `bun:"amount,notnull,type:numeric(18,2)"`
	IsRecallable     bool            `bun:"is_recallable,notnull,default:false"`
	Description      string          `bun:"description"`
}

// Adjustment rebalances either the contribution side or the distribution side
// of the fund. Amount is signed.
type Adjustment struct {
	bun.BaseModel `bun:"table:adjustments,alias:adj"`

	ID                       int64           `bun:"id,pk,autoincrement"`
	FundID                   int64           `bun:"fund_id,notnull"`
	DocumentID               int64           `bun:"document_id"`
	AdjustmentDate           time.Time       `bun:"adjustment_date,notnull"`
	AdjustmentType           string          `bun:"adjustment_type"`
	Category                 string          `bun:"category"`
	Amount                   decimal.Decimal `bun:"amount,notnull,type:numeric(18,2)"`
	IsContributionAdjustment bool            `bun:"is_contribution_adjustment,notnull,default:false"`
	Description              string          `bun:"description"`
}

// Document tracks one uploaded report and its processing outcome.
type Document struct {
	bun.BaseModel `bun:"table:documents,alias:d"`

	ID            int64             `bun:"id,pk,autoincrement"`
	FundID        int64             `bun:"fund_id,notnull"`
	FileName      string            `bun:"file_name,notnull"`
	FilePath      string            `bun:"file_path"`
	UploadDate    time.Time         `bun:"upload_date,nullzero,notnull,default:current_timestamp"`
	ParsingStatus ParsingStatus     `bun:"parsing_status,notnull,default:'pending'"`
	ErrorMessage  string            `bun:"error_message"`
	PageCount     int               `bun:"page_count"`
	ChunkCount    int               `bun:"chunk_count"`
	Stats         *ProcessingReport `bun:"stats,type:jsonb"`
}

// TextChunk is one retrieval unit of document prose. Rows are immutable;
// reprocessing a document supersedes its chunks instead of updating them.
type TextChunk struct {
	bun.BaseModel `bun:"table:text_chunks,alias:tc"`

	ID         int64     `bun:"id,pk,autoincrement"`
	ChunkUID   string    `bun:"chunk_uid,notnull,unique"`
	DocumentID int64     `bun:"document_id,notnull"`
	FundID     int64     `bun:"fund_id,notnull"`
	PageNumber int       `bun:"page_number,notnull"`
	ChunkIndex int       `bun:"chunk_index,notnull"`
	Content    string    `bun:"content,notnull"`
	Embedding  []float32 `bun:"embedding,type:jsonb"`
	CreatedAt  time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}
