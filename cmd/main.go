package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/uptrace/bun"

	"github.com/anggi-susanto/fund-perfromance-analysis/internal/chromemdb"
	"github.com/anggi-susanto/fund-perfromance-analysis/internal/config"
	"github.com/anggi-susanto/fund-perfromance-analysis/internal/db"
	"github.com/anggi-susanto/fund-perfromance-analysis/internal/embedding"
	"github.com/anggi-susanto/fund-perfromance-analysis/internal/helper"
	"github.com/anggi-susanto/fund-perfromance-analysis/internal/llmservice"
	"github.com/anggi-susanto/fund-perfromance-analysis/internal/metrics"
	"github.com/anggi-susanto/fund-perfromance-analysis/internal/models"
	"github.com/anggi-susanto/fund-perfromance-analysis/internal/processor"
	"github.com/anggi-susanto/fund-perfromance-analysis/internal/rag"
	"github.com/anggi-susanto/fund-perfromance-analysis/internal/worker"
)

const configFilePath = "./configs/config.yaml"

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).With().Caller().Logger()

	filePath := flag.String("file", "", "Path to a fund report to ingest")
	fundID := flag.Int64("fund", 0, "Fund ID the document or query belongs to")
	query := flag.String("query", "", "Question to answer")
	conversationID := flag.String("conversation", "", "Conversation ID to continue")
	showMetrics := flag.Bool("metrics", false, "Print the metrics breakdown for the fund")
	exportIndex := flag.String("export-index", "", "Export the vector index to an encrypted snapshot file")
	importIndex := flag.String("import-index", "", "Import the vector index from an encrypted snapshot file")
	initDB := flag.Bool("init-db", false, "Create database tables and exit")
	debug := flag.Bool("debug", false, "Verbose logging")
	flag.Parse()

	if *debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	cfg, err := config.LoadConfig(configFilePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Error loading config")
	}

	ctx := context.Background()
	app, err := newApp(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing application")
	}
	defer app.Close()

	switch {
	case *initDB:
		if err := db.InitDB(ctx, app.db); err != nil {
			log.Fatal().Err(err).Msg("Error initializing database")
		}
		log.Info().Msg("Database initialized")

	case *filePath != "":
		if *fundID == 0 {
			log.Fatal().Msg("Ingestion requires -fund")
		}
		ingestDocument(ctx, app, *filePath, *fundID)

	case *showMetrics:
		if *fundID == 0 {
			log.Fatal().Msg("Metrics require -fund")
		}
		breakdown, err := app.calculator.ForFund(ctx, *fundID)
		if err != nil {
			log.Fatal().Err(err).Msg("Error computing metrics")
		}
		helper.PrettyPrint(breakdown)

	case *query != "":
		answerQuery(ctx, app, *query, *fundID, *conversationID)

	case *exportIndex != "":
		if err := app.vectors.Export(*exportIndex); err != nil {
			log.Fatal().Err(err).Msg("Error exporting vector index")
		}

	case *importIndex != "":
		if err := app.vectors.Import(*importIndex); err != nil {
			log.Fatal().Err(err).Msg("Error importing vector index")
		}

	default:
		log.Fatal().Msg("Provide -file to ingest, -query to ask, -metrics for a breakdown, or -init-db")
	}
}

// app holds the process-wide handles: database, embedder, LLM client, vector
// index, worker pool. Everything is constructed exactly once here and passed
// by reference; components never build their own copies per request.
type app struct {
	db         *bun.DB
	vectors    *chromemdb.VectorDBManager
	calculator *metrics.Calculator
	engine     *rag.RAG
	pool       *worker.Pool
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	sqldb, err := db.ConnectDB(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}
	database := db.NewDB(sqldb, cfg.Database.Debug)

	if err := helper.CreateFolder(cfg.RAG.VectorDBPath); err != nil {
		return nil, fmt.Errorf("creating vector db folder: %w", err)
	}
	vectors, err := chromemdb.NewVectorDBManager(cfg.RAG.VectorDBPath, cfg.RAG.CollectionName, cfg.RAG.EncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("opening vector index: %w", err)
	}

	embedder, err := embedding.NewEmbedder(&cfg.EmbedLLM)
	if err != nil {
		return nil, fmt.Errorf("initializing embedder: %w", err)
	}

	llm, err := llmservice.NewClient(&cfg.InferenceLLM, time.Duration(cfg.RAG.GenerationTimeout)*time.Second)
	if err != nil {
		return nil, fmt.Errorf("initializing llm client: %w", err)
	}

	proc := processor.NewProcessor(&processor.BunStore{DB: database}, vectors, embedder, &cfg.RAG)
	calculator := metrics.NewCalculator(database)
	engine := rag.NewRAG(embedder, vectors, calculator, llm, cfg.RAG.TopK)
	pool := worker.NewPool(database, proc, cfg.Worker.QueueSize, 1)

	return &app{
		db:         database,
		vectors:    vectors,
		calculator: calculator,
		engine:     engine,
		pool:       pool,
	}, nil
}

func (a *app) Close() {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	a.pool.Shutdown(shutdownCtx)
	if err := a.db.Close(); err != nil {
		log.Warn().Err(err).Msg("Error closing database")
	}
}

// ingestDocument registers the upload, enqueues processing, and polls status
// until the document reaches a terminal state.
func ingestDocument(ctx context.Context, a *app, filePath string, fundID int64) {
	doc := &models.Document{
		FundID:   fundID,
		FileName: filePath,
		FilePath: filePath,
	}
	if err := db.CreateDocument(ctx, a.db, doc); err != nil {
		log.Fatal().Err(err).Msg("Error registering document")
	}

	job := worker.Job{DocumentID: doc.ID, FilePath: filePath, FundID: fundID}
	if err := a.pool.Enqueue(ctx, job); err != nil {
		log.Fatal().Err(err).Msg("Error enqueueing document")
	}
	log.Info().Int64("document_id", doc.ID).Msg("Document queued for processing")

	for {
		time.Sleep(500 * time.Millisecond)
		current, err := db.GetDocument(ctx, a.db, doc.ID)
		if err != nil {
			log.Fatal().Err(err).Msg("Error polling document status")
		}
		if current.ParsingStatus.Terminal() {
			log.Info().Str("status", string(current.ParsingStatus)).Msg("Processing finished")
			helper.PrettyPrint(current.Stats)
			return
		}
	}
}

func answerQuery(ctx context.Context, a *app, query string, fundID int64, conversationID string) {
	res, err := a.engine.Answer(ctx, query, fundID, conversationID)
	if err != nil {
		log.Fatal().Err(err).Msg("Error answering query")
	}

	log.Info().Str("intent", string(res.Intent)).Dur("took", res.ProcessingTime).Msg("Query answered")
	fmt.Printf("%s\n\n", res.Answer)

	if len(res.Sources) > 0 {
		fmt.Println("Sources:")
		for i, s := range res.Sources {
			fmt.Printf("  [%d] document %d, page %d (score %.3f)\n", i+1, s.DocumentID, s.Page, s.Score)
		}
	}
	if res.Metrics != nil {
		fmt.Println("\nMetrics:")
		fmt.Print(rag.FormatMetrics(res.Metrics))
	}
	if res.Degraded != "" {
		fmt.Printf("\nNote: %s\n", res.Degraded)
	}
}
