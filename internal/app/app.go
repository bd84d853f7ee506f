package app

import (
	"context"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/markdave123-py/botgpt/internal/api/handlers"
	"github.com/markdave123-py/botgpt/internal/config"
	"github.com/markdave123-py/botgpt/internal/core"
	db "github.com/markdave123-py/botgpt/internal/core/database"
	"github.com/markdave123-py/botgpt/internal/core/ingestion_engine"
	"github.com/markdave123-py/botgpt/internal/core/llm"
	objectclient "github.com/markdave123-py/botgpt/internal/core/object-client"
	"github.com/markdave123-py/botgpt/internal/services"
)

const shutdownTimeout = 15 * time.Second

type App struct {
	Config       *config.Config
	Log          *zap.Logger
	DBClient     *db.DatabaseClient
	ObjectClient core.ObjectClient
	LLM          core.Completer
	DocProcessor *ingestion_engine.DocumentIngestor
	Server       *Server
}

func NewApp(ctx context.Context, cfg *config.Config, log *zap.Logger) (*App, error) {
	appCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	dbClient, err := db.NewDatabaseClient(appCtx, cfg)
	if err != nil {
		return nil, err
	}
	log.Info("database initialized and ready", zap.String("driver", dbClient.Driver()))

	a := &App{Config: cfg, Log: log, DBClient: dbClient}

	// the object client stays a nil interface when archiving is off
	if cfg.ArchiveEnabled() {
		objClient, err := objectclient.NewS3Client(appCtx, cfg, log)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.ObjectClient = objClient
		log.Info("object client initialized and ready", zap.String("bucket", cfg.BucketName))
	} else {
		log.Info("object storage not configured, originals will not be archived")
	}

	completer, err := llm.NewCompleter(appCtx, cfg, log)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("couldn't initialize the llm provider: %w", err)
	}
	a.LLM = completer
	log.Info("llm provider ready", zap.String("provider", completer.Name()), zap.String("model", cfg.LLMModel))

	useReadability := false
	documentExtractor := ingestion_engine.NewDocconvExtractor(useReadability)

	ingCfg := &ingestion_engine.IngestConfig{
		ChunkSize:    cfg.ChunkSize,
		ChunkOverlap: cfg.ChunkOverlap,
	}
	docIngestor, err := ingestion_engine.NewDocumentIngestor(dbClient, a.ObjectClient, documentExtractor, ingCfg, log)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.DocProcessor = docIngestor

	convCfg := services.ConversationConfig{
		ContextTokens:    cfg.ContextTokens,
		ReplyTokens:      cfg.ReplyTokens,
		TopK:             cfg.RetrievalTopK,
		IncludeZeroScore: cfg.IncludeZeroScore(),
		MaxRetries:       cfg.ModelMaxRetries,
		RetryBaseDelay:   cfg.ModelRetryBaseDelay,
		ModelTimeout:     cfg.LLMTimeout,
	}
	userSvc := services.NewUserService(dbClient)
	docSvc := services.NewDocumentService(dbClient, docIngestor, log)
	convSvc := services.NewConversationService(dbClient, completer, convCfg, log)

	a.Server = NewServer(cfg, log, Handlers{
		Health:        handlers.NewHealthHandler(dbClient, completer.Name(), log),
		Users:         handlers.NewUserHandler(userSvc, log),
		Documents:     handlers.NewDocumentHandler(docSvc, log),
		Conversations: handlers.NewConversationHandler(convSvc, log),
	})
	return a, nil
}

// Run serves HTTP and runs the archive workers until ctx is cancelled or
// one of them fails, then shuts the server down gracefully.
func (a *App) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(a.Server.Start)
	g.Go(func() error {
		return a.DocProcessor.Run(gctx, a.Config.ArchiveWorkers)
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), shutdownTimeout)
		defer cancel()
		return a.Server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

func (a *App) Close() {
	if c, ok := a.LLM.(io.Closer); ok {
		if err := c.Close(); err != nil {
			a.Log.Warn("closing llm provider", zap.Error(err))
		}
	}
	if a.DBClient != nil {
		_ = a.DBClient.Close()
	}
}
