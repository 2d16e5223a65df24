package app

import (
	"context"
	"log/slog"

	"github.com/major/arxivwatch/internal/config"
	"github.com/major/arxivwatch/internal/infrastructure/email"
	"github.com/major/arxivwatch/internal/infrastructure/feed"
	"github.com/major/arxivwatch/internal/infrastructure/llm"
	"github.com/major/arxivwatch/internal/infrastructure/pdf"
	"github.com/major/arxivwatch/internal/infrastructure/storage"
	"github.com/major/arxivwatch/internal/logging"
	"github.com/major/arxivwatch/internal/usecase"
)

// Application wires configs to the pipeline use case.
type Application struct {
	cfg      config.Config
	pipeline *usecase.Pipeline
}

// New builds a runnable application instance.
func New(cfg config.Config, baseLogger *slog.Logger) *Application {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	source := feed.NewArxivSource(cfg.Feeds.ExpandedURLs(), baseLogger.With("component", "feed"))
	store := storage.NewFileStore(cfg.Storage.Path, baseLogger.With("component", "storage"))
	downloader := pdf.NewDownloader(nil, cfg.Gemini.PDFPages, baseLogger.With("component", "pdf"))
	summarizer := llm.NewGeminiClient(cfg.Gemini)
	notifier := email.NewNotifier(cfg.SMTP, baseLogger.With("component", "email"))

	pipeline := usecase.NewPipeline(usecase.PipelineDeps{
		Source:     source,
		Store:      store,
		Downloader: downloader,
		Summarizer: summarizer,
		Notifier:   notifier,
		Logger:     baseLogger.With("component", "pipeline"),
	})
	return &Application{cfg: cfg, pipeline: pipeline}
}

// Run performs a single pipeline invocation. Per-paper failures are
// reported inside the pipeline; the returned error is reserved for the
// state contract, so a non-nil error here should fail the process.
func (a *Application) Run(ctx context.Context) error {
	if a.pipeline == nil {
		return nil
	}

	_, err := a.pipeline.Run(ctx)
	return err
}
