package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/major/arxivwatch/internal/domain"
	"github.com/major/arxivwatch/internal/ports"
)

// PipelineDeps wires all driven adapters into the orchestration pipeline.
type PipelineDeps struct {
	Source     ports.PaperSource
	Store      ports.StateStore
	Downloader ports.Downloader
	Summarizer ports.Summarizer
	Notifier   ports.Notifier
	Logger     *slog.Logger
}

// Pipeline implements one watch-and-notify invocation: fetch feeds,
// filter against the notified set, enrich and notify each new paper,
// then persist the set exactly once. It is the only component that
// mutates the notified set.
type Pipeline struct {
	source     ports.PaperSource
	store      ports.StateStore
	downloader ports.Downloader
	summarizer ports.Summarizer
	notifier   ports.Notifier
	logger     *slog.Logger
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		source:     deps.Source,
		store:      deps.Store,
		downloader: deps.Downloader,
		summarizer: deps.Summarizer,
		notifier:   deps.Notifier,
		logger:     logger,
	}
}

// Run executes a single invocation. Per-paper failures are recorded in
// the result and never abort the batch; the returned error is non-nil
// only when the notified-ID state cannot be loaded or saved.
func (p *Pipeline) Run(ctx context.Context) (domain.RunResult, error) {
	var result domain.RunResult

	set, err := p.store.Load()
	if err != nil {
		return result, fmt.Errorf("load state: %w", err)
	}
	firstRun := set.Len() == 0

	papers, err := p.source.Fetch(ctx)
	if err != nil {
		// Source-scoped: the healthy feeds already contributed their
		// papers, so the run continues with what it has.
		p.logger.Warn("some feeds unavailable", "error", err)
	}
	if len(papers) == 0 {
		p.logger.Info("no papers found in feeds")
		return result, nil
	}

	selected := selectPapers(papers, set, firstRun)
	p.logger.Info("filtered papers",
		"total_papers", len(papers),
		"selected", len(selected),
		"is_first_run", firstRun,
	)
	if firstRun && len(selected) > 0 {
		p.logger.Info("first run detected, processing only the latest paper but marking all as seen")
	}

	outcomes := make(map[string]domain.PaperOutcome, len(selected))
	for _, paper := range selected {
		outcome := p.process(ctx, paper)
		if outcome.Status == domain.StatusNotified {
			set.Add(paper.ID)
			p.logger.Info("successfully processed paper", "paper_id", paper.ID)
		} else {
			p.logger.Error("failed to process paper",
				"paper_id", paper.ID,
				"title", paper.Title,
				"stage", string(outcome.Stage),
				"error", outcome.Err,
			)
		}
		outcomes[paper.ID] = outcome
	}

	for _, paper := range papers {
		outcome, ok := outcomes[paper.ID]
		if !ok {
			outcome = domain.PaperOutcome{PaperID: paper.ID, Title: paper.Title, Status: domain.StatusSkipped}
		}
		result.Outcomes = append(result.Outcomes, outcome)
	}

	// First-run containment: every fetched paper is marked as seen, not
	// just the one selected for processing, regardless of its outcome.
	if firstRun {
		for _, paper := range papers {
			set.Add(paper.ID)
		}
	}

	if err := p.store.Save(set); err != nil {
		return result, fmt.Errorf("save state: %w", err)
	}

	p.logger.Info("run completed",
		"papers_fetched", len(papers),
		"notified", result.Notified(),
		"failed", result.Failed(),
		"total_notified", set.Len(),
	)
	return result, nil
}

// process runs the enrichment and notification stages for one paper.
// It never touches the notified set.
func (p *Pipeline) process(ctx context.Context, paper domain.Paper) domain.PaperOutcome {
	p.logger.Info("processing paper", "paper_id", paper.ID, "title", paper.Title)

	pdf, err := p.downloader.Download(ctx, paper)
	if err != nil {
		return failedOutcome(paper, err)
	}

	summary, err := p.summarizer.Summarize(ctx, paper, pdf)
	if err != nil {
		return failedOutcome(paper, err)
	}
	if summary.TotalTokens > 0 {
		p.logger.Info("generated summary",
			"paper_id", paper.ID,
			"model", summary.Model,
			"input_tokens", summary.InputTokens,
			"output_tokens", summary.OutputTokens,
			"total_tokens", summary.TotalTokens,
		)
	}

	if err := p.notifier.Notify(ctx, paper, summary); err != nil {
		return failedOutcome(paper, err)
	}

	return domain.PaperOutcome{PaperID: paper.ID, Title: paper.Title, Status: domain.StatusNotified}
}

func failedOutcome(paper domain.Paper, err error) domain.PaperOutcome {
	return domain.PaperOutcome{
		PaperID: paper.ID,
		Title:   paper.Title,
		Status:  domain.StatusFailed,
		Stage:   stageOf(err),
		Err:     err,
	}
}

func stageOf(err error) domain.Stage {
	switch {
	case errors.Is(err, domain.ErrContentExtraction):
		return domain.StageExtract
	case errors.Is(err, domain.ErrSummarization):
		return domain.StageSummarize
	case errors.Is(err, domain.ErrDelivery):
		return domain.StageNotify
	default:
		return domain.StageDownload
	}
}
