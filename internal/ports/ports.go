package ports

import (
	"context"

	"github.com/major/arxivwatch/internal/domain"
)

// PaperSource pulls the current batch of papers from upstream feeds.
// Individual feed failures are folded into the returned error while the
// papers from healthy feeds are still returned.
type PaperSource interface {
	Fetch(ctx context.Context) ([]domain.Paper, error)
}

// StateStore persists the set of notified paper IDs between invocations.
// A missing store yields an empty set, which signals a first run.
type StateStore interface {
	Load() (*domain.NotifiedSet, error)
	Save(set *domain.NotifiedSet) error
}

// Downloader fetches a paper's PDF and returns a page-limited excerpt.
type Downloader interface {
	Download(ctx context.Context, paper domain.Paper) ([]byte, error)
}

// Summarizer generates a natural-language summary from a PDF excerpt.
type Summarizer interface {
	Summarize(ctx context.Context, paper domain.Paper, pdf []byte) (domain.Summary, error)
}

// Notifier delivers a notification for one summarized paper.
type Notifier interface {
	Notify(ctx context.Context, paper domain.Paper, summary domain.Summary) error
}
