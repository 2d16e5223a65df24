package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"testing"
	"time"

	"github.com/major/arxivwatch/internal/domain"
)

type fakeSource struct {
	papers []domain.Paper
	err    error
}

func (f *fakeSource) Fetch(ctx context.Context) ([]domain.Paper, error) {
	return f.papers, f.err
}

type fakeStore struct {
	set     *domain.NotifiedSet
	loadErr error
	saveErr error
	saved   []string
	saves   int
}

func (f *fakeStore) Load() (*domain.NotifiedSet, error) {
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	if f.set == nil {
		f.set = domain.NewNotifiedSet()
	}
	return f.set, nil
}

func (f *fakeStore) Save(set *domain.NotifiedSet) error {
	f.saves++
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saved = set.SortedIDs()
	return nil
}

type fakeDownloader struct {
	fail  map[string]error
	calls []string
}

func (f *fakeDownloader) Download(ctx context.Context, paper domain.Paper) ([]byte, error) {
	f.calls = append(f.calls, paper.ID)
	if err := f.fail[paper.ID]; err != nil {
		return nil, err
	}
	return []byte("%PDF-excerpt"), nil
}

type fakeSummarizer struct {
	fail  map[string]error
	calls []string
}

func (f *fakeSummarizer) Summarize(ctx context.Context, paper domain.Paper, pdf []byte) (domain.Summary, error) {
	f.calls = append(f.calls, paper.ID)
	if err := f.fail[paper.ID]; err != nil {
		return domain.Summary{}, err
	}
	return domain.Summary{Text: "summary of " + paper.ID}, nil
}

type fakeNotifier struct {
	fail  map[string]error
	calls []string
}

func (f *fakeNotifier) Notify(ctx context.Context, paper domain.Paper, summary domain.Summary) error {
	f.calls = append(f.calls, paper.ID)
	if err := f.fail[paper.ID]; err != nil {
		return err
	}
	return nil
}

type testPipeline struct {
	pipeline   *Pipeline
	store      *fakeStore
	downloader *fakeDownloader
	summarizer *fakeSummarizer
	notifier   *fakeNotifier
}

func newTestPipeline(source *fakeSource, store *fakeStore) *testPipeline {
	tp := &testPipeline{
		store:      store,
		downloader: &fakeDownloader{fail: map[string]error{}},
		summarizer: &fakeSummarizer{fail: map[string]error{}},
		notifier:   &fakeNotifier{fail: map[string]error{}},
	}
	tp.pipeline = NewPipeline(PipelineDeps{
		Source:     source,
		Store:      store,
		Downloader: tp.downloader,
		Summarizer: tp.summarizer,
		Notifier:   tp.notifier,
		Logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	return tp
}

func paperBatch() []domain.Paper {
	base := time.Date(2026, time.August, 20, 12, 0, 0, 0, time.UTC)
	return []domain.Paper{
		{ID: "2608.00003", Title: "P3", PublishedAt: base.Add(2 * time.Hour)},
		{ID: "2608.00002", Title: "P2", PublishedAt: base.Add(time.Hour)},
		{ID: "2608.00001", Title: "P1", PublishedAt: base},
	}
}

func TestFirstRunNotifiesOnlyLatestButMarksAll(t *testing.T) {
	t.Parallel()

	tp := newTestPipeline(&fakeSource{papers: paperBatch()}, &fakeStore{})

	result, err := tp.pipeline.Run(context.Background())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if got := tp.notifier.calls; len(got) != 1 || got[0] != "2608.00003" {
		t.Fatalf("expected exactly one notify call for the newest paper, got %v", got)
	}

	want := []string{"2608.00001", "2608.00002", "2608.00003"}
	if !slices.Equal(tp.store.saved, want) {
		t.Fatalf("expected all fetched ids marked, got %v", tp.store.saved)
	}
	if tp.store.saves != 1 {
		t.Fatalf("expected exactly one save, got %d", tp.store.saves)
	}

	if result.Notified() != 1 || result.Skipped() != 2 || result.Failed() != 0 {
		t.Fatalf("unexpected outcome counts: notified=%d skipped=%d failed=%d",
			result.Notified(), result.Skipped(), result.Failed())
	}
}

func TestSecondRunSelectsNothing(t *testing.T) {
	t.Parallel()

	store := &fakeStore{set: domain.NewNotifiedSet("2608.00001", "2608.00002", "2608.00003")}
	tp := newTestPipeline(&fakeSource{papers: paperBatch()}, store)

	result, err := tp.pipeline.Run(context.Background())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if len(tp.notifier.calls) != 0 {
		t.Fatalf("expected no notify calls, got %v", tp.notifier.calls)
	}
	if result.Skipped() != 3 {
		t.Fatalf("expected all papers skipped, got %d", result.Skipped())
	}

	want := []string{"2608.00001", "2608.00002", "2608.00003"}
	if !slices.Equal(store.saved, want) {
		t.Fatalf("expected persisted set unchanged, got %v", store.saved)
	}
}

func TestEnrichmentFailureIsIsolated(t *testing.T) {
	t.Parallel()

	// Seeded with an unrelated id so this is not a first run.
	store := &fakeStore{set: domain.NewNotifiedSet("2607.99999")}
	tp := newTestPipeline(&fakeSource{papers: paperBatch()}, store)
	tp.downloader.fail["2608.00002"] = fmt.Errorf("%w: 404", domain.ErrPDFUnavailable)

	result, err := tp.pipeline.Run(context.Background())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	want := []string{"2608.00003", "2608.00001"}
	if !slices.Equal(tp.notifier.calls, want) {
		t.Fatalf("expected notifications for papers 1 and 3, got %v", tp.notifier.calls)
	}

	if slices.Contains(store.saved, "2608.00002") {
		t.Fatalf("failed paper must not be marked, saved=%v", store.saved)
	}
	if !slices.Contains(store.saved, "2608.00003") || !slices.Contains(store.saved, "2608.00001") {
		t.Fatalf("notified papers must be marked, saved=%v", store.saved)
	}

	if result.Failed() != 1 || result.Notified() != 2 {
		t.Fatalf("unexpected outcome counts: notified=%d failed=%d", result.Notified(), result.Failed())
	}
	for _, o := range result.Outcomes {
		if o.PaperID == "2608.00002" {
			if o.Status != domain.StatusFailed || o.Stage != domain.StageDownload {
				t.Fatalf("expected failed download outcome, got status=%s stage=%s", o.Status, o.Stage)
			}
		}
	}
}

func TestNotifyFailureLeavesPaperUnmarked(t *testing.T) {
	t.Parallel()

	store := &fakeStore{set: domain.NewNotifiedSet("2607.99999")}
	tp := newTestPipeline(&fakeSource{papers: paperBatch()}, store)
	tp.notifier.fail["2608.00003"] = fmt.Errorf("%w: smtp 554", domain.ErrDelivery)

	result, err := tp.pipeline.Run(context.Background())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if slices.Contains(store.saved, "2608.00003") {
		t.Fatalf("paper with failed delivery must stay eligible for retry, saved=%v", store.saved)
	}

	for _, o := range result.Outcomes {
		if o.PaperID == "2608.00003" && o.Stage != domain.StageNotify {
			t.Fatalf("expected notify stage on failure, got %s", o.Stage)
		}
	}
}

func TestSummarizeFailureStage(t *testing.T) {
	t.Parallel()

	store := &fakeStore{set: domain.NewNotifiedSet("2607.99999")}
	tp := newTestPipeline(&fakeSource{papers: paperBatch()[:1]}, store)
	tp.summarizer.fail["2608.00003"] = fmt.Errorf("%w: model overloaded", domain.ErrSummarization)

	result, err := tp.pipeline.Run(context.Background())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if len(result.Outcomes) != 1 {
		t.Fatalf("expected one outcome, got %d", len(result.Outcomes))
	}
	if got := result.Outcomes[0]; got.Status != domain.StatusFailed || got.Stage != domain.StageSummarize {
		t.Fatalf("expected failed summarize outcome, got status=%s stage=%s", got.Status, got.Stage)
	}
}

func TestEmptyFeedIsANoOp(t *testing.T) {
	t.Parallel()

	store := &fakeStore{}
	tp := newTestPipeline(&fakeSource{}, store)

	result, err := tp.pipeline.Run(context.Background())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if len(result.Outcomes) != 0 {
		t.Fatalf("expected no outcomes, got %d", len(result.Outcomes))
	}
	if len(tp.downloader.calls) != 0 || len(tp.notifier.calls) != 0 {
		t.Fatalf("expected no adapter calls on empty feed")
	}
	if store.saves != 0 {
		t.Fatalf("expected no state write on empty feed, got %d saves", store.saves)
	}
}

func TestFeedFailureDoesNotAbortRun(t *testing.T) {
	t.Parallel()

	source := &fakeSource{
		papers: paperBatch()[:1],
		err:    fmt.Errorf("%w: fetch https://rss.arxiv.org/rss/cs.CE: 503", domain.ErrFeedUnavailable),
	}
	store := &fakeStore{set: domain.NewNotifiedSet("2607.99999")}
	tp := newTestPipeline(source, store)

	result, err := tp.pipeline.Run(context.Background())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if result.Notified() != 1 {
		t.Fatalf("expected paper from healthy feed to be notified, got %d", result.Notified())
	}
}

func TestLoadFailureIsRunFatal(t *testing.T) {
	t.Parallel()

	store := &fakeStore{loadErr: fmt.Errorf("%w: parse state.json", domain.ErrStateUnavailable)}
	tp := newTestPipeline(&fakeSource{papers: paperBatch()}, store)

	_, err := tp.pipeline.Run(context.Background())
	if !errors.Is(err, domain.ErrStateUnavailable) {
		t.Fatalf("expected ErrStateUnavailable, got %v", err)
	}
	if len(tp.notifier.calls) != 0 {
		t.Fatalf("no notifications may be sent without trustworthy state")
	}
}

func TestSaveFailureIsRunFatal(t *testing.T) {
	t.Parallel()

	store := &fakeStore{saveErr: fmt.Errorf("%w: disk full", domain.ErrStateUnavailable)}
	tp := newTestPipeline(&fakeSource{papers: paperBatch()}, store)

	_, err := tp.pipeline.Run(context.Background())
	if !errors.Is(err, domain.ErrStateUnavailable) {
		t.Fatalf("expected ErrStateUnavailable, got %v", err)
	}
}
