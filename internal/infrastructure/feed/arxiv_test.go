package feed

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/major/arxivwatch/internal/domain"
)

const feedTemplate = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0" xmlns:dc="http://purl.org/dc/elements/1.1/" xmlns:arxiv="http://arxiv.org/schemas/atom">
  <channel>
    <title>cs.AI updates on arXiv.org</title>
    <link>https://rss.arxiv.org/rss/cs.AI</link>
    %s
  </channel>
</rss>`

const sampleItem = `<item>
      <title>  Adaptive Widget Learning  </title>
      <link>https://arxiv.org/abs/2608.01234</link>
      <description>arXiv:2608.01234v1 Announce Type: new
Abstract: &lt;p&gt;We study widgets.&lt;/p&gt;</description>
      <guid isPermaLink="false">oai:arXiv.org:2608.01234v1</guid>
      <category>cs.AI</category>
      <dc:creator>Ada Lovelace, Alan Turing</dc:creator>
      <pubDate>Thu, 20 Aug 2026 00:00:00 -0400</pubDate>
      <arxiv:announce_type>new</arxiv:announce_type>
    </item>`

func serveFeed(t *testing.T, body string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestFetchParsesEntry(t *testing.T) {
	t.Parallel()

	server := serveFeed(t, fmt.Sprintf(feedTemplate, sampleItem))
	source := NewArxivSource([]string{server.URL}, nil)

	papers, err := source.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	if len(papers) != 1 {
		t.Fatalf("expected 1 paper, got %d", len(papers))
	}

	paper := papers[0]
	if paper.ID != "2608.01234" {
		t.Fatalf("unexpected id: %s", paper.ID)
	}
	if paper.Title != "Adaptive Widget Learning" {
		t.Fatalf("unexpected title: %q", paper.Title)
	}
	if paper.Abstract != "We study widgets." {
		t.Fatalf("unexpected abstract: %q", paper.Abstract)
	}
	if paper.AbstractURL != "https://arxiv.org/abs/2608.01234" {
		t.Fatalf("unexpected abstract url: %s", paper.AbstractURL)
	}
	if paper.PDFURL != "https://arxiv.org/pdf/2608.01234.pdf" {
		t.Fatalf("unexpected pdf url: %s", paper.PDFURL)
	}
	if len(paper.Authors) != 2 || paper.Authors[0] != "Ada Lovelace" || paper.Authors[1] != "Alan Turing" {
		t.Fatalf("unexpected authors: %v", paper.Authors)
	}
	if len(paper.Categories) != 1 || paper.Categories[0] != "cs.AI" {
		t.Fatalf("unexpected categories: %v", paper.Categories)
	}
	if paper.AnnounceType != "new" {
		t.Fatalf("unexpected announce type: %q", paper.AnnounceType)
	}
	if paper.PublishedAt.IsZero() {
		t.Fatalf("published date not parsed")
	}
}

func TestFetchSkipsEntriesWithoutID(t *testing.T) {
	t.Parallel()

	malformed := `<item><title>No identifier here</title></item>`
	server := serveFeed(t, fmt.Sprintf(feedTemplate, malformed+sampleItem))
	source := NewArxivSource([]string{server.URL}, nil)

	papers, err := source.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	if len(papers) != 1 || papers[0].ID != "2608.01234" {
		t.Fatalf("expected only the well-formed entry, got %v", papers)
	}
}

func TestFetchCollapsesDuplicatesAcrossFeeds(t *testing.T) {
	t.Parallel()

	body := fmt.Sprintf(feedTemplate, sampleItem)
	first := serveFeed(t, body)
	second := serveFeed(t, body)
	source := NewArxivSource([]string{first.URL, second.URL}, nil)

	papers, err := source.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	if len(papers) != 1 {
		t.Fatalf("expected duplicate ids to collapse, got %d papers", len(papers))
	}
}

func TestFetchContinuesPastUnavailableFeed(t *testing.T) {
	t.Parallel()

	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusServiceUnavailable)
	}))
	t.Cleanup(broken.Close)
	healthy := serveFeed(t, fmt.Sprintf(feedTemplate, sampleItem))

	source := NewArxivSource([]string{broken.URL, healthy.URL}, nil)

	papers, err := source.Fetch(context.Background())
	if !errors.Is(err, domain.ErrFeedUnavailable) {
		t.Fatalf("expected ErrFeedUnavailable, got %v", err)
	}
	if len(papers) != 1 {
		t.Fatalf("expected papers from the healthy feed, got %d", len(papers))
	}
}

func TestCleanAbstractStripsLegacyPrefix(t *testing.T) {
	t.Parallel()

	got := cleanAbstract("arXiv:2401.12345v2 [cs.LG] A compact study of things.")
	if got != "A compact study of things." {
		t.Fatalf("unexpected abstract: %q", got)
	}
}

func TestPDFURLFallsBackToCanonicalForm(t *testing.T) {
	t.Parallel()

	if got := pdfURL("https://example.org/paper", "2608.00001"); got != "https://arxiv.org/pdf/2608.00001.pdf" {
		t.Fatalf("unexpected pdf url: %s", got)
	}
}
