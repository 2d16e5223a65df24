package feed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"

	"github.com/major/arxivwatch/internal/domain"
	"github.com/major/arxivwatch/internal/ports"
)

const userAgent = "arxivwatch/1.0"

// Matches the "arXiv:2401.12345v1 [cs.AI]" prefix arXiv prepends to
// RSS descriptions; newer feeds omit the bracketed category.
var abstractPrefixExpr = regexp.MustCompile(`^arXiv:\d+\.\d+v?\d*\s*(\[[^\]]+\]\s*)?`)

var announcePrefixExpr = regexp.MustCompile(`^Announce Type:\s*[\w-]+\s*`)

// ArxivSource fetches papers from one or more arXiv RSS feeds.
type ArxivSource struct {
	parser *gofeed.Parser
	urls   []string
	logger *slog.Logger
}

var _ ports.PaperSource = (*ArxivSource)(nil)

// NewArxivSource wires a feed parser for the given feed URLs.
func NewArxivSource(urls []string, logger *slog.Logger) *ArxivSource {
	parser := gofeed.NewParser()
	parser.UserAgent = userAgent
	return &ArxivSource{parser: parser, urls: urls, logger: logger}
}

// Fetch walks every configured feed and aggregates their papers,
// collapsing duplicate IDs across feeds to the first occurrence.
// Per-feed failures are joined into the returned error while papers
// from the remaining feeds are still returned.
func (s *ArxivSource) Fetch(ctx context.Context) ([]domain.Paper, error) {
	var (
		papers []domain.Paper
		errs   []error
	)
	seen := map[string]struct{}{}

	for _, u := range s.urls {
		parsed, err := s.parser.ParseURLWithContext(u, ctx)
		if err != nil {
			errs = append(errs, fmt.Errorf("%w: fetch %s: %v", domain.ErrFeedUnavailable, u, err))
			continue
		}

		count := 0
		for _, item := range parsed.Items {
			paper, ok := parseItem(item)
			if !ok {
				s.debug("skipping malformed entry", "feed", u, "title", item.Title)
				continue
			}
			if _, dup := seen[paper.ID]; dup {
				continue
			}
			seen[paper.ID] = struct{}{}
			papers = append(papers, paper)
			count++
		}
		s.debug("fetched papers from feed", "feed", u, "count", count)
	}

	return papers, errors.Join(errs...)
}

// parseItem converts one feed entry into a Paper. Entries with no
// derivable ID are reported as malformed and skipped.
func parseItem(item *gofeed.Item) (domain.Paper, bool) {
	id := paperID(item)
	if id == "" {
		return domain.Paper{}, false
	}

	published := time.Now().UTC()
	if item.PublishedParsed != nil {
		published = *item.PublishedParsed
	} else if item.UpdatedParsed != nil {
		published = *item.UpdatedParsed
	}

	return domain.Paper{
		ID:           id,
		Title:        strings.TrimSpace(item.Title),
		Abstract:     cleanAbstract(item.Description),
		AbstractURL:  item.Link,
		PDFURL:       pdfURL(item.Link, id),
		Authors:      itemAuthors(item),
		Categories:   item.Categories,
		AnnounceType: announceType(item),
		PublishedAt:  published,
	}, true
}

func paperID(item *gofeed.Item) string {
	for _, candidate := range []string{item.GUID, item.Link} {
		if idx := strings.LastIndex(candidate, "/abs/"); idx >= 0 {
			return candidate[idx+len("/abs/"):]
		}
	}
	return strings.TrimSpace(item.GUID)
}

// pdfURL derives the PDF location from the abstract link.
func pdfURL(link, id string) string {
	if strings.Contains(link, "/abs/") {
		return strings.Replace(link, "/abs/", "/pdf/", 1) + ".pdf"
	}
	return "https://arxiv.org/pdf/" + id + ".pdf"
}

// cleanAbstract strips HTML markup and the boilerplate prefixes arXiv
// puts in front of the abstract text.
func cleanAbstract(description string) string {
	text := description
	if doc, err := goquery.NewDocumentFromReader(strings.NewReader(description)); err == nil {
		text = doc.Text()
	}

	text = strings.TrimSpace(text)
	text = abstractPrefixExpr.ReplaceAllString(text, "")
	text = announcePrefixExpr.ReplaceAllString(text, "")
	text = strings.TrimPrefix(text, "Abstract:")
	return strings.TrimSpace(text)
}

func itemAuthors(item *gofeed.Item) []string {
	if len(item.Authors) > 0 {
		authors := make([]string, 0, len(item.Authors))
		for _, a := range item.Authors {
			if name := strings.TrimSpace(a.Name); name != "" {
				authors = append(authors, name)
			}
		}
		if len(authors) > 0 {
			return authors
		}
	}

	// arXiv feeds carry all authors in a single comma-separated
	// dc:creator element.
	if item.DublinCoreExt != nil {
		var authors []string
		for _, creator := range item.DublinCoreExt.Creator {
			for _, name := range strings.Split(creator, ",") {
				if name = strings.TrimSpace(name); name != "" {
					authors = append(authors, name)
				}
			}
		}
		return authors
	}

	return nil
}

func announceType(item *gofeed.Item) string {
	values := item.Extensions["arxiv"]["announce_type"]
	if len(values) == 0 {
		return ""
	}
	return strings.TrimSpace(values[0].Value)
}

func (s *ArxivSource) debug(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}
