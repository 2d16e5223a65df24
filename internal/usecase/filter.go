package usecase

import "github.com/major/arxivwatch/internal/domain"

// selectPapers computes the subset of the fetched batch to process,
// preserving feed order. On a first run only the most recent paper is
// selected; marking the rest as seen is the pipeline's job, not the
// filter's.
func selectPapers(papers []domain.Paper, notified *domain.NotifiedSet, firstRun bool) []domain.Paper {
	fresh := make([]domain.Paper, 0, len(papers))
	for _, paper := range papers {
		if !notified.Contains(paper.ID) {
			fresh = append(fresh, paper)
		}
	}

	if len(fresh) == 0 || !firstRun {
		return fresh
	}

	// Feeds are newest-first, so ties on the published date resolve to
	// the earliest feed position.
	latest := fresh[0]
	for _, paper := range fresh[1:] {
		if paper.PublishedAt.After(latest.PublishedAt) {
			latest = paper
		}
	}
	return []domain.Paper{latest}
}
