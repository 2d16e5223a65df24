package domain

import "time"

// Paper is a core entity describing one arXiv submission from a feed.
// Its ID is the deduplication key; everything else is display metadata
// for downstream stages.
type Paper struct {
	ID           string
	Title        string
	Abstract     string
	AbstractURL  string
	PDFURL       string
	Authors      []string
	Categories   []string
	AnnounceType string
	PublishedAt  time.Time
}

// Summary captures the generated summary plus model usage accounting.
type Summary struct {
	Text         string
	Model        string
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}
