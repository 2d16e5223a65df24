package domain

import "errors"

// Paper-scoped failures: the affected paper is reported and left
// unmarked so the next scheduled run retries it, and the batch continues.
var (
	ErrPDFUnavailable    = errors.New("pdf unavailable")
	ErrContentExtraction = errors.New("content extraction failed")
	ErrSummarization     = errors.New("summarization failed")
	ErrDelivery          = errors.New("delivery failed")
)

// ErrFeedUnavailable is source-scoped: the feed contributes zero papers
// for this run while other feeds proceed.
var ErrFeedUnavailable = errors.New("feed unavailable")

// ErrStateUnavailable is run-fatal: without a trustworthy notified set
// the dedup guarantee cannot be honored, so the invocation fails.
var ErrStateUnavailable = errors.New("state unavailable")
