package pdf

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/major/arxivwatch/internal/domain"
	"github.com/major/arxivwatch/internal/ports"
)

const defaultPages = 20

// Downloader fetches paper PDFs and trims them to the first few pages
// so the summarizer only receives the part of the paper it needs.
type Downloader struct {
	client *http.Client
	pages  int
	logger *slog.Logger
}

var _ ports.Downloader = (*Downloader)(nil)

// NewDownloader wires an HTTP client; pages defaults to 20.
func NewDownloader(client *http.Client, pages int, logger *slog.Logger) *Downloader {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	if pages <= 0 {
		pages = defaultPages
	}
	return &Downloader{client: client, pages: pages, logger: logger}
}

// Download retrieves the paper's PDF and returns an excerpt containing
// at most the configured number of pages.
func (d *Downloader) Download(ctx context.Context, paper domain.Paper) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, paper.PDFURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request for %s: %v", domain.ErrPDFUnavailable, paper.PDFURL, err)
	}
	req.Header.Set("User-Agent", "arxivwatch/1.0")

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: fetch %s: %v", domain.ErrPDFUnavailable, paper.PDFURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s returned %s", domain.ErrPDFUnavailable, paper.PDFURL, resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", domain.ErrPDFUnavailable, paper.PDFURL, err)
	}
	d.debug("downloaded pdf", "paper_id", paper.ID, "size_bytes", len(body))

	excerpt, err := firstPages(body, d.pages)
	if err != nil {
		return nil, fmt.Errorf("%w: trim %s: %v", domain.ErrContentExtraction, paper.ID, err)
	}
	return excerpt, nil
}

// firstPages returns the document trimmed to its first n pages; short
// documents pass through unchanged.
func firstPages(raw []byte, n int) ([]byte, error) {
	count, err := api.PageCount(bytes.NewReader(raw), nil)
	if err != nil {
		return nil, fmt.Errorf("count pages: %w", err)
	}
	if count <= n {
		return raw, nil
	}

	selected := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		selected = append(selected, strconv.Itoa(i))
	}

	var buf bytes.Buffer
	if err := api.Trim(bytes.NewReader(raw), &buf, selected, nil); err != nil {
		return nil, fmt.Errorf("trim to %d pages: %w", n, err)
	}
	return buf.Bytes(), nil
}

func (d *Downloader) debug(msg string, args ...any) {
	if d.logger != nil {
		d.logger.Debug(msg, args...)
	}
}
