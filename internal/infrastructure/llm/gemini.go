package llm

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/major/arxivwatch/internal/config"
	"github.com/major/arxivwatch/internal/domain"
	"github.com/major/arxivwatch/internal/ports"
)

const defaultEndpoint = "https://generativelanguage.googleapis.com/v1beta"

// GeminiClient implements ports.Summarizer against the Gemini REST API.
type GeminiClient struct {
	endpoint   string
	model      string
	apiKey     string
	prompt     string
	httpClient *http.Client
}

var _ ports.Summarizer = (*GeminiClient)(nil)

// NewGeminiClient builds a client from configuration.
func NewGeminiClient(cfg config.GeminiConfig) *GeminiClient {
	return &GeminiClient{
		endpoint: defaultEndpoint,
		model:    cfg.Model,
		apiKey:   cfg.APIKey,
		prompt:   cfg.Prompt,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
	}
}

type generateRequest struct {
	Contents         []content         `json:"contents"`
	GenerationConfig *generationConfig `json:"generationConfig,omitempty"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inlineData,omitempty"`
}

type inlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type generationConfig struct {
	MaxOutputTokens int `json:"maxOutputTokens,omitempty"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
	UsageMetadata struct {
		PromptTokenCount     int `json:"promptTokenCount"`
		CandidatesTokenCount int `json:"candidatesTokenCount"`
		TotalTokenCount      int `json:"totalTokenCount"`
	} `json:"usageMetadata"`
}

// Summarize posts the PDF excerpt and prompt to the generateContent
// endpoint and returns the generated summary with token usage.
func (c *GeminiClient) Summarize(ctx context.Context, paper domain.Paper, pdf []byte) (domain.Summary, error) {
	if c.apiKey == "" || c.model == "" {
		return domain.Summary{}, fmt.Errorf("%w: gemini client misconfigured", domain.ErrSummarization)
	}

	prompt := strings.ReplaceAll(c.prompt, "{title}", paper.Title)

	body, err := json.Marshal(generateRequest{
		Contents: []content{{
			Parts: []part{
				{InlineData: &inlineData{
					MimeType: "application/pdf",
					Data:     base64.StdEncoding.EncodeToString(pdf),
				}},
				{Text: prompt},
			},
		}},
		GenerationConfig: &generationConfig{MaxOutputTokens: 4096},
	})
	if err != nil {
		return domain.Summary{}, fmt.Errorf("%w: marshal gemini payload: %v", domain.ErrSummarization, err)
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent", c.endpoint, c.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return domain.Summary{}, fmt.Errorf("%w: new request: %v", domain.ErrSummarization, err)
	}
	req.Header.Set("x-goog-api-key", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.Summary{}, fmt.Errorf("%w: request summary for %s: %v", domain.ErrSummarization, paper.ID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return domain.Summary{}, fmt.Errorf("%w: gemini error %s: %s",
			domain.ErrSummarization, resp.Status, strings.TrimSpace(string(payload)))
	}

	var parsed generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return domain.Summary{}, fmt.Errorf("%w: decode response: %v", domain.ErrSummarization, err)
	}

	text := candidateText(parsed)
	if text == "" {
		return domain.Summary{}, fmt.Errorf("%w: gemini returned no candidates for %s", domain.ErrSummarization, paper.ID)
	}

	return domain.Summary{
		Text:         text,
		Model:        c.model,
		InputTokens:  parsed.UsageMetadata.PromptTokenCount,
		OutputTokens: parsed.UsageMetadata.CandidatesTokenCount,
		TotalTokens:  parsed.UsageMetadata.TotalTokenCount,
	}, nil
}

func candidateText(resp generateResponse) string {
	if len(resp.Candidates) == 0 {
		return ""
	}
	var sb strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	return strings.TrimSpace(sb.String())
}
