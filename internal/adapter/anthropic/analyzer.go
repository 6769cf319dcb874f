package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/user/blog-analyzer/internal/adapter/llm"
	"github.com/user/blog-analyzer/internal/entity"
	"github.com/user/blog-analyzer/pkg/metrics"
)

const (
	apiVersion       = "2023-06-01"
	summaryMaxTokens = 8192
	labelMaxTokens   = 2048
)

// Analyzer implements repository.PostAnalyzer against the Anthropic
// Messages API.
type Analyzer struct {
	httpClient *http.Client
	apiKey     string
	baseURL    string
	model      string
}

func New(apiKey, baseURL, model string) *Analyzer {
	return &Analyzer{
		httpClient: &http.Client{Timeout: 120 * time.Second},
		apiKey:     apiKey,
		baseURL:    baseURL,
		model:      model,
	}
}

type messagesRequest struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	Messages  []message `json:"messages"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

// Analyze runs the categorize/summarize call and the deep-insight call and
// merges both into a single record keyed by the post's url and title.
// Malformed model output degrades to default fields; only transport and
// API failures return an error.
func (a *Analyzer) Analyze(ctx context.Context, content, url, title string) (entity.AnalysisRecord, error) {
	start := time.Now()
	defer func() {
		metrics.AnalysisDuration.WithLabelValues("anthropic").Observe(time.Since(start).Seconds())
	}()

	summaryText, err := a.complete(ctx, llm.SummaryPrompt(content, title), summaryMaxTokens)
	if err != nil {
		return entity.AnalysisRecord{}, err
	}
	record := llm.ParseSummary(summaryText, url, title)

	insightsText, err := a.complete(ctx, llm.InsightsPrompt(content, title), summaryMaxTokens)
	if err != nil {
		return entity.AnalysisRecord{}, err
	}
	llm.ParseInsights(insightsText, &record)

	return record, nil
}

// LabelCluster generates a topic label for a group of related posts.
func (a *Analyzer) LabelCluster(ctx context.Context, clusterID int, posts []entity.AnalysisRecord) (entity.ClusterMetadata, error) {
	text, err := a.complete(ctx, llm.ClusterLabelPrompt(posts), labelMaxTokens)
	if err != nil {
		return entity.ClusterMetadata{}, err
	}
	return llm.ParseClusterLabel(text, clusterID, len(posts)), nil
}

func (a *Analyzer) complete(ctx context.Context, prompt string, maxTokens int) (string, error) {
	payload, err := json.Marshal(messagesRequest{
		Model:     a.model,
		MaxTokens: maxTokens,
		Messages:  []message{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return "", fmt.Errorf("encoding messages request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/v1/messages", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("building messages request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", a.apiKey)
	req.Header.Set("anthropic-version", apiVersion)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling messages API: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("reading messages response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		// The status code stays in the error text so the retry policy can
		// match rate-limit signatures like "429".
		return "", fmt.Errorf("messages API returned status %d: %s", resp.StatusCode, truncateBody(body))
	}

	var decoded messagesResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return "", fmt.Errorf("decoding messages response: %w", err)
	}
	for _, block := range decoded.Content {
		if block.Type == "text" {
			return block.Text, nil
		}
	}
	return "", nil
}

func truncateBody(body []byte) string {
	const max = 512
	if len(body) > max {
		return string(body[:max])
	}
	return string(body)
}
