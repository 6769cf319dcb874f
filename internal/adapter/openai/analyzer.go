package openai

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
	"github.com/user/blog-analyzer/internal/repository"
	"github.com/user/blog-analyzer/pkg/metrics"
)

// ErrMissingAPIKey distinguishes a configuration problem from a runtime
// API failure so callers can fall back (e.g. non-clustered grouping)
// instead of retrying.
var ErrMissingAPIKey = fmt.Errorf("OPENAI_API_KEY is not set: %w", repository.ErrMissingCredential)

// Client implements repository.PostAnalyzer and repository.Embedder
// against the OpenAI API.
type Client struct {
	httpClient *http.Client
	apiKey     string
	baseURL    string
	model      string
	embedModel string
}

func New(apiKey, baseURL, model, embedModel string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 120 * time.Second},
		apiKey:     apiKey,
		baseURL:    baseURL,
		model:      model,
		embedModel: embedModel,
	}
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

func (c *Client) Analyze(ctx context.Context, content, url, title string) (entity.AnalysisRecord, error) {
	if c.apiKey == "" {
		return entity.AnalysisRecord{}, ErrMissingAPIKey
	}

	start := time.Now()
	defer func() {
		metrics.AnalysisDuration.WithLabelValues("openai").Observe(time.Since(start).Seconds())
	}()

	summaryText, err := c.complete(ctx, llm.SummaryPrompt(content, title))
	if err != nil {
		return entity.AnalysisRecord{}, err
	}
	record := llm.ParseSummary(summaryText, url, title)

	insightsText, err := c.complete(ctx, llm.InsightsPrompt(content, title))
	if err != nil {
		return entity.AnalysisRecord{}, err
	}
	llm.ParseInsights(insightsText, &record)

	return record, nil
}

func (c *Client) LabelCluster(ctx context.Context, clusterID int, posts []entity.AnalysisRecord) (entity.ClusterMetadata, error) {
	if c.apiKey == "" {
		return entity.ClusterMetadata{}, ErrMissingAPIKey
	}
	text, err := c.complete(ctx, llm.ClusterLabelPrompt(posts))
	if err != nil {
		return entity.ClusterMetadata{}, err
	}
	return llm.ParseClusterLabel(text, clusterID, len(posts)), nil
}

func (c *Client) complete(ctx context.Context, prompt string) (string, error) {
	payload, err := json.Marshal(chatRequest{
		Model:    c.model,
		Messages: []chatMessage{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return "", fmt.Errorf("encoding chat request: %w", err)
	}

	body, err := c.post(ctx, "/v1/chat/completions", payload)
	if err != nil {
		return "", err
	}

	var decoded chatResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return "", fmt.Errorf("decoding chat response: %w", err)
	}
	if len(decoded.Choices) == 0 {
		return "", nil
	}
	return decoded.Choices[0].Message.Content, nil
}

type embeddingsRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embeddingsResponse struct {
	Data []struct {
		Embedding []float64 `json:"embedding"`
	} `json:"data"`
}

// embedBatchSize mirrors the API's practical batch limit.
const embedBatchSize = 100

// Embed generates embedding vectors for texts, batching requests.
func (c *Client) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	if c.apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	if len(texts) == 0 {
		return nil, nil
	}

	var out [][]float64
	for start := 0; start < len(texts); start += embedBatchSize {
		end := start + embedBatchSize
		if end > len(texts) {
			end = len(texts)
		}

		payload, err := json.Marshal(embeddingsRequest{Model: c.embedModel, Input: texts[start:end]})
		if err != nil {
			return nil, fmt.Errorf("encoding embeddings request: %w", err)
		}
		body, err := c.post(ctx, "/v1/embeddings", payload)
		if err != nil {
			return nil, err
		}

		var decoded embeddingsResponse
		if err := json.Unmarshal(body, &decoded); err != nil {
			return nil, fmt.Errorf("decoding embeddings response: %w", err)
		}
		for _, item := range decoded.Data {
			out = append(out, item.Embedding)
		}
	}

	if len(out) != len(texts) {
		return nil, fmt.Errorf("embeddings API returned %d vectors for %d texts", len(out), len(texts))
	}
	return out, nil
}

func (c *Client) post(ctx context.Context, path string, payload []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("building request for %s: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("reading response of %s: %w", path, err)
	}
	if resp.StatusCode != http.StatusOK {
		// Keep the status code in the error text for rate-limit matching.
		return nil, fmt.Errorf("%s returned status %d: %s", path, resp.StatusCode, truncateBody(body))
	}
	return body, nil
}

func truncateBody(body []byte) string {
	const max = 512
	if len(body) > max {
		return string(body[:max])
	}
	return string(body)
}
