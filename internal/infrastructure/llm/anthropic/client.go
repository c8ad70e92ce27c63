package anthropic

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/lexicon-legal/lexicon/internal/core/ports"
	"github.com/lexicon-legal/lexicon/internal/infrastructure/resilience"
)

const (
	defaultBaseURL = "https://api.anthropic.com"
	apiVersion     = "2023-06-01"
)

// Client calls the Anthropic Messages API. One Client serves every role the
// pipeline assigns to this vendor; the model is fixed per Client so the
// strategist and the writer can run different models.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
	executor   *resilience.Executor
}

func New(baseURL, apiKey, model string, executor *resilience.Executor) *Client {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		model:      model,
		httpClient: &http.Client{Timeout: 180 * time.Second},
		executor:   executor,
	}
}

type messageRequest struct {
	Model       string    `json:"model"`
	MaxTokens   int       `json:"max_tokens"`
	Temperature float64   `json:"temperature"`
	Messages    []message `json:"messages"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messageResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

func (c *Client) Generate(ctx context.Context, prompt string, opts ports.GenerateOptions) (string, error) {
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = 4096
	}

	request := messageRequest{
		Model:       c.model,
		MaxTokens:   opts.MaxTokens,
		Temperature: opts.Temperature,
		Messages:    []message{{Role: "user", Content: prompt}},
	}

	var response messageResponse
	err := c.executor.Do(ctx, "anthropic generate", func(ctx context.Context) error {
		return c.postJSON(ctx, "/v1/messages", request, &response, "generate")
	}, classifyVendorError)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	for _, block := range response.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	text := strings.TrimSpace(b.String())
	if text == "" {
		return "", fmt.Errorf("anthropic generate: empty completion")
	}
	return text, nil
}
