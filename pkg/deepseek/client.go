// Package deepseek talks to the DeepSeek chat completion API, which speaks
// the OpenAI wire protocol, and turns replies into advice payloads.
package deepseek

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/JonnyWalker81/heldairy/backend/internal/logger"
	"github.com/JonnyWalker81/heldairy/backend/internal/models"
)

const (
	DefaultBaseURL = "https://api.deepseek.com"
	DefaultModel   = "deepseek-chat"
	DefaultTimeout = 60 * time.Second
)

// ErrMissingAPIKey is returned before any request is made without a key
var ErrMissingAPIKey = errors.New("deepseek api key is not configured")

// Config configures a Client. Zero values take the defaults above.
type Config struct {
	BaseURL string
	Model   string
	Timeout time.Duration
}

// Client calls the remote advice service. The API key is passed per call so
// that it can be revealed from protected memory only for the request.
type Client struct {
	baseURL    string
	model      string
	httpClient *http.Client
	log        logger.Logger
}

// NewClient creates a client; log may be nil
func NewClient(cfg Config, log logger.Logger) *Client {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = DefaultModel
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Client{
		baseURL:    baseURL,
		model:      model,
		httpClient: &http.Client{Timeout: timeout},
		log:        log,
	}
}

// Model returns the model identifier sent with every request
func (c *Client) Model() string {
	return c.model
}

// FetchAdvice asks for a daily advice payload. The payload is returned as
// parsed, before normalization. Unreadable replies yield a *FormatError.
func (c *Client) FetchAdvice(ctx context.Context, apiKey, systemPrompt, userPrompt string) (models.AdvicePayload, error) {
	content, err := c.complete(ctx, apiKey, systemPrompt, userPrompt)
	if err != nil {
		return models.AdvicePayload{}, err
	}
	payload, block, err := parseAdvicePayload(content)
	c.logReply(ctx, content, block, err)
	return payload, err
}

// FetchWeeklyInsight asks for a weekly insight payload
func (c *Client) FetchWeeklyInsight(ctx context.Context, apiKey, systemPrompt, userPrompt string) (models.WeeklyInsightPayload, error) {
	content, err := c.complete(ctx, apiKey, systemPrompt, userPrompt)
	if err != nil {
		return models.WeeklyInsightPayload{}, err
	}
	payload, block, err := parseWeeklyInsightPayload(content)
	c.logReply(ctx, content, block, err)
	return payload, err
}

func (c *Client) complete(ctx context.Context, apiKey, systemPrompt, userPrompt string) (string, error) {
	if strings.TrimSpace(apiKey) == "" {
		return "", ErrMissingAPIKey
	}

	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = c.baseURL
	cfg.HTTPClient = c.httpClient
	client := openai.NewClientWithConfig(cfg)

	start := time.Now()
	resp, err := client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
	})
	if err != nil {
		c.log.WithContext(ctx).Warn("deepseek request failed",
			logger.String("model", c.model),
			logger.Duration("latency", time.Since(start)),
			logger.Err(err),
		)
		return "", fmt.Errorf("deepseek request failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", formatErr("no choices returned", nil)
	}

	c.log.WithContext(ctx).Debug("deepseek response received",
		logger.String("model", resp.Model),
		logger.String("finish_reason", string(resp.Choices[0].FinishReason)),
		logger.Int("total_tokens", resp.Usage.TotalTokens),
		logger.Duration("latency", time.Since(start)),
	)
	return resp.Choices[0].Message.Content, nil
}

// logReply records how a reply was parsed. Only the length and hash of the
// extracted JSON are logged, never its text.
func (c *Client) logReply(ctx context.Context, content, block string, err error) {
	log := c.log.WithContext(ctx)
	if block != "" {
		sum := sha256.Sum256([]byte(block))
		log.Debug("deepseek payload extracted",
			logger.Int("len", len(block)),
			logger.String("sha256", hex.EncodeToString(sum[:])),
		)
	}
	if err != nil {
		log.Warn("deepseek payload rejected", logger.Err(err), logger.Int("content_len", len(content)))
		return
	}
	if log.Level() == logger.LevelDebug {
		log.Debug("deepseek payload structure", logger.String("structure", describeStructure(block)))
	}
}
