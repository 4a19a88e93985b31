package commentary

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/trogers1052/trade-journal/internal/config"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// NotConfigured is returned in place of a completion when no API key is set
const NotConfigured = "Gemini API key not configured"

const errorPrefix = "Error calling Gemini API: "

type part struct {
	Text string `json:"text"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

type apiErrorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// Client calls the Gemini generateContent endpoint. Generate never fails: a
// missing key or an upstream error comes back as descriptive text.
type Client struct {
	client   *resty.Client
	apiKey   string
	model    string
	logger   *zap.Logger
	limiter  *rate.Limiter
	cache    Cache
	cacheTTL time.Duration
}

// NewClient creates a Gemini client. cache may be nil.
func NewClient(cfg config.GeminiConfig, cache Cache, cacheTTL time.Duration, logger *zap.Logger) *Client {
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetHeader("Content-Type", "application/json")

	if cfg.APIKey == "" {
		logger.Warn("Gemini API key not configured, commentary disabled")
	}

	limit := rate.Limit(cfg.RateLimit)
	if cfg.RateLimit <= 0 {
		limit = rate.Inf
	}
	burst := max(cfg.RateLimitBurst, 1)

	return &Client{
		client:   client,
		apiKey:   cfg.APIKey,
		model:    cfg.Model,
		logger:   logger,
		limiter:  rate.NewLimiter(limit, burst),
		cache:    cache,
		cacheTTL: cacheTTL,
	}
}

// Generate returns the first candidate's text for prompt
func (c *Client) Generate(ctx context.Context, prompt string) (text string) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("Gemini request panicked", zap.Any("panic", r))
			text = errorPrefix + fmt.Sprint(r)
		}
	}()

	if c.apiKey == "" {
		return NotConfigured
	}

	key := c.cacheKey(prompt)
	if c.cache != nil {
		cached, ok, err := c.cache.Get(ctx, key)
		if err != nil {
			c.logger.Warn("Commentary cache read failed", zap.Error(err))
		} else if ok {
			c.logger.Debug("Commentary cache hit", zap.String("key", key))
			return cached
		}
	}

	text, err := c.generate(ctx, prompt)
	if err != nil {
		c.logger.Error("Gemini request failed", zap.String("model", c.model), zap.Error(err))
		return errorPrefix + err.Error()
	}

	if c.cache != nil {
		if err := c.cache.Set(ctx, key, text, c.cacheTTL); err != nil {
			c.logger.Warn("Commentary cache write failed", zap.Error(err))
		}
	}
	return text
}

func (c *Client) generate(ctx context.Context, prompt string) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter wait failed: %w", err)
	}

	body := generateRequest{Contents: []content{{Parts: []part{{Text: prompt}}}}}

	c.logger.Debug("Executing request", zap.String("model", c.model), zap.Int("prompt_bytes", len(prompt)))
	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParam("key", c.apiKey).
		SetPathParam("model", c.model).
		SetBody(body).
		SetResult(&generateResponse{}).
		SetError(&apiErrorResponse{}).
		Post("/models/{model}:generateContent")
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}

	if resp.IsError() {
		if apiErr, ok := resp.Error().(*apiErrorResponse); ok && apiErr.Error.Message != "" {
			return "", fmt.Errorf("%s: %s", resp.Status(), apiErr.Error.Message)
		}
		return "", fmt.Errorf("%s", resp.Status())
	}

	result, ok := resp.Result().(*generateResponse)
	if !ok || len(result.Candidates) == 0 {
		return "", fmt.Errorf("response contained no candidates")
	}

	var sb strings.Builder
	for _, p := range result.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	return sb.String(), nil
}

func (c *Client) cacheKey(prompt string) string {
	sum := sha256.Sum256([]byte(c.model + "\n" + prompt))
	return "commentary:" + hex.EncodeToString(sum[:])
}
