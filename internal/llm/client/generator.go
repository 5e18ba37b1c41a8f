package client

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"codedoc/internal/models"
	"codedoc/internal/sanitize"
)

// GenerationConfig tunes one DocGenerator. Zero values fall back to the
// defaults the external service tolerates well.
type GenerationConfig struct {
	MaxAttempts int
	BaseBackoff time.Duration
	MaxBackoff  time.Duration
	Temperature float32
	MaxTokens   int
}

func (c GenerationConfig) withDefaults() GenerationConfig {
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 3
	}
	if c.BaseBackoff <= 0 {
		c.BaseBackoff = time.Second
	}
	if c.MaxBackoff <= 0 {
		c.MaxBackoff = 8 * time.Second
	}
	if c.Temperature <= 0 {
		c.Temperature = 0.2
	}
	if c.MaxTokens <= 0 {
		c.MaxTokens = 1024
	}
	return c
}

// DocGenerator submits one sanitized prompt per request and absorbs every
// failure mode into the result status: safety blocks become blocked
// results without retry, transient errors retry with exponential backoff
// and then degrade to fallback. A single item never aborts its batch.
type DocGenerator struct {
	chat ChatModel
	cfg  GenerationConfig
}

func NewDocGenerator(chat ChatModel, cfg GenerationConfig) *DocGenerator {
	return &DocGenerator{chat: chat, cfg: cfg.withDefaults()}
}

// Generate resolves one request into exactly one result.
func (g *DocGenerator) Generate(ctx context.Context, req models.GenerationRequest) models.GenerationResult {
	res := models.GenerationResult{
		Kind:       req.Kind,
		TargetName: req.TargetName,
		SourceRef:  req.SourceRef,
	}

	prompt := sanitize.Sanitize(buildPrompt(req))
	messages := []*schema.Message{
		schema.SystemMessage(systemPrompt),
		schema.UserMessage(prompt),
	}

	for attempt := 0; attempt < g.cfg.MaxAttempts; attempt++ {
		msg, err := g.chat.Generate(ctx, messages,
			model.WithTemperature(g.cfg.Temperature),
			model.WithMaxTokens(g.cfg.MaxTokens),
		)
		if err != nil {
			log.Printf("generation error for %s %q (attempt %d/%d): %v",
				req.Kind, req.TargetName, attempt+1, g.cfg.MaxAttempts, err)
			if attempt < g.cfg.MaxAttempts-1 {
				g.backoff(ctx, attempt)
				continue
			}
			break
		}

		if msg == nil {
			// A provider returning (nil, nil) is treated like empty content.
			break
		}

		if isBlockedFinish(msg) {
			// Safety filters are deterministic for a given prompt;
			// retrying the same text would only burn quota.
			log.Printf("generation blocked for %s %q", req.Kind, req.TargetName)
			res.Status = models.ResultStatusBlocked
			res.GeneratedText = fallbackText(req)
			return res
		}

		text := strings.TrimSpace(msg.Content)
		if text == "" {
			break
		}
		res.Status = models.ResultStatusOK
		res.GeneratedText = text
		return res
	}

	res.Status = models.ResultStatusFallback
	res.GeneratedText = fallbackText(req)
	return res
}

// backoff sleeps base*2^attempt capped at MaxBackoff, honoring ctx.
func (g *DocGenerator) backoff(ctx context.Context, attempt int) {
	delay := g.cfg.BaseBackoff << attempt
	if delay > g.cfg.MaxBackoff {
		delay = g.cfg.MaxBackoff
	}
	select {
	case <-time.After(delay):
	case <-ctx.Done():
	}
}

// isBlockedFinish inspects the completion signal for safety filtering.
func isBlockedFinish(msg *schema.Message) bool {
	if msg == nil || msg.ResponseMeta == nil {
		return false
	}
	switch strings.ToUpper(msg.ResponseMeta.FinishReason) {
	case "SAFETY", "PROHIBITED_CONTENT", "BLOCKLIST", "SPII", "CONTENT_FILTER":
		return true
	}
	return false
}

// fallbackText builds the placeholder used for blocked and exhausted
// items. It is never empty.
func fallbackText(req models.GenerationRequest) string {
	switch req.Kind {
	case models.RequestKindFunction:
		return "TODO: Add documentation for " + req.TargetName + " function"
	case models.RequestKindClass:
		return "TODO: Add documentation for " + req.TargetName + " class"
	case models.RequestKindReadme:
		return "TODO: Add project description"
	default:
		return "TODO: Add documentation"
	}
}
