// Package client wraps the external generation service. It is the only
// component in the pipeline allowed to perform blocking network I/O.
package client

import (
	"context"
	"fmt"
	"log"

	"github.com/cloudwego/eino-ext/components/model/claude"
	"github.com/cloudwego/eino-ext/components/model/gemini"
	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"google.golang.org/genai"
)

// ChatModel is the slice of the eino chat-model surface the generator
// needs. Every eino-ext model satisfies it; tests supply fakes.
type ChatModel interface {
	Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error)
}

// LLMClient binds a provider chat model to its identifying metadata.
type LLMClient struct {
	Chat     ChatModel
	Provider string
	Model    string
}

// GeminiModelOptions configures the default Gemini backend.
type GeminiModelOptions struct {
	Model string
}

func NewGeminiClient(ctx context.Context, apiKey string, opts GeminiModelOptions) (*LLMClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}
	if opts.Model == "" {
		opts.Model = "gemini-2.0-flash"
	}

	cli, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		log.Printf("Error creating Gemini API client: %v", err)
		return nil, err
	}

	cm, err := gemini.NewChatModel(ctx, &gemini.Config{
		Client: cli,
		Model:  opts.Model,
	})
	if err != nil {
		log.Printf("Error creating Gemini chat model: %v", err)
		return nil, err
	}
	return &LLMClient{Chat: cm, Provider: "gemini", Model: opts.Model}, nil
}

func NewOpenAIClient(ctx context.Context, apiKey, modelName string) (*LLMClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai api key is required")
	}
	if modelName == "" {
		modelName = "gpt-5-mini"
	}

	cm, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
		APIKey: apiKey,
		Model:  modelName,
	})
	if err != nil {
		log.Printf("Error creating OpenAI client: %v", err)
		return nil, err
	}
	return &LLMClient{Chat: cm, Provider: "openai", Model: modelName}, nil
}

func NewClaudeClient(ctx context.Context, apiKey, modelName string) (*LLMClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("claude api key is required")
	}
	if modelName == "" {
		modelName = "claude-sonnet-4-20250514"
	}

	cm, err := claude.NewChatModel(ctx, &claude.Config{
		APIKey:    apiKey,
		Model:     modelName,
		MaxTokens: 1024,
	})
	if err != nil {
		log.Printf("Error creating Claude client: %v", err)
		return nil, err
	}
	return &LLMClient{Chat: cm, Provider: "claude", Model: modelName}, nil
}
