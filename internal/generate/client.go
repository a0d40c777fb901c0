// Package generate wraps the Gemini API for multimodal code
// generation: a slide screenshot plus its HTML source go in, Python
// builder code comes out.
package generate

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"deckforge/internal/config"
	"deckforge/internal/logging"
)

// Request is one generation call. ImagePNG is optional; fix requests
// after a failed attempt are text-only.
type Request struct {
	System   string
	Prompt   string
	ImagePNG []byte
}

// Usage counts tokens for one or more calls.
type Usage struct {
	PromptTokens int32 `json:"prompt_tokens"`
	OutputTokens int32 `json:"output_tokens"`
	TotalTokens  int32 `json:"total_tokens"`
}

// Add returns the sum of two usage counts.
func (u Usage) Add(o Usage) Usage {
	return Usage{
		PromptTokens: u.PromptTokens + o.PromptTokens,
		OutputTokens: u.OutputTokens + o.OutputTokens,
		TotalTokens:  u.TotalTokens + o.TotalTokens,
	}
}

// Response is the model's reply to one Request.
type Response struct {
	Text  string
	Usage Usage
}

// Client talks to the Gemini API.
type Client struct {
	client    *genai.Client
	model     string
	maxTokens int32
	log       *logging.Logger
}

// NewClient creates a Gemini client. A missing API key is a
// configuration error, not something a retry can fix.
func NewClient(ctx context.Context, cfg config.GeminiConfig, log *logging.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("Gemini API key is required (set GEMINI_API_KEY)")
	}

	model := cfg.Model
	if model == "" {
		model = "gemini-2.5-pro"
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: cfg.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	if log == nil {
		log = logging.Nop().Get(logging.CategoryGenerate)
	}

	return &Client{
		client:    client,
		model:     model,
		maxTokens: int32(cfg.MaxOutputTokens),
		log:       log,
	}, nil
}

// ModelName returns the configured model identifier.
func (c *Client) ModelName() string {
	return c.model
}

// Generate sends one request and returns the model's text reply with
// token usage.
func (c *Client) Generate(ctx context.Context, req Request) (*Response, error) {
	timer := c.log.StartTimer("Gemini generate")
	defer timer.StopWithInfo()

	parts := make([]*genai.Part, 0, 2)
	if len(req.ImagePNG) > 0 {
		parts = append(parts, genai.NewPartFromBytes(req.ImagePNG, "image/png"))
	}
	parts = append(parts, genai.NewPartFromText(req.Prompt))

	contents := []*genai.Content{
		genai.NewContentFromParts(parts, genai.RoleUser),
	}

	genCfg := &genai.GenerateContentConfig{}
	if c.maxTokens > 0 {
		genCfg.MaxOutputTokens = c.maxTokens
	}
	if req.System != "" {
		genCfg.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}

	c.log.Debug("Request: model=%s, prompt=%d chars, image=%d bytes",
		c.model, len(req.Prompt), len(req.ImagePNG))

	result, err := c.client.Models.GenerateContent(ctx, c.model, contents, genCfg)
	if err != nil {
		return nil, fmt.Errorf("Gemini generate failed: %w", err)
	}

	resp := &Response{Text: result.Text()}
	if result.UsageMetadata != nil {
		resp.Usage = Usage{
			PromptTokens: result.UsageMetadata.PromptTokenCount,
			OutputTokens: result.UsageMetadata.CandidatesTokenCount,
			TotalTokens:  result.UsageMetadata.TotalTokenCount,
		}
	}

	c.log.Debug("Response: %d chars, tokens prompt=%d output=%d",
		len(resp.Text), resp.Usage.PromptTokens, resp.Usage.OutputTokens)

	return resp, nil
}
