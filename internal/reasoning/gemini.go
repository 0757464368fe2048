package reasoning

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"google.golang.org/genai"
)

const listPageSize = 100

// Gemini adapts the Google Gen AI SDK to Model and ModelLister.
type Gemini struct {
	client *genai.Client
	model  string
	logger *slog.Logger
}

var (
	_ Model       = (*Gemini)(nil)
	_ ModelLister = (*Gemini)(nil)
)

// NewGemini creates a Gemini API client. The model can be chosen later via
// WithModel once SelectModel has probed the account.
func NewGemini(ctx context.Context, apiKey string, httpClient *http.Client, logger *slog.Logger) (*Gemini, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: httpClient,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &Gemini{client: client, model: FallbackModel, logger: logger}, nil
}

// WithModel returns a copy of g bound to model.
func (g *Gemini) WithModel(model string) *Gemini {
	cp := *g
	cp.model = model
	return &cp
}

// ModelName returns the bound model identifier.
func (g *Gemini) ModelName() string {
	return g.model
}

// ListModels returns every model name visible to the API key.
func (g *Gemini) ListModels(ctx context.Context) ([]string, error) {
	page, err := g.client.Models.List(ctx, &genai.ListModelsConfig{PageSize: listPageSize})
	if err != nil {
		return nil, fmt.Errorf("list models: %w", err)
	}
	var names []string
	for {
		for _, m := range page.Items {
			names = append(names, m.Name)
		}
		page, err = page.Next(ctx)
		if errors.Is(err, genai.ErrPageDone) {
			return names, nil
		}
		if err != nil {
			return nil, fmt.Errorf("list models: %w", err)
		}
	}
}

// Generate sends the conversation and returns the reply text.
func (g *Gemini) Generate(ctx context.Context, req GenerateRequest) (string, error) {
	cfg := &genai.GenerateContentConfig{}
	if req.System != "" {
		cfg.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}
	if req.JSON {
		cfg.ResponseMIMEType = "application/json"
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, toContents(req.Messages), cfg)
	if err != nil {
		return "", fmt.Errorf("gemini generate (%s): %w", g.model, err)
	}
	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		return "", fmt.Errorf("gemini blocked prompt: %s", resp.PromptFeedback.BlockReason)
	}
	return resp.Text(), nil
}

func toContents(msgs []Message) []*genai.Content {
	contents := make([]*genai.Content, 0, len(msgs))
	for _, msg := range msgs {
		role := genai.Role(genai.RoleUser)
		if msg.Speaker == SpeakerModel {
			role = genai.RoleModel
		}
		parts := make([]*genai.Part, 0, len(msg.Parts))
		for _, p := range msg.Parts {
			if p.IsImage() {
				parts = append(parts, genai.NewPartFromBytes(p.ImageData, p.ImageMIME))
				continue
			}
			parts = append(parts, genai.NewPartFromText(p.Text))
		}
		contents = append(contents, genai.NewContentFromParts(parts, role))
	}
	return contents
}
