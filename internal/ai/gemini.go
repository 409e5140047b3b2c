package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/civicdesk/backend/internal/models"
)

const defaultGeminiModel = "gemini-2.0-flash"

type GeminiClassifier struct {
	client  *genai.Client
	model   string
	timeout time.Duration
}

func NewGeminiClassifier(ctx context.Context, apiKey, model string, timeout time.Duration) (*GeminiClassifier, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}
	if model == "" {
		model = defaultGeminiModel
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &GeminiClassifier{client: client, model: model, timeout: timeout}, nil
}

func (g *GeminiClassifier) Classify(ctx context.Context, c models.Complaint) (models.AgentDecision, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	start := time.Now()
	resp, err := g.client.Models.GenerateContent(ctx,
		g.model,
		genai.Text(buildPrompt(c)),
		&genai.GenerateContentConfig{
			ResponseMIMEType: "application/json",
			Temperature:      genai.Ptr[float32](0.1),
		},
	)
	latency := time.Since(start).Milliseconds()
	if err != nil {
		return models.AgentDecision{}, fmt.Errorf("gemini generate: %w", err)
	}

	raw := resp.Text()
	if strings.TrimSpace(raw) == "" {
		return models.AgentDecision{}, fmt.Errorf("gemini returned empty response")
	}

	decision, err := ParseDecision(c.ID, raw)
	if err != nil {
		return models.AgentDecision{}, err
	}
	decision.ModelVersion = g.model
	decision.LatencyMS = latency
	return decision, nil
}

func buildPrompt(c models.Complaint) string {
	var b strings.Builder
	b.WriteString("You are a civic complaint triage system for a municipal government.\n")
	b.WriteString("Classify the complaint below and respond with a single JSON object with keys:\n")
	b.WriteString(`issue_type (short label), severity (one of "low","medium","high","critical"), `)
	b.WriteString("department (the municipal department that should handle it), ")
	b.WriteString("priority (integer 1-10, 10 most urgent), confidence (0-1), reasoning (one sentence).\n\n")
	fmt.Fprintf(&b, "Ward: %s\n", c.Ward)
	fmt.Fprintf(&b, "Complaint: %s\n", c.Description)
	if c.ImageRef != "" {
		b.WriteString("An image was attached by the citizen.\n")
	}
	return b.String()
}
