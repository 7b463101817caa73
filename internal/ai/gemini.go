package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/nexusintel/nexus/internal/config"
	"github.com/nexusintel/nexus/internal/types"
)

// FallbackInsight is returned whenever the model call fails or its
// output cannot be parsed, so enrichment never breaks the pipeline.
func FallbackInsight() types.Insight {
	return types.Insight{
		Category:        "Unknown",
		TargetAudience:  []string{},
		ImpliedFeatures: []string{},
		ValueProp:       "Analysis unavailable",
	}
}

// Client talks to the Gemini generateContent REST endpoint.
type Client struct {
	cfg    config.AI
	client *http.Client
	logger *slog.Logger
}

// NewClient creates a Gemini client.
func NewClient(cfg config.AI, logger *slog.Logger) *Client {
	return &Client{
		cfg: cfg,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		logger: logger.With("component", "gemini_client"),
	}
}

const promptTemplate = `You are a Market Research Expert. Analyze this product from Amazon India.

Product: %q
Price: ₹%.2f

Return a valid JSON object (NO markdown formatting, just the raw JSON) with exactly these fields:
{
    "category": "Broad category (e.g. Audio, Gaming)",
    "target_audience": ["List of 2 potential buyer personas"],
    "implied_features": ["List of 3 tech specs mentioned or implied"],
    "value_proposition": "One short sentence on why this sells at this price"
}`

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// Analyze asks the model about one product. The returned Insight is
// the fallback, not an error, for every failure mode past request
// construction: enrichment is best-effort by contract and the caller
// only logs the error.
func (c *Client) Analyze(ctx context.Context, title string, price float64) (types.Insight, error) {
	url := fmt.Sprintf("%s/%s:generateContent?key=%s",
		strings.TrimSuffix(c.cfg.Endpoint, "/"), c.cfg.Model, c.cfg.APIKey)

	payload := map[string]any{
		"contents": []map[string]any{
			{"parts": []map[string]string{
				{"text": fmt.Sprintf(promptTemplate, title, price)},
			}},
		},
		"generationConfig": map[string]any{
			"response_mime_type": "application/json",
			"temperature":        c.cfg.Temperature,
		},
	}

	body, _ := json.Marshal(payload)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return FallbackInsight(), &types.EnrichError{Title: title, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return FallbackInsight(), &types.EnrichError{Title: title, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return FallbackInsight(), &types.EnrichError{
			Title: title,
			Err:   fmt.Errorf("API status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))),
		}
	}

	var gr generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&gr); err != nil {
		return FallbackInsight(), &types.EnrichError{Title: title, Err: err}
	}
	if len(gr.Candidates) == 0 || len(gr.Candidates[0].Content.Parts) == 0 {
		return FallbackInsight(), &types.EnrichError{Title: title, Err: fmt.Errorf("no candidates in response")}
	}

	raw := stripFences(gr.Candidates[0].Content.Parts[0].Text)
	var insight types.Insight
	if err := json.Unmarshal([]byte(extractJSON(raw)), &insight); err != nil {
		return FallbackInsight(), &types.EnrichError{Title: title, Err: fmt.Errorf("parse model output: %w", err)}
	}
	if insight.Category == "" {
		return FallbackInsight(), &types.EnrichError{Title: title, Err: fmt.Errorf("model output missing category")}
	}

	return insight, nil
}

// stripFences removes markdown code fences the model sometimes wraps
// around JSON output despite the mime-type hint.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```json") {
		s = strings.TrimPrefix(s, "```json")
	} else if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
	}
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "```"))
}

// extractJSON finds the first balanced JSON object in s.
func extractJSON(s string) string {
	start := strings.Index(s, "{")
	if start < 0 {
		return "{}"
	}
	depth := 0
	for i := start; i < len(s); i++ {
		switch s[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}
	return "{}"
}
