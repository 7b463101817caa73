package ai

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"github.com/nexusintel/nexus/internal/config"
	"github.com/nexusintel/nexus/internal/types"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func geminiConfig(endpoint string) config.AI {
	return config.AI{
		Enabled:     true,
		Endpoint:    endpoint,
		Model:       "gemini-flash-latest",
		APIKey:      "test-key",
		Temperature: 0.2,
		TopN:        5,
		Timeout:     5 * time.Second,
	}
}

func candidateBody(text string) string {
	return `{"candidates":[{"content":{"parts":[{"text":` + jsonString(text) + `}]}}]}`
}

func jsonString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

const insightJSON = `{"category":"Audio","target_audience":["Commuters","Audiophiles"],` +
	`"implied_features":["ANC","Bluetooth","30h battery"],"value_proposition":"Flagship ANC under 30k"}`

func TestAnalyze(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("key") != "test-key" {
			t.Errorf("missing api key in %q", r.URL.String())
		}
		io.WriteString(w, candidateBody(insightJSON))
	}))
	defer srv.Close()

	c := NewClient(geminiConfig(srv.URL), testLogger())
	insight, err := c.Analyze(context.Background(), "Sony WH-1000XM5 Wireless Headphones", 29990)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	want := types.Insight{
		Category:        "Audio",
		TargetAudience:  []string{"Commuters", "Audiophiles"},
		ImpliedFeatures: []string{"ANC", "Bluetooth", "30h battery"},
		ValueProp:       "Flagship ANC under 30k",
	}
	if !reflect.DeepEqual(insight, want) {
		t.Errorf("insight = %+v, want %+v", insight, want)
	}
}

func TestAnalyzeStripsMarkdownFences(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, candidateBody("```json\n"+insightJSON+"\n```"))
	}))
	defer srv.Close()

	c := NewClient(geminiConfig(srv.URL), testLogger())
	insight, err := c.Analyze(context.Background(), "Sony WH-1000XM5 Wireless Headphones", 29990)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if insight.Category != "Audio" {
		t.Errorf("category = %q, want Audio", insight.Category)
	}
}

func TestAnalyzeFallsBack(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			"server error",
			func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "quota exceeded", http.StatusTooManyRequests)
			},
		},
		{
			"no candidates",
			func(w http.ResponseWriter, r *http.Request) {
				io.WriteString(w, `{"candidates":[]}`)
			},
		},
		{
			"unparseable output",
			func(w http.ResponseWriter, r *http.Request) {
				io.WriteString(w, candidateBody("sorry, I cannot help with that"))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			c := NewClient(geminiConfig(srv.URL), testLogger())
			insight, err := c.Analyze(context.Background(), "Sony WH-1000XM5 Wireless Headphones", 29990)
			if err == nil {
				t.Fatal("expected an error")
			}
			var enrichErr *types.EnrichError
			if !errors.As(err, &enrichErr) {
				t.Errorf("err type %T, want *types.EnrichError", err)
			}
			if !reflect.DeepEqual(insight, FallbackInsight()) {
				t.Errorf("insight = %+v, want fallback", insight)
			}
		})
	}
}

func TestStripFences(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"```json\n{\"a\":1}\n```", `{"a":1}`},
		{"```\n{\"a\":1}\n```", `{"a":1}`},
		{`{"a":1}`, `{"a":1}`},
	}
	for _, tt := range tests {
		if got := stripFences(tt.in); got != tt.want {
			t.Errorf("stripFences(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{`noise {"a":{"b":1}} trailing`, `{"a":{"b":1}}`},
		{"no object here", "{}"},
		{`{"unbalanced":`, "{}"},
	}
	for _, tt := range tests {
		if got := extractJSON(tt.in); got != tt.want {
			t.Errorf("extractJSON(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
