package extract

import (
	"strings"
	"testing"
)

func TestValidatorRejects(t *testing.T) {
	v := NewValidator(testBaseURL, "Amazon")

	tests := []struct {
		name   string
		fields Fields
	}{
		{"empty title", Fields{Title: "", Price: 999}},
		{"whitespace title", Fields{Title: "   ", Price: 999}},
		{"zero price", Fields{Title: "Sony WH-1000XM5 Headphones", Price: 0}},
		{"negative price", Fields{Title: "Sony WH-1000XM5 Headphones", Price: -10}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, ok := v.Validate(tt.fields); ok {
				t.Errorf("expected %v to be rejected", tt.fields)
			}
		})
	}
}

func TestValidatorNormalizes(t *testing.T) {
	v := NewValidator(testBaseURL, "Amazon")

	rec, ok := v.Validate(Fields{
		Title:  `  "Sony   WH-1000XM5    Headphones" `,
		Price:  29990.456,
		Rating: 4.55,
		URL:    "/dp/B09XSQH1QH",
	})
	if !ok {
		t.Fatal("expected record to validate")
	}

	if rec.Title != "Sony WH-1000XM5 Headphones" {
		t.Errorf("title = %q", rec.Title)
	}
	if rec.Price != 29990.46 {
		t.Errorf("price = %v, want 29990.46", rec.Price)
	}
	if rec.Rating != 4.6 {
		t.Errorf("rating = %v, want 4.6", rec.Rating)
	}
	if rec.URL != "https://www.amazon.in/dp/B09XSQH1QH" {
		t.Errorf("url = %q", rec.URL)
	}
	if rec.Platform != "Amazon" {
		t.Errorf("platform = %q", rec.Platform)
	}
	if rec.ScrapedAt == "" || !strings.Contains(rec.ScrapedAt, "T") {
		t.Errorf("scraped_at = %q, want RFC3339 timestamp", rec.ScrapedAt)
	}
}

func TestValidatorClampsRating(t *testing.T) {
	v := NewValidator(testBaseURL, "Amazon")

	tests := []struct {
		in   float64
		want float64
	}{
		{7.2, 5},
		{-1, 0},
		{4.44, 4.4},
		{0, 0},
	}

	for _, tt := range tests {
		rec, ok := v.Validate(Fields{Title: "Valid Product Title Here", Price: 100, Rating: tt.in})
		if !ok {
			t.Fatalf("rating %v: expected valid record", tt.in)
		}
		if rec.Rating != tt.want {
			t.Errorf("rating %v clamped to %v, want %v", tt.in, rec.Rating, tt.want)
		}
	}
}
