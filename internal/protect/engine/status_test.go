package engine

import (
	"testing"

	"github.com/cybx-security/protect/internal/protect/model"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		total  int
		status model.ScoreStatus
		color  string
	}{
		{0, model.StatusCritical, "#FF3B30"},
		{39, model.StatusCritical, "#FF3B30"},
		{40, model.StatusVulnerable, "#FF9500"},
		{59, model.StatusVulnerable, "#FF9500"},
		{60, model.StatusAtRisk, "#FFCC00"},
		{84, model.StatusAtRisk, "#FFCC00"},
		{85, model.StatusSecure, "#34C759"},
		{90, model.StatusSecure, "#34C759"},
	}
	for _, tt := range tests {
		status, color, message := classify(tt.total)
		if status != tt.status {
			t.Errorf("classify(%d): got status %q, want %q", tt.total, status, tt.status)
		}
		if color != tt.color {
			t.Errorf("classify(%d): got color %q, want %q", tt.total, color, tt.color)
		}
		if message == "" {
			t.Errorf("classify(%d): empty message", tt.total)
		}
	}
}

func TestClassify_everyTotalIsCovered(t *testing.T) {
	for total := 0; total <= model.MaxTotalScore; total++ {
		status, color, message := classify(total)
		if status == "" || color == "" || message == "" {
			t.Fatalf("classify(%d) returned an empty field", total)
		}
	}
}
