package generate

import (
	"context"
	"testing"

	"deckforge/internal/config"
)

func TestNewClientRequiresAPIKey(t *testing.T) {
	_, err := NewClient(context.Background(), config.GeminiConfig{}, nil)
	if err == nil {
		t.Fatal("expected error for missing API key")
	}
}

func TestUsageAdd(t *testing.T) {
	a := Usage{PromptTokens: 100, OutputTokens: 20, TotalTokens: 120}
	b := Usage{PromptTokens: 50, OutputTokens: 5, TotalTokens: 55}
	sum := a.Add(b)
	if sum.PromptTokens != 150 || sum.OutputTokens != 25 || sum.TotalTokens != 175 {
		t.Errorf("sum = %+v", sum)
	}
}
