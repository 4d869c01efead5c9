package llm

import (
	"os"
	"testing"
)

func TestRewriterAbsentWithoutAPIKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	os.Unsetenv("OPENAI_API_KEY")
	if r := NewOpenAIRewriter("gpt-4o-mini", 0); r != nil {
		t.Error("expected nil rewriter without OPENAI_API_KEY")
	}
}

func TestRewriterPresentWithAPIKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "test-key")
	r := NewOpenAIRewriter("gpt-4o-mini", 0)
	if r == nil {
		t.Fatal("expected rewriter with OPENAI_API_KEY set")
	}
}
