// Package llm holds the optional answer rewriter. The engine never depends
// on a concrete provider; anything implementing Rewriter can be plugged in.
package llm

import (
	"context"
	"os"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	cbgerrors "cbg/internal/errors"
)

// Rewriter rephrases a drafted answer for readability. It must not add
// facts; the evidence-derived draft is the source of truth and callers
// fall back to it on any error.
type Rewriter interface {
	Rewrite(ctx context.Context, question, draft string) (string, error)
}

const systemPrompt = "You rewrite technical answers about a codebase to be " +
	"clear and concise. Preserve every fact, file path, and symbol name from " +
	"the draft. Do not add information that is not in the draft."

// OpenAIRewriter rewrites answers through the chat completions API.
type OpenAIRewriter struct {
	client  *openai.Client
	model   string
	timeout time.Duration
}

// NewOpenAIRewriter builds a rewriter from OPENAI_API_KEY. It returns nil
// when the key is unset so callers can treat the rewriter as absent.
func NewOpenAIRewriter(model string, timeout time.Duration) *OpenAIRewriter {
	key := os.Getenv("OPENAI_API_KEY")
	if key == "" {
		return nil
	}
	return &OpenAIRewriter{
		client:  openai.NewClient(key),
		model:   model,
		timeout: timeout,
	}
}

func (r *OpenAIRewriter) Rewrite(ctx context.Context, question, draft string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	resp, err := r.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: r.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: "Question: " + question + "\n\nDraft answer:\n" + draft},
		},
		Temperature: 0.2,
	})
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return "", cbgerrors.New(cbgerrors.LLMTimeout, "rewrite timed out", err)
		}
		return "", cbgerrors.New(cbgerrors.LLMTimeout, "rewrite failed", err)
	}
	if len(resp.Choices) == 0 {
		return "", cbgerrors.New(cbgerrors.LLMTimeout, "rewrite returned no choices", nil)
	}

	out := strings.TrimSpace(resp.Choices[0].Message.Content)
	if out == "" {
		return "", cbgerrors.New(cbgerrors.LLMTimeout, "rewrite returned empty text", nil)
	}
	return out, nil
}
