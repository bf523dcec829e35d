package rag

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/llms"

	"docchat/internal/models"
)

// Retriever abstracts nearest-neighbor lookup over the vector index.
type Retriever interface {
	Retrieve(ctx context.Context, query string, k int) ([]models.Chunk, error)
}

// GroundedFunc decides whether a raw model answer is supported by the
// retrieved context. The default is a string-matching heuristic: it only
// catches answers where the model cooperates by emitting the refusal phrase
// the prompt asks for. Tests substitute stricter checks here.
type GroundedFunc func(answer string, context []models.Chunk) bool

// DefaultGrounded rejects an answer when nothing was retrieved or when the
// reply contains the refusal phrase, case-insensitively.
func DefaultGrounded(answer string, context []models.Chunk) bool {
	if len(context) == 0 {
		return false
	}
	return !strings.Contains(strings.ToLower(strings.TrimSpace(answer)), models.RefusalPhrase)
}

// Synthesizer answers questions from retrieved document context.
type Synthesizer struct {
	llm       llms.Model
	retriever Retriever
	topK      int
	grounded  GroundedFunc
}

// NewSynthesizer wires the language model and retriever together. A nil
// grounded predicate selects DefaultGrounded.
func NewSynthesizer(llm llms.Model, retriever Retriever, topK int, grounded GroundedFunc) *Synthesizer {
	if grounded == nil {
		grounded = DefaultGrounded
	}
	return &Synthesizer{llm: llm, retriever: retriever, topK: topK, grounded: grounded}
}

// Answer retrieves the top-k chunks for the question, prompts the model to
// answer only from them, and substitutes the fixed out-of-scope message when
// the reply is not grounded. Provider failures propagate unretried.
func (s *Synthesizer) Answer(ctx context.Context, question string) (string, error) {
	chunks, err := s.retriever.Retrieve(ctx, question, s.topK)
	if err != nil {
		return "", fmt.Errorf("retrieving context: %w", err)
	}
	log.Debug().Int("chunks", len(chunks)).Msg("Retrieved context")

	var contextText strings.Builder
	for _, chunk := range chunks {
		contextText.WriteString(chunk.Content + "\n\n")
	}

	prompt := fmt.Sprintf(models.QAPromptTemplate, contextText.String(), question)
	resp, err := s.llm.GenerateContent(ctx, []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeHuman, prompt),
	})
	if err != nil {
		return "", fmt.Errorf("generating answer: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty response from model")
	}
	answer := resp.Choices[0].Content

	if !s.grounded(answer, chunks) {
		log.Debug().Msg("Answer not grounded in context, substituting out-of-scope message")
		return models.OutOfScopeMessage, nil
	}
	return answer, nil
}
