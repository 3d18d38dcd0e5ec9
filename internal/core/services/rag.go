package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/quarry-labs/quarry/internal/core/domain"
	"github.com/quarry-labs/quarry/internal/core/ports/driven"
	"github.com/quarry-labs/quarry/internal/core/ports/driving"
	"github.com/quarry-labs/quarry/internal/logger"
)

// Retrieval defaults, overridable through RAGConfig.
const (
	DefaultTopK                = 3
	DefaultSimilarityThreshold = 0.7
)

// DefaultPromptTemplate grounds the model on retrieved evidence. The
// {question} and {context} placeholders are substituted at ask time.
const DefaultPromptTemplate = `Answer the question using the context below. ` +
	`When the context contains the answer, cite the numbered passages you used. ` +
	`When it does not contain enough information, say so plainly instead of guessing.

Question: {question}

Context:
{context}

Answer based on the context above:`

// noContextMarker replaces the context block when retrieval found nothing
// above the similarity threshold.
const noContextMarker = "(no relevant context retrieved)"

// RAGConfig holds answer-pipeline configuration.
type RAGConfig struct {
	// TopK is the number of candidates requested from the index.
	TopK int

	// SimilarityThreshold is the minimum score for a match to be used
	// as evidence.
	SimilarityThreshold float64

	// PromptTemplate overrides DefaultPromptTemplate. Must contain the
	// {question} and {context} placeholders.
	PromptTemplate string

	// MaxTokens bounds the generated answer length. Zero means the
	// model default.
	MaxTokens int

	// Temperature controls generation randomness.
	Temperature float64
}

// Ensure AnswerOrchestrator implements the interface.
var _ driving.AnswerService = (*AnswerOrchestrator)(nil)

// AnswerOrchestrator implements the RAG flow: retrieve supporting chunks,
// assemble a grounding prompt, call the language model.
type AnswerOrchestrator struct {
	vectors driven.VectorStore
	llm     driven.LLMService
	config  RAGConfig
}

// NewAnswerOrchestrator creates a new answer orchestrator.
func NewAnswerOrchestrator(vectors driven.VectorStore, llm driven.LLMService, config RAGConfig) *AnswerOrchestrator {
	if config.TopK <= 0 {
		config.TopK = DefaultTopK
	}
	if config.SimilarityThreshold <= 0 {
		config.SimilarityThreshold = DefaultSimilarityThreshold
	}
	if config.PromptTemplate == "" {
		config.PromptTemplate = DefaultPromptTemplate
	}
	return &AnswerOrchestrator{
		vectors: vectors,
		llm:     llm,
		config:  config,
	}
}

// Ask retrieves evidence for the question and conditions the language
// model on it. Zero retrieved matches is not an error: generation proceeds
// with an empty evidence set and the model is expected to answer that the
// information is insufficient.
func (o *AnswerOrchestrator) Ask(ctx context.Context, question string) (*domain.Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, domain.ErrEmptyQuestion
	}
	if o.llm == nil {
		return nil, domain.ErrLLMUnavailable
	}

	logger.Debug("Ask: %q (top_k=%d, threshold=%.2f)", question, o.config.TopK, o.config.SimilarityThreshold)

	matches, err := o.vectors.Search(ctx, question, o.config.TopK, o.config.SimilarityThreshold)
	if err != nil {
		// A connectivity fault is distinguishable from "nothing found";
		// ask fails outright rather than answering ungrounded.
		return nil, fmt.Errorf("%w: %v", domain.ErrVectorUnavailable, err)
	}
	logger.Debug("Ask: %d matches above threshold", len(matches))

	prompt := o.buildPrompt(question, matches)

	answer, err := o.llm.Generate(ctx, prompt, driven.GenerateOptions{
		MaxTokens:   o.config.MaxTokens,
		Temperature: o.config.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrGenerationFailed, err)
	}

	return &domain.Answer{
		Text:    answer,
		Sources: matches,
	}, nil
}

// buildPrompt embeds each match's text with attribution ahead of the
// question, in the descending-similarity order search returned.
func (o *AnswerOrchestrator) buildPrompt(question string, matches []domain.VectorMatch) string {
	var parts []string
	for i, match := range matches {
		attribution := match.Title
		if match.URL != "" {
			if attribution != "" {
				attribution += ", "
			}
			attribution += match.URL
		}
		if attribution != "" {
			parts = append(parts, fmt.Sprintf("[%d] (%s) %s", i+1, attribution, match.Text))
		} else {
			parts = append(parts, fmt.Sprintf("[%d] %s", i+1, match.Text))
		}
	}

	context := noContextMarker
	if len(parts) > 0 {
		context = strings.Join(parts, "\n\n")
	}

	prompt := strings.ReplaceAll(o.config.PromptTemplate, "{question}", question)
	return strings.ReplaceAll(prompt, "{context}", context)
}
