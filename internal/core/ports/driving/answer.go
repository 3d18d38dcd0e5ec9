package driving

import (
	"context"

	"github.com/quarry-labs/quarry/internal/core/domain"
)

// AnswerService turns a natural-language question into a grounded answer.
type AnswerService interface {
	// Ask retrieves evidence for the question and conditions the language
	// model on it. Returns domain.ErrEmptyQuestion for blank questions
	// before any retrieval, and domain.ErrGenerationFailed when the model
	// call fails or times out.
	Ask(ctx context.Context, question string) (*domain.Answer, error)
}
