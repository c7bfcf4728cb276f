package app

import (
	"context"
	"fmt"

	"testmaker-service/internal/domain"
)

// AttemptRepository loads the full quiz aggregate needed to score an attempt
// (from cache or backing store).
type AttemptRepository interface {
	GetAttemptContent(ctx context.Context, quizID string) (domain.AttemptContent, error)
}

// Scorer resolves a completed quiz attempt to exactly one result band.
type Scorer struct {
	attempts AttemptRepository
}

func NewScorer(attempts AttemptRepository) *Scorer {
	return &Scorer{attempts: attempts}
}

// Resolution is the outcome of a scored attempt.
type Resolution struct {
	Total  int               `json:"total"`
	Result domain.ResultView `json:"result"`
}

// Resolve sums the values of the selected answers and picks the first result
// band, in listing order, whose [MinValue, MaxValue] range contains the total.
//
// Exactly one answer per question is required: partial submissions and two
// answers for the same question are rejected as invalid payloads, and an
// answer that does not belong to one of the quiz's own questions is an
// invalid reference. A quiz with no band covering the total resolves to
// ErrUnresolved; coverage of the score range is advisory, not enforced at
// write time.
func (s *Scorer) Resolve(ctx context.Context, quizID string, answerIDs []string) (Resolution, error) {
	content, err := s.attempts.GetAttemptContent(ctx, quizID)
	if err != nil {
		return Resolution{}, err
	}

	type choice struct {
		questionID string
		value      int
	}
	choices := make(map[string]choice)
	for _, qc := range content.Questions {
		for _, a := range qc.Answers {
			choices[a.ID] = choice{questionID: qc.Question.ID, value: a.Value}
		}
	}

	if len(answerIDs) != len(content.Questions) {
		return Resolution{}, fmt.Errorf("%w: expected %d answers, got %d",
			domain.ErrInvalidPayload, len(content.Questions), len(answerIDs))
	}

	total := 0
	answered := make(map[string]bool, len(answerIDs))
	for _, id := range answerIDs {
		c, ok := choices[id]
		if !ok {
			return Resolution{}, fmt.Errorf("%w: answer %q does not belong to quiz %q",
				domain.ErrInvalidReference, id, quizID)
		}
		if answered[c.questionID] {
			return Resolution{}, fmt.Errorf("%w: question %q answered twice",
				domain.ErrInvalidPayload, c.questionID)
		}
		answered[c.questionID] = true
		total += c.value
	}

	result, ok := FirstMatch(content.Results, total)
	if !ok {
		return Resolution{}, fmt.Errorf("%w: total %d", domain.ErrUnresolved, total)
	}
	return Resolution{Total: total, Result: result.View()}, nil
}

// FirstMatch returns the first result band in listing order containing total.
// When bands overlap the earlier one wins; the ordering is the stores'
// documented (CreatedDate, ID) ascending listing order, so the tie-break is
// deterministic and repeatable across calls.
func FirstMatch(results []domain.Result, total int) (domain.Result, bool) {
	for _, r := range results {
		if r.MinValue <= total && total <= r.MaxValue {
			return r, true
		}
	}
	return domain.Result{}, false
}
