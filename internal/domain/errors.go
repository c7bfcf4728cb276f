package domain

import "errors"

var (
	// ErrQuizNotFound is returned when a quiz id does not resolve.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrQuestionNotFound is returned when a question id does not resolve.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrAnswerNotFound is returned when an answer id does not resolve.
	ErrAnswerNotFound = errors.New("answer not found")
	// ErrResultNotFound is returned when a result id does not resolve.
	ErrResultNotFound = errors.New("result not found")
	// ErrUserNotFound is returned when a user id or name does not resolve.
	ErrUserNotFound = errors.New("user not found")

	// ErrInvalidPayload indicates required fields are missing or malformed.
	ErrInvalidPayload = errors.New("invalid payload")
	// ErrInvalidReference indicates a child names a parent that does not
	// exist, or an answer is claimed for a quiz it does not belong to.
	ErrInvalidReference = errors.New("invalid reference")
	// ErrUnresolved indicates scoring produced no matching result band.
	ErrUnresolved = errors.New("no result band matches the total")

	// ErrUnauthorized indicates the caller presented no valid credentials.
	ErrUnauthorized = errors.New("authentication required")
	// ErrForbidden indicates the caller is neither the quiz owner nor an
	// administrator.
	ErrForbidden = errors.New("caller does not own this quiz")
)

// IsNotFound reports whether err is any of the per-kind not-found errors.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrQuizNotFound) ||
		errors.Is(err, ErrQuestionNotFound) ||
		errors.Is(err, ErrAnswerNotFound) ||
		errors.Is(err, ErrResultNotFound) ||
		errors.Is(err, ErrUserNotFound)
}
