package domain

import (
	"fmt"
	"math"
	"strings"
)

const (
	MinOptions   = 2
	MaxOptions   = 6
	MinTimeLimit = 5
	MaxTimeLimit = 120

	minRoomCodeLen = 4
	maxRoomCodeLen = 12
)

// NormalizeRoomCode trims and uppercases a user supplied room code.
func NormalizeRoomCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// ValidateRoomCode checks that code is an already normalized uppercase alphanumeric code.
func ValidateRoomCode(code string) error {
	if len(code) < minRoomCodeLen || len(code) > maxRoomCodeLen {
		return fmt.Errorf("%w: must be %d-%d characters", ErrInvalidRoomCode, minRoomCodeLen, maxRoomCodeLen)
	}
	for _, r := range code {
		if (r < 'A' || r > 'Z') && (r < '0' || r > '9') {
			return fmt.Errorf("%w: %q is not uppercase alphanumeric", ErrInvalidRoomCode, code)
		}
	}
	return nil
}

// ValidateQuestions checks a question list before it is frozen into a session.
func ValidateQuestions(questions []Question) error {
	if len(questions) == 0 {
		return fmt.Errorf("%w: at least one question is required", ErrInvalidQuestionSet)
	}
	for i, q := range questions {
		n := i + 1
		if strings.TrimSpace(q.Question) == "" {
			return fmt.Errorf("%w: question %d: text is missing", ErrInvalidQuestionSet, n)
		}
		if len(q.Options) < MinOptions || len(q.Options) > MaxOptions {
			return fmt.Errorf("%w: question %d: needs %d-%d options, got %d", ErrInvalidQuestionSet, n, MinOptions, MaxOptions, len(q.Options))
		}
		for j, opt := range q.Options {
			if strings.TrimSpace(opt) == "" {
				return fmt.Errorf("%w: question %d: option %d is empty", ErrInvalidQuestionSet, n, j+1)
			}
		}
		if q.Correct < 0 || q.Correct >= len(q.Options) {
			return fmt.Errorf("%w: question %d: correct answer %d refers to an option that doesn't exist", ErrInvalidQuestionSet, n, q.Correct)
		}
		if q.TimeLimit < MinTimeLimit || q.TimeLimit > MaxTimeLimit {
			return fmt.Errorf("%w: question %d: time limit must be between %d and %d", ErrInvalidQuestionSet, n, MinTimeLimit, MaxTimeLimit)
		}
	}
	return nil
}

// SpeedScore converts the time left on a question into a 0-100 score.
func SpeedScore(timeRemaining float64, timeLimit int) int {
	if timeLimit <= 0 {
		return 0
	}
	return ClampSpeedScore(int(math.Floor(timeRemaining/float64(timeLimit)*100 + 0.5)))
}

// ClampSpeedScore bounds a client supplied speed score to 0-100.
func ClampSpeedScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
