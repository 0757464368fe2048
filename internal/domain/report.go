// Package domain holds the records shared between the interview packages.
package domain

import "time"

// FeedbackUnavailable is stored when the grader returned no usable feedback.
const FeedbackUnavailable = "N/A"

// Scorecard is the graded outcome of one interview.
type Scorecard struct {
	Tech        int    `json:"tech"`
	Clarity     int    `json:"clarity"`
	Originality int    `json:"originality"`
	Feedback    string `json:"feedback"`
}

// DefaultScorecard returns the zero-scored card used when grading fails.
func DefaultScorecard() Scorecard {
	return Scorecard{Feedback: FeedbackUnavailable}
}

// Normalize clamps scores into [0,100] and fills empty feedback.
func (s Scorecard) Normalize() Scorecard {
	s.Tech = ClampScore(s.Tech)
	s.Clarity = ClampScore(s.Clarity)
	s.Originality = ClampScore(s.Originality)
	if s.Feedback == "" {
		s.Feedback = FeedbackUnavailable
	}
	return s
}

// ClampScore limits a score to the 0-100 range.
func ClampScore(v int) int {
	switch {
	case v < 0:
		return 0
	case v > 100:
		return 100
	default:
		return v
	}
}

// StoredReport is a persisted scorecard.
type StoredReport struct {
	ID        int64     `json:"id"`
	Scorecard Scorecard `json:"scores"`
	CreatedAt time.Time `json:"created_at"`
}
