package reasoning

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/ashureev/interview-labs/internal/domain"
)

// StripCodeFences removes markdown code fence markers around model output.
func StripCodeFences(s string) string {
	s = strings.ReplaceAll(s, "```json", "")
	s = strings.ReplaceAll(s, "```JSON", "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}

// ParseScorecard turns raw grader output into a normalized scorecard.
// Missing or malformed fields are defaulted. If the output holds no JSON
// object at all the default scorecard is returned with ErrGrading.
func ParseScorecard(raw string) (domain.Scorecard, error) {
	clean := StripCodeFences(raw)

	var fields map[string]any
	if err := json.Unmarshal([]byte(clean), &fields); err != nil {
		// Tolerate prose around the object.
		start, end := strings.IndexByte(clean, '{'), strings.LastIndexByte(clean, '}')
		if start < 0 || end <= start {
			return domain.DefaultScorecard(), fmt.Errorf("%w: %v", ErrGrading, err)
		}
		if err := json.Unmarshal([]byte(clean[start:end+1]), &fields); err != nil {
			return domain.DefaultScorecard(), fmt.Errorf("%w: %v", ErrGrading, err)
		}
	}
	if fields == nil {
		return domain.DefaultScorecard(), fmt.Errorf("%w: response is not an object", ErrGrading)
	}

	card := domain.Scorecard{
		Tech:        scoreField(fields, "tech"),
		Clarity:     scoreField(fields, "clarity"),
		Originality: scoreField(fields, "originality"),
	}
	if fb, ok := fields["feedback"].(string); ok {
		card.Feedback = strings.TrimSpace(fb)
	}
	return card.Normalize(), nil
}

func scoreField(fields map[string]any, key string) int {
	switch v := fields[key].(type) {
	case float64:
		return roundScore(v)
	case string:
		f, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(v), "%"), 64)
		if err != nil {
			return 0
		}
		return roundScore(f)
	default:
		return 0
	}
}

func roundScore(f float64) int {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return domain.ClampScore(int(math.Round(math.Max(-1, math.Min(101, f)))))
}
