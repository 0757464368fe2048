package interview

import (
	"encoding/json"

	"github.com/ashureev/interview-labs/internal/domain"
)

const (
	// FinishMarker is the only inbound type that is not a turn.
	FinishMarker = "FINISH"

	TypeAIResponse  = "AI_RESPONSE"
	TypeFinalReport = "FINAL_REPORT"

	// FallbackText is sent when a turn could not be processed.
	FallbackText = "I missed that last bit. Could you continue?"
)

// inbound is a client message. Text is nil when the field was absent.
type inbound struct {
	Type  string
	Frame string
	Text  *string
}

func (m inbound) isFinish() bool {
	return m.Type == FinishMarker
}

// parseInbound extracts the known fields independently so a malformed field
// never turns a message into something else. Non-object payloads are an
// error and are handled as a broken turn.
func parseInbound(data []byte) (inbound, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return inbound{}, err
	}
	var msg inbound
	if v, ok := raw["type"]; ok {
		_ = json.Unmarshal(v, &msg.Type)
	}
	if v, ok := raw["frame"]; ok {
		_ = json.Unmarshal(v, &msg.Frame)
	}
	if v, ok := raw["text"]; ok {
		var text string
		if err := json.Unmarshal(v, &text); err == nil {
			msg.Text = &text
		}
	}
	return msg, nil
}

// AIResponse carries the next interviewer question.
type AIResponse struct {
	Type  string  `json:"type"`
	Text  string  `json:"text"`
	Audio *string `json:"audio"`
}

func newAIResponse(text string, audio *string) AIResponse {
	return AIResponse{Type: TypeAIResponse, Text: text, Audio: audio}
}

// FinalReport carries the persisted scorecard.
type FinalReport struct {
	Type     string           `json:"type"`
	ReportID int64            `json:"report_id"`
	Scores   domain.Scorecard `json:"scores"`
}

func newFinalReport(id int64, scores domain.Scorecard) FinalReport {
	return FinalReport{Type: TypeFinalReport, ReportID: id, Scores: scores}
}
