package recognize

import (
	"encoding/json"
	"fmt"
	"strings"
)

// stripFences removes a markdown code fence the model sometimes wraps its
// JSON in, despite the prompt.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// parseResult decodes the model's reply for the given mode.
func parseResult(mode Mode, text string) (*Result, error) {
	text = stripFences(text)
	if text == "" {
		return nil, &RecognitionError{Mode: mode, Reason: "empty response"}
	}

	switch mode {
	case ModePlate:
		var plate Plate
		if err := json.Unmarshal([]byte(text), &plate); err != nil {
			return nil, &RecognitionError{Mode: mode, Reason: "malformed response", Err: err}
		}
		if plate.Letters == "" && plate.Numbers == "" {
			return nil, &RecognitionError{Mode: mode, Reason: "no plate characters recognized"}
		}
		return &Result{Plate: &plate}, nil
	case ModeCarDetails:
		var car CarDetails
		if err := json.Unmarshal([]byte(text), &car); err != nil {
			return nil, &RecognitionError{Mode: mode, Reason: "malformed response", Err: err}
		}
		if car.Make == "" && car.Model == "" && car.Year == 0 {
			return nil, &RecognitionError{Mode: mode, Reason: "no vehicle details recognized"}
		}
		return &Result{Car: &car}, nil
	case ModeTextCorrection:
		var corrections []Correction
		if err := json.Unmarshal([]byte(text), &corrections); err != nil {
			return nil, &RecognitionError{Mode: mode, Reason: "malformed response", Err: err}
		}
		return &Result{Corrections: corrections}, nil
	default:
		return nil, &RecognitionError{Mode: mode, Reason: "unsupported mode"}
	}
}

// ParseMode validates a mode string from an API request.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModePlate, ModeCarDetails, ModeTextCorrection:
		return Mode(s), nil
	default:
		return "", fmt.Errorf("unknown recognition mode %q", s)
	}
}
