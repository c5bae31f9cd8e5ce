// Package recognize calls the vision model to extract structured data from
// captured images: plate characters, car details, or text corrections. The
// model is an opaque image-plus-prompt to JSON service; anything empty or
// unparseable is a typed RecognitionError, never a silent coercion.
package recognize

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// Mode selects what the recognition call extracts.
type Mode string

const (
	ModePlate          Mode = "plate"
	ModeCarDetails     Mode = "car_details"
	ModeTextCorrection Mode = "text_correction"
)

// Plate is the recognized license plate, split the way the intake form
// stores it.
type Plate struct {
	Letters string `json:"letters"`
	Numbers string `json:"numbers"`
}

// CarDetails is the recognized vehicle identity.
type CarDetails struct {
	Make  string `json:"make"`
	Model string `json:"model"`
	Year  int    `json:"year"`
}

// Correction is one suggested text fix from the proofreading mode.
type Correction struct {
	Original  string `json:"original"`
	Corrected string `json:"corrected"`
}

// Result carries whichever record the mode produced.
type Result struct {
	Plate       *Plate       `json:"plate,omitempty"`
	Car         *CarDetails  `json:"car,omitempty"`
	Corrections []Correction `json:"corrections,omitempty"`
}

// RecognitionError reports a failed or unusable model response. The capture
// flow returns to a retry-capable state when it sees one.
type RecognitionError struct {
	Mode   Mode
	Reason string
	Err    error
}

func (e *RecognitionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("recognition (%s) failed: %s: %v", e.Mode, e.Reason, e.Err)
	}
	return fmt.Sprintf("recognition (%s) failed: %s", e.Mode, e.Reason)
}

func (e *RecognitionError) Unwrap() error { return e.Err }

// Client is the recognition collaborator. Implementations must return a
// RecognitionError for anything the caller cannot act on.
type Client interface {
	Recognize(ctx context.Context, imageData []byte, mode Mode) (*Result, error)
}

// Gemini is the production client.
type Gemini struct {
	apiKey string
	model  string
}

// NewGemini returns a client for the given API key and model name.
func NewGemini(apiKey, model string) (*Gemini, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key not set")
	}
	if model == "" {
		model = "gemini-2.0-flash"
	}
	return &Gemini{apiKey: apiKey, model: model}, nil
}

// Recognize sends the image with the mode's prompt and parses the JSON
// reply.
func (g *Gemini) Recognize(ctx context.Context, imageData []byte, mode Mode) (*Result, error) {
	if len(imageData) == 0 {
		return nil, &RecognitionError{Mode: mode, Reason: "empty image"}
	}
	prompt, err := promptFor(mode)
	if err != nil {
		return nil, err
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(g.apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	defer client.Close()

	model := client.GenerativeModel(g.model)
	model.SetTemperature(0)

	resp, err := model.GenerateContent(ctx,
		genai.ImageData("jpeg", imageData),
		genai.Text(prompt),
	)
	if err != nil {
		return nil, &RecognitionError{Mode: mode, Reason: "model call failed", Err: err}
	}

	text, err := candidateText(resp)
	if err != nil {
		return nil, &RecognitionError{Mode: mode, Reason: "empty response", Err: err}
	}

	result, err := parseResult(mode, text)
	if err != nil {
		return nil, err
	}

	slog.Info("Recognition completed", "mode", mode)
	return result, nil
}

func candidateText(resp *genai.GenerateContentResponse) (string, error) {
	if len(resp.Candidates) == 0 {
		return "", fmt.Errorf("no candidates returned")
	}
	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", fmt.Errorf("empty content returned")
	}
	if txt, ok := candidate.Content.Parts[0].(genai.Text); ok {
		return string(txt), nil
	}
	return "", fmt.Errorf("unexpected response format")
}

func promptFor(mode Mode) (string, error) {
	switch mode {
	case ModePlate:
		return `Read the license plate in this photo.
Respond with ONLY a JSON object: {"letters": "...", "numbers": "..."}
Use empty strings for parts you cannot read. No commentary.`, nil
	case ModeCarDetails:
		return `Identify the vehicle in this photo.
Respond with ONLY a JSON object: {"make": "...", "model": "...", "year": 2020}
Use empty strings or 0 for fields you cannot determine. No commentary.`, nil
	case ModeTextCorrection:
		return `Proofread the handwritten text in this image.
Respond with ONLY a JSON array: [{"original": "...", "corrected": "..."}]
Return [] if nothing needs correction. No commentary.`, nil
	default:
		return "", &RecognitionError{Mode: mode, Reason: "unsupported mode"}
	}
}
