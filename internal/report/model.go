// Package report defines the composed read-only model an inspection report
// is rendered from, plus the presentation settings the compositor depends
// on. The pipeline never mutates a Report; a translated variant substitutes
// the whole object.
package report

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Direction is the text flow of a report language.
type Direction string

const (
	DirectionLTR Direction = "ltr"
	DirectionRTL Direction = "rtl"
)

// Client is the workshop customer the report is addressed to.
type Client struct {
	Name  string `json:"name" yaml:"name"`
	Phone string `json:"phone" yaml:"phone"`
}

// Car identifies the inspected vehicle.
type Car struct {
	Make  string `json:"make" yaml:"make"`
	Model string `json:"model" yaml:"model"`
	Year  int    `json:"year" yaml:"year"`
	Plate string `json:"plate" yaml:"plate"`
}

// Finding is one inspection observation within a section.
type Finding struct {
	Section  string `json:"section" yaml:"section"`
	Title    string `json:"title" yaml:"title"`
	Detail   string `json:"detail" yaml:"detail"`
	Severity string `json:"severity" yaml:"severity"`
	ImageURL string `json:"image_url,omitempty" yaml:"image_url,omitempty"`
}

// Note is free-form commentary appended after the findings.
type Note struct {
	Text string `json:"text" yaml:"text"`
}

// WatermarkSettings configure the per-section background tile built from the
// section title.
type WatermarkSettings struct {
	Enabled bool `json:"enabled" yaml:"enabled"`
	// Opacity defaults to 0.06; the tile must never obstruct text.
	Opacity float64 `json:"opacity" yaml:"opacity"`
	// SpacingPx is the tile pitch. Zero means DefaultWatermarkSpacing.
	SpacingPx int `json:"spacing_px" yaml:"spacing_px"`
	// AngleDeg rotates the tile text. Zero means DefaultWatermarkAngle.
	AngleDeg float64 `json:"angle_deg" yaml:"angle_deg"`
}

// Settings carry the workshop's report branding.
type Settings struct {
	AccentColor string            `json:"accent_color" yaml:"accent_color"`
	FontToken   string            `json:"font_token" yaml:"font_token"`
	QRContent   string            `json:"qr_content" yaml:"qr_content"`
	Watermark   WatermarkSettings `json:"watermark" yaml:"watermark"`
}

// Report is the composed read-only view rendered into the PDF.
type Report struct {
	RequestID      string    `json:"request_id" yaml:"request_id"`
	InspectionType string    `json:"inspection_type" yaml:"inspection_type"`
	Client         Client    `json:"client" yaml:"client"`
	Car            Car       `json:"car" yaml:"car"`
	Findings       []Finding `json:"findings" yaml:"findings"`
	Notes          []Note    `json:"notes" yaml:"notes"`
	Settings       Settings  `json:"settings" yaml:"settings"`
	Language       string    `json:"language" yaml:"language"`
	Direction      Direction `json:"direction" yaml:"direction"`
}

// Sections returns the distinct finding sections in first-seen order.
func (r *Report) Sections() []string {
	seen := make(map[string]bool)
	var out []string
	for _, f := range r.Findings {
		if !seen[f.Section] {
			seen[f.Section] = true
			out = append(out, f.Section)
		}
	}
	return out
}

// SectionFindings returns the findings of one section in report order.
func (r *Report) SectionFindings(section string) []Finding {
	var out []Finding
	for _, f := range r.Findings {
		if f.Section == section {
			out = append(out, f)
		}
	}
	return out
}

// Load reads a report from a YAML file, for the CLI entry point.
func Load(path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read report file: %w", err)
	}
	var r Report
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("parse report file: %w", err)
	}
	if r.Direction == "" {
		r.Direction = DirectionLTR
	}
	return &r, nil
}
