package rag

import (
	"encoding/json"
	"strconv"
	"strings"
)

// parseDiagnosis extracts a structured diagnosis from a model reply. Parsing
// never fails: a reply that matches neither the JSON contract nor labeled
// lines degrades to a zero-confidence diagnosis carrying the raw text.
func parseDiagnosis(raw string) Diagnosis {
	text := stripCodeFence(strings.TrimSpace(raw))

	if d, ok := parseJSONDiagnosis(text); ok {
		return d
	}
	if d, ok := parseLabeledDiagnosis(text); ok {
		return d
	}
	return Diagnosis{
		Summary:    text,
		Confidence: 0,
	}
}

func parseJSONDiagnosis(text string) (Diagnosis, bool) {
	// Tolerate prose around the JSON object
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return Diagnosis{}, false
	}

	var wire struct {
		Summary      string   `json:"summary"`
		SuggestedFix string   `json:"suggested_fix"`
		Confidence   *float64 `json:"confidence"`
		SourceCase   string   `json:"source_case"`
	}
	if err := json.Unmarshal([]byte(text[start:end+1]), &wire); err != nil {
		return Diagnosis{}, false
	}
	if wire.Summary == "" && wire.SuggestedFix == "" {
		return Diagnosis{}, false
	}

	d := Diagnosis{
		Summary:      wire.Summary,
		SuggestedFix: wire.SuggestedFix,
		SourceCase:   wire.SourceCase,
	}
	if wire.Confidence != nil {
		d.Confidence = clampConfidence(*wire.Confidence)
	}
	return d, true
}

// parseLabeledDiagnosis handles replies written as labeled lines, e.g.
// "Summary: ..." / "Suggested Fix: ..." / "Confidence: 0.8".
func parseLabeledDiagnosis(text string) (Diagnosis, bool) {
	var d Diagnosis
	found := false

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		value = strings.TrimSpace(value)

		switch strings.ToLower(strings.TrimSpace(key)) {
		case "summary", "diagnosis":
			d.Summary = value
			found = true
		case "suggested fix", "fix", "recommendation":
			d.SuggestedFix = value
			found = true
		case "confidence":
			if c, err := strconv.ParseFloat(strings.TrimSuffix(value, "%"), 64); err == nil {
				if strings.HasSuffix(value, "%") {
					c /= 100
				}
				d.Confidence = clampConfidence(c)
			}
		case "source case", "source", "source ticket":
			d.SourceCase = value
		}
	}

	if !found {
		return Diagnosis{}, false
	}
	return d, true
}

func stripCodeFence(text string) string {
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}

func clampConfidence(c float64) float64 {
	if c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}
