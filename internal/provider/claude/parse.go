package claude

import (
	"encoding/json"
	"strings"

	"github.com/optrun/pmccscan/internal/models"
	"github.com/optrun/pmccscan/internal/provider"
)

const parseReminder = `Your previous response was not valid JSON. Respond again with ONLY the JSON object in the required schema, with no markdown fences and no commentary.`

// ParseAnalysis extracts the strict JSON analysis from a model
// response. The model occasionally wraps the object in markdown fences
// or leading prose, so the parser locates the outermost object before
// decoding and validating.
func ParseAnalysis(text string) (*models.AIAnalysis, error) {
	payload := extractJSON(text)
	if payload == "" {
		return nil, parseError("no JSON object found in response")
	}

	var analysis models.AIAnalysis
	decoder := json.NewDecoder(strings.NewReader(payload))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&analysis); err != nil {
		// Retry the decode tolerating extra fields before giving up;
		// only the schema fields matter downstream.
		if err2 := json.Unmarshal([]byte(payload), &analysis); err2 != nil {
			return nil, parseError("malformed JSON: " + err2.Error())
		}
	}

	if err := analysis.Validate(); err != nil {
		return nil, parseError("invalid analysis: " + err.Error())
	}
	return &analysis, nil
}

// extractJSON returns the first balanced top-level JSON object in text.
func extractJSON(text string) string {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		ch := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1]
			}
		}
	}
	return ""
}

func parseError(msg string) *provider.ProviderError {
	return &provider.ProviderError{
		Provider:  providerName,
		Operation: provider.OpAnalyzePMCC,
		Code:      provider.ErrCodeParse,
		Message:   msg,
	}
}
