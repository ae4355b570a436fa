package vision

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/revibe/designgen/internal/design"
)

var errNoJSON = errors.New("no JSON object found in response")

// extractJSON pulls a JSON document out of a model response. Models wrap
// their output inconsistently, so three strategies are tried in order: a
// fenced ```json block, the whole trimmed response if it already starts with
// '{', and finally the substring between the first '{' and the last '}'.
func extractJSON(text string) (string, error) {
	if idx := strings.Index(text, "```json"); idx != -1 {
		rest := text[idx+len("```json"):]
		if end := strings.Index(rest, "```"); end != -1 {
			return strings.TrimSpace(rest[:end]), nil
		}
	}

	trimmed := strings.TrimSpace(text)
	if strings.HasPrefix(trimmed, "{") {
		return trimmed, nil
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start != -1 && end > start {
		return text[start : end+1], nil
	}

	return "", errNoJSON
}

// parseAnalysis extracts and unmarshals an AnalysisResult from raw response
// text. Failures are returned as *ParseError.
func parseAnalysis(text string) (*design.AnalysisResult, error) {
	jsonText, err := extractJSON(text)
	if err != nil {
		return nil, &ParseError{Response: text, Err: err}
	}

	var result design.AnalysisResult
	if err := json.Unmarshal([]byte(jsonText), &result); err != nil {
		return nil, &ParseError{Response: text, Err: err}
	}

	return &result, nil
}
