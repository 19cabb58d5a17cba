package reasoning

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Models are asked for bare JSON but regularly wrap it in markdown
// fences or lead with prose. extractJSON pulls the first balanced JSON
// value of the wanted shape out of raw text.

func extractJSONArray(raw string) (string, error) {
	return extractBalanced(raw, '[', ']')
}

func extractJSONObject(raw string) (string, error) {
	return extractBalanced(raw, '{', '}')
}

func extractBalanced(raw string, open, close byte) (string, error) {
	cleaned := stripFences(raw)
	start := strings.IndexByte(cleaned, open)
	if start < 0 {
		return "", fmt.Errorf("no %q found in model output", string(open))
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(cleaned); i++ {
		c := cleaned[i]
		if escaped {
			escaped = false
			continue
		}
		switch {
		case c == '\\' && inString:
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
		case c == open:
			depth++
		case c == close:
			depth--
			if depth == 0 {
				return cleaned[start : i+1], nil
			}
		}
	}
	return "", fmt.Errorf("unbalanced %q in model output", string(open))
}

func stripFences(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}

func decodeArray[T any](raw string) ([]T, error) {
	payload, err := extractJSONArray(raw)
	if err != nil {
		return nil, err
	}
	var out []T
	if err := json.Unmarshal([]byte(payload), &out); err != nil {
		return nil, fmt.Errorf("decode model output: %w", err)
	}
	return out, nil
}

func decodeObject[T any](raw string) (*T, error) {
	payload, err := extractJSONObject(raw)
	if err != nil {
		return nil, err
	}
	var out T
	if err := json.Unmarshal([]byte(payload), &out); err != nil {
		return nil, fmt.Errorf("decode model output: %w", err)
	}
	return &out, nil
}
