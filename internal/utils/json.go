package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Errors returned by the JSON helpers.
var (
	ErrNoJSON      = errors.New("no JSON object found in response")
	ErrMissingKeys = errors.New("missing required keys")
)

// ExtractJSONObject finds the first JSON object in a model response and
// decodes it. Markdown fences and leading/trailing prose are ignored; the
// object itself must be valid JSON apart from raw control characters inside
// strings, which are escaped before decoding.
func ExtractJSONObject(response string) (map[string]json.RawMessage, error) {
	cleaned := cleanLLMResponse(response)
	if strings.HasPrefix(cleaned, `"`) {
		// A JSON string that itself holds the object.
		var inner string
		if err := json.Unmarshal([]byte(cleaned), &inner); err == nil {
			return ExtractJSONObject(inner)
		}
	}
	idx := strings.IndexByte(cleaned, '{')
	if idx == -1 {
		return nil, ErrNoJSON
	}

	jsonPart := cleaned[idx:]
	var obj map[string]json.RawMessage
	// Decoder stops after one value, so trailing prose is ignored.
	if err := json.NewDecoder(strings.NewReader(jsonPart)).Decode(&obj); err != nil {
		sanitized := sanitizeControlChars(jsonPart)
		if sanitized == jsonPart {
			return nil, fmt.Errorf("parse JSON: %w", err)
		}
		if err2 := json.NewDecoder(strings.NewReader(sanitized)).Decode(&obj); err2 != nil {
			return nil, fmt.Errorf("parse JSON: %w", err)
		}
	}
	return obj, nil
}

// ParseJSONWithKeys extracts the first JSON object from response, requires
// every key in required to be present and non-null, and decodes it into T.
func ParseJSONWithKeys[T any](response string, required ...string) (T, error) {
	var result T
	obj, err := ExtractJSONObject(response)
	if err != nil {
		return result, err
	}

	var missing []string
	for _, key := range required {
		raw, ok := obj[key]
		if !ok || string(raw) == "null" {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return result, fmt.Errorf("%w: %s", ErrMissingKeys, strings.Join(missing, ", "))
	}

	data, err := json.Marshal(obj)
	if err != nil {
		return result, fmt.Errorf("re-encode JSON: %w", err)
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return result, fmt.Errorf("decode JSON: %w", err)
	}
	return result, nil
}

// sanitizeControlChars escapes literal control characters inside JSON strings.
func sanitizeControlChars(input string) string {
	var result strings.Builder
	result.Grow(len(input))

	inString := false
	escaped := false

	for i := 0; i < len(input); i++ {
		c := input[i]

		if escaped {
			result.WriteByte(c)
			escaped = false
			continue
		}
		if c == '\\' && inString {
			result.WriteByte(c)
			escaped = true
			continue
		}
		if c == '"' {
			inString = !inString
			result.WriteByte(c)
			continue
		}
		if !inString || c >= 0x20 {
			result.WriteByte(c)
			continue
		}

		switch c {
		case '\t':
			result.WriteString(`\t`)
		case '\n':
			result.WriteString(`\n`)
		case '\r':
			result.WriteString(`\r`)
		default:
			result.WriteString(fmt.Sprintf(`\u%04x`, c))
		}
	}

	return result.String()
}

// cleanLLMResponse strips markdown code fences.
func cleanLLMResponse(response string) string {
	response = strings.TrimSpace(response)

	if strings.HasPrefix(response, "```json") {
		response = strings.TrimPrefix(response, "```json")
	} else if strings.HasPrefix(response, "```") {
		response = strings.TrimPrefix(response, "```")
	}
	response = strings.TrimSuffix(response, "```")

	return strings.TrimSpace(response)
}
