package llm

import (
	"encoding/json"
	"regexp"
	"strings"
)

var fencePattern = regexp.MustCompile("```(?:json)?\\s*([\\s\\S]*?)```")

// DecodeJSON parses a model reply into v. The reply may be bare JSON or
// wrapped in a markdown code fence.
func DecodeJSON(reply string, v interface{}) error {
	text := strings.TrimSpace(reply)
	err := json.Unmarshal([]byte(text), v)
	if err == nil {
		return nil
	}

	m := fencePattern.FindStringSubmatch(text)
	if m == nil {
		return err
	}
	return json.Unmarshal([]byte(strings.TrimSpace(m[1])), v)
}
