package core

import (
	"github.com/josephgoksu/ReqWing/internal/utils"
)

// ParseStrictJSON extracts the first JSON object from an LLM response and
// decodes it into T. Every key in required must be present.
func ParseStrictJSON[T any](response string, required ...string) (T, error) {
	return utils.ParseJSONWithKeys[T](response, required...)
}
