package prompts

import "errors"

// Errors returned by template lookup, parsing, and rendering.
var (
	ErrInvalidStage = errors.New("unknown template stage")
	ErrParseFailed  = errors.New("template parse failed")
	ErrRenderFailed = errors.New("template render failed")
)
