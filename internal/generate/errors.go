package generate

import "fmt"

// GenerationError reports a fatal text-service failure (invalid key, quota).
// Retrying will not help, so the run aborts.
type GenerationError struct {
	Err error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("text generation failed: %v", e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

func (e *GenerationError) Kind() string { return "generation_error" }

// GenerationParseError reports a malformed or incomplete response from the
// text service. It is recoverable: one strict-reformat retry, then the
// deterministic fallback.
type GenerationParseError struct {
	Err error
}

func (e *GenerationParseError) Error() string {
	return fmt.Sprintf("unusable text-service response: %v", e.Err)
}

func (e *GenerationParseError) Unwrap() error { return e.Err }

func (e *GenerationParseError) Kind() string { return "generation_parse_error" }
