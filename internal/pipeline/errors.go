package pipeline

import "errors"

// kinder is satisfied by the typed errors of every stage.
type kinder interface {
	Kind() string
}

// KindOf extracts the stable error kind from a pipeline failure, so callers
// can branch on failure class without parsing messages.
func KindOf(err error) string {
	var k kinder
	if errors.As(err, &k) {
		return k.Kind()
	}
	if errors.Is(err, ErrRunInProgress) {
		return "run_in_progress"
	}
	return "internal_error"
}
