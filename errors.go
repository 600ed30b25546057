package wetwire_apigw

import "fmt"

// ConfigurationError reports a required field that is absent or structurally
// invalid in a proxy event. It aborts the whole compile pass.
type ConfigurationError struct {
	// Index is the position of the offending event, or -1 when the error is
	// not tied to a single event.
	Index   int
	Field   string
	Message string
}

func (e *ConfigurationError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("events[%d].%s: %s", e.Index, e.Field, e.Message)
}
