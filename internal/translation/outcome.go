package translation

import "fmt"

// Kind tags a resolution outcome
type Kind int

const (
	// Success carries the translated text
	Success Kind = iota
	// NotFound means the phrase dictionary had nothing usable
	NotFound
	// ServiceError means every backend in the chain failed
	ServiceError
)

func (k Kind) String() string {
	switch k {
	case Success:
		return "success"
	case NotFound:
		return "not_found"
	case ServiceError:
		return "service_error"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Outcome is the result of one resolution. Text is set for Success, Reason
// for NotFound and ServiceError. Via names the step that produced the text.
type Outcome struct {
	Kind   Kind
	Text   string
	Reason string
	Via    string
}

// Ok reports whether the outcome is a Success
func (o Outcome) Ok() bool {
	return o.Kind == Success
}

func succeeded(text, via string) Outcome {
	return Outcome{Kind: Success, Text: text, Via: via}
}

func notFound(format string, args ...any) Outcome {
	return Outcome{Kind: NotFound, Reason: fmt.Sprintf(format, args...)}
}

func serviceError(reason string) Outcome {
	return Outcome{Kind: ServiceError, Reason: reason}
}
