package retrieval

import "fmt"

const (
	SourceWeb      = "web"
	SourceDocument = "document"
)

// Error records why a retriever fell back to its empty result. It is never
// returned to callers as an error value; results carry it for logging and tests.
type Error struct {
	Source string
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s retrieval: %v", e.Source, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}
