package extract

import "fmt"

// Extraction failure reasons. These indicate the portal changed its embedding
// convention; retrying cannot fix them.
const (
	ReasonPatternNotFound  = "pattern not found"
	ReasonAmbiguousPattern = "pattern matched more than once"
	ReasonMalformedPayload = "malformed payload"
)

// ExtractionError reports a fatal failure to locate or parse the embedded
// data literal on a fetched page. It is never retried.
type ExtractionError struct {
	URL    string
	Reason string
	Err    error
}

func (e *ExtractionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("extraction failed for %s: %s: %v", e.URL, e.Reason, e.Err)
	}
	return fmt.Sprintf("extraction failed for %s: %s", e.URL, e.Reason)
}

func (e *ExtractionError) Unwrap() error { return e.Err }
