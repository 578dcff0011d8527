package model

// FetchError reports that the page content could not be retrieved.
// Under the fail policy it ends the evaluation; its message is the
// report's only field.
type FetchError struct {
	URL string
	Err error
}

// Error implements error.
func (e *FetchError) Error() string {
	return "Failed to fetch content: " + e.Err.Error()
}

// Unwrap returns the underlying cause.
func (e *FetchError) Unwrap() error {
	return e.Err
}
