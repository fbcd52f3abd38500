package ingest

// ContentError reports input that is empty, unreadable or of an
// unsupported type. The message is meant to be shown to the user as-is.
type ContentError struct {
	Msg string
	Err error
}

func (e *ContentError) Error() string { return e.Msg }

func (e *ContentError) Unwrap() error { return e.Err }
