package study

import "fmt"

// ValidationError is a bad request parameter.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func invalid(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// FileExistsError rejects an upload whose name is already stored when the
// caller did not ask to override it.
type FileExistsError struct {
	Name string
}

func (e *FileExistsError) Error() string {
	return fmt.Sprintf("File '%s' is already uploaded.", e.Name)
}
