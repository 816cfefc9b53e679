package codec

import "fmt"

// ErrorKind classifies a decode failure.
type ErrorKind string

const (
	KindKeyNotFound        ErrorKind = "key not found"
	KindValueNotFound      ErrorKind = "value not found"
	KindTypeMismatch       ErrorKind = "type mismatch"
	KindDataCorrupted      ErrorKind = "data corrupted"
	KindMalformedTimestamp ErrorKind = "malformed timestamp"
)

// DecodeError reports a payload that did not match the expected shape.
// Path is dotted with array indexes, e.g. "articles[2].publishedAt".
type DecodeError struct {
	Kind        ErrorKind
	Path        string
	Literal     string
	Description string
	Err         error
}

func (e *DecodeError) Error() string {
	path := e.Path
	if path == "" {
		path = "<root>"
	}
	if e.Kind == KindMalformedTimestamp {
		return fmt.Sprintf("%s %q at %s", e.Kind, e.Literal, path)
	}
	if e.Description != "" {
		return fmt.Sprintf("%s at %s: %s", e.Kind, path, e.Description)
	}
	return fmt.Sprintf("%s at %s", e.Kind, path)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

func keyNotFound(path string) error {
	return &DecodeError{Kind: KindKeyNotFound, Path: path, Description: "required field is missing"}
}

func valueNotFound(path string) error {
	return &DecodeError{Kind: KindValueNotFound, Path: path, Description: "required field is null"}
}

func typeMismatch(path, want string, err error) error {
	return &DecodeError{Kind: KindTypeMismatch, Path: path, Description: "expected " + want, Err: err}
}

func dataCorrupted(path, desc string, err error) error {
	return &DecodeError{Kind: KindDataCorrupted, Path: path, Description: desc, Err: err}
}
