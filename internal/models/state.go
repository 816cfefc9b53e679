package models

// LoadStateKind enumerates the outcomes a list screen can be in.
type LoadStateKind string

const (
	StateLoaded LoadStateKind = "loaded"
	StateEmpty  LoadStateKind = "empty"
	StateFailed LoadStateKind = "failed"
)

// LoadState distinguishes a successful empty result from a failure.
type LoadState struct {
	Kind    LoadStateKind `json:"kind"`
	Title   string        `json:"title,omitempty"`
	Message string        `json:"message,omitempty"`
}

func Loaded() LoadState {
	return LoadState{Kind: StateLoaded}
}

func Empty(title, message string) LoadState {
	return LoadState{Kind: StateEmpty, Title: title, Message: message}
}

func Failed(message string) LoadState {
	return LoadState{Kind: StateFailed, Message: message}
}
