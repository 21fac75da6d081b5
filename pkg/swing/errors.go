package swing

import "errors"

var (
	// ErrBusy means a recording precondition was violated; the call
	// had no side effects and is safe to retry.
	ErrBusy = errors.New("camera busy")
	// ErrNotArmed means a shot was signalled while the launch
	// monitor was not armed.
	ErrNotArmed = errors.New("launch monitor not armed")
	// ErrExtraction means the external trimming process failed; the
	// launch monitor still returns to idle.
	ErrExtraction = errors.New("clip extraction failed")
)
