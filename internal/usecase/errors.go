package usecase

import "fmt"

// InputError is fatal: the run cannot start without the named input.
type InputError struct {
	What string
	Err  error
}

func (e *InputError) Error() string { return fmt.Sprintf("input %s: %v", e.What, e.Err) }
func (e *InputError) Unwrap() error { return e.Err }

type AlignmentError struct {
	Word string
	Err  error
}

func (e *AlignmentError) Error() string { return fmt.Sprintf("align %q: %v", e.Word, e.Err) }
func (e *AlignmentError) Unwrap() error { return e.Err }

type ExtractionError struct {
	Word  string
	Index int
	Err   error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract %s clip %d: %v", e.Word, e.Index, e.Err)
}
func (e *ExtractionError) Unwrap() error { return e.Err }

// OverlayError leaves the clip as it was before captioning.
type OverlayError struct {
	Clip string
	Err  error
}

func (e *OverlayError) Error() string { return fmt.Sprintf("caption %s: %v", e.Clip, e.Err) }
func (e *OverlayError) Unwrap() error { return e.Err }
