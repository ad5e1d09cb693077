package media

import "errors"

// Error taxonomy for the pipeline. Stages wrap these sentinels with
// fmt.Errorf("...: %w", ...) so callers can classify with errors.Is while the
// message still names the failing stage.
var (
	// ErrInvalidConfiguration covers bad parameters caught before any I/O.
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrProbeFailed indicates the probing collaborator could not read
	// metadata (missing file, unsupported container).
	ErrProbeFailed = errors.New("probe failed")

	// ErrExtractionFailed indicates frame extraction failed entirely.
	// Partial failures surface as FrameSet gaps instead.
	ErrExtractionFailed = errors.New("extraction failed")

	// ErrEncodeFailed indicates the output image could not be written.
	ErrEncodeFailed = errors.New("encode failed")

	// ErrInsufficientFrames indicates fewer frames survived than the layout
	// has cells. Reported, never silently padded.
	ErrInsufficientFrames = errors.New("insufficient frames")
)
