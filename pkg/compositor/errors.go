package compositor

import "errors"

var (
	// ErrLetterheadMissing indicates the configured letterhead file cannot be read.
	ErrLetterheadMissing = errors.New("letterhead file not found")
	// ErrUnsupported indicates a letterhead format other than PNG, JPEG, or PDF.
	ErrUnsupported = errors.New("unsupported letterhead format")
	// ErrInvalidLetterhead indicates the letterhead could not be decoded.
	ErrInvalidLetterhead = errors.New("invalid letterhead")
)
