package signing

import "errors"

var (
	// ErrNotSigned wraps every signing failure.
	ErrNotSigned = errors.New("document not signed")
	// ErrIncompleteMaterial indicates a missing credential file or passphrase.
	ErrIncompleteMaterial = errors.New("incomplete signing material")
	// ErrOutputNotFound indicates the signer exited cleanly without producing a file.
	ErrOutputNotFound = errors.New("signed output not found")
)
