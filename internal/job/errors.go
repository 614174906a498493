package job

import (
	"errors"
	"fmt"
)

// ErrBusy is returned by Submit when the user already has an active job.
var ErrBusy = errors.New("user already has an active job")

// TransferError marks a failure while moving files to or from the transport,
// as opposed to a failure of the media process itself.
type TransferError struct {
	Stage string // "download" or "upload"
	Err   error
}

func (e *TransferError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Stage, e.Err)
}

func (e *TransferError) Unwrap() error { return e.Err }
