// ABOUTME: Error type for failed workspace calls
// ABOUTME: Carries the backend message verbatim so it can be shown to the user as-is
package directory

import (
	"errors"

	"github.com/databricks/databricks-sdk-go/apierr"
)

// RemoteOperationError reports a failed call to the workspace.
type RemoteOperationError struct {
	Op      string
	Message string
	Err     error
}

func (e *RemoteOperationError) Error() string {
	return e.Message
}

func (e *RemoteOperationError) Unwrap() error {
	return e.Err
}

func remoteError(op string, err error) error {
	if err == nil {
		return nil
	}
	var existing *RemoteOperationError
	if errors.As(err, &existing) {
		return err
	}

	msg := err.Error()
	var apiErr *apierr.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		msg = apiErr.Message
	}
	return &RemoteOperationError{Op: op, Message: msg, Err: err}
}

// IsRemote reports whether err came back from the workspace.
func IsRemote(err error) bool {
	var remote *RemoteOperationError
	return errors.As(err, &remote)
}
