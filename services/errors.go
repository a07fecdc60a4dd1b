package services

import (
	"net/http"

	"github.com/pkg/errors"
)

// Error kinds returned by the service. Match them with errors.Is.
var (
	// ErrTimeout means the upstream call did not finish within the configured timeout
	ErrTimeout = errors.New("request timed out")
	// ErrNetwork covers transport failures other than timeouts
	ErrNetwork = errors.New("network error")
	// ErrUpstream means the endpoint answered with a non-2xx status
	ErrUpstream = errors.New("upstream error")
	// ErrUpload means the upload endpoint rejected the file
	ErrUpload = errors.New("failed to upload file")
)

// StatusError is a non-2xx answer from the chat completions endpoint
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return "API error: " + http.StatusText(e.Code)
}

// Is makes StatusError match ErrUpstream
func (e *StatusError) Is(target error) bool {
	return target == ErrUpstream
}
