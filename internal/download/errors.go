package download

import "errors"

var (
	// ErrInvalidURL is returned for input that is not an absolute http(s) URL.
	ErrInvalidURL = errors.New("invalid URL")
	// ErrHostNotAllowed is returned when the URL points outside the allow-list.
	ErrHostNotAllowed = errors.New("host not allowed")
	// ErrUnsupportedURL is returned for URLs that are neither posts nor stories.
	ErrUnsupportedURL = errors.New("Unsupported URL type")
	// ErrNoMedia is returned when a page carries no media metadata.
	ErrNoMedia = errors.New("no media found on page")
)

// DownstreamError wraps every failure of the content-fetch path. Callers map
// it to a client error; it is never retried here.
type DownstreamError struct {
	Err error
}

func (e *DownstreamError) Error() string {
	return "Download failed: " + e.Err.Error()
}

func (e *DownstreamError) Unwrap() error {
	return e.Err
}
