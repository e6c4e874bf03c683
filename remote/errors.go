package remote

import (
	"errors"
	"fmt"
	"net"
)

// HTTPFailure is a failed request to a remote service. Status 0 means no
// response was received.
type HTTPFailure struct {
	URL    string
	Status int
	Body   string
	Err    error
}

func (e *HTTPFailure) Error() string {
	return fmt.Sprintf("HTTP request to %s failed with status %d: %q", e.URL, e.Status, e.Body)
}

func (e *HTTPFailure) Unwrap() error {
	return e.Err
}

// Transport reports whether the request never reached the service.
func (e *HTTPFailure) Transport() bool {
	return e.Status == 0
}

// Permanent reports whether retrying the same request is pointless.
func (e *HTTPFailure) Permanent() bool {
	return e.Status >= 400 && e.Status < 500
}

// IsTransport reports whether err is a network-class failure (offline,
// unreachable, DNS) as opposed to an error returned by the service.
func IsTransport(err error) bool {
	if err == nil {
		return false
	}

	var failure *HTTPFailure
	if errors.As(err, &failure) {
		return failure.Transport()
	}

	// *url.Error, as returned by http.Client, is a net.Error too
	var netErr net.Error
	return errors.As(err, &netErr)
}
