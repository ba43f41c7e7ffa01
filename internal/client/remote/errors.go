package remote

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/echochat/internal/common"
)

// ErrUnavailable means the backend could not be reached or did not
// answer in time. Callers degrade to local data and let the reconciler
// catch up later.
var ErrUnavailable = errors.New("server unavailable")

// mapStatus converts an HTTP response status to the client's sentinel
// errors. 2xx maps to nil.
func mapStatus(status int) error {
	switch {
	case status >= 200 && status < 300:
		return nil
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		return common.ErrorUnauthorized
	case status == http.StatusNotFound:
		return common.ErrorNotFound
	case status == http.StatusServiceUnavailable, status == http.StatusBadGateway,
		status == http.StatusGatewayTimeout:
		return ErrUnavailable
	default:
		return fmt.Errorf("%w: unexpected status %d", common.ErrorInternal, status)
	}
}
