package gateway

import (
	"context"
	"errors"
	"net"
	"net/http"
	"syscall"

	yerrors "github.com/yanun0323/errors"

	"main/pkg/exception"
)

// Classify re-raises a raw transport error as one of the fixed
// taxonomy sentinels so retry logic is classification-driven instead
// of string-matching exchange error text. Errors already carrying a
// taxonomy sentinel pass through unchanged.
func Classify(err error) error {
	if err == nil {
		return nil
	}

	switch exception.KindOf(err) {
	case exception.KindRateLimit, exception.KindOrder:
		return err
	}
	if errors.Is(err, exception.ErrConnection) ||
		errors.Is(err, exception.ErrConnectionTimeout) ||
		errors.Is(err, exception.ErrConnectionRefused) ||
		errors.Is(err, exception.ErrConnectionClosed) {
		return err
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return yerrors.Wrap(exception.ErrConnectionTimeout, err.Error())
	case errors.Is(err, syscall.ECONNREFUSED):
		return yerrors.Wrap(exception.ErrConnectionRefused, err.Error())
	case errors.Is(err, net.ErrClosed):
		return yerrors.Wrap(exception.ErrConnectionClosed, err.Error())
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return yerrors.Wrap(exception.ErrConnectionTimeout, err.Error())
	}

	return yerrors.Wrap(exception.ErrConnection, err.Error())
}

// ClassifyStatus maps an exchange HTTP status code to a taxonomy
// sentinel, nil for success codes.
func ClassifyStatus(code int) error {
	switch {
	case code >= 200 && code < 300:
		return nil
	case code == http.StatusTooManyRequests:
		return exception.ErrRateLimited
	case code == http.StatusBadRequest, code == http.StatusUnprocessableEntity:
		return exception.ErrOrderInvalidRequest
	case code == http.StatusNotFound:
		return exception.ErrOrderNotFound
	case code == http.StatusPaymentRequired, code == http.StatusForbidden:
		return exception.ErrOrderInsufficientBalance
	case code >= 500:
		return exception.ErrConnection
	default:
		return exception.ErrOrderInvalidRequest
	}
}
