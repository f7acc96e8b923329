package r2

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/rxxuzi/fxgate/internal/errs"
)

// mapError translates a transport-level error into a *errs.Error.
func mapError(err error, msg string) *errs.Error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return errs.Wrap(errs.ErrKindTimeout, msg, err)
	}

	var urlErr interface{ Timeout() bool }
	if errors.As(err, &urlErr) && urlErr.Timeout() {
		return errs.Wrap(errs.ErrKindTimeout, msg, err)
	}

	// Dial failures, TLS failures, broken connections
	if strings.Contains(err.Error(), "connection refused") ||
		strings.Contains(err.Error(), "no such host") {
		return errs.Wrap(errs.ErrKindConnectionFailed, msg, err)
	}

	return errs.Wrap(errs.ErrKindStoreFailed, msg, err)
}

// statusError turns a non-2xx store response into a *errs.Error carrying
// the status and a trimmed slice of the error body for diagnostics.
func statusError(resp *http.Response, msg string) *errs.Error {
	detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))

	kind := errs.ErrKindStoreFailed
	if resp.StatusCode == http.StatusNotFound {
		kind = errs.ErrKindNotFound
	}

	cause := fmt.Errorf("%s: %s", resp.Status, strings.TrimSpace(string(detail)))
	return errs.Wrap(kind, msg, cause)
}
