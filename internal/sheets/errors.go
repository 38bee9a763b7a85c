package sheets

import (
	"context"
	"errors"
	"fmt"
	"net/url"
)

// Sentinel failure classes for a whole-fetch failure. Zero sheets found is
// not an error; callers get an empty slice.
var (
	ErrTimeout    = errors.New("request timed out")
	ErrPermission = errors.New("permission denied")
	ErrNotFound   = errors.New("spreadsheet not found")
)

// classify wraps a transport or HTTP failure into one of the sentinel
// classes so callers can branch with errors.Is.
func classify(err error, statusCode int) error {
	switch statusCode {
	case 403:
		return fmt.Errorf("%w: check the spreadsheet sharing settings", ErrPermission)
	case 404:
		return fmt.Errorf("%w: check the spreadsheet identifier", ErrNotFound)
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	var uerr *url.Error
	if errors.As(err, &uerr) && uerr.Timeout() {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	return err
}

// UserMessage renders a classified error as the line shown to the operator.
func UserMessage(err error) string {
	switch {
	case errors.Is(err, ErrTimeout):
		return "The request timed out. Try again in a moment."
	case errors.Is(err, ErrPermission):
		return "Access denied. Check the spreadsheet sharing settings."
	case errors.Is(err, ErrNotFound):
		return "Spreadsheet not found. Check the identifier."
	default:
		return err.Error()
	}
}
