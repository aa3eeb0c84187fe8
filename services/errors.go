package services

import (
	"context"
	"database/sql/driver"
	"errors"
	"net"
	"strings"
	"syscall"

	"github.com/jackc/pgx/v5/pgconn"
)

// ErrProductNotFound is returned when an update targets a product id that does not exist
var ErrProductNotFound = errors.New("product not found")

// AccessError reports that the product store rejected the caller's credentials or permissions
type AccessError struct {
	Err error
}

func (e *AccessError) Error() string {
	return "Access denied. Please check the product store permissions."
}

func (e *AccessError) Unwrap() error {
	return e.Err
}

// UnavailableError reports that the product store or the network is unreachable
type UnavailableError struct {
	Err error
}

func (e *UnavailableError) Error() string {
	return "Product store unavailable. Please check the database configuration."
}

func (e *UnavailableError) Unwrap() error {
	return e.Err
}

// UploadError reports a failure returned by the image host
type UploadError struct {
	StatusCode int
	Message    string
}

func (e *UploadError) Error() string {
	return e.Message
}

// IsAccessError reports whether err is, or wraps, an AccessError
func IsAccessError(err error) bool {
	var accessErr *AccessError
	return errors.As(err, &accessErr)
}

// IsUnavailableError reports whether err is, or wraps, an UnavailableError
func IsUnavailableError(err error) bool {
	var unavailableErr *UnavailableError
	return errors.As(err, &unavailableErr)
}

// ClassifyStoreError converts permission failures into AccessError and
// connectivity failures into UnavailableError. Other errors are returned unchanged.
func ClassifyStoreError(err error) error {
	if err == nil || IsAccessError(err) || IsUnavailableError(err) {
		return err
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == "42501", strings.HasPrefix(pgErr.Code, "28"):
			// insufficient_privilege, invalid_authorization_specification, invalid_password
			return &AccessError{Err: err}
		case strings.HasPrefix(pgErr.Code, "08"), strings.HasPrefix(pgErr.Code, "57P"):
			// connection_exception, operator intervention (shutdown, cannot connect now)
			return &UnavailableError{Err: err}
		}
		return err
	}

	var connectErr *pgconn.ConnectError
	var netErr net.Error
	switch {
	case errors.As(err, &connectErr),
		errors.As(err, &netErr),
		errors.Is(err, driver.ErrBadConn),
		errors.Is(err, syscall.ECONNREFUSED),
		errors.Is(err, syscall.ECONNRESET),
		errors.Is(err, context.DeadlineExceeded):
		return &UnavailableError{Err: err}
	}

	return err
}
