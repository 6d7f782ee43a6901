package ocr

import (
	"errors"
	"fmt"
	"time"
)

// UnavailableError indicates an OCR engine cannot serve requests right now,
// either because its binary or credentials are missing or because the remote
// service refused the call. The fallback engine opens the circuit for Cooldown.
type UnavailableError struct {
	Err      error
	Cooldown time.Duration
	Engine   string
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("%s unavailable (retry after %s): %v", e.Engine, e.Cooldown, e.Err)
}

func (e *UnavailableError) Unwrap() error {
	return e.Err
}

// NewUnavailableError creates an UnavailableError. A zero cooldown defaults to 60s.
func NewUnavailableError(engine string, err error, cooldown time.Duration) *UnavailableError {
	if cooldown <= 0 {
		cooldown = 60 * time.Second
	}
	return &UnavailableError{
		Err:      err,
		Cooldown: cooldown,
		Engine:   engine,
	}
}

// IsUnavailable reports whether err carries an UnavailableError.
func IsUnavailable(err error) bool {
	var u *UnavailableError
	return errors.As(err, &u)
}
