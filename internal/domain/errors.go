package domain

import "errors"

var (
	ErrApplyUnavailable        = errors.New("easy apply unavailable")
	ErrUnresolvedRequiredField = errors.New("unresolved required field")
	ErrInvalidAnswerForKind    = errors.New("answer not valid for field kind")
	ErrCustomizationFailed     = errors.New("resume customization failed")
	ErrElementNotReady         = errors.New("element not ready")
	ErrSessionLost             = errors.New("browser session lost")
	ErrAuthFailed              = errors.New("authentication failed")
	ErrNotFound                = errors.New("not found")
)

// Fatal reports whether err must abort the whole run rather than a single posting.
func Fatal(err error) bool {
	return errors.Is(err, ErrSessionLost) || errors.Is(err, ErrAuthFailed)
}
