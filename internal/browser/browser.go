// Package browser defines the narrow page-driving surface the workflow, search and
// login code depend on, plus the HTML parsing shared by every driver.
package browser

import (
	"context"

	"easyapply-engine/internal/domain"
)

// Control names a clickable element the core needs to find. Drivers map controls to selectors.
type Control string

const (
	ControlEasyApply Control = "easy_apply"
	ControlNext      Control = "next"
	ControlReview    Control = "review"
	ControlSubmit    Control = "submit"
	ControlDismiss   Control = "dismiss"
	ControlDiscard   Control = "discard"
	ControlDone      Control = "done"

	ControlUsername Control = "username"
	ControlPassword Control = "password"
	ControlSignIn   Control = "sign_in"
	ControlPIN      Control = "pin"
	ControlVerify   Control = "verify"
	ControlSignedIn Control = "signed_in"
)

// Navigator loads a URL in the single tab.
type Navigator interface {
	Navigate(ctx context.Context, url string) error
}

// Session drives a job page and its application modal.
//
// Errors: domain.ErrElementNotReady is transient and may be retried,
// domain.ErrSessionLost ends the run, domain.ErrNotFound means the element is absent.
type Session interface {
	Navigator
	JobDescription(ctx context.Context) (string, error)
	AlreadyApplied(ctx context.Context) (bool, error)
	HasControl(ctx context.Context, c Control) (bool, error)
	Click(ctx context.Context, c Control) error

	// Fields lists the visible questions on the current modal page.
	Fields(ctx context.Context) ([]domain.FormField, error)
	// FindField re-reads a single field by id.
	FindField(ctx context.Context, id string) (domain.FormField, error)
	SetValue(ctx context.Context, f domain.FormField, value string) error
	UploadFile(ctx context.Context, f domain.FormField, path string) error
	// ValidationErrors returns inline error messages currently shown in the modal.
	ValidationErrors(ctx context.Context) ([]string, error)

	Close() error
}

// ListingPage reads the postings on the current search results page.
type ListingPage interface {
	Navigator
	Listings(ctx context.Context) ([]domain.JobPosting, error)
}

// LoginPage is what the authenticator needs.
type LoginPage interface {
	Navigator
	HasControl(ctx context.Context, c Control) (bool, error)
	Click(ctx context.Context, c Control) error
	Type(ctx context.Context, c Control, text string) error
}

// Driver is one browser tab able to serve every page kind.
type Driver interface {
	Session
	ListingPage
	LoginPage
}

// Launcher starts a browser and returns a driver bound to its single tab.
type Launcher interface {
	Open(ctx context.Context, headless bool) (Driver, error)
}
