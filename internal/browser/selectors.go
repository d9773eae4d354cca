package browser

// Selectors are the CSS selectors a driver uses for one site.
type Selectors struct {
	Modal          string
	Description    []string
	AppliedMarkers []string
	ErrorMessages  []string
	JobCards       string
	Controls       map[Control][]string
	LoginURL       string
}

// LinkedIn returns the selectors for the LinkedIn Easy Apply flow.
func LinkedIn() Selectors {
	return Selectors{
		Modal: "div.jobs-easy-apply-modal",
		Description: []string{
			"div.jobs-description-content__text--stretch",
			"div.jobs-description__content",
			"#job-details",
		},
		AppliedMarkers: []string{
			"#jobs-apply-see-application-link",
			".artdeco-inline-feedback--success",
			".post-apply-timeline",
		},
		ErrorMessages: []string{
			".artdeco-inline-feedback--error .artdeco-inline-feedback__message",
			".fb-dash-form-element-error",
		},
		JobCards: "li[data-occludable-job-id], div[data-job-id]",
		Controls: map[Control][]string{
			ControlEasyApply: {"button.jobs-apply-button"},
			ControlNext:      {"button[aria-label='Continue to next step']", "button[data-easy-apply-next-button]"},
			ControlReview:    {"button[aria-label='Review your application']"},
			ControlSubmit:    {"button[aria-label='Submit application']"},
			ControlDismiss:   {".artdeco-modal button[aria-label='Dismiss']", "button.artdeco-modal__dismiss"},
			ControlDiscard:   {"button[data-control-name='discard_application_confirm_btn']", "button[data-test-dialog-secondary-btn]"},
			ControlDone:      {"button[aria-label='Done']"},
			ControlUsername:  {"#username"},
			ControlPassword:  {"#password"},
			ControlSignIn:    {"button[type='submit'][aria-label='Sign in']", "button[type='submit']"},
			ControlPIN:       {"#input__phone_verification_pin", "#input__email_verification_pin"},
			ControlVerify:    {"#two-step-submit-button", "button[type='submit']"},
			ControlSignedIn:  {"#global-nav", "img.global-nav__me-photo"},
		},
		LoginURL: "https://www.linkedin.com/login",
	}
}
