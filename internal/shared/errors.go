package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Source call classification. Every external-source failure is wrapped
	// in exactly one of these so callers can decide whether to move on,
	// abandon the source, or abort the run.
	ErrSourceAuth     = fmt.Errorf("source authentication failed")
	ErrTransient      = fmt.Errorf("transient source error")
	ErrQuotaExhausted = fmt.Errorf("source quota exhausted")
	ErrPermanent      = fmt.Errorf("permanent source error")

	// Curation outcomes
	ErrNoCandidates   = fmt.Errorf("no tracks resolved for period")
	ErrRunInProgress  = fmt.Errorf("curation run already in progress")
	ErrAlreadyCurated = fmt.Errorf("period already curated")

	// Lookup and validation errors
	ErrTrackNotFound   = fmt.Errorf("track not found")
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
)
