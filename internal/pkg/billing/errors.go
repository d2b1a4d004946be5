package billing

import "errors"

// Engine error taxonomy. Only ErrTransientStorage (and a write conflict that
// survived the local retry, which is wrapped into it) may be surfaced to the
// HTTP layer as retryable; everything else is handled locally and the event
// acknowledged, because provider redelivery cannot fix it.
var (
	ErrInvalidSignature       = errors.New("invalid webhook signature")
	ErrMalformedEvent         = errors.New("malformed webhook event")
	ErrAlreadyProcessed       = errors.New("event already processed")
	ErrMissingCorrelationData = errors.New("event missing correlation data")
	ErrConsistencyGap         = errors.New("no membership matches provider customer")
	ErrWriteConflict          = errors.New("concurrent membership write conflict")
	ErrTransientStorage       = errors.New("transient storage error")
)
