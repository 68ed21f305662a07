package submission

import (
	"errors"
	"fmt"
	"strings"

	"3tcapital/ms_emision_dian/internal/core/document"
)

// ValidationError reports bad or missing input. It is never retried.
type ValidationError struct {
	Messages []string
}

// NewValidationError builds a ValidationError from one or more messages.
func NewValidationError(messages ...string) *ValidationError {
	return &ValidationError{Messages: messages}
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Messages, "; ")
}

// GatewayError reports a failed exchange with the authority: timeouts, refused
// connections or replies that cannot be decoded.
type GatewayError struct {
	StatusCode int
	Message    string
	Cause      error
}

func (e *GatewayError) Error() string {
	msg := e.Message
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.StatusCode)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *GatewayError) Unwrap() error {
	return e.Cause
}

// Classify turns an error raised before or during submission into its outcome.
func Classify(documentNumber string, err error) Outcome {
	var validation *ValidationError
	if errors.As(err, &validation) {
		return ValidationFailed{DocumentNumber: documentNumber, Messages: toRules(validation.Messages)}
	}
	var unsupported *document.UnsupportedTypeError
	if errors.As(err, &unsupported) {
		return UnsupportedDocumentType{Value: unsupported.Value, Supported: unsupported.Supported}
	}
	if errors.Is(err, document.ErrTotalsMismatch) {
		return ValidationFailed{DocumentNumber: documentNumber, Messages: toRules([]string{err.Error()})}
	}
	return TransportError{DocumentNumber: documentNumber, Cause: err}
}

func toRules(messages []string) []Rule {
	rules := make([]Rule, 0, len(messages))
	for _, m := range messages {
		rules = append(rules, Rule{Message: m})
	}
	return rules
}
