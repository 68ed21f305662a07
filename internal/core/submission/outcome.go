package submission

import (
	"regexp"
	"strings"
	"time"
)

// Outcome is the terminal result of one submission attempt. The set of
// implementations is closed; match it with a type switch.
type Outcome interface {
	outcome()
}

// Authorized means the authority accepted the document.
type Authorized struct {
	DocumentNumber string
	FiscalCode     string
	SignedDocument []byte
	QR             string
	FileName       string
	Message        string
	Notifications  []Rule
	AcceptedAt     time.Time
}

// AlreadySubmitted means the authority had the document already; the response
// is rebuilt from the stored record.
type AlreadySubmitted struct {
	DocumentNumber string
	FiscalCode     string
	PriorDocument  []byte
	QR             string
	FileName       string
	Message        string
	IssuedAt       time.Time
}

// RejectedByRule means the authority flagged the document with a business rule
// but still holds a valid signed document for it.
type RejectedByRule struct {
	DocumentNumber string
	RuleCode       string
	FiscalCode     string
	SignedDocument []byte
	QR             string
	FileName       string
	Messages       []Rule
	AcceptedAt     time.Time
}

// ValidationFailed carries every message explaining why the input was refused.
type ValidationFailed struct {
	DocumentNumber string
	Messages       []Rule
}

// TransportError means the exchange itself failed; the caller may retry.
type TransportError struct {
	DocumentNumber string
	Cause          error
}

// UnsupportedDocumentType is a registry or factory miss.
type UnsupportedDocumentType struct {
	Value     string
	Supported []string
}

func (Authorized) outcome()              {}
func (AlreadySubmitted) outcome()        {}
func (RejectedByRule) outcome()          {}
func (ValidationFailed) outcome()        {}
func (TransportError) outcome()          {}
func (UnsupportedDocumentType) outcome() {}

// Rule is a single authority message, optionally tagged with its rule code.
// Kind is RuleRejection, RuleNotification or empty for untagged messages.
type Rule struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Kind    string `json:"-"`
}

// Rule kinds embedded in authority messages.
const (
	RuleRejection    = "Rechazo"
	RuleNotification = "Notificación"
)

var rulePattern = regexp.MustCompile(`^\s*Regla:\s*([^,]+),\s*(Rechazo|Notificaci[oó]n):\s*(.*)$`)

// ParseRule splits "Regla: 90, Rechazo: text" into its code, kind and text.
// Messages without that layout come back as-is with an empty code and kind.
func ParseRule(message string) Rule {
	m := rulePattern.FindStringSubmatch(message)
	if m == nil {
		return Rule{Message: strings.TrimSpace(message)}
	}
	kind := RuleRejection
	if strings.HasPrefix(m[2], "Notificaci") {
		kind = RuleNotification
	}
	return Rule{Code: strings.TrimSpace(m[1]), Message: strings.TrimSpace(m[3]), Kind: kind}
}

// ParseRules parses every message, keeping their order.
func ParseRules(messages []string) []Rule {
	rules := make([]Rule, 0, len(messages))
	for _, m := range messages {
		rules = append(rules, ParseRule(m))
	}
	return rules
}

// SplitRules separates rejection rules from notification rules. Untagged
// messages count as validation rules. Both results are non-nil.
func SplitRules(rules []Rule) (validation, notification []Rule) {
	validation = []Rule{}
	notification = []Rule{}
	for _, r := range rules {
		if r.Kind == RuleNotification {
			notification = append(notification, r)
			continue
		}
		validation = append(validation, r)
	}
	return validation, notification
}
