package submission

// AuthorityResponse is the decoded reply of the tax authority gateway. It is
// produced once at the gateway boundary; the set of implementations is closed.
type AuthorityResponse interface {
	authorityResponse()
}

// EnvelopeResponse is a reply carrying the DIAN SOAP envelope result.
type EnvelopeResponse struct {
	Result         EnvelopeResult
	FiscalCode     string
	QR             string
	SignedDocument []byte
	Message        string
}

// EnvelopeResult mirrors SendBillSyncResult.
type EnvelopeResult struct {
	IsValid           string
	StatusCode        string
	StatusDescription string
	StatusMessage     string
	ErrorMessages     []string
	FileName          string
	DocumentKey       string
}

// MessageResponse is a reply without envelope: a plain message, possibly with
// field errors.
type MessageResponse struct {
	StatusCode int
	Message    string
	Errors     []string
}

func (EnvelopeResponse) authorityResponse() {}
func (MessageResponse) authorityResponse()  {}

// Valid reports whether the authority flagged the document as valid.
func (r EnvelopeResult) Valid() bool {
	return r.IsValid == "true"
}
