package submission

// Result values reported to callers.
const (
	ResultProcessed = "Procesado"
	ResultError     = "Error"
)

// Response is the caller-facing artifact of a submission.
// Slices are always non-nil so consumers never see null arrays.
type Response struct {
	Result             string `json:"resultado"`
	Code               int    `json:"code"`
	DocumentNumber     string `json:"documentNumber"`
	FiscalCode         string `json:"fiscalCode"`
	IsValid            bool   `json:"isValid"`
	AcceptanceDate     string `json:"acceptanceDate"`
	Hash               string `json:"hash"`
	Message            string `json:"message"`
	ValidationMessages []Rule `json:"validationMessages"`
	NotificationRules  []Rule `json:"notificationRules"`
	ValidationRules    []Rule `json:"validationRules"`
	Name               string `json:"name"`
	QR                 string `json:"qr"`
	Document           string `json:"document"`
}
