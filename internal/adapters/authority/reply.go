package authority

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"3tcapital/ms_emision_dian/internal/core/document"
	"3tcapital/ms_emision_dian/internal/core/submission"
)

// maxSnippet bounds the body excerpt kept in gateway errors.
const maxSnippet = 512

type rawReply struct {
	Message          string                 `json:"message"`
	Errors           map[string]messageList `json:"errors"`
	ResponseDian     *rawResponseDian       `json:"ResponseDian"`
	Cufe             string                 `json:"cufe"`
	Cude             string                 `json:"cude"`
	Cuds             string                 `json:"cuds"`
	QRStr            string                 `json:"QRStr"`
	AttachedDocument string                 `json:"attacheddocument"`
}

type rawResponseDian struct {
	Envelope struct {
		Body struct {
			SendBillSyncResponse *struct {
				SendBillSyncResult rawResult `json:"SendBillSyncResult"`
			} `json:"SendBillSyncResponse"`
		} `json:"Body"`
	} `json:"Envelope"`
}

type rawResult struct {
	ErrorMessage      errorMessage    `json:"ErrorMessage"`
	IsValid           json.RawMessage `json:"IsValid"`
	StatusCode        string          `json:"StatusCode"`
	StatusDescription string          `json:"StatusDescription"`
	StatusMessage     string          `json:"StatusMessage"`
	XMLBase64Bytes    string          `json:"XmlBase64Bytes"`
	XMLDocumentKey    string          `json:"XmlDocumentKey"`
	XMLFileName       string          `json:"XmlFileName"`
}

// errorMessage accepts {"string": "..."}, {"string": [...]}, a bare string or null.
type errorMessage struct {
	Strings messageList
}

func (e *errorMessage) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '{' {
		return json.Unmarshal(data, &e.Strings)
	}
	var wrapped struct {
		String messageList `json:"string"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return err
	}
	e.Strings = wrapped.String
	return nil
}

// messageList accepts a single string or an array of strings.
type messageList []string

func (m *messageList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		*m = nil
		return nil
	case data[0] == '[':
		var many []string
		if err := json.Unmarshal(data, &many); err != nil {
			return err
		}
		*m = compact(many)
		return nil
	default:
		var one string
		if err := json.Unmarshal(data, &one); err != nil {
			return err
		}
		*m = compact([]string{one})
		return nil
	}
}

func compact(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// decodeResponse classifies the raw reply into an envelope or message response.
// Bodies that cannot be read as either are gateway errors.
func decodeResponse(status int, body []byte, kind document.Kind) (submission.AuthorityResponse, error) {
	var raw rawReply
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, &submission.GatewayError{
			StatusCode: status,
			Message:    "unparseable authority response: " + snippet(body),
			Cause:      err,
		}
	}

	if raw.ResponseDian != nil && raw.ResponseDian.Envelope.Body.SendBillSyncResponse != nil {
		result := raw.ResponseDian.Envelope.Body.SendBillSyncResponse.SendBillSyncResult
		env := submission.EnvelopeResponse{
			Result: submission.EnvelopeResult{
				IsValid:           normalizeFlag(result.IsValid),
				StatusCode:        result.StatusCode,
				StatusDescription: result.StatusDescription,
				StatusMessage:     result.StatusMessage,
				ErrorMessages:     result.ErrorMessage.Strings,
				FileName:          result.XMLFileName,
				DocumentKey:       result.XMLDocumentKey,
			},
			FiscalCode: raw.fiscalCode(kind, result.XMLDocumentKey),
			QR:         raw.QRStr,
			Message:    raw.Message,
		}
		env.SignedDocument = decodeDocument(raw.AttachedDocument)
		if len(env.SignedDocument) == 0 {
			env.SignedDocument = decodeDocument(result.XMLBase64Bytes)
		}
		if env.Result.ErrorMessages == nil {
			env.Result.ErrorMessages = []string{}
		}
		return env, nil
	}

	errs := flattenErrors(raw.Errors)
	if status >= 300 && strings.TrimSpace(raw.Message) == "" && len(errs) == 0 {
		return nil, &submission.GatewayError{
			StatusCode: status,
			Message:    "authority returned no usable content: " + snippet(body),
		}
	}
	return submission.MessageResponse{
		StatusCode: status,
		Message:    strings.TrimSpace(raw.Message),
		Errors:     errs,
	}, nil
}

func (r rawReply) fiscalCode(kind document.Kind, documentKey string) string {
	byField := map[string]string{"cufe": r.Cufe, "cude": r.Cude, "cuds": r.Cuds}
	if code := byField[kind.FiscalCodeField()]; code != "" {
		return code
	}
	for _, code := range []string{r.Cufe, r.Cude, r.Cuds, documentKey} {
		if code != "" {
			return code
		}
	}
	return ""
}

// normalizeFlag reads IsValid whether it was sent as "true" or true.
func normalizeFlag(raw json.RawMessage) string {
	return strings.ToLower(strings.Trim(strings.TrimSpace(string(raw)), `"`))
}

// decodeDocument returns the signed document bytes. The authority sends base64;
// anything that is not valid base64 is taken verbatim.
func decodeDocument(value string) []byte {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	if decoded, err := base64.StdEncoding.DecodeString(value); err == nil {
		return decoded
	}
	return []byte(value)
}

func flattenErrors(errs map[string]messageList) []string {
	if len(errs) == 0 {
		return []string{}
	}
	keys := make([]string, 0, len(errs))
	for k := range errs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]string, 0, len(keys))
	for _, k := range keys {
		for _, msg := range errs[k] {
			out = append(out, fmt.Sprintf("%s: %s", k, msg))
		}
	}
	return out
}

func snippet(body []byte) string {
	s := strings.TrimSpace(string(body))
	if s == "" {
		return "<empty body>"
	}
	if len(s) > maxSnippet {
		return s[:maxSnippet] + "..."
	}
	return s
}
