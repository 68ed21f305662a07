package emission

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"3tcapital/ms_emision_dian/internal/adapters/legacy"
	appsubmission "3tcapital/ms_emision_dian/internal/application/submission"
	"3tcapital/ms_emision_dian/internal/core/submission"

	"github.com/beevik/etree"
)

const (
	soapNamespace   = "http://schemas.xmlsoap.org/soap/envelope/"
	soapContentType = "text/xml; charset=utf-8"
	defaultSOAPOp   = "emitirDocumento"
)

// soapRequest is the operation element of a legacy SOAP call.
type soapRequest struct {
	operation string
	token     string
	message   legacy.Message
}

// SubmitSOAP handles POST /soap/emision. Pipeline outcomes, including
// rejections, are answered with HTTP 200 and a result element; only
// unreadable envelopes produce a SOAP Fault.
func (h *Handler) SubmitSOAP(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		h.writeFault(w, "soap:Client", "unreadable request body")
		return
	}

	req, err := parseSOAPRequest(raw)
	if err != nil {
		h.log.WarnContext(r.Context(), "rejected malformed SOAP envelope", "error", err)
		h.writeFault(w, "soap:Client", err.Error())
		return
	}

	header := legacy.DecodeHeader(req.message.Header)
	var resp submission.Response
	src, err := legacy.ToSource(req.message)
	if err != nil {
		resp = h.service.Reject(header.Prefix+header.Number, err)
	} else {
		resp = h.service.SubmitCode(r.Context(), header.DocumentType, appsubmission.Request{Token: req.token, Document: src})
	}

	h.writeEnvelope(w, http.StatusOK, func(body *etree.Element) {
		result := body.CreateElement(req.operation + "Response")
		writeResult(result.CreateElement(req.operation+"Result"), resp)
	})
}

func parseSOAPRequest(raw []byte) (soapRequest, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(raw); err != nil {
		return soapRequest{}, fmt.Errorf("malformed XML: %w", err)
	}
	root := doc.Root()
	if root == nil || root.Tag != "Envelope" {
		return soapRequest{}, errors.New("missing SOAP Envelope")
	}
	body := child(root, "Body")
	if body == nil {
		return soapRequest{}, errors.New("missing SOAP Body")
	}
	elems := body.ChildElements()
	if len(elems) == 0 {
		return soapRequest{}, errors.New("empty SOAP Body")
	}
	op := elems[0]

	req := soapRequest{
		operation: op.Tag,
		token:     text(child(op, "token")),
		message: legacy.Message{
			Header:      text(child(op, "encabezado")),
			Customer:    text(child(op, "cliente")),
			Details:     texts(op, "detalle"),
			Taxes:       texts(op, "impuesto"),
			Withholding: texts(op, "retencion"),
			Payments:    texts(op, "pago"),
			References:  texts(op, "referencia"),
		},
	}
	if req.operation == "" {
		req.operation = defaultSOAPOp
	}
	if req.message.Header == "" {
		return soapRequest{}, errors.New("encabezado is required")
	}
	return req, nil
}

// child matches on the local name so any namespace prefix is accepted.
func child(parent *etree.Element, tag string) *etree.Element {
	for _, c := range parent.ChildElements() {
		if c.Tag == tag {
			return c
		}
	}
	return nil
}

func texts(parent *etree.Element, tag string) []string {
	var out []string
	for _, c := range parent.ChildElements() {
		if c.Tag == tag {
			if v := text(c); v != "" {
				out = append(out, v)
			}
		}
	}
	return out
}

func text(e *etree.Element) string {
	if e == nil {
		return ""
	}
	return strings.TrimSpace(e.Text())
}

func writeResult(el *etree.Element, resp submission.Response) {
	el.CreateElement("resultado").SetText(resp.Result)
	el.CreateElement("codigo").SetText(strconv.Itoa(resp.Code))
	el.CreateElement("numeroDocumento").SetText(resp.DocumentNumber)
	el.CreateElement("cufe").SetText(resp.FiscalCode)
	el.CreateElement("esValidoDian").SetText(strconv.FormatBool(resp.IsValid))
	el.CreateElement("fechaAceptacion").SetText(resp.AcceptanceDate)
	el.CreateElement("hash").SetText(resp.Hash)
	el.CreateElement("mensaje").SetText(resp.Message)
	messages := el.CreateElement("mensajesValidacion")
	for _, rule := range resp.ValidationMessages {
		m := messages.CreateElement("mensaje")
		if rule.Code != "" {
			m.CreateAttr("codigo", rule.Code)
		}
		m.SetText(rule.Message)
	}
	el.CreateElement("nombre").SetText(resp.Name)
	el.CreateElement("qr").SetText(resp.QR)
	el.CreateElement("documento").SetText(resp.Document)
}

func (h *Handler) writeFault(w http.ResponseWriter, code, reason string) {
	h.writeEnvelope(w, http.StatusInternalServerError, func(body *etree.Element) {
		fault := body.CreateElement("soap:Fault")
		fault.CreateElement("faultcode").SetText(code)
		fault.CreateElement("faultstring").SetText(reason)
	})
}

func (h *Handler) writeEnvelope(w http.ResponseWriter, status int, fill func(body *etree.Element)) {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	env := doc.CreateElement("soap:Envelope")
	env.CreateAttr("xmlns:soap", soapNamespace)
	fill(env.CreateElement("soap:Body"))

	w.Header().Set("Content-Type", soapContentType)
	w.WriteHeader(status)
	if _, err := doc.WriteTo(w); err != nil {
		h.log.Error("failed to write SOAP response", "error", err)
	}
}
