package document

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Tolerance is the accepted difference between rounded monetary amounts.
var Tolerance = decimal.New(1, -2)

// TaxDocument is the canonical payload submitted to the tax authority.
// It is built fresh per request and never mutated after submission.
type TaxDocument struct {
	Number           int    `json:"number"`
	Prefix           string `json:"prefix"`
	TypeDocumentID   int    `json:"type_document_id"`
	Date             string `json:"date"`
	Time             string `json:"time"`
	ResolutionNumber string `json:"resolution_number,omitempty"`
	Notes            string `json:"notes,omitempty"`

	Customer *Party `json:"customer,omitempty"`
	Seller   *Party `json:"seller,omitempty"`

	PaymentForm          []PaymentForm  `json:"payment_form"`
	LegalMonetaryTotals  MonetaryTotals `json:"legal_monetary_totals"`
	TaxTotals            []TaxTotal     `json:"tax_totals,omitempty"`
	WithholdingTaxTotals []TaxTotal     `json:"with_holding_tax_total,omitempty"`
	Lines                []Line         `json:"invoice_lines"`

	BillingReference               *BillingReference `json:"billing_reference,omitempty"`
	DiscrepancyResponseCode        int               `json:"discrepancyresponsecode,omitempty"`
	DiscrepancyResponseDescription string            `json:"discrepancyresponsedescription,omitempty"`

	EmailCcList []Email `json:"email_cc_list,omitempty"`
}

// Party is the customer of an invoice or the seller of a support document.
type Party struct {
	IdentificationNumber         string `json:"identification_number"`
	DV                           string `json:"dv,omitempty"`
	Name                         string `json:"name"`
	Phone                        string `json:"phone,omitempty"`
	Address                      string `json:"address,omitempty"`
	Email                        string `json:"email,omitempty"`
	MerchantRegistration         string `json:"merchant_registration,omitempty"`
	TypeDocumentIdentificationID int    `json:"type_document_identification_id"`
	TypeOrganizationID           int    `json:"type_organization_id"`
	TypeLiabilityID              int    `json:"type_liability_id,omitempty"`
	TypeRegimeID                 int    `json:"type_regime_id,omitempty"`
	MunicipalityID               int    `json:"municipality_id,omitempty"`
}

type PaymentForm struct {
	PaymentFormID   int    `json:"payment_form_id"`
	PaymentMethodID int    `json:"payment_method_id"`
	PaymentDueDate  string `json:"payment_due_date,omitempty"`
	DurationMeasure string `json:"duration_measure,omitempty"`
}

type MonetaryTotals struct {
	LineExtensionAmount  decimal.Decimal `json:"line_extension_amount"`
	TaxExclusiveAmount   decimal.Decimal `json:"tax_exclusive_amount"`
	TaxInclusiveAmount   decimal.Decimal `json:"tax_inclusive_amount"`
	AllowanceTotalAmount decimal.Decimal `json:"allowance_total_amount"`
	ChargeTotalAmount    decimal.Decimal `json:"charge_total_amount"`
	PayableAmount        decimal.Decimal `json:"payable_amount"`
}

type TaxTotal struct {
	TaxID         int             `json:"tax_id"`
	TaxAmount     decimal.Decimal `json:"tax_amount"`
	Percent       decimal.Decimal `json:"percent"`
	TaxableAmount decimal.Decimal `json:"taxable_amount"`
}

// IsZeroRate reports whether the entry is a 0% tax.
func (t TaxTotal) IsZeroRate() bool {
	return t.Percent.IsZero()
}

type Line struct {
	UnitMeasureID               int               `json:"unit_measure_id"`
	InvoicedQuantity            decimal.Decimal   `json:"invoiced_quantity"`
	LineExtensionAmount         decimal.Decimal   `json:"line_extension_amount"`
	FreeOfChargeIndicator       bool              `json:"free_of_charge_indicator"`
	AllowanceCharges            []AllowanceCharge `json:"allowance_charges,omitempty"`
	TaxTotals                   []TaxTotal        `json:"tax_totals,omitempty"`
	Description                 string            `json:"description"`
	Code                        string            `json:"code"`
	TypeItemIdentificationID    int               `json:"type_item_identification_id"`
	PriceAmount                 decimal.Decimal   `json:"price_amount"`
	BaseQuantity                decimal.Decimal   `json:"base_quantity"`
	TypeGenerationTransmitionID int               `json:"type_generation_transmition_id,omitempty"`
	StartDate                   string            `json:"start_date,omitempty"`
}

// ZeroRateTaxable returns the taxable amount of the line's 0% entries.
func (l Line) ZeroRateTaxable() decimal.Decimal {
	total := decimal.Zero
	for _, t := range l.TaxTotals {
		if t.IsZeroRate() {
			total = total.Add(t.TaxableAmount)
		}
	}
	return total
}

type AllowanceCharge struct {
	ChargeIndicator       bool            `json:"charge_indicator"`
	AllowanceChargeReason string          `json:"allowance_charge_reason"`
	Amount                decimal.Decimal `json:"amount"`
	BaseAmount            decimal.Decimal `json:"base_amount"`
}

type BillingReference struct {
	Number    string `json:"number"`
	UUID      string `json:"uuid"`
	IssueDate string `json:"issue_date"`
}

type Email struct {
	Email string `json:"email"`
}

// Kind derives the document kind from TypeDocumentID.
func (d TaxDocument) Kind() (Kind, error) {
	return KindFromTypeID(d.TypeDocumentID)
}

// DocumentNumber is the prefix and number joined, as printed on the document.
func (d TaxDocument) DocumentNumber() string {
	return fmt.Sprintf("%s%d", d.Prefix, d.Number)
}

// Counterparty returns the customer, or the seller for support documents.
func (d TaxDocument) Counterparty() *Party {
	if d.Seller != nil {
		return d.Seller
	}
	return d.Customer
}

// ErrTotalsMismatch is wrapped by Validate when monetary invariants do not hold.
var ErrTotalsMismatch = errors.New("monetary totals mismatch")

// Validate checks the monetary invariants of the document.
func (d TaxDocument) Validate() error {
	sum := decimal.Zero
	for _, l := range d.Lines {
		sum = sum.Add(l.LineExtensionAmount)
	}
	totals := d.LegalMonetaryTotals
	if sum.Round(2).Sub(totals.LineExtensionAmount).Abs().GreaterThan(Tolerance) {
		return fmt.Errorf("%w: lines sum %s, line extension amount %s",
			ErrTotalsMismatch, sum.StringFixed(2), totals.LineExtensionAmount.StringFixed(2))
	}

	expected := totals.TaxInclusiveAmount.Sub(totals.AllowanceTotalAmount).Add(totals.ChargeTotalAmount)
	if expected.Sub(totals.PayableAmount).Abs().GreaterThan(Tolerance) {
		return fmt.Errorf("%w: payable amount %s, expected %s",
			ErrTotalsMismatch, totals.PayableAmount.StringFixed(2), expected.StringFixed(2))
	}
	return nil
}

// MarshalJSON writes credit-note lines under credit_note_lines.
func (d TaxDocument) MarshalJSON() ([]byte, error) {
	type payload TaxDocument
	if d.TypeDocumentID != KindCreditNote.TypeDocumentID() && d.TypeDocumentID != KindSupportCreditNote.TypeDocumentID() {
		return json.Marshal(payload(d))
	}
	return json.Marshal(struct {
		payload
		InvoiceLines    []Line `json:"invoice_lines,omitempty"`
		CreditNoteLines []Line `json:"credit_note_lines"`
	}{
		payload:         payload(d),
		CreditNoteLines: d.Lines,
	})
}
