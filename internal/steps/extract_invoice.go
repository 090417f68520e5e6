package steps

import (
	"fmt"

	"github.com/rvdzwet/invoice-validator-sub003/internal/document"
	"github.com/rvdzwet/invoice-validator-sub003/internal/llm"
	"github.com/rvdzwet/invoice-validator-sub003/internal/pipeline"
	"github.com/rvdzwet/invoice-validator-sub003/internal/prompt"
	"github.com/rvdzwet/invoice-validator-sub003/internal/validation"
)

// ExtractInvoiceStep pulls the structured invoice content off the document.
type ExtractInvoiceStep struct {
	builder *prompt.Builder
}

// NewExtractInvoiceStep wires the extraction step.
func NewExtractInvoiceStep(builder *prompt.Builder) *ExtractInvoiceStep {
	return &ExtractInvoiceStep{builder: builder}
}

func (s *ExtractInvoiceStep) Name() string         { return "extract_invoice_structure" }
func (s *ExtractInvoiceStep) Order() int           { return 20 }
func (s *ExtractInvoiceStep) ContractName() string { return ContractExtraction }

// ShouldExecute requires an accepted classification; an unreadable document
// still gets an extraction attempt, flagged earlier as a warning.
func (s *ExtractInvoiceStep) ShouldExecute(state *validation.State) bool {
	return runnable(state) && state.Classification != nil
}

func (s *ExtractInvoiceStep) PreparePrompt(state *validation.State, doc *document.Stream) (string, []llm.Attachment, error) {
	vars := map[string]string{
		"fileName":     state.Document.FileName,
		"documentType": "document",
		"language":     "unknown",
	}
	if state.Classification != nil {
		vars["documentType"] = state.Classification.DocumentType
		if state.Classification.Language != "" {
			vars["language"] = state.Classification.Language
		}
	}
	text, err := s.builder.Build(s.Name(), s.ContractName(), vars)
	if err != nil {
		return "", nil, err
	}
	return documentPayload(text, doc)
}

func (s *ExtractInvoiceStep) ProcessResponse(state *validation.State, resp *llm.StructuredResponse) error {
	extracted, err := typedResponse[InvoiceExtraction](resp)
	if err != nil {
		return err
	}

	items := make([]validation.LineItem, 0, len(extracted.LineItems))
	for _, item := range extracted.LineItems {
		items = append(items, validation.LineItem{
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			Total:       item.Total,
		})
	}
	state.Invoice = &validation.Invoice{
		InvoiceNumber: extracted.InvoiceNumber,
		InvoiceDate:   extracted.InvoiceDate,
		DueDate:       extracted.DueDate,
		Currency:      extracted.Currency,
		Subtotal:      extracted.Subtotal,
		VATAmount:     extracted.VATAmount,
		TotalAmount:   extracted.TotalAmount,
		Vendor: validation.Vendor{
			Name:               extracted.Vendor.Name,
			Address:            extracted.Vendor.Address,
			TaxID:              extracted.Vendor.TaxID,
			RegistrationNumber: extracted.Vendor.RegistrationNumber,
		},
		LineItems: items,
		Payment: validation.PaymentDetails{
			IBAN:      extracted.Payment.IBAN,
			Reference: extracted.Payment.Reference,
		},
	}
	state.RecordUsage(resp.Model, s.Name(), resp.Tokens)

	if extracted.InvoiceNumber == "" {
		state.AddIssue("MissingInvoiceNumber", "no invoice number found on the document", validation.SeverityWarning, "invoiceNumber")
	}
	if len(extracted.LineItems) == 0 {
		state.AddIssue("MissingLineItems", "no billed line items found on the document", validation.SeverityWarning, "lineItems")
	}

	state.LogStep(s.Name(),
		fmt.Sprintf("extracted invoice %s with %d line items", orUnknown(extracted.InvoiceNumber), len(extracted.LineItems)),
		validation.StepSuccess)
	return nil
}

func orUnknown(v string) string {
	if v == "" {
		return "(unknown)"
	}
	return v
}

var _ pipeline.Step = (*ExtractInvoiceStep)(nil)
