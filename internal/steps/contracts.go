// Package steps implements the concrete validation pipeline steps and their
// response contracts.
package steps

import (
	"encoding/json"

	"github.com/rvdzwet/invoice-validator-sub003/internal/contract"
)

// Contract names used by the steps.
const (
	ContractClassification = "documentClassification"
	ContractExtraction     = "invoiceExtraction"
	ContractVerification   = "amountVerification"
	ContractRelevance      = "constructionRelevance"
	ContractSummary        = "validationSummary"
)

// DocumentClassification is the triage verdict for an uploaded document.
type DocumentClassification struct {
	DocumentType string  `json:"documentType"`
	IsReadable   bool    `json:"isReadable"`
	Language     string  `json:"language"`
	Confidence   float64 `json:"confidence"`
	Reasoning    string  `json:"reasoning"`
}

// InvoiceExtraction is the structured invoice content read off the document.
type InvoiceExtraction struct {
	InvoiceNumber string                `json:"invoiceNumber"`
	InvoiceDate   string                `json:"invoiceDate"`
	DueDate       string                `json:"dueDate"`
	Currency      string                `json:"currency"`
	Subtotal      float64               `json:"subtotal"`
	VATAmount     float64               `json:"vatAmount"`
	TotalAmount   float64               `json:"totalAmount"`
	Vendor        ExtractedVendor       `json:"vendor"`
	LineItems     []ExtractedLineItem   `json:"lineItems"`
	Payment       ExtractedPayment      `json:"payment"`
}

// ExtractedVendor identifies the issuing party.
type ExtractedVendor struct {
	Name               string `json:"name"`
	Address            string `json:"address"`
	TaxID              string `json:"taxId"`
	RegistrationNumber string `json:"registrationNumber"`
}

// ExtractedLineItem is one billed line.
type ExtractedLineItem struct {
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	UnitPrice   float64 `json:"unitPrice"`
	Total       float64 `json:"total"`
}

// ExtractedPayment carries payment details.
type ExtractedPayment struct {
	IBAN      string `json:"iban"`
	Reference string `json:"reference"`
}

// AmountVerification reports arithmetic consistency of the extracted figures.
type AmountVerification struct {
	TotalsMatch    bool                  `json:"totalsMatch"`
	VATConsistent  bool                  `json:"vatConsistent"`
	Findings       []VerificationFinding `json:"findings"`
	RequiresReview bool                  `json:"requiresReview"`
}

// VerificationFinding is one inconsistency found during amount verification.
type VerificationFinding struct {
	Field    string `json:"field"`
	Problem  string `json:"problem"`
	Severity string `json:"severity"`
}

// ConstructionRelevance judges whether the billed work is fund-eligible.
type ConstructionRelevance struct {
	Relevant        bool     `json:"relevant"`
	EligibleItems   []string `json:"eligibleItems"`
	IneligibleItems []string `json:"ineligibleItems"`
	Explanation     string   `json:"explanation"`
	Confidence      float64  `json:"confidence"`
}

// ValidationSummary is the model's final verdict over the whole run.
type ValidationSummary struct {
	Outcome         string   `json:"outcome"`
	Summary         string   `json:"summary"`
	Recommendations []string `json:"recommendations"`
}

// RegisterContracts installs all step response contracts into the registry,
// including the explicit example override for the extraction contract.
func RegisterContracts(r *contract.Registry) error {
	for _, d := range descriptors() {
		if err := r.Register(d); err != nil {
			return err
		}
	}
	// The generic generator produces a thin example for the deeply nested
	// extraction contract; a realistic invoice steers extraction far better.
	return r.RegisterExample(ContractExtraction, extractionExample)
}

func descriptors() []contract.Descriptor {
	vendor := contract.Descriptor{
		Name: "extractedVendor",
		New:  func() any { return &ExtractedVendor{} },
		Fields: []contract.Field{
			{Name: "Name", Kind: contract.KindString, Required: true, Description: "legal name of the issuing company"},
			{Name: "Address", Kind: contract.KindString, Description: "full postal address"},
			{Name: "TaxID", Kind: contract.KindString, WireName: "taxId", Description: "VAT or tax identification number"},
			{Name: "RegistrationNumber", Kind: contract.KindString, Description: "chamber of commerce registration"},
		},
	}
	lineItem := contract.Descriptor{
		Name: "extractedLineItem",
		New:  func() any { return &ExtractedLineItem{} },
		Fields: []contract.Field{
			{Name: "Description", Kind: contract.KindString, Required: true},
			{Name: "Quantity", Kind: contract.KindNumber, Required: true},
			{Name: "UnitPrice", Kind: contract.KindNumber, Required: true},
			{Name: "Total", Kind: contract.KindNumber, Required: true},
		},
	}
	payment := contract.Descriptor{
		Name: "extractedPayment",
		New:  func() any { return &ExtractedPayment{} },
		Fields: []contract.Field{
			{Name: "IBAN", Kind: contract.KindString, Description: "bank account the invoice is payable to"},
			{Name: "Reference", Kind: contract.KindString, Description: "payment reference"},
		},
	}
	finding := contract.Descriptor{
		Name: "verificationFinding",
		New:  func() any { return &VerificationFinding{} },
		Fields: []contract.Field{
			{Name: "Field", Kind: contract.KindString, Required: true, Description: "which invoice field the problem concerns"},
			{Name: "Problem", Kind: contract.KindString, Required: true},
			{Name: "Severity", Kind: contract.KindString, Required: true, Description: "info, warning or error", Example: "warning"},
		},
	}

	return []contract.Descriptor{
		{
			Name: ContractClassification,
			New:  func() any { return &DocumentClassification{} },
			Fields: []contract.Field{
				{Name: "DocumentType", Kind: contract.KindString, Required: true, Description: "invoice, receipt, quotation or other", Example: "invoice"},
				{Name: "IsReadable", Kind: contract.KindBoolean, Required: true, Description: "whether the document content is legible"},
				{Name: "Language", Kind: contract.KindString, Description: "ISO 639-1 language code", Example: "nl"},
				{Name: "Confidence", Kind: contract.KindNumber, Required: true, Description: "classification confidence between 0 and 1", Example: 0.95},
				{Name: "Reasoning", Kind: contract.KindString, Description: "one-sentence justification"},
			},
		},
		{
			Name: ContractExtraction,
			New:  func() any { return &InvoiceExtraction{} },
			Fields: []contract.Field{
				{Name: "InvoiceNumber", Kind: contract.KindString, Required: true},
				{Name: "InvoiceDate", Kind: contract.KindString, Required: true, Description: "ISO 8601 date", Example: "2024-03-15"},
				{Name: "DueDate", Kind: contract.KindString, Description: "ISO 8601 date"},
				{Name: "Currency", Kind: contract.KindString, Required: true, Example: "EUR"},
				{Name: "Subtotal", Kind: contract.KindNumber, Required: true, Description: "amount excluding VAT"},
				{Name: "VATAmount", Kind: contract.KindNumber, WireName: "vatAmount", Required: true},
				{Name: "TotalAmount", Kind: contract.KindNumber, Required: true, Description: "amount including VAT"},
				{Name: "Vendor", Kind: contract.KindObject, Required: true, Object: &vendor},
				{Name: "LineItems", Kind: contract.KindArray, Required: true, Items: &contract.Field{Kind: contract.KindObject, Object: &lineItem}},
				{Name: "Payment", Kind: contract.KindObject, Object: &payment},
			},
		},
		{
			Name: ContractVerification,
			New:  func() any { return &AmountVerification{} },
			Fields: []contract.Field{
				{Name: "TotalsMatch", Kind: contract.KindBoolean, Required: true, Description: "line item totals add up to the subtotal and total"},
				{Name: "VATConsistent", Kind: contract.KindBoolean, WireName: "vatConsistent", Required: true},
				{Name: "Findings", Kind: contract.KindArray, Required: true, Items: &contract.Field{Kind: contract.KindObject, Object: &finding}},
				{Name: "RequiresReview", Kind: contract.KindBoolean, Required: true},
			},
		},
		{
			Name: ContractRelevance,
			New:  func() any { return &ConstructionRelevance{} },
			Fields: []contract.Field{
				{Name: "Relevant", Kind: contract.KindBoolean, Required: true, Description: "the billed work is construction or renovation related"},
				{Name: "EligibleItems", Kind: contract.KindArray, Items: &contract.Field{Kind: contract.KindString}},
				{Name: "IneligibleItems", Kind: contract.KindArray, Items: &contract.Field{Kind: contract.KindString}},
				{Name: "Explanation", Kind: contract.KindString, Required: true},
				{Name: "Confidence", Kind: contract.KindNumber, Required: true, Example: 0.9},
			},
		},
		{
			Name: ContractSummary,
			New:  func() any { return &ValidationSummary{} },
			Fields: []contract.Field{
				{Name: "Outcome", Kind: contract.KindString, Required: true, Description: "valid, needsReview or invalid", Example: "valid"},
				{Name: "Summary", Kind: contract.KindString, Required: true, Description: "short human-readable assessment"},
				{Name: "Recommendations", Kind: contract.KindArray, Items: &contract.Field{Kind: contract.KindString}},
			},
		},
	}
}

var extractionExample = json.RawMessage(`{
  "invoiceNumber": "2024-0317",
  "invoiceDate": "2024-03-15",
  "dueDate": "2024-04-14",
  "currency": "EUR",
  "subtotal": 4250.00,
  "vatAmount": 892.50,
  "totalAmount": 5142.50,
  "vendor": {
    "name": "Bouwbedrijf Jansen B.V.",
    "address": "Bouwweg 12, 3511 AB Utrecht",
    "taxId": "NL123456789B01",
    "registrationNumber": "12345678"
  },
  "lineItems": [
    {
      "description": "Plaatsen dakkapel incl. afwerking",
      "quantity": 1,
      "unitPrice": 3500.00,
      "total": 3500.00
    },
    {
      "description": "Arbeidsloon timmerman",
      "quantity": 10,
      "unitPrice": 75.00,
      "total": 750.00
    }
  ],
  "payment": {
    "iban": "NL91ABNA0417164300",
    "reference": "2024-0317"
  }
}`)
