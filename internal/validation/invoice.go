package validation

// Invoice is the domain data extracted from a withdrawal document.
type Invoice struct {
	InvoiceNumber string
	InvoiceDate   string
	DueDate       string
	Currency      string
	Subtotal      float64
	VATAmount     float64
	TotalAmount   float64
	Vendor        Vendor
	LineItems     []LineItem
	Payment       PaymentDetails
}

// Vendor identifies the issuing party.
type Vendor struct {
	Name               string
	Address            string
	TaxID              string
	RegistrationNumber string
}

// LineItem is one billed line on the document.
type LineItem struct {
	Description string
	Quantity    float64
	UnitPrice   float64
	Total       float64
}

// PaymentDetails carries how the invoice is to be paid.
type PaymentDetails struct {
	IBAN      string
	Reference string
}
