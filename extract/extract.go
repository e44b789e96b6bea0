// Package extract wraps the external invoice-extraction service.
package extract

import "context"

type LineItem struct {
	Description string  `json:"description"`
	Quantity    int     `json:"quantity"`
	Price       float64 `json:"price"`
}

type InvoiceData struct {
	VendorName  string     `json:"vendor_name"`
	Date        string     `json:"date,omitempty"`
	Items       []LineItem `json:"items"`
	TotalAmount float64    `json:"total_amount"`
}

type Extractor interface {
	Extract(ctx context.Context, fileBytes []byte, textContent string) (*InvoiceData, error)
}
