package spend_mock

import (
	"context"

	"github.com/spendkit/spend_service/extract"
)

// ExtractorMock counts invocations and returns canned invoice data.
type ExtractorMock struct {
	Calls int
	Data  *extract.InvoiceData
	Err   error
}

func (e *ExtractorMock) Extract(ctx context.Context, fileBytes []byte, textContent string) (*extract.InvoiceData, error) {
	e.Calls++
	if e.Err != nil {
		return nil, e.Err
	}

	return e.Data, nil
}

type SentMessage struct {
	Recipient string
	Subject   string
	Body      string
}

// ChannelMock records outbound notification sends.
type ChannelMock struct {
	Sent []SentMessage
	Err  error
}

func (c *ChannelMock) Send(ctx context.Context, recipient string, subject string, body string) error {
	c.Sent = append(c.Sent, SentMessage{Recipient: recipient, Subject: subject, Body: body})
	return c.Err
}
