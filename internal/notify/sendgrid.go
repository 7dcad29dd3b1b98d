package notify

import (
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
)

// SendgridService delivers mail through the SendGrid API.
type SendgridService struct {
	client *sendgrid.Client
	from   *sgmail.Email
}

var _ EmailService = (*SendgridService)(nil)

func NewSendgridService(apiKey, fromName, fromAddr string) *SendgridService {
	return &SendgridService{
		client: sendgrid.NewSendClient(apiKey),
		from:   sgmail.NewEmail(fromName, fromAddr),
	}
}

func (s *SendgridService) Send(msg Message) error {
	to := sgmail.NewEmail("", msg.To)
	mail := sgmail.NewSingleEmail(s.from, msg.Subject, to, msg.Body, "")

	resp, err := s.client.Send(mail)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("sendgrid: unexpected status %d: %s", resp.StatusCode, resp.Body)
	}

	return nil
}
