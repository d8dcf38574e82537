package domain

import "context"

// Mailer sends transactional email. Sending is synchronous with the
// request; implementations decide the transport.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}
