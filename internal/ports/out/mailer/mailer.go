package mailer

import "context"

// Message is a plain-text email.
type Message struct {
	To      string
	Subject string
	Text    string
}

// Mailer delivers outgoing email.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}
