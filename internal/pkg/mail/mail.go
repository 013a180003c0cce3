package mail

import (
	"context"
	"errors"
	"io"
	"net/mail"
	"strings"
)

var (
	ErrNoRecipients = errors.New("mail: no recipients")
	ErrNoSender     = errors.New("mail: no sender")
	// ErrBadAddress is returned for an address net/mail cannot parse.
	ErrBadAddress = errors.New("mail: malformed address")
	// ErrBadHeader is returned for extra headers carrying line breaks.
	ErrBadHeader = errors.New("mail: header contains a line break")
)

// Message is one transactional email. When both Text and HTML are set the
// message is sent as multipart/alternative.
type Message struct {
	From    string
	To      []string
	Subject string
	Text    string
	HTML    string
	// Headers are extra headers such as Auto-Submitted or X-Correlation-ID.
	Headers map[string]string
}

// validate checks the message after the sender fallback was applied.
func (m Message) validate() error {
	if m.From == "" {
		return ErrNoSender
	}
	if len(m.To) == 0 {
		return ErrNoRecipients
	}
	for _, addr := range append([]string{m.From}, m.To...) {
		if _, err := mail.ParseAddress(addr); err != nil {
			return errors.Join(ErrBadAddress, err)
		}
	}
	for k, v := range m.Headers {
		if strings.ContainsAny(k+v, "\r\n") {
			return ErrBadHeader
		}
	}
	return nil
}

// Mail delivers messages through a provider.
type Mail interface {
	io.Closer
	Send(ctx context.Context, msg Message) error
}
