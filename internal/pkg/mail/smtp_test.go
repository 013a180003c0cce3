package mail

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestNewSMTP(t *testing.T) {
	// Act
	_, err := NewSMTP(SMTPConfig{Host: "localhost"})

	// Assert
	if !errors.Is(err, ErrSMTPHostPortRequired) {
		t.Fatalf("expected ErrSMTPHostPortRequired, got %v", err)
	}
}

func TestSMTPSendValidation(t *testing.T) {
	s, err := NewSMTP(SMTPConfig{Host: "localhost", Port: 2525})
	if err != nil {
		t.Fatalf("NewSMTP() error = %v", err)
	}

	t.Run("NoRecipients", func(t *testing.T) {
		// Act
		err := s.Send(context.Background(), Message{From: "a@example.com", Subject: "x"})

		// Assert
		if !errors.Is(err, ErrNoRecipients) {
			t.Fatalf("expected ErrNoRecipients, got %v", err)
		}
	})

	t.Run("NoSender", func(t *testing.T) {
		// Act
		err := s.Send(context.Background(), Message{To: []string{"b@example.com"}})

		// Assert
		if !errors.Is(err, ErrNoSender) {
			t.Fatalf("expected ErrNoSender, got %v", err)
		}
	})

	t.Run("BadAddress", func(t *testing.T) {
		// Act
		err := s.Send(context.Background(), Message{From: "a@example.com", To: []string{"not an address"}})

		// Assert
		if !errors.Is(err, ErrBadAddress) {
			t.Fatalf("expected ErrBadAddress, got %v", err)
		}
	})

	t.Run("HeaderInjection", func(t *testing.T) {
		// Act
		err := s.Send(context.Background(), Message{
			From:    "a@example.com",
			To:      []string{"b@example.com"},
			Headers: map[string]string{"X-Correlation-ID": "x\r\nBcc: evil@example.com"},
		})

		// Assert
		if !errors.Is(err, ErrBadHeader) {
			t.Fatalf("expected ErrBadHeader, got %v", err)
		}
	})

	t.Run("CanceledContext", func(t *testing.T) {
		// Arrange
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		// Act
		err := s.Send(ctx, Message{From: "a@example.com", To: []string{"b@example.com"}})

		// Assert
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	})
}

func TestBuildMessage(t *testing.T) {
	t.Run("Multipart", func(t *testing.T) {
		// Act
		raw := buildMessage("noreply@example.com", Message{
			To:      []string{"jane@example.com"},
			Subject: "Your Login OTP - Example",
			Text:    "code 123456",
			HTML:    "<p>123456</p>",
		})

		// Assert
		if !strings.Contains(raw, "Content-Type: multipart/alternative; boundary=loginguard-boundary-") {
			t.Fatalf("expected multipart content type, got %q", raw)
		}
		if !strings.Contains(raw, "Subject: Your Login OTP - Example\r\n") {
			t.Fatalf("expected plain ascii subject, got %q", raw)
		}
		if !strings.Contains(raw, "code 123456") || !strings.Contains(raw, "<p>123456</p>") {
			t.Fatalf("expected both bodies")
		}
	})

	t.Run("ExtraHeadersSorted", func(t *testing.T) {
		// Act
		raw := buildMessage("noreply@example.com", Message{
			To:      []string{"jane@example.com"},
			Text:    "x",
			Headers: map[string]string{"X-Correlation-ID": "abc", "Auto-Submitted": "auto-generated"},
		})

		// Assert
		if !strings.Contains(raw, "Auto-Submitted: auto-generated\r\nX-Correlation-ID: abc\r\n") {
			t.Fatalf("expected sorted extra headers, got %q", raw)
		}
	})

	t.Run("HTMLOnly", func(t *testing.T) {
		// Act
		raw := buildMessage("noreply@example.com", Message{To: []string{"jane@example.com"}, HTML: "<b>x</b>"})

		// Assert
		if !strings.Contains(raw, "Content-Type: text/html; charset=UTF-8") {
			t.Fatalf("expected html content type, got %q", raw)
		}
	})

	t.Run("EncodesNonASCIISubject", func(t *testing.T) {
		// Act
		raw := buildMessage("noreply@example.com", Message{To: []string{"j@example.com"}, Subject: "Código", Text: "x"})

		// Assert
		if !strings.Contains(raw, "Subject: =?UTF-8?q?") {
			t.Fatalf("expected encoded subject, got %q", raw)
		}
	})
}
