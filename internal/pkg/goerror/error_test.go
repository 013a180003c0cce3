package goerror

import (
	"errors"
	"net/http"
	"testing"
)

func TestStatusCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "Server", err: NewServer(errors.New("boom")), want: http.StatusInternalServerError},
		{name: "Unauthorized", err: NewBusiness("nope", CodeUnauthorized), want: http.StatusUnauthorized},
		{name: "Forbidden", err: NewBusiness("blocked", CodeForbidden), want: http.StatusForbidden},
		{name: "TooManyRequest", err: NewBusiness("limit", CodeTooManyRequest), want: http.StatusTooManyRequests},
		{name: "BadGateway", err: NewBusiness("relay down", CodeBadGateway), want: http.StatusBadGateway},
		{name: "InvalidFormat", err: NewInvalidFormat(), want: http.StatusBadRequest},
		{name: "InvalidInput", err: NewInvalidInput(errors.New("x")), want: http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			var gerr *Error

			// Act
			ok := errors.As(tt.err, &gerr)

			// Assert
			if !ok {
				t.Fatalf("expected *Error, got %T", tt.err)
			}
			if got := gerr.StatusCode(); got != tt.want {
				t.Fatalf("StatusCode() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestNewBusinessWithFields(t *testing.T) {
	t.Run("CarriesFields", func(t *testing.T) {
		// Act
		err := NewBusinessWithFields("Invalid code", CodeUnauthorized, "remaining_attempts", "2")

		// Assert
		var gerr *Error
		if !errors.As(err, &gerr) {
			t.Fatalf("expected *Error")
		}
		if gerr.Msg() != "Invalid code" {
			t.Fatalf("unexpected message %q", gerr.Msg())
		}
		if gerr.Fields()["remaining_attempts"] != "2" {
			t.Fatalf("unexpected fields %v", gerr.Fields())
		}
	})

	t.Run("OddPairsIgnored", func(t *testing.T) {
		// Act
		err := NewBusinessWithFields("x", CodeForbidden, "only-key")

		// Assert
		var gerr *Error
		if !errors.As(err, &gerr) {
			t.Fatalf("expected *Error")
		}
		if len(gerr.Fields()) != 0 {
			t.Fatalf("expected no fields, got %v", gerr.Fields())
		}
	})
}

func TestNewInvalidInput(t *testing.T) {
	t.Run("WrapsCause", func(t *testing.T) {
		// Arrange
		cause := errors.New("code: must be 6 digits")

		// Act
		err := NewInvalidInput(cause)

		// Assert
		if !errors.Is(err, cause) || err.Error() != cause.Error() {
			t.Fatalf("expected wrapped cause, got %v", err)
		}
	})

	t.Run("FieldPairs", func(t *testing.T) {
		// Act
		err := NewInvalidInput(nil, "ip", "must be a valid address")

		// Assert
		var gerr *Error
		if !errors.As(err, &gerr) || gerr.Fields()["ip"] != "must be a valid address" {
			t.Fatalf("unexpected error %v", err)
		}
	})

	t.Run("OddPairsDegradeToFormat", func(t *testing.T) {
		// Act
		err := NewInvalidInput(nil, "ip")

		// Assert
		var gerr *Error
		if !errors.As(err, &gerr) || gerr.Code() != CodeInvalidFormat {
			t.Fatalf("expected invalid format, got %v", err)
		}
	})
}

func TestServerHidesCause(t *testing.T) {
	// Arrange
	cause := errors.New("pq: connection refused")

	// Act
	err := NewServer(cause)

	// Assert
	var gerr *Error
	if !errors.As(err, &gerr) {
		t.Fatalf("expected *Error")
	}
	if gerr.Msg() != "Internal server error" || !errors.Is(err, cause) {
		t.Fatalf("unexpected error msg %q", gerr.Msg())
	}
	if Code(99).String() != "INTERNAL" {
		t.Fatalf("unknown code should read INTERNAL")
	}
}
