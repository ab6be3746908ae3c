package exchange

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorMapper(t *testing.T) {
	mapper := NewErrorMapper(
		map[string]error{
			"20501":                  ErrBadSymbol,
			"No order with given ID": ErrOrderNotFound,
		},
		map[string]error{
			"Not enough account balance": ErrInsufficientFunds,
			"TOO MANY REQUESTS":          ErrRateLimitExceeded,
		},
	)

	tests := []struct {
		name    string
		code    string
		message string
		want    error
	}{
		{"exact code", "20501", "invalid symbol", ErrBadSymbol},
		{"exact message", "", "No order with given ID", ErrOrderNotFound},
		{"exact code beats broad message", "20501", "Not enough account balance available", ErrBadSymbol},
		{"broad substring", "", "Error: Not enough account balance available", ErrInsufficientFunds},
		{"broad needs the exact casing", "", "too many requests", ErrExchange},
		{"unknown code falls back", "99999", "", ErrExchange},
		{"unknown message falls back", "", "something odd happened", ErrExchange},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mapper.Map(tt.code, tt.message)
			if !errors.Is(got, tt.want) {
				t.Errorf("Map(%q, %q) = %v, want %v", tt.code, tt.message, got, tt.want)
			}
		})
	}

	if got := mapper.Map("", ""); got != nil {
		t.Errorf("Map on empty inputs = %v, want nil", got)
	}
}

func TestErrorMapperCopiesTables(t *testing.T) {
	exact := map[string]error{"1": ErrBadRequest}
	mapper := NewErrorMapper(exact, nil)
	exact["1"] = ErrInvalidOrder

	if got := mapper.Map("1", ""); !errors.Is(got, ErrBadRequest) {
		t.Errorf("Map after caller mutation = %v, want %v", got, ErrBadRequest)
	}
}

func TestAPIError(t *testing.T) {
	err := NewAPIError("luno", ErrInsufficientFunds, "insufficient balance")

	if !errors.Is(err, ErrInsufficientFunds) {
		t.Error("errors.Is should match the category sentinel")
	}
	if errors.Is(err, ErrBadSymbol) {
		t.Error("errors.Is matched the wrong sentinel")
	}

	wrapped := fmt.Errorf("create order: %w", err)
	if !errors.Is(wrapped, ErrInsufficientFunds) {
		t.Error("errors.Is should see through an extra wrap")
	}
	var apiErr *APIError
	if !errors.As(wrapped, &apiErr) {
		t.Fatal("errors.As should recover the APIError")
	}
	if apiErr.Exchange != "luno" || apiErr.Body != "insufficient balance" {
		t.Errorf("unexpected fields: %+v", apiErr)
	}

	want := "luno: insufficient funds: insufficient balance"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestCredentialsRequire(t *testing.T) {
	tests := []struct {
		name    string
		creds   Credentials
		withUID bool
		wantErr bool
	}{
		{"complete", Credentials{APIKey: "k", Secret: "s"}, false, false},
		{"complete with uid", Credentials{APIKey: "k", Secret: "s", UID: "1"}, true, false},
		{"missing secret", Credentials{APIKey: "k"}, false, true},
		{"missing key", Credentials{Secret: "s"}, false, true},
		{"missing uid", Credentials{APIKey: "k", Secret: "s"}, true, true},
		{"uid not needed", Credentials{APIKey: "k", Secret: "s"}, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.creds.Require("test", tt.withUID)
			if tt.wantErr && !errors.Is(err, ErrAuthentication) {
				t.Errorf("err = %v, want ErrAuthentication", err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("err = %v, want nil", err)
			}
		})
	}
}
