package exchange

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Error categories. Every failure an adapter surfaces wraps exactly one of
// these sentinels, so callers branch with errors.Is.
var (
	ErrExchange                 = errors.New("exchange error")
	ErrAuthentication           = errors.New("authentication error")
	ErrPermissionDenied         = errors.New("permission denied")
	ErrAccountSuspended         = errors.New("account suspended")
	ErrArgumentsRequired        = errors.New("arguments required")
	ErrBadRequest               = errors.New("bad request")
	ErrBadSymbol                = errors.New("bad symbol")
	ErrInsufficientFunds        = errors.New("insufficient funds")
	ErrInvalidAddress           = errors.New("invalid address")
	ErrInvalidOrder             = errors.New("invalid order")
	ErrOrderNotFound            = errors.New("order not found")
	ErrOrderImmediatelyFillable = errors.New("order immediately fillable")
	ErrNotSupported             = errors.New("not supported")
	ErrNetwork                  = errors.New("network error")
	ErrDDoSProtection           = errors.New("ddos protection")
	ErrRateLimitExceeded        = errors.New("rate limit exceeded")
	ErrExchangeNotAvailable     = errors.New("exchange not available")
	ErrOnMaintenance            = errors.New("exchange on maintenance")
	ErrInvalidNonce             = errors.New("invalid nonce")
	ErrRequestTimeout           = errors.New("request timeout")
)

// APIError is a categorized failure reported by an exchange.
type APIError struct {
	Exchange string
	Category error  // one of the sentinels above
	Body     string // raw error text from the exchange
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %v: %s", e.Exchange, e.Category, e.Body)
}

func (e *APIError) Unwrap() error { return e.Category }

// NewAPIError builds a categorized error for an exchange response.
func NewAPIError(exchangeName string, category error, body string) *APIError {
	return &APIError{Exchange: exchangeName, Category: category, Body: body}
}

// ErrorMapper translates exchange-native error codes and messages into
// categories. Exact keys match the whole code or message; broad keys match
// as substrings of the message. Tables are fixed at construction.
type ErrorMapper struct {
	exact     map[string]error
	broad     map[string]error
	broadKeys []string // sorted, for deterministic matching order
}

// NewErrorMapper copies the given tables into an immutable mapper.
func NewErrorMapper(exact, broad map[string]error) *ErrorMapper {
	m := &ErrorMapper{
		exact: make(map[string]error, len(exact)),
		broad: make(map[string]error, len(broad)),
	}
	for k, v := range exact {
		m.exact[k] = v
	}
	for k, v := range broad {
		m.broad[k] = v
		m.broadKeys = append(m.broadKeys, k)
	}
	sort.Strings(m.broadKeys)
	return m
}

// Map resolves an error code and message to a category. The exact table is
// consulted with the code first and the full message second; then each broad
// key is tried as a substring of the message. Returns nil only when both
// inputs are empty.
func (m *ErrorMapper) Map(code, message string) error {
	if code == "" && message == "" {
		return nil
	}
	if code != "" {
		if cat, ok := m.exact[code]; ok {
			return cat
		}
	}
	if message != "" {
		if cat, ok := m.exact[message]; ok {
			return cat
		}
		for _, key := range m.broadKeys {
			if strings.Contains(message, key) {
				return m.broad[key]
			}
		}
	}
	return ErrExchange
}
