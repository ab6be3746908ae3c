package transport

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/navid-fn/uniex/exchange"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func TestDoDecodesJSON(t *testing.T) {
	var gotPath, gotQuery, gotHeader string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		gotHeader = r.Header.Get("X-Test")
		w.Write([]byte(`{"status":"ok","count":2}`))
	}))
	defer srv.Close()

	client := New("test", 100, testLogger())
	req := &Request{
		Method: http.MethodGet,
		URL:    srv.URL + "/api/ticker",
		Query:  url.Values{"pair": {"XBTZAR"}},
	}
	req.SetHeader("X-Test", "yes")

	decoded, err := client.Do(context.Background(), req)
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	m, ok := decoded.(map[string]any)
	if !ok {
		t.Fatalf("decoded body is %T, want map", decoded)
	}
	if m["status"] != "ok" {
		t.Errorf("status = %v, want ok", m["status"])
	}
	if gotPath != "/api/ticker" {
		t.Errorf("path = %q", gotPath)
	}
	if gotQuery != "pair=XBTZAR" {
		t.Errorf("query = %q", gotQuery)
	}
	if gotHeader != "yes" {
		t.Errorf("header = %q", gotHeader)
	}
}

func TestDoStatusCategories(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{http.StatusTooManyRequests, exchange.ErrRateLimitExceeded},
		{http.StatusTeapot, exchange.ErrDDoSProtection},
		{http.StatusRequestTimeout, exchange.ErrRequestTimeout},
		{http.StatusGatewayTimeout, exchange.ErrRequestTimeout},
		{http.StatusUnauthorized, exchange.ErrAuthentication},
		{http.StatusForbidden, exchange.ErrAuthentication},
		{http.StatusServiceUnavailable, exchange.ErrExchangeNotAvailable},
		{http.StatusBadRequest, exchange.ErrExchange},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte("oops"))
			}))
			defer srv.Close()

			client := New("test", 100, testLogger())
			_, err := client.Do(context.Background(), &Request{Method: http.MethodGet, URL: srv.URL})
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
			var apiErr *exchange.APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("err is %T, want *exchange.APIError", err)
			}
			if apiErr.Body != "oops" {
				t.Errorf("body = %q, want oops", apiErr.Body)
			}
		})
	}
}

func TestDoErrorHookRunsFirst(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"Insufficient balance"}`))
	}))
	defer srv.Close()

	hook := func(status int, body []byte, decoded any) error {
		m, _ := decoded.(map[string]any)
		if m["error"] == "Insufficient balance" {
			return exchange.NewAPIError("test", exchange.ErrInsufficientFunds, string(body))
		}
		return nil
	}
	client := New("test", 100, testLogger(), WithHandleErrors(hook))

	_, err := client.Do(context.Background(), &Request{Method: http.MethodGet, URL: srv.URL})
	if !errors.Is(err, exchange.ErrInsufficientFunds) {
		t.Errorf("err = %v, want the hook's category, not the status fallback", err)
	}
}

func TestDoErrorHookCanPassStatusThrough(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client := New("test", 100, testLogger(), WithHandleErrors(func(int, []byte, any) error {
		return nil
	}))

	_, err := client.Do(context.Background(), &Request{Method: http.MethodGet, URL: srv.URL})
	if !errors.Is(err, exchange.ErrRateLimitExceeded) {
		t.Errorf("err = %v, want ErrRateLimitExceeded", err)
	}
}

func TestDoNonJSONBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>maintenance</html>"))
	}))
	defer srv.Close()

	client := New("test", 100, testLogger())
	decoded, err := client.Do(context.Background(), &Request{Method: http.MethodGet, URL: srv.URL})
	if !errors.Is(err, exchange.ErrExchange) {
		t.Fatalf("err = %v, want ErrExchange for a 200 with a non-JSON body", err)
	}
	var apiErr *exchange.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("err is %T, want *exchange.APIError", err)
	}
	if apiErr.Body != "<html>maintenance</html>" {
		t.Errorf("body = %q, want the raw body preserved", apiErr.Body)
	}
	if decoded != nil {
		t.Errorf("decoded = %v, want nil for a non-JSON body", decoded)
	}
}

func TestDoEmptyBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := New("test", 100, testLogger())
	decoded, err := client.Do(context.Background(), &Request{Method: http.MethodGet, URL: srv.URL})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if decoded != nil {
		t.Errorf("decoded = %v, want nil for an empty body", decoded)
	}
}

func TestDoNetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	client := New("test", 100, testLogger())
	_, err := client.Do(context.Background(), &Request{Method: http.MethodGet, URL: srv.URL})
	if !errors.Is(err, exchange.ErrNetwork) {
		t.Errorf("err = %v, want ErrNetwork", err)
	}
}

func TestDoCanceledContext(t *testing.T) {
	client := New("test", 100, testLogger())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// The limiter rejects the canceled context before any dial happens.
	_, err := client.Do(ctx, &Request{Method: http.MethodGet, URL: "http://localhost"})
	if err == nil {
		t.Fatal("expected an error from the canceled context")
	}
}

func TestDoPostBody(t *testing.T) {
	var gotBody string
	var gotContentType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := make([]byte, r.ContentLength)
		r.Body.Read(raw)
		gotBody = string(raw)
		gotContentType = r.Header.Get("Content-Type")
		w.Write([]byte(`{"success":true}`))
	}))
	defer srv.Close()

	client := New("test", 100, testLogger())
	req := &Request{
		Method: http.MethodPost,
		URL:    srv.URL,
		Body:   []byte("amount=1&pair=XBTZAR"),
	}
	req.SetHeader("Content-Type", "application/x-www-form-urlencoded")

	if _, err := client.Do(context.Background(), req); err != nil {
		t.Fatalf("Do: %v", err)
	}
	if gotBody != "amount=1&pair=XBTZAR" {
		t.Errorf("body = %q", gotBody)
	}
	if gotContentType != "application/x-www-form-urlencoded" {
		t.Errorf("content type = %q", gotContentType)
	}
}
