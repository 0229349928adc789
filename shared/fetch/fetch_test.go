package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func TestGetJSON(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		switch r.URL.Path {
		case "/ok":
			w.Write([]byte(`{"city": "` + r.URL.Query().Get("q") + `"}`))
		case "/broken":
			w.Write([]byte(`{"city": `))
		case "/down":
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(`{"message": "down"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"message": "city not found"}`))
		}
	}))
	defer srv.Close()

	client := NewClient(Options{Timeout: 2 * time.Second})
	ctx := context.Background()

	t.Run("query params are sent and body decoded", func(t *testing.T) {
		var out struct {
			City string `json:"city"`
		}
		err := GetJSON(ctx, client, srv.URL+"/ok", url.Values{"q": {"Nairobi"}}, &out)
		if err != nil {
			t.Fatalf("unexpected error: %s\n", err)
		}
		if out.City != "Nairobi" {
			t.Fatalf("expected Nairobi, got %s\n", out.City)
		}
	})

	t.Run("malformed body is a decode error", func(t *testing.T) {
		var out map[string]interface{}
		err := GetJSON(ctx, client, srv.URL+"/broken", nil, &out)
		if err == nil || !strings.Contains(err.Error(), "unable to decode") {
			t.Fatalf("expected decode error, got %v\n", err)
		}
	})

	t.Run("non-2xx is a StatusError carrying the body", func(t *testing.T) {
		var out map[string]interface{}
		err := GetJSON(ctx, client, srv.URL+"/missing", nil, &out)
		var se *StatusError
		if !errors.As(err, &se) {
			t.Fatalf("expected StatusError, got %v\n", err)
		}
		if se.StatusCode != http.StatusNotFound {
			t.Fatalf("expected 404, got %d\n", se.StatusCode)
		}
		if !strings.Contains(string(se.Body), "city not found") {
			t.Fatalf("expected body to be kept, got %s\n", se.Body)
		}
	})

	t.Run("5xx is returned once without retries", func(t *testing.T) {
		atomic.StoreInt32(&calls, 0)
		status, b, err := GetRaw(ctx, client, srv.URL+"/down", nil)
		if err != nil {
			t.Fatalf("unexpected error: %s\n", err)
		}
		if status != http.StatusInternalServerError {
			t.Fatalf("expected 500, got %d\n", status)
		}
		if !strings.Contains(string(b), "down") {
			t.Fatalf("expected body, got %s\n", b)
		}
		if n := atomic.LoadInt32(&calls); n != 1 {
			t.Fatalf("expected 1 call, got %d\n", n)
		}
	})
}

func TestTransportErrorRedactsCredentials(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	addr := srv.URL
	srv.Close()

	client := NewClient(Options{Timeout: time.Second})
	_, _, err := GetRaw(context.Background(), client, addr, url.Values{"appid": {"secret-value"}})
	if err == nil {
		t.Fatalf("expected error from closed server\n")
	}
	if strings.Contains(err.Error(), "secret-value") {
		t.Fatalf("credential leaked into error: %s\n", err)
	}
}
