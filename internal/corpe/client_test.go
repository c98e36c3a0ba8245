package corpe

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/corpedigital/assistant-api/internal/logger"
)

func TestSendPostsJSONAndReturnsBody(t *testing.T) {
	var gotPath string
	var gotBody map[string]string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if r.Method != http.MethodPost {
			t.Errorf("method = %s", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content-type = %s", ct)
		}
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.Write([]byte(`{"quantidade":1}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, logger.NewNop())
	raw, err := c.Send(context.Background(), map[string]string{"cpf": "12345678909"}, "/cobrancas")
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if gotPath != "/cobrancas" {
		t.Fatalf("path = %q", gotPath)
	}
	if gotBody["cpf"] != "12345678909" {
		t.Fatalf("body = %v", gotBody)
	}
	if string(raw) != `{"quantidade":1}` {
		t.Fatalf("raw = %s", raw)
	}
}

func TestSendNormalizesUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"message":"cliente não encontrado"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, logger.NewNop())
	_, err := c.Send(context.Background(), map[string]string{}, "boletos")
	if err == nil {
		t.Fatalf("expected error")
	}
	ue, ok := AsUpstreamError(err)
	if !ok {
		t.Fatalf("expected UpstreamError, got %T", err)
	}
	if ue.Status != http.StatusNotFound {
		t.Fatalf("status = %d", ue.Status)
	}
	if ue.Message != "cliente não encontrado" {
		t.Fatalf("message = %q", ue.Message)
	}
}

func TestSendFallsBackToRawBodyMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("boom"))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, logger.NewNop())
	_, err := c.Send(context.Background(), nil, "carteirinha")
	ue, ok := AsUpstreamError(err)
	if !ok {
		t.Fatalf("expected UpstreamError, got %v", err)
	}
	if ue.Message != "boom" {
		t.Fatalf("message = %q", ue.Message)
	}
}
