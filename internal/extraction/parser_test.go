package extraction

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestHTTPParserBareObject(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Document-Type") != "invoice" {
			t.Errorf("missing document type header")
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"journeyNumber":"LR-2025-7713","confidence":0.88}`))
	}))
	defer srv.Close()

	parser := NewHTTPParser(Config{Endpoint: srv.URL, Timeout: 5 * time.Second})
	doc, err := parser.Parse(context.Background(), ParseInput{
		FileBytes:    []byte("%PDF-1.4"),
		ContentType:  "application/pdf",
		DocumentType: "invoice",
	})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	lr, ok := doc.JourneyNumber()
	if !ok || lr != "LR-2025-7713" {
		t.Fatalf("journey number = %q (%v)", lr, ok)
	}
	if doc.Confidence != 0.88 {
		t.Fatalf("confidence = %v, want 0.88", doc.Confidence)
	}
}

func TestHTTPParserEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"confidence":0.7,"extractedData":{"loadId":"LCU-0098"}}`))
	}))
	defer srv.Close()

	parser := NewHTTPParser(Config{Endpoint: srv.URL, Timeout: 5 * time.Second})
	doc, err := parser.Parse(context.Background(), ParseInput{FileBytes: []byte("x")})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	load, ok := doc.LoadID()
	if !ok || load != "LCU-0098" {
		t.Fatalf("load id = %q (%v)", load, ok)
	}
	if doc.Confidence != 0.7 {
		t.Fatalf("confidence = %v, want envelope value 0.7", doc.Confidence)
	}
}

func TestHTTPParserNestedConfidenceWins(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"confidence":0.4,"extractedData":{"confidence":0.9,"loadId":"LCU-0098"}}`))
	}))
	defer srv.Close()

	parser := NewHTTPParser(Config{Endpoint: srv.URL, Timeout: 5 * time.Second})
	doc, err := parser.Parse(context.Background(), ParseInput{FileBytes: []byte("x")})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if doc.Confidence != 0.9 {
		t.Fatalf("confidence = %v, want nested value 0.9", doc.Confidence)
	}
}

func TestHTTPParserErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "provider exploded", http.StatusBadGateway)
	}))
	defer srv.Close()

	parser := NewHTTPParser(Config{Endpoint: srv.URL, Timeout: 5 * time.Second})
	if _, err := parser.Parse(context.Background(), ParseInput{FileBytes: []byte("x")}); err == nil {
		t.Fatalf("expected error for non-200 response")
	}
}

func TestHTTPParserSendsAuthHeader(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer secret" {
			t.Errorf("authorization header = %q", r.Header.Get("Authorization"))
		}
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	parser := NewHTTPParser(Config{Endpoint: srv.URL, APIKey: "secret", Timeout: 5 * time.Second})
	if _, err := parser.Parse(context.Background(), ParseInput{FileBytes: []byte("x")}); err != nil {
		t.Fatalf("parse: %v", err)
	}
}
