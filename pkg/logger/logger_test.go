package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
)

func TestLoggerEmitsServiceAndFields(t *testing.T) {
	var buf bytes.Buffer
	logg := New(Options{ServiceName: "billing", Output: &buf, Level: zerolog.InfoLevel})

	ctx := logg.WithLicenseID(context.Background(), "abc-123")
	ctx = logg.WithField(ctx, "guid", 123456)
	logg.Info(ctx, "adjustment created")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("invalid json log line: %v", err)
	}
	if entry["service"] != "billing" {
		t.Fatalf("missing service field: %v", entry)
	}
	if entry["license_id"] != "abc-123" {
		t.Fatalf("missing license_id field: %v", entry)
	}
	if entry["message"] != "adjustment created" {
		t.Fatalf("unexpected message: %v", entry)
	}
}

func TestContextFieldsDoNotLeakAcrossContexts(t *testing.T) {
	var buf bytes.Buffer
	logg := New(Options{ServiceName: "billing", Output: &buf})

	_ = logg.WithField(context.Background(), "tenant_id", "t1")
	logg.Info(context.Background(), "no fields")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("invalid json log line: %v", err)
	}
	if _, ok := entry["tenant_id"]; ok {
		t.Fatal("fields bound to one context must not leak to another")
	}
}

func TestParseLevel(t *testing.T) {
	if ParseLevel("warn") != zerolog.WarnLevel {
		t.Fatal("warn should parse")
	}
	if ParseLevel("bogus") != zerolog.InfoLevel {
		t.Fatal("unknown levels fall back to info")
	}
}
