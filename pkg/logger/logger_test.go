package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"strings"
	"testing"

	"go.opentelemetry.io/otel/trace"
)

func captureStdOut(fn func()) string {
	orig := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w
	defer func() {
		os.Stdout = orig
	}()

	fn()

	_ = w.Close()
	var buf bytes.Buffer
	_, _ = io.Copy(&buf, r)
	_ = r.Close()
	return buf.String()
}

func TestDetectEnv(t *testing.T) {
	t.Setenv("APP_ENV", "")
	if got := DetectEnv(); got != EnvDev {
		t.Fatalf("default should be dev, got %q", got)
	}

	t.Setenv("APP_ENV", "stage")
	if got := DetectEnv(); got != EnvStage {
		t.Fatalf("expected stage, got %q", got)
	}

	t.Setenv("APP_ENV", "prod")
	if got := DetectEnv(); got != EnvProd {
		t.Fatalf("expected prod, got %q", got)
	}
}

func TestInit_StdBackend_TextOutput(t *testing.T) {
	out := captureStdOut(func() {
		Init(Config{
			Service: "messaging-service",
			Version: "v0.1.0",
			Env:     EnvDev,
			Backend: BackendStd,
		})
		slog.Info("booted", slog.String("k", "v"))
	})

	if !strings.Contains(out, "msg=booted") {
		t.Fatalf("expected text record, got %s", out)
	}
	if !strings.Contains(out, "service=messaging-service") {
		t.Fatalf("service attr missing: %s", out)
	}
}

func TestInit_TraceAttrsFromContext(t *testing.T) {
	tid, _ := trace.TraceIDFromHex("0123456789abcdef0123456789abcdef")
	sid, _ := trace.SpanIDFromHex("0123456789abcdef")
	sc := trace.NewSpanContext(trace.SpanContextConfig{TraceID: tid, SpanID: sid})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)

	out := captureStdOut(func() {
		Init(Config{
			Service: "messaging-service",
			Env:     EnvDev,
			Backend: BackendStd,
		})
		slog.InfoContext(ctx, "joined")
		slog.Info("no span here")
	})

	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected two records, got %s", out)
	}
	if !strings.Contains(lines[0], "trace_id=0123456789abcdef0123456789abcdef") {
		t.Fatalf("trace id missing: %s", lines[0])
	}
	if !strings.Contains(lines[0], "span_id=0123456789abcdef") {
		t.Fatalf("span id missing: %s", lines[0])
	}
	if strings.Contains(lines[1], "trace_id") {
		t.Fatalf("record without a span must not carry trace attrs: %s", lines[1])
	}
}

func TestInit_ZapBackend_JSONOutput(t *testing.T) {
	out := captureStdOut(func() {
		Init(Config{
			Service:          "messaging-service",
			Version:          "v0.1.0",
			Env:              EnvProd,
			Backend:          BackendZap,
			Level:            slog.LevelInfo,
			SampleInitial:    100000,
			SampleThereafter: 100000,
		})
		slog.Info("booted", slog.String("k", "v"))
	})

	var m map[string]any
	if err := json.Unmarshal([]byte(out), &m); err != nil {
		t.Fatalf("expected JSON line, got %s, err=%v", out, err)
	}
	if m["msg"] != "booted" {
		t.Fatalf("msg mismatch: %v", m["msg"])
	}
	if m["service"] != "messaging-service" || m["env"] != "prod" {
		t.Fatalf("attrs missing: service=%v env=%v", m["service"], m["env"])
	}
	if m["k"] != "v" {
		t.Fatalf("custom field missing: %v", m["k"])
	}
}
