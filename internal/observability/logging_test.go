package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/sandeepkv93/product-catalog-service/internal/config"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func TestInitLoggerStampsTraceContext(t *testing.T) {
	var buf bytes.Buffer
	prev := logOutput
	logOutput = &buf
	defer func() { logOutput = prev }()

	logger := InitLogger(&config.Config{OTELLogLevel: "info"}, nil)

	tp := sdktrace.NewTracerProvider()
	defer func() { _ = tp.Shutdown(context.Background()) }()
	ctx, span := tp.Tracer("test").Start(context.Background(), "op")
	logger.InfoContext(ctx, "inside span")
	span.End()

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("decode log line: %v", err)
	}
	if entry["trace_id"] != span.SpanContext().TraceID().String() {
		t.Fatalf("expected trace id %s, got %v", span.SpanContext().TraceID(), entry["trace_id"])
	}
}

func TestMultiHandlerSkipsDisabledHandlers(t *testing.T) {
	var infoBuf, errBuf bytes.Buffer
	h := &multiHandler{handlers: []slog.Handler{
		slog.NewJSONHandler(&infoBuf, &slog.HandlerOptions{Level: slog.LevelInfo}),
		slog.NewJSONHandler(&errBuf, &slog.HandlerOptions{Level: slog.LevelError}),
	}}
	slog.New(h).Info("hello")

	if infoBuf.Len() == 0 {
		t.Fatal("expected info handler output")
	}
	if errBuf.Len() != 0 {
		t.Fatalf("expected error handler to skip info record, got %q", errBuf.String())
	}
}
