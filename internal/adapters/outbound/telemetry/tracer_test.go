package telemetry

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"go.opentelemetry.io/otel"
)

func TestInitTracer_Stdout(t *testing.T) {
	var buf bytes.Buffer
	shutdown, err := InitTracer(context.Background(), TracerConfig{
		Environment:  "test",
		StdoutWriter: &buf,
	})
	if err != nil {
		t.Fatalf("InitTracer: %v", err)
	}

	_, span := otel.Tracer("telemetry-test").Start(context.Background(), "solve-span")
	span.End()

	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "solve-span") {
		t.Errorf("exported spans do not contain solve-span: %s", out)
	}
	if !strings.Contains(out, "vault-solver") {
		t.Errorf("exported resource does not carry the default service name: %s", out)
	}
}

func TestNewSampler(t *testing.T) {
	tests := []struct {
		rate float64
		want string
	}{
		{rate: 1, want: "AlwaysOnSampler"},
		{rate: 2, want: "AlwaysOnSampler"},
		{rate: -1, want: "AlwaysOffSampler"},
		{rate: 0.5, want: "ParentBased"},
	}
	for _, tt := range tests {
		if got := newSampler(tt.rate).Description(); !strings.HasPrefix(got, tt.want) {
			t.Errorf("newSampler(%v) = %s, want prefix %s", tt.rate, got, tt.want)
		}
	}
}
