package toolcall

import (
	"strings"
	"testing"
)

func TestParseStripsReservedKeys(t *testing.T) {
	raw := map[string]any{
		"gameObjectPath": "Player",
		"__confirm":      true,
		"__confirmNote":  "user asked",
		"__timeoutMs":    float64(1500),
		"__timeout":      float64(9999),
	}

	req, err := Parse("entity.delete", raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(req.Args) != 1 || req.Args["gameObjectPath"] != "Player" {
		t.Errorf("expected only forwarded args, got %v", req.Args)
	}
	if !req.Flags.Confirm || req.Flags.ConfirmNote != "user asked" {
		t.Errorf("unexpected flags: %+v", req.Flags)
	}
	if !req.Flags.HasTimeout || req.Flags.TimeoutMs != 1500 {
		t.Errorf("expected __timeoutMs to win, got %+v", req.Flags)
	}
	if _, ok := raw["__confirm"]; !ok {
		t.Error("Parse must not mutate the raw map")
	}
}

func TestParseTimeoutKeyPriority(t *testing.T) {
	tests := []struct {
		name string
		raw  map[string]any
		want int
	}{
		{name: "camel", raw: map[string]any{"__timeoutMs": float64(10)}, want: 10},
		{name: "snake", raw: map[string]any{"__timeout_ms": float64(20)}, want: 20},
		{name: "bare", raw: map[string]any{"__timeout": float64(30)}, want: 30},
		{name: "snake beats bare", raw: map[string]any{"__timeout_ms": float64(20), "__timeout": float64(30)}, want: 20},
		{name: "null skipped", raw: map[string]any{"__timeoutMs": nil, "__timeout": float64(30)}, want: 30},
		{name: "numeric string", raw: map[string]any{"__timeoutMs": "450"}, want: 450},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := Parse("scene.list", tt.raw)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if req.Flags.TimeoutMs != tt.want {
				t.Errorf("expected %d, got %d", tt.want, req.Flags.TimeoutMs)
			}
		})
	}
}

func TestParseRejectsMalformedFlags(t *testing.T) {
	tests := []struct {
		name string
		raw  map[string]any
		key  string
	}{
		{name: "string confirm", raw: map[string]any{"__confirm": "true"}, key: "__confirm"},
		{name: "numeric note", raw: map[string]any{"__confirmNote": 5}, key: "__confirmNote"},
		{name: "negative timeout", raw: map[string]any{"__timeoutMs": float64(-1)}, key: "__timeoutMs"},
		{name: "fractional timeout", raw: map[string]any{"__timeout": 1.5}, key: "__timeout"},
		{name: "word timeout", raw: map[string]any{"__timeout_ms": "soon"}, key: "__timeout_ms"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse("entity.delete", tt.raw)
			if err == nil {
				t.Fatal("expected error")
			}
			if err.Kind != KindInvalidArguments {
				t.Errorf("expected InvalidArguments, got %s", err.Kind)
			}
			if !strings.Contains(err.Message, tt.key) {
				t.Errorf("message should name %s, got %q", tt.key, err.Message)
			}
		})
	}
}

func TestParseConfirmFalse(t *testing.T) {
	req, err := Parse("entity.delete", map[string]any{"__confirm": false})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.Flags.Confirm {
		t.Error("expected confirm=false")
	}
}

func TestIsEmpty(t *testing.T) {
	if !IsEmpty(nil) || !IsEmpty("") || !IsEmpty("   ") {
		t.Error("nil and blank strings are empty")
	}
	if IsEmpty("x") || IsEmpty(0) || IsEmpty(false) || IsEmpty(map[string]any{}) {
		t.Error("non-string values and non-blank strings are not empty")
	}
}

func TestErrorWithContext(t *testing.T) {
	base := NewError(KindBackendError, "boom")
	withCtx := base.WithContext("normalized gameObjectPath -> target", "resolved target")

	if len(base.Context) != 0 {
		t.Error("WithContext must not modify the receiver")
	}
	if got := withCtx.Error(); !strings.Contains(got, "resolved target") || !strings.HasPrefix(got, "BackendError: boom") {
		t.Errorf("unexpected error string %q", got)
	}
}
