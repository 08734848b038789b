package log

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"testing"
)

// TestSecureHandler_SanitizesSensitiveKeys tests that sensitive keys are masked.
func TestSecureHandler_SanitizesSensitiveKeys(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		key      string
		value    string
		wantMask bool
	}{
		{name: "password", key: "password", value: "hunter2", wantMask: true},
		{name: "username", key: "username", value: "jdoe", wantMask: true},
		{name: "uppercase key", key: "Password", value: "hunter2", wantMask: true},
		{name: "cookie", key: "cookie", value: "lang=v=2&lang=en-us", wantMask: true},
		{name: "session cookie name", key: "li_at", value: "AQEDAR", wantMask: true},
		{name: "keyword in key", key: "csrf_token_value", value: "ajax:123", wantMask: true},
		{name: "url is kept", key: "url", value: "https://www.example.com/in/jdoe", wantMask: false},
		{name: "id is kept", key: "id", value: "jdoe", wantMask: false},
		{name: "label is kept by default", key: "label", value: "Jane Doe", wantMask: false},
		{name: "state is kept", key: "state", value: "PROCESS_NEXT", wantMask: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			NewLogger(&buf, Options{}).Info("test message", tt.key, tt.value)

			output := buf.String()
			if tt.wantMask {
				if strings.Contains(output, tt.value) {
					t.Errorf("expected value %q to be masked: %s", tt.value, output)
				}
				if !strings.Contains(output, MaskValue) {
					t.Errorf("expected mask value in output: %s", output)
				}
			} else if !strings.Contains(output, tt.value) {
				t.Errorf("expected value %q in output: %s", tt.value, output)
			}
		})
	}
}

// TestSecureHandler_RedactLabels tests masking people's names on request.
func TestSecureHandler_RedactLabels(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := NewLogger(&buf, Options{RedactLabels: true})
	logger.Info("visiting", "id", "jdoe", "label", "Jane Doe")
	logger.With("target_label", "John Roe").Info("checkpointed")

	output := buf.String()
	if strings.Contains(output, "Jane Doe") || strings.Contains(output, "John Roe") {
		t.Errorf("expected labels to be masked: %s", output)
	}
	if !strings.Contains(output, "jdoe") {
		t.Errorf("expected id to be kept: %s", output)
	}
}

// TestSecureHandler_Errors tests that e-mail addresses inside errors are masked.
func TestSecureHandler_Errors(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	err := fmt.Errorf("sign in: %w", errors.New("account jane@example.com is locked"))
	NewLogger(&buf, Options{}).Error("crawl failed", "error", err)

	output := buf.String()
	if strings.Contains(output, "jane@example.com") {
		t.Errorf("expected e-mail to be masked: %s", output)
	}
	if !strings.Contains(output, "is locked") {
		t.Errorf("expected the rest of the error to be kept: %s", output)
	}
}

// TestSecureHandler_LogLevels tests the verbose switch.
func TestSecureHandler_LogLevels(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		verbose   bool
		level     slog.Level
		wantShown bool
	}{
		{name: "info shown by default", level: slog.LevelInfo, wantShown: true},
		{name: "debug hidden by default", level: slog.LevelDebug, wantShown: false},
		{name: "debug shown when verbose", verbose: true, level: slog.LevelDebug, wantShown: true},
		{name: "warn always shown", level: slog.LevelWarn, wantShown: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			NewLogger(&buf, Options{Verbose: tt.verbose}).Log(t.Context(), tt.level, "level check")

			if got := strings.Contains(buf.String(), "level check"); got != tt.wantShown {
				t.Errorf("expected shown=%v, got output %q", tt.wantShown, buf.String())
			}
		})
	}
}

// TestSecureHandler_WithAttrs tests that WithAttrs sanitizes attributes.
func TestSecureHandler_WithAttrs(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	NewLogger(&buf, Options{}).With("password", "secret123").Info("test message")

	output := buf.String()
	if strings.Contains(output, "secret123") {
		t.Errorf("expected password to be masked in WithAttrs: %s", output)
	}
}

// TestSecureHandler_WithGroup tests masking inside groups.
func TestSecureHandler_WithGroup(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	NewLogger(&buf, Options{}).WithGroup("browser").Info("navigated",
		"url", "https://www.example.com/feed/",
		slog.Group("request", "cookie", "JSESSIONID=ajax:42"),
	)

	output := buf.String()
	if !strings.Contains(output, "https://www.example.com/feed/") {
		t.Errorf("expected url to be visible: %s", output)
	}
	if strings.Contains(output, "ajax:42") {
		t.Errorf("expected cookie to be masked: %s", output)
	}
}

// TestNewLogger_JSON tests JSON output.
func TestNewLogger_JSON(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	NewLogger(&buf, Options{JSON: true}).Info("test message", "password", "secret")

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("expected JSON output, got %q: %v", buf.String(), err)
	}
	if record["password"] != MaskValue {
		t.Errorf("expected password to be masked, got %v", record["password"])
	}
}

// TestNewSecureHandler_NilHandler tests that a nil handler falls back to the default.
func TestNewSecureHandler_NilHandler(t *testing.T) {
	t.Parallel()

	handler := NewSecureHandler(nil, false)
	if handler == nil {
		t.Fatal("expected non-nil handler")
	}
	slog.New(handler).Debug("test message")
}

// TestContainsSensitiveKeyword tests the containsSensitiveKeyword helper.
func TestContainsSensitiveKeyword(t *testing.T) {
	t.Parallel()

	tests := []struct {
		key      string
		expected bool
	}{
		{"user_password", true},
		{"api_token", true},
		{"client_secret", true},
		{"auth_header", true},
		{"session_cookie", true},

		{"url", false},
		{"pending", false},
		{"visited", false},
		{"cache_key", false},
		{"sort_key", false},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			t.Parallel()

			if got := containsSensitiveKeyword(tt.key); got != tt.expected {
				t.Errorf("containsSensitiveKeyword(%q) = %v, want %v", tt.key, got, tt.expected)
			}
		})
	}
}

// TestIsSensitiveValue tests the isSensitiveValue helper.
func TestIsSensitiveValue(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		value    string
		expected bool
	}{
		{name: "e-mail address", value: "jane.doe+crawl@example.co.uk", expected: true},
		{name: "JWT", value: "eyJhbGciOiJIUzI1NiJ9.eyJzdWIiOiIxIn0.sig", expected: true},
		{name: "bearer token", value: "Bearer abc123xyz", expected: true},
		{name: "basic auth", value: "Basic dXNlcjpwYXNz", expected: true},
		{name: "session cookie header", value: "lang=en; li_at=AQEDAR", expected: true},
		{name: "profile URL", value: "https://www.example.com/in/jdoe/", expected: false},
		{name: "person name", value: "Jane Doe", expected: false},
		{name: "state name", value: "EXTRACT_CASCADE", expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := isSensitiveValue(tt.value); got != tt.expected {
				t.Errorf("isSensitiveValue(%q) = %v, want %v", tt.value, got, tt.expected)
			}
		})
	}
}
