package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestNewHandlerSelection(t *testing.T) {
	t.Run("production logs JSON", func(t *testing.T) {
		var buf bytes.Buffer
		logger := New(&buf, "production", false)
		logger.Info("hello", Operation("test"))

		var entry map[string]any
		if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
			t.Fatalf("production output is not JSON: %v\noutput: %s", err, buf.String())
		}
		if entry["msg"] != "hello" {
			t.Errorf("msg = %v, want hello", entry["msg"])
		}
		if entry[KeyOperation] != "test" {
			t.Errorf("operation = %v, want test", entry[KeyOperation])
		}
	})

	t.Run("development logs text", func(t *testing.T) {
		var buf bytes.Buffer
		logger := New(&buf, "development", false)
		logger.Info("hello")

		if strings.HasPrefix(strings.TrimSpace(buf.String()), "{") {
			t.Errorf("development output should be text, got: %s", buf.String())
		}
	})

	t.Run("debug level", func(t *testing.T) {
		var buf bytes.Buffer

		New(&buf, "development", false).Debug("hidden")
		if buf.Len() != 0 {
			t.Error("debug message logged without debug enabled")
		}

		New(&buf, "development", true).Debug("visible")
		if buf.Len() == 0 {
			t.Error("debug message not logged with debug enabled")
		}
	})
}

func TestErr(t *testing.T) {
	attr := Err(errors.New("boom"))
	if attr.Key != KeyError || attr.Value.String() != "boom" {
		t.Errorf("Err() = %v, want %s=boom", attr, KeyError)
	}

	// nil errors produce an attribute slog omits entirely
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	logger.Info("ok", Err(nil))
	if strings.Contains(buf.String(), KeyError) {
		t.Errorf("nil error leaked into output: %s", buf.String())
	}
}

func TestAnonymizeEmail(t *testing.T) {
	a := AnonymizeEmail("user@example.com")
	b := AnonymizeEmail("user@example.com")
	c := AnonymizeEmail("other@example.com")

	if a != b {
		t.Error("anonymization must be deterministic")
	}
	if a == c {
		t.Error("different emails must anonymize differently")
	}
	if !strings.HasPrefix(a, "user:") {
		t.Errorf("AnonymizeEmail() = %q, want user: prefix", a)
	}
	if strings.Contains(a, "example.com") {
		t.Errorf("anonymized value leaks the email: %q", a)
	}
	if AnonymizeEmail("") != "" {
		t.Error("empty email should anonymize to empty string")
	}
}

func TestAnonymizeSession(t *testing.T) {
	id := "0123456789abcdef0123456789abcdef"
	a := AnonymizeSession(id)

	if !strings.HasPrefix(a, "sess:") {
		t.Errorf("AnonymizeSession() = %q, want sess: prefix", a)
	}
	if strings.Contains(a, id) {
		t.Errorf("anonymized value leaks the session ID: %q", a)
	}
	if AnonymizeSession("") != "" {
		t.Error("empty ID should anonymize to empty string")
	}
}

func TestSanitizeToken(t *testing.T) {
	tests := []struct {
		name  string
		token string
		want  string
	}{
		{name: "empty token", token: "", want: "<empty>"},
		{name: "short token", token: "abc", want: "[token:3 chars]"},
		{name: "long token", token: strings.Repeat("x", 200), want: "[token:200 chars]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SanitizeToken(tt.token)
			if got != tt.want {
				t.Errorf("SanitizeToken(%q) = %q, want %q", tt.token, got, tt.want)
			}
			if tt.token != "" && strings.Contains(got, tt.token) {
				t.Errorf("sanitized value leaks the token: %q", got)
			}
		})
	}
}

func TestExtractDomain(t *testing.T) {
	tests := []struct {
		email string
		want  string
	}{
		{email: "user@example.com", want: "example.com"},
		{email: "user@sub.example.com", want: "sub.example.com"},
		{email: "", want: ""},
		{email: "not-an-email", want: ""},
		{email: "a@b@c", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			if got := ExtractDomain(tt.email); got != tt.want {
				t.Errorf("ExtractDomain(%q) = %q, want %q", tt.email, got, tt.want)
			}
		})
	}
}
