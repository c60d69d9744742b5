package gmail

import (
	"encoding/base64"
	"mime"
	"strings"
	"testing"
)

func decodeRaw(t *testing.T, raw string) string {
	t.Helper()
	decoded, err := base64.RawURLEncoding.DecodeString(raw)
	if err != nil {
		t.Fatalf("raw payload is not unpadded base64url: %v", err)
	}
	return string(decoded)
}

func TestEncodeRaw(t *testing.T) {
	msg := &EmailMessage{
		FromName:    "Test User",
		FromAddress: "sender@example.com",
		To:          "test@example.com",
		Subject:     "Hello",
		Body:        "Body text",
	}

	raw, err := msg.EncodeRaw()
	if err != nil {
		t.Fatalf("EncodeRaw() error = %v", err)
	}

	if strings.ContainsAny(raw, "+/=") {
		t.Errorf("raw payload contains standard-base64 characters: %q", raw)
	}

	decoded := decodeRaw(t, raw)
	for _, want := range []string{
		"From: Test User <sender@example.com>\r\n",
		"To: test@example.com\r\n",
		"Subject: Hello\r\n",
		"Content-Type: text/plain; charset=\"UTF-8\"\r\n",
		"MIME-Version: 1.0\r\n",
		"\r\n\r\nBody text",
	} {
		if !strings.Contains(decoded, want) {
			t.Errorf("decoded message missing %q\nmessage:\n%s", want, decoded)
		}
	}
}

func TestEncodeRawRoundTrip(t *testing.T) {
	msg := &EmailMessage{
		FromAddress: "sender@example.com",
		To:          "test@example.com",
		Subject:     "Round trip",
		Body:        "payload with spaces, ünïcode and\r\nline breaks",
	}

	raw, err := msg.EncodeRaw()
	if err != nil {
		t.Fatalf("EncodeRaw() error = %v", err)
	}

	decoded := decodeRaw(t, raw)
	reencoded := base64.RawURLEncoding.EncodeToString([]byte(decoded))
	if reencoded != raw {
		t.Error("encode/decode round trip did not reproduce the payload")
	}
	if !strings.Contains(decoded, "payload with spaces, ünïcode and\r\nline breaks") {
		t.Error("decoded message does not contain the original body bytes")
	}
}

func TestEncodeRawValidation(t *testing.T) {
	tests := []struct {
		name        string
		msg         *EmailMessage
		errContains string
	}{
		{
			name:        "missing recipient",
			msg:         &EmailMessage{FromAddress: "sender@example.com"},
			errContains: "recipient",
		},
		{
			name:        "missing sender",
			msg:         &EmailMessage{To: "test@example.com"},
			errContains: "sender",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.msg.EncodeRaw()
			if err == nil {
				t.Fatal("EncodeRaw() should fail")
			}
			if !strings.Contains(err.Error(), tt.errContains) {
				t.Errorf("EncodeRaw() error = %v, should contain %q", err, tt.errContains)
			}
		})
	}
}

func TestApplyDefaults(t *testing.T) {
	msg := &EmailMessage{
		FromAddress: "sender@example.com",
		To:          "test@example.com",
	}
	msg.ApplyDefaults()

	if msg.Subject != DefaultSubject {
		t.Errorf("Subject = %q, want %q", msg.Subject, DefaultSubject)
	}
	if msg.Body != DefaultBody {
		t.Errorf("Body = %q, want %q", msg.Body, DefaultBody)
	}

	// Explicit values survive
	msg2 := &EmailMessage{Subject: "Custom", Body: "Custom body"}
	msg2.ApplyDefaults()
	if msg2.Subject != "Custom" || msg2.Body != "Custom body" {
		t.Error("ApplyDefaults() overwrote explicit values")
	}
}

func TestEncodeRawNonASCIISubject(t *testing.T) {
	msg := &EmailMessage{
		FromAddress: "sender@example.com",
		To:          "test@example.com",
		Subject:     "Grüße aus Köln",
		Body:        "hi",
	}

	raw, err := msg.EncodeRaw()
	if err != nil {
		t.Fatalf("EncodeRaw() error = %v", err)
	}
	decoded := decodeRaw(t, raw)

	want := mime.BEncoding.Encode("UTF-8", "Grüße aus Köln")
	if !strings.Contains(decoded, "Subject: "+want+"\r\n") {
		t.Errorf("subject was not RFC 2047 encoded, message:\n%s", decoded)
	}
}

func TestEncodeRawPlainFromWithoutName(t *testing.T) {
	msg := &EmailMessage{
		FromAddress: "sender@example.com",
		To:          "test@example.com",
		Subject:     "x",
		Body:        "y",
	}

	raw, err := msg.EncodeRaw()
	if err != nil {
		t.Fatalf("EncodeRaw() error = %v", err)
	}
	if !strings.Contains(decodeRaw(t, raw), "From: sender@example.com\r\n") {
		t.Error("From header should be the bare address when no display name is set")
	}
}
