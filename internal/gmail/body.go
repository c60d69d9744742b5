package gmail

import (
	"encoding/base64"

	gmail "google.golang.org/api/gmail/v1"
)

// MessageBodies holds the decoded text bodies extracted from a message's
// MIME part tree.
type MessageBodies struct {
	Text string
	HTML string
}

// ExtractBodies walks the message's MIME part tree depth-first and decodes
// the first text/plain and first text/html parts encountered. Later parts
// of the same type are ignored.
func ExtractBodies(msg *gmail.Message) MessageBodies {
	var bodies MessageBodies
	if msg == nil || msg.Payload == nil {
		return bodies
	}

	walkParts(msg.Payload, func(part *gmail.MessagePart) {
		if part.Body == nil || part.Body.Data == "" {
			return
		}
		switch part.MimeType {
		case "text/plain":
			if bodies.Text == "" {
				bodies.Text = DecodeBody(part.Body.Data)
			}
		case "text/html":
			if bodies.HTML == "" {
				bodies.HTML = DecodeBody(part.Body.Data)
			}
		}
	})

	return bodies
}

// DecodeBody decodes a base64url body payload from the Gmail API. Absent or
// malformed input yields an empty string; the API is the source of the data
// and a bad part must not fail the whole message fetch.
func DecodeBody(data string) string {
	if data == "" {
		return ""
	}

	decoded, err := base64.URLEncoding.DecodeString(data)
	if err != nil {
		// Gmail strips padding from body payloads; try the raw alphabet too
		decoded, err = base64.RawURLEncoding.DecodeString(data)
		if err != nil {
			return ""
		}
	}
	return string(decoded)
}

// walkParts recursively walks through message parts
func walkParts(part *gmail.MessagePart, fn func(*gmail.MessagePart)) {
	if part == nil {
		return
	}

	fn(part)

	for _, subpart := range part.Parts {
		walkParts(subpart, fn)
	}
}
