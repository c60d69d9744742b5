package gmail

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"
	gmail "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

// Message fetch formats accepted by GetMessage.
const (
	FormatFull     = "full"
	FormatMetadata = "metadata"
)

// Client wraps the Gmail Users service for a single authenticated user.
type Client struct {
	svc *gmail.UsersService
	ts  oauth2.TokenSource
}

// NewClient creates a Gmail client from the stored token set. The token
// source handles silent refresh; the returned client is cheap and meant to
// be constructed per request.
func NewClient(ctx context.Context, conf *oauth2.Config, tok *oauth2.Token) (*Client, error) {
	if tok == nil || tok.AccessToken == "" {
		return nil, fmt.Errorf("token set is required")
	}

	ts := conf.TokenSource(ctx, tok)
	svc, err := gmail.NewService(ctx, option.WithHTTPClient(oauth2.NewClient(ctx, ts)))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gmail service: %w", err)
	}

	return &Client{
		svc: svc.Users,
		ts:  ts,
	}, nil
}

// CurrentToken returns the token currently held by the client's token
// source, including any silent refresh performed during API calls. Callers
// persist it back to the session store after each operation.
func (c *Client) CurrentToken() (*oauth2.Token, error) {
	return c.ts.Token()
}

// ListMessages lists the most recent messages in the user's mailbox.
func (c *Client) ListMessages(maxResults int64) ([]*gmail.Message, error) {
	if maxResults <= 0 {
		maxResults = 10
	}
	res, err := c.svc.Messages.List("me").MaxResults(maxResults).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	return res.Messages, nil
}

// ListLabels lists all labels in the user's mailbox.
func (c *Client) ListLabels() ([]*gmail.Label, error) {
	res, err := c.svc.Labels.List("me").Do()
	if err != nil {
		return nil, fmt.Errorf("failed to list labels: %w", err)
	}
	return res.Labels, nil
}

// GetMessage retrieves a single message in the requested format
// ("full" or "metadata").
func (c *Client) GetMessage(messageID, format string) (*gmail.Message, error) {
	if messageID == "" {
		return nil, fmt.Errorf("messageID is required")
	}
	switch format {
	case FormatFull, FormatMetadata:
	case "":
		format = FormatMetadata
	default:
		return nil, fmt.Errorf("invalid format %s, must be %q or %q", format, FormatFull, FormatMetadata)
	}

	msg, err := c.svc.Messages.Get("me", messageID).Format(format).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to get message %s: %w", messageID, err)
	}
	return msg, nil
}

// SendEmail sends the message through the Gmail API and returns the
// provider-assigned message and thread identifiers.
func (c *Client) SendEmail(msg *EmailMessage) (messageID, threadID string, err error) {
	raw, err := msg.EncodeRaw()
	if err != nil {
		return "", "", err
	}

	sent, err := c.svc.Messages.Send("me", &gmail.Message{Raw: raw}).Do()
	if err != nil {
		return "", "", fmt.Errorf("failed to send email: %w", err)
	}
	return sent.Id, sent.ThreadId, nil
}
