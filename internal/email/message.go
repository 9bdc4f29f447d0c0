package email

import (
	"encoding/base64"
	"strings"
)

// Message is one outgoing email before encoding.
type Message struct {
	To       string
	Subject  string
	HTMLBody string
	CC       string
	BCC      string
}

// EncodeRaw renders the message as an RFC 2822 document and encodes it
// with URL-safe base64, the format the Gmail messages.send endpoint
// expects in its "raw" field.
func (m Message) EncodeRaw() string {
	parts := []string{
		"To: " + m.To,
		"Subject: " + m.Subject,
		"MIME-Version: 1.0",
		"Content-Type: text/html; charset=utf-8",
	}
	if m.CC != "" {
		parts = append(parts, "Cc: "+m.CC)
	}
	if m.BCC != "" {
		parts = append(parts, "Bcc: "+m.BCC)
	}
	parts = append(parts, "", m.HTMLBody)

	raw := strings.Join(parts, "\n")
	return base64.URLEncoding.EncodeToString([]byte(raw))
}
