// Package notification defines the queued activation notice exchanged
// between the server and the email consumer.
package notification

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

const (
	// TypeActivationCode marks a notice carrying an activation code.
	TypeActivationCode = "activation_code"
	// TemplateActivationCode names the email template for such notices.
	TemplateActivationCode = "activation_code"
)

// ErrMalformedMessage means a payload cannot be decoded into a usable
// Message. Redelivering it will not help.
var ErrMalformedMessage = errors.New("malformed notification message")

// Message is the JSON document put on the queue.
type Message struct {
	Type           string    `json:"type"`
	Recipient      string    `json:"recipient"`
	ActivationCode string    `json:"activation_code"`
	UserID         string    `json:"user_id"`
	Subject        string    `json:"subject"`
	Template       string    `json:"template"`
	ExpiresAt      time.Time `json:"expires_at"`
	IssuedAt       time.Time `json:"issued_at"`
}

// NewActivationMessage builds the notice for a freshly issued code.
func NewActivationMessage(recipient, userID, code, subject string, expiresAt, issuedAt time.Time) Message {
	return Message{
		Type:           TypeActivationCode,
		Recipient:      recipient,
		ActivationCode: code,
		UserID:         userID,
		Subject:        subject,
		Template:       TemplateActivationCode,
		ExpiresAt:      expiresAt,
		IssuedAt:       issuedAt,
	}
}

// Validate checks the fields every activation notice needs. Messages of
// other types pass untouched; the consumer decides what to do with them.
func (m Message) Validate() error {
	if m.Type == "" {
		return fmt.Errorf("%w: missing type", ErrMalformedMessage)
	}
	if m.Type != TypeActivationCode {
		return nil
	}
	switch {
	case m.Recipient == "":
		return fmt.Errorf("%w: missing recipient", ErrMalformedMessage)
	case m.ActivationCode == "":
		return fmt.Errorf("%w: missing activation_code", ErrMalformedMessage)
	case m.UserID == "":
		return fmt.Errorf("%w: missing user_id", ErrMalformedMessage)
	}
	return nil
}

// Encode validates m and renders it as JSON.
func Encode(m Message) ([]byte, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return json.Marshal(m)
}

// Decode parses and validates a queued payload.
func Decode(body []byte) (Message, error) {
	var m Message
	if err := json.Unmarshal(body, &m); err != nil {
		return Message{}, fmt.Errorf("%w: %w", ErrMalformedMessage, err)
	}
	if err := m.Validate(); err != nil {
		return Message{}, err
	}
	return m, nil
}
