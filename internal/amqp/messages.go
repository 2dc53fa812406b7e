package amqp

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Export scopes.
const (
	ScopeGlobal      = "global"
	ScopeDestination = "destination"
)

// ErrInvalidMessage marks a message that can never be processed.
var ErrInvalidMessage = errors.New("invalid export request")

// ExportRequestMessage asks the worker to render and store a report.
// Destination is only set for ScopeDestination.
type ExportRequestMessage struct {
	Scope       string    `json:"scope"`
	Destination string    `json:"destination,omitempty"`
	Format      string    `json:"format"`
	RequestID   string    `json:"request_id,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

func NewGlobalExportRequest(format, requestID string) *ExportRequestMessage {
	return &ExportRequestMessage{
		Scope:     ScopeGlobal,
		Format:    format,
		RequestID: requestID,
		Timestamp: time.Now(),
	}
}

func NewDestinationExportRequest(destination, format, requestID string) *ExportRequestMessage {
	return &ExportRequestMessage{
		Scope:       ScopeDestination,
		Destination: destination,
		Format:      format,
		RequestID:   requestID,
		Timestamp:   time.Now(),
	}
}

// Validate checks the shape of the message. The format itself is checked
// by the worker against the formats it can render.
func (m *ExportRequestMessage) Validate() error {
	switch m.Scope {
	case ScopeGlobal:
	case ScopeDestination:
		if strings.TrimSpace(m.Destination) == "" {
			return fmt.Errorf("%w: destination scope without destination", ErrInvalidMessage)
		}
	default:
		return fmt.Errorf("%w: unknown scope %q", ErrInvalidMessage, m.Scope)
	}
	if strings.TrimSpace(m.Format) == "" {
		return fmt.Errorf("%w: missing format", ErrInvalidMessage)
	}
	return nil
}

func (m *ExportRequestMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ExportRequestFromJSON decodes and validates a message body.
func ExportRequestFromJSON(data []byte) (*ExportRequestMessage, error) {
	var msg ExportRequestMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMessage, err)
	}
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	return &msg, nil
}
