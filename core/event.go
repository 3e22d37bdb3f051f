package core

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Reserved FieldSet keys. These carry correlation-bearing values and are
// validated separately from free-form enrichment fields.
const (
	FieldTimestamp     = "timestamp"
	FieldTechnique     = "technique"
	FieldCorrelationID = "correlation_id"
	FieldAsset         = "asset"
)

// FieldSet is an open-ended per-event field bag. Reserved keys (timestamp,
// technique, correlation_id, asset) are validated; everything else is
// free-form enrichment.
type FieldSet map[string]interface{}

// ValidateReserved checks that any reserved keys present carry usable values.
// Free-form keys are never validated.
func (f FieldSet) ValidateReserved() error {
	if v, ok := f[FieldTimestamp]; ok {
		switch v.(type) {
		case time.Time, string:
		default:
			return fmt.Errorf("reserved field %q must be a time or RFC3339 string, got %T", FieldTimestamp, v)
		}
	}
	for _, key := range []string{FieldTechnique, FieldCorrelationID, FieldAsset} {
		if v, ok := f[key]; ok {
			s, isStr := v.(string)
			if !isStr || s == "" {
				return fmt.Errorf("reserved field %q must be a non-empty string", key)
			}
		}
	}
	return nil
}

// Clone returns a shallow copy of the field set
func (f FieldSet) Clone() FieldSet {
	out := make(FieldSet, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}

// SynthesizedEvent is one candidate log or alert record produced for a stage
// technique. Immutable once emitted.
type SynthesizedEvent struct {
	EventID       string    `json:"event_id"`
	Timestamp     time.Time `json:"timestamp"`
	StageID       string    `json:"stage_id"`
	Technique     string    `json:"technique"`
	SourceAsset   string    `json:"source_asset"`
	EventType     EventType `json:"event_type"`
	CorrelationID string    `json:"correlation_id"`
	Dataset       string    `json:"dataset"`
	Fields        FieldSet  `json:"fields"`
	RawData       string    `json:"raw_data"`
}

// NewSynthesizedEvent creates an event with a generated UUID and empty fields
func NewSynthesizedEvent() *SynthesizedEvent {
	return &SynthesizedEvent{
		EventID:   uuid.New().String(),
		EventType: EventTypeLog,
		Fields:    make(FieldSet),
	}
}

// StringField returns a string field value, or "" if absent or not a string
func (e *SynthesizedEvent) StringField(key string) string {
	if v, ok := e.Fields[key]; ok {
		if s, isStr := v.(string); isStr {
			return s
		}
	}
	return ""
}
