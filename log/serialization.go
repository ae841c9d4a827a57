package log

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"
)

// MessageWire is the JSON line format of one guest log record.
type MessageWire struct {
	Timestamp time.Time  `json:"timestamp"`
	Attrs     []AttrWire `json:"attrs,omitempty"`
	Level     string     `json:"level"`
	Message   string     `json:"message"`
	Source    string     `json:"source,omitempty"`
}

// AttrWire represents a single slog attribute for wire transfer.
type AttrWire struct {
	Key   string `json:"key"`
	Type  string `json:"type"`  // "string", "int64", "bool", "float64", "time", "error", "any"
	Value string `json:"value"` // String representation of the value
}

// ParseMessage decodes one line written by Handler.
func ParseMessage(line []byte) (MessageWire, error) {
	var msg MessageWire
	if err := json.Unmarshal(line, &msg); err != nil {
		return MessageWire{}, fmt.Errorf("log: decode message: %w", err)
	}
	if msg.Level == "" {
		return MessageWire{}, fmt.Errorf("log: decode message: missing level")
	}
	return msg, nil
}

// SlogLevel converts the wire level back to a slog.Level. Unknown names
// map to Info.
func (m MessageWire) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(m.Level)); err != nil {
		return slog.LevelInfo
	}
	return level
}

func toAttrWire(attr slog.Attr) AttrWire {
	wire := AttrWire{
		Key: attr.Key,
	}
	attr.Value = attr.Value.Resolve()

	switch attr.Value.Kind() {
	case slog.KindString:
		wire.Type = "string"
		wire.Value = attr.Value.String()
	case slog.KindInt64:
		wire.Type = "int64"
		wire.Value = fmt.Sprintf("%d", attr.Value.Int64())
	case slog.KindUint64:
		wire.Type = "uint64"
		wire.Value = fmt.Sprintf("%d", attr.Value.Uint64())
	case slog.KindBool:
		wire.Type = "bool"
		wire.Value = fmt.Sprintf("%t", attr.Value.Bool())
	case slog.KindFloat64:
		wire.Type = "float64"
		wire.Value = fmt.Sprintf("%f", attr.Value.Float64())
	case slog.KindTime:
		wire.Type = "time"
		wire.Value = attr.Value.Time().Format(time.RFC3339Nano)
	case slog.KindDuration:
		wire.Type = "duration"
		wire.Value = attr.Value.Duration().String()
	case slog.KindAny:
		if v := attr.Value.Any(); v != nil {
			if err, isErr := v.(error); isErr {
				wire.Type = "error"
				wire.Value = err.Error()
			} else if data, marshalErr := json.Marshal(v); marshalErr == nil {
				wire.Type = "json"
				wire.Value = string(data)
			} else {
				wire.Type = "any"
				wire.Value = fmt.Sprintf("%v", v)
			}
		} else {
			wire.Type = "any"
			wire.Value = "<nil>"
		}
	default:
		wire.Type = "any"
		wire.Value = fmt.Sprintf("%v", attr.Value.Any())
	}
	return wire
}
