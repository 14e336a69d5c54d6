package logger

import (
	"encoding/json"
	"io"
	"time"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

// Entry is a single event read back from the log.
type Entry struct {
	*structpb.Struct
}

// Type is the event type, e.g. EventJobExited.
func (e Entry) Type() string {
	return e.GetText(FieldType)
}

// SessionID is the session the event belongs to.
func (e Entry) SessionID() string {
	return e.GetText(FieldSessionID)
}

// Time is when the event was recorded.
func (e Entry) Time() time.Time {
	return time.UnixMicro(e.GetInt64(FieldTimestampMicros))
}

// Has reports whether the event carries key.
func (e Entry) Has(key string) bool {
	_, ok := e.GetFields()[key]
	return ok
}

// GetText returns a string field, or "" if it's missing.
func (e Entry) GetText(key string) string {
	return e.GetFields()[key].GetStringValue()
}

// GetInt64 returns a numeric field, or 0 if it's missing.
func (e Entry) GetInt64(key string) int64 {
	return int64(e.GetFields()[key].GetNumberValue())
}

// GetBool returns a boolean field, or false if it's missing.
func (e Entry) GetBool(key string) bool {
	return e.GetFields()[key].GetBoolValue()
}

// ReadJSONLinesLog parses a newline delimited JSON log.
func ReadJSONLinesLog(r io.Reader, handler func(le Entry)) error {
	decoder := json.NewDecoder(r)
	for decoder.More() {
		var rawEntry json.RawMessage
		if err := decoder.Decode(&rawEntry); err != nil {
			return err
		}

		var logEntry structpb.Struct
		if err := protojson.Unmarshal(rawEntry, &logEntry); err != nil {
			return err
		}

		handler(Entry{&logEntry})
	}
	return nil
}
