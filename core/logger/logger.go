package logger

import (
	"fmt"
	"io"
	"math/rand/v2"
	"sync"
	"time"

	"go.trai.ch/zerr"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

// LogRecorder is a callback that stores events in an external datastore.
type LogRecorder func(le *structpb.Struct) error

// Logger captures job events so a session can be reviewed later.
type Logger struct {
	Record LogRecorder
}

// NewJSONLinesLogRecorder creates a Logger that exports logs in newline
// delimited JSON object format. It's safe for concurrent use.
func NewJSONLinesLogRecorder(w io.Writer) *Logger {
	var mu sync.Mutex
	return &Logger{
		Record: func(le *structpb.Struct) error {
			entry, err := protojson.Marshal(le)
			if err != nil {
				return err
			}

			mu.Lock()
			defer mu.Unlock()
			_, err = fmt.Fprintln(w, string(entry))
			return err
		},
	}
}

// NewNopLogger creates a Logger that drops every event.
func NewNopLogger() *Logger {
	return &Logger{
		Record: func(*structpb.Struct) error { return nil },
	}
}

func (l *Logger) recordEvent(sessionID, eventType string, fields map[string]any) error {
	payload := make(map[string]any, len(fields)+3)
	for k, v := range fields {
		payload[k] = v
	}
	payload[FieldType] = eventType
	payload[FieldSessionID] = sessionID
	payload[FieldTimestampMicros] = time.Now().UnixMicro()

	le, err := structpb.NewStruct(payload)
	if err != nil {
		return zerr.With(zerr.Wrap(err, "invalid event"), "type", eventType)
	}

	return l.Record(le)
}

// NewSession creates a logger with attached session ID.
func (l *Logger) NewSession() *SessionLogger {
	return &SessionLogger{Logger: l, sessionID: fmt.Sprintf("%d", rand.Uint64())}
}

// SessionLogger logs messages with a shared session ID.
type SessionLogger struct {
	*Logger
	sessionID string
}

// SessionID is the identifier stamped on every event.
func (l *SessionLogger) SessionID() string {
	return l.sessionID
}

// Record stores an event of the given type.
func (l *SessionLogger) Record(eventType string, fields map[string]any) error {
	return l.recordEvent(l.sessionID, eventType, fields)
}
