// Package logger records job lifecycle events as newline delimited protobuf
// JSON and summarizes them into reports.
package logger

// Event types.
const (
	EventSessionStarted = "session_started"
	EventSessionEnded   = "session_ended"
	EventJobStarted     = "job_started"
	EventJobExited      = "job_exited"
	EventBuiltin        = "builtin"
	EventCommandFailed  = "command_failed"
)

// Common event fields.
const (
	FieldType            = "type"
	FieldSessionID       = "session_id"
	FieldTimestampMicros = "timestamp_micros"

	FieldJobID          = "job_id"
	FieldPid            = "pid"
	FieldCommand        = "command"
	FieldName           = "name"
	FieldPath           = "path"
	FieldBackground     = "background"
	FieldExitCode       = "exit_code"
	FieldSignaled       = "signaled"
	FieldSignal         = "signal"
	FieldDurationMillis = "duration_ms"
	FieldKind           = "kind"
	FieldError          = "error"
	FieldWorkDir        = "work_dir"
	FieldInteractive    = "interactive"
)
