package logger

import (
	"encoding/json"
	"fmt"
	"sort"
)

// NewReport creates an empty Report.
func NewReport() *Report {
	return &Report{
		Jobs: JobReport{
			ExitCodes: NewPathCounter("command", "exit_code"),
		},
		Failures: FailureReport{
			Commands: NewPathCounter("command", "kind"),
		},
	}
}

// Report holds statistics about the logged events.
type Report struct {
	LogEntries     int        `json:"log_entries"`
	InvalidEntries StrCounter `json:"unknown_log_entries"`

	Sessions SessionReport `json:"session_report"`
	Jobs     JobReport     `json:"job_report"`
	Builtins BuiltinReport `json:"builtin_report"`
	Failures FailureReport `json:"failure_report"`
}

// Update adds a log entry to the report.
func (r *Report) Update(le Entry) {
	r.LogEntries++

	switch le.Type() {
	case EventSessionStarted, EventSessionEnded:
		r.Sessions.update(le)
	case EventJobStarted, EventJobExited:
		r.Jobs.update(le)
	case EventBuiltin:
		r.Builtins.update(le)
	case EventCommandFailed:
		r.Failures.update(le)
	default:
		r.InvalidEntries.Increment(le.Type())
	}
}

type SessionReport struct {
	Started     int `json:"started"`
	Ended       int `json:"ended"`
	Interactive int `json:"interactive"`
}

func (r *SessionReport) update(le Entry) {
	if le.Type() == EventSessionEnded {
		r.Ended++
		return
	}

	r.Started++
	if le.GetBool(FieldInteractive) {
		r.Interactive++
	}
}

type JobReport struct {
	Started    int `json:"started"`
	Background int `json:"background"`
	Exited     int `json:"exited"`
	Signaled   int `json:"signaled"`
	// Children reaped that weren't launched by the interpreter.
	Unknown int `json:"unknown_children"`

	CommandNames StrCounter   `json:"command_names"`
	Signals      StrCounter   `json:"signals"`
	ExitCodes    *PathCounter `json:"exit_codes"`
}

func (r *JobReport) update(le Entry) {
	if le.Type() == EventJobStarted {
		r.Started++
		if le.GetBool(FieldBackground) {
			r.Background++
		}
		r.CommandNames.Increment(le.GetText(FieldName))
		return
	}

	r.Exited++
	if le.GetInt64(FieldJobID) == 0 {
		r.Unknown++
	}
	if le.GetBool(FieldSignaled) {
		r.Signaled++
		r.Signals.Increment(le.GetText(FieldSignal))
	}
	if r.ExitCodes != nil && le.Has(FieldName) {
		r.ExitCodes.Increment(le.GetText(FieldName), fmt.Sprint(le.GetInt64(FieldExitCode)))
	}
}

type BuiltinReport struct {
	Names  StrCounter `json:"names"`
	Failed int        `json:"failed"`
}

func (r *BuiltinReport) update(le Entry) {
	r.Names.Increment(le.GetText(FieldName))
	if le.GetInt64(FieldExitCode) != 0 {
		r.Failed++
	}
}

type FailureReport struct {
	Kinds    StrCounter   `json:"kinds"`
	Commands *PathCounter `json:"commands"`
}

func (r *FailureReport) update(le Entry) {
	r.Kinds.Increment(le.GetText(FieldKind))
	if r.Commands != nil {
		r.Commands.Increment(le.GetText(FieldName), le.GetText(FieldKind))
	}
}

// SessionHistory lists the commands run in each session.
type SessionHistory struct {
	// Map of sessionID -> session
	sessions map[string]*Session
}

type Session struct {
	Started    string   `json:"started,omitempty"`
	WorkDir    string   `json:"work_dir,omitempty"`
	LogEntries int      `json:"log_entries"`
	Commands   []string `json:"commands"`
	Failures   []string `json:"failures,omitempty"`
}

func (s *Session) Update(le Entry) {
	s.LogEntries++

	switch le.Type() {
	case EventSessionStarted:
		s.Started = le.Time().UTC().Format("2006-01-02T15:04:05Z")
		s.WorkDir = le.GetText(FieldWorkDir)
	case EventJobStarted, EventBuiltin:
		s.Commands = append(s.Commands, le.GetText(FieldCommand))
	case EventCommandFailed:
		s.Failures = append(s.Failures, fmt.Sprintf("%s: %s", le.GetText(FieldCommand), le.GetText(FieldError)))
	}
}

func (h *SessionHistory) init() {
	if h.sessions == nil {
		h.sessions = make(map[string]*Session)
	}
}

// MarshalJSON implements a custom JSON marshaler.
func (h *SessionHistory) MarshalJSON() ([]byte, error) {
	h.init()

	return json.Marshal(h.sessions)
}

// Update adds a log entry to the session it belongs to.
func (h *SessionHistory) Update(le Entry) {
	h.init()

	sessionID := le.SessionID()
	if sessionID == "" {
		return
	}
	session, ok := h.sessions[sessionID]
	if !ok {
		session = &Session{}
		h.sessions[sessionID] = session
	}

	session.Update(le)
}

// StrCounter counts the number of strings seen.
type StrCounter struct {
	internal map[string]int
}

// Increment adds one to the given key.
func (s *StrCounter) Increment(toAdd string) {
	if s.internal == nil {
		s.internal = make(map[string]int)
	}

	s.internal[toAdd]++
}

// Get returns the count for key.
func (s *StrCounter) Get(key string) int {
	return s.internal[key]
}

// MarshalJSON implements a custom JSON marshaler.
func (s StrCounter) MarshalJSON() ([]byte, error) {
	if s.internal == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(s.internal)
}

func NewPathCounter(cols ...string) *PathCounter {
	return &PathCounter{
		cols:     cols,
		internal: make(map[string]int),
	}
}

// PathCounter counts tuples of strings, one per column.
type PathCounter struct {
	cols     []string
	internal map[string]int
}

// Increment adds one to the given key.
func (ctr *PathCounter) Increment(toAdd ...string) {
	if len(toAdd) != len(ctr.cols) {
		panic("wrong number of columns to add")
	}

	ctr.internal[toKey(toAdd...)]++
}

// Get returns the count for the given tuple.
func (ctr *PathCounter) Get(vals ...string) int {
	return ctr.internal[toKey(vals...)]
}

// MarshalJSON implements a custom JSON marshaler.
func (ctr *PathCounter) MarshalJSON() ([]byte, error) {
	type Count struct {
		Count  int               `json:"count"`
		Fields map[string]string `json:"event"`
		Path   string            `json:"-"`
	}

	out := []Count{}
	for k, v := range ctr.internal {
		count := Count{
			Count:  v,
			Path:   k,
			Fields: make(map[string]string),
		}

		splitPath := fromKey(k)
		for colNum, colVal := range ctr.cols {
			count.Fields[colVal] = splitPath[colNum]
		}

		out = append(out, count)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Count == out[j].Count {
			return out[i].Path < out[j].Path
		}
		return out[i].Count > out[j].Count
	})

	return json.Marshal(out)
}

func toKey(vals ...string) string {
	key, _ := json.Marshal(vals)
	return string(key)
}

func fromKey(key string) (out []string) {
	json.Unmarshal([]byte(key), &out)
	return
}
