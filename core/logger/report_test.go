package logger

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"sigs.k8s.io/yaml"
)

func readFixture(t *testing.T, handler func(Entry)) {
	t.Helper()
	fd, err := os.Open(filepath.Join("testdata", "events.jsonl"))
	require.NoError(t, err)
	defer fd.Close()

	require.NoError(t, ReadJSONLinesLog(fd, handler))
}

func TestReport(t *testing.T) {
	report := NewReport()
	readFixture(t, report.Update)

	assert.Equal(t, 12, report.LogEntries)
	assert.Equal(t, 2, report.Jobs.Started)
	assert.Equal(t, 1, report.Jobs.Unknown)
	assert.Equal(t, 1, report.Jobs.ExitCodes.Get("sleep", "143"))
	assert.Equal(t, 2, report.Builtins.Names.Get("cd"))
	assert.Equal(t, 1, report.InvalidEntries.Get("mystery"))

	out, err := yaml.Marshal(report)
	require.NoError(t, err)

	g := goldie.New(t,
		goldie.WithFixtureDir(filepath.Join("testdata", "golden")),
		goldie.WithDiffEngine(goldie.ColoredDiff),
		goldie.WithTestNameForDir(true),
	)
	g.Assert(t, "report", out)
}

func TestSessionHistory(t *testing.T) {
	var history SessionHistory
	readFixture(t, history.Update)

	session, ok := history.sessions["s1"]
	require.True(t, ok)
	assert.Equal(t, 12, session.LogEntries)
	assert.Equal(t, "/home/user", session.WorkDir)
	assert.Equal(t, "2023-11-14T22:13:20Z", session.Started)
	assert.Equal(t, []string{"echo hi", "sleep 10 &", "cd /tmp", "cd /missing"}, session.Commands)
	assert.Len(t, session.Failures, 2)

	out, err := json.Marshal(&history)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"s1"`)
}

func TestSessionHistory_empty(t *testing.T) {
	var history SessionHistory
	out, err := json.Marshal(&history)
	require.NoError(t, err)
	assert.Equal(t, "{}", string(out))
}

func TestStrCounter(t *testing.T) {
	var ctr StrCounter
	out, err := json.Marshal(ctr)
	require.NoError(t, err)
	assert.Equal(t, "{}", string(out))

	ctr.Increment("a")
	ctr.Increment("a")
	ctr.Increment("b")
	assert.Equal(t, 2, ctr.Get("a"))

	out, err = json.Marshal(ctr)
	require.NoError(t, err)
	assert.JSONEq(t, `{"a": 2, "b": 1}`, string(out))
}

func TestPathCounter(t *testing.T) {
	ctr := NewPathCounter("command", "code")
	ctr.Increment("true", "0")
	ctr.Increment("false", "1")
	ctr.Increment("false", "1")

	out, err := json.Marshal(ctr)
	require.NoError(t, err)
	assert.JSONEq(t, `[
		{"count": 2, "event": {"command": "false", "code": "1"}},
		{"count": 1, "event": {"command": "true", "code": "0"}}
	]`, string(out))

	assert.Panics(t, func() { ctr.Increment("only-one") })
}
