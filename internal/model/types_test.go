package model

import (
	"encoding/json"
	"errors"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestBlockStatus_String verifies that BlockStatus values produce the
// expected string representations for CLI output and JSON serialization.
func TestBlockStatus_String(t *testing.T) {
	tests := []struct {
		status   BlockStatus
		expected string
	}{
		{StatusPassed, "passed"},
		{StatusFailed, "failed"},
		{StatusSignaled, "signaled"},
		{StatusLaunchError, "launch-error"},
		{StatusSkipped, "skipped"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.status.String())
		})
	}
}

// TestBlockStatus_IsValid checks that only defined status values pass
// validation.
func TestBlockStatus_IsValid(t *testing.T) {
	assert.True(t, StatusPassed.IsValid())
	assert.True(t, StatusFailed.IsValid())
	assert.True(t, StatusSignaled.IsValid())
	assert.True(t, StatusLaunchError.IsValid())
	assert.True(t, StatusSkipped.IsValid())
	assert.False(t, BlockStatus("crashed").IsValid())
	assert.False(t, BlockStatus("").IsValid())
}

// TestBlockStatus_Failure verifies the split between statuses that halt
// a run and statuses that do not. Skipped blocks must never count as
// failures, otherwise a skip pattern could fail an otherwise green run.
func TestBlockStatus_Failure(t *testing.T) {
	assert.False(t, StatusPassed.Failure())
	assert.False(t, StatusSkipped.Failure())
	assert.True(t, StatusFailed.Failure())
	assert.True(t, StatusSignaled.Failure())
	assert.True(t, StatusLaunchError.Failure())
}

// TestBlock_FirstLine verifies the one-line summary used by listings.
func TestBlock_FirstLine(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"single line", `echo "hello"`, `echo "hello"`},
		{"multi line", "make build\nmake test", "make build"},
		{"empty", "", ""},
		{"leading blank line preserved", "\necho hi", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := Block{Text: tt.text}
			assert.Equal(t, tt.want, b.FirstLine())
		})
	}
}

// TestBlock_LineCount verifies line counting for listing output.
func TestBlock_LineCount(t *testing.T) {
	assert.Equal(t, 1, Block{Text: ""}.LineCount())
	assert.Equal(t, 1, Block{Text: "echo hi"}.LineCount())
	assert.Equal(t, 3, Block{Text: "a\nb\nc"}.LineCount())
}

// TestBlockResult_Describe verifies the human-readable outcome line for
// each status kind.
func TestBlockResult_Describe(t *testing.T) {
	tests := []struct {
		name   string
		result BlockResult
		want   string
	}{
		{
			name:   "passed",
			result: BlockResult{Status: StatusPassed},
			want:   "succeeded",
		},
		{
			name:   "failed carries the exit code",
			result: BlockResult{Status: StatusFailed, ExitCode: 3},
			want:   "exited with status 3",
		},
		{
			name:   "signaled names the signal",
			result: BlockResult{Status: StatusSignaled, ExitCode: -1, Signal: syscall.SIGTERM},
			want:   "terminated by signal terminated",
		},
		{
			name:   "launch error carries the cause",
			result: BlockResult{Status: StatusLaunchError, ExitCode: -1, Err: errors.New("no such file or directory")},
			want:   "could not be started: no such file or directory",
		},
		{
			name:   "skipped",
			result: BlockResult{Status: StatusSkipped},
			want:   "skipped",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.result.Describe())
		})
	}
}

// TestReport_Failed verifies first-failure lookup and the OK predicate.
func TestReport_Failed(t *testing.T) {
	passed := BlockResult{Block: Block{Index: 0}, Status: StatusPassed}
	skipped := BlockResult{Block: Block{Index: 1}, Status: StatusSkipped}
	failed := BlockResult{Block: Block{Index: 2}, Status: StatusFailed, ExitCode: 1}

	t.Run("all green", func(t *testing.T) {
		r := &Report{Results: []BlockResult{passed, skipped}}
		assert.Nil(t, r.Failed())
		assert.True(t, r.OK())
	})

	t.Run("empty run is a success", func(t *testing.T) {
		r := &Report{}
		assert.Nil(t, r.Failed())
		assert.True(t, r.OK())
		assert.Equal(t, 0, r.ExitStatus())
	})

	t.Run("failure is found and ends the report", func(t *testing.T) {
		r := &Report{Results: []BlockResult{passed, skipped, failed}}
		got := r.Failed()
		require.NotNil(t, got)
		assert.Equal(t, 2, got.Block.Index)
		assert.False(t, r.OK())
	})
}

// TestReport_Counts verifies the launched/skipped tallies used by the
// run summary line.
func TestReport_Counts(t *testing.T) {
	r := &Report{Results: []BlockResult{
		{Status: StatusPassed},
		{Status: StatusSkipped},
		{Status: StatusPassed},
		{Status: StatusFailed, ExitCode: 2},
	}}

	assert.Equal(t, 3, r.Ran())
	assert.Equal(t, 1, r.Skipped())
}

// TestReport_ExitStatus verifies the translation from aggregate outcome
// to process exit status: the failing command's own code for plain
// failures, 128+signal for signaled termination, and the dedicated
// launch-failure code when a command never started.
func TestReport_ExitStatus(t *testing.T) {
	tests := []struct {
		name    string
		results []BlockResult
		want    int
	}{
		{
			name:    "success is zero",
			results: []BlockResult{{Status: StatusPassed}},
			want:    0,
		},
		{
			name:    "failed propagates the command's exit code",
			results: []BlockResult{{Status: StatusFailed, ExitCode: 42}},
			want:    42,
		},
		{
			name:    "signaled maps to 128 plus the signal number",
			results: []BlockResult{{Status: StatusSignaled, ExitCode: -1, Signal: syscall.SIGKILL}},
			want:    128 + int(syscall.SIGKILL),
		},
		{
			name:    "launch failure uses the dedicated code",
			results: []BlockResult{{Status: StatusLaunchError, ExitCode: -1, Err: errors.New("boom")}},
			want:    int(ExitLaunchFailure),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &Report{Results: tt.results}
			assert.Equal(t, tt.want, r.ExitStatus())
		})
	}
}

// TestBlockResult_MarshalJSON verifies the JSON form carries what the
// struct tags cannot: the launch-failure cause as a string and the
// block's duration. A machine consumer of a launch-error result must
// be able to see why the launch failed.
func TestBlockResult_MarshalJSON(t *testing.T) {
	t.Run("launch error includes the cause", func(t *testing.T) {
		result := BlockResult{
			Block:    Block{Index: 0, Line: 3, Text: "true"},
			Status:   StatusLaunchError,
			ExitCode: -1,
			Err:      errors.New("fork/exec /nonexistent/shell: no such file or directory"),
			Duration: 5 * time.Millisecond,
		}

		data, err := json.Marshal(result)
		require.NoError(t, err)

		var got map[string]interface{}
		require.NoError(t, json.Unmarshal(data, &got))
		assert.Equal(t, "launch-error", got["status"])
		assert.Equal(t, "fork/exec /nonexistent/shell: no such file or directory", got["error"])
		assert.Equal(t, "5ms", got["duration"])
	})

	t.Run("passed result has no error key", func(t *testing.T) {
		data, err := json.Marshal(BlockResult{Status: StatusPassed})
		require.NoError(t, err)

		var got map[string]interface{}
		require.NoError(t, json.Unmarshal(data, &got))
		assert.NotContains(t, got, "error")
	})
}

// TestReport_MarshalJSON verifies the aggregate report's wall-clock
// duration appears in the JSON output alongside the start time.
func TestReport_MarshalJSON(t *testing.T) {
	r := &Report{
		RunID:    "run-1",
		Source:   "README.md",
		Results:  []BlockResult{{Status: StatusPassed}},
		Duration: 1500 * time.Millisecond,
	}

	data, err := json.Marshal(r)
	require.NoError(t, err)

	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, "1.5s", got["duration"])
	assert.Equal(t, "README.md", got["source"])
	assert.Contains(t, got, "started")
}

// TestCLIError verifies message formatting and error unwrapping.
func TestCLIError(t *testing.T) {
	t.Run("message only", func(t *testing.T) {
		err := NewCLIError(ExitMalformedDocument, "unterminated fence")
		assert.Equal(t, "unterminated fence", err.Error())
		assert.Equal(t, ExitMalformedDocument, err.Code)
		assert.Nil(t, err.Unwrap())
	})

	t.Run("wrapped error is included and unwrappable", func(t *testing.T) {
		underlying := errors.New("open README.md: no such file")
		err := WrapCLIError(ExitGeneralError, "failed to read document", underlying)
		assert.Equal(t, "failed to read document: open README.md: no such file", err.Error())
		assert.True(t, errors.Is(err, underlying))
	})
}
