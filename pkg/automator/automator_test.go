package automator

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deskpilot/deskpilot/pkg/catalog"
)

// flakyReceiver fails with a transient error a fixed number of times before
// succeeding.
type flakyReceiver struct {
	failures int
	calls    int
}

func (f *flakyReceiver) Application() string { return "FLAKY.EXE" }

func (f *flakyReceiver) Execute(ctx context.Context, inv catalog.ActionInvocation) (string, error) {
	f.calls++
	if f.calls <= f.failures {
		return "", ErrElementNotEnabled
	}
	return "ok", nil
}

func TestRouterRetriesTransientFailures(t *testing.T) {
	recv := &flakyReceiver{failures: 2}
	router := NewRouter(RetryPolicy{MaxAttempts: 3, Interval: time.Millisecond}, recv)

	result, err := router.Dispatch(context.Background(), "flaky.exe", catalog.ActionInvocation{Command: "poke"})
	require.NoError(t, err)
	assert.Equal(t, "ok", result)
	assert.Equal(t, 3, recv.calls)
}

func TestRouterGivesUpAfterMaxAttempts(t *testing.T) {
	recv := &flakyReceiver{failures: 10}
	router := NewRouter(RetryPolicy{MaxAttempts: 2, Interval: time.Millisecond}, recv)

	_, err := router.Dispatch(context.Background(), "FLAKY.EXE", catalog.ActionInvocation{Command: "poke"})
	require.ErrorIs(t, err, ErrElementNotEnabled)
	assert.Equal(t, 2, recv.calls)
}

func TestRouterDoesNotRetryHardFailures(t *testing.T) {
	word := NewWordReceiver("report.docx")
	router := NewRouter(DefaultRetryPolicy(), word)

	_, err := router.Dispatch(context.Background(), "WINWORD.EXE", catalog.ActionInvocation{
		Command: "insert_table",
		Args:    map[string]any{"rows": float64(0), "columns": float64(0)},
	})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrElementNotEnabled)
}

func TestRouterUnknownApplication(t *testing.T) {
	router := NewRouter(DefaultRetryPolicy(), NewWordReceiver("report.docx"))

	_, err := router.Dispatch(context.Background(), "NOTEPAD.EXE", catalog.ActionInvocation{Command: "select_text"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "NOTEPAD.EXE")
}

func TestFormatControlItems(t *testing.T) {
	items := []ControlItem{
		{Label: "42", Text: "document body", ControlType: "Document"},
		{Label: "7", Text: "Save", ControlType: "Button"},
	}
	assert.Equal(t, "[42] document body (Document)\n[7] Save (Button)", FormatControlItems(items))
	assert.Equal(t, "(none)", FormatControlItems(nil))
}

func TestStaticInspector(t *testing.T) {
	inspector := &StaticInspector{Items: map[string][]ControlItem{
		"WINWORD.EXE": {{Label: "42", Text: "document body", ControlType: "Document"}},
	}}

	items := inspector.ControlItems("winword.exe")
	require.Len(t, items, 1)
	assert.True(t, ContainsLabel(items, "42"))
	assert.False(t, ContainsLabel(items, "1"))
	assert.Empty(t, inspector.ControlItems("EXCEL.EXE"))
}
