package agents

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deskpilot/deskpilot/pkg/prompts"
)

const validHostJSON = `{
	"Observation": "Word is open with an empty document.",
	"Thought": "The request needs a table, so the Word agent should handle it.",
	"CurrentSubtask": "Insert a 3x3 table",
	"Message": "Use the document body control.",
	"ControlLabel": "1",
	"ControlText": "WINWORD.EXE",
	"Status": "ASSIGN",
	"Plan": "1. Insert the table. 2. Save the document.",
	"Bash": "",
	"Questions": [],
	"Comment": "Starting with the table."
}`

const validAppJSON = `{
	"Observation": "The document body is focused.",
	"Thought": "insert_table matches the sub-task directly.",
	"ControlLabel": "42",
	"ControlText": "document body",
	"Function": "insert_table",
	"Args": {"rows": 3, "columns": 3},
	"Status": "FINISH",
	"Plan": "<FINISH>",
	"Comment": "Table inserted."
}`

func TestParseHostResponse(t *testing.T) {
	resp, err := ParseHostResponse(prompts.Mode{}, validHostJSON)
	require.NoError(t, err)
	assert.Equal(t, HostStatusAssign, resp.Status)
	assert.Equal(t, "Insert a 3x3 table", resp.CurrentSubtask)
	assert.Equal(t, "WINWORD.EXE", resp.ControlText)
}

func TestParseHostResponseFromFencedMarkdown(t *testing.T) {
	text := "Here is my decision:\n```json\n" + validHostJSON + "\n```\nDone."
	resp, err := ParseHostResponse(prompts.Mode{}, text)
	require.NoError(t, err)
	assert.Equal(t, HostStatusAssign, resp.Status)
}

func TestParseHostResponseSurroundedByProse(t *testing.T) {
	text := "Sure! " + validHostJSON + " Let me know."
	resp, err := ParseHostResponse(prompts.Mode{}, text)
	require.NoError(t, err)
	assert.Equal(t, "1", resp.ControlLabel)
}

func TestParseHostResponseRejectsMissingStatus(t *testing.T) {
	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(validHostJSON), &doc))
	delete(doc, "Status")
	raw, err := json.Marshal(doc)
	require.NoError(t, err)

	_, err = ParseHostResponse(prompts.Mode{}, string(raw))
	require.ErrorIs(t, err, ErrSchemaViolation)
}

func TestParseHostResponseRejectsInvalidStatus(t *testing.T) {
	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(validHostJSON), &doc))
	doc["Status"] = "DELEGATE"
	raw, err := json.Marshal(doc)
	require.NoError(t, err)

	_, err = ParseHostResponse(prompts.Mode{}, string(raw))
	require.ErrorIs(t, err, ErrSchemaViolation)
}

func TestParseHostResponseRejectsUnknownKey(t *testing.T) {
	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(validHostJSON), &doc))
	doc["Mood"] = "optimistic"
	raw, err := json.Marshal(doc)
	require.NoError(t, err)

	_, err = ParseHostResponse(prompts.Mode{}, string(raw))
	require.ErrorIs(t, err, ErrSchemaViolation)
}

func TestParseHostResponseRejectsProseOnly(t *testing.T) {
	_, err := ParseHostResponse(prompts.Mode{}, "I inserted the table for you.")
	require.ErrorIs(t, err, ErrSchemaViolation)
}

func TestParseAppResponse(t *testing.T) {
	resp, err := ParseAppResponse(prompts.Mode{}, validAppJSON)
	require.NoError(t, err)
	assert.Equal(t, AppStatusFinish, resp.Status)
	assert.Equal(t, "insert_table", resp.Function)

	inv := resp.Invocation()
	assert.Equal(t, "insert_table", inv.Command)
	assert.Equal(t, "42", inv.ControlLabel)
	// JSON numbers decode as float64; coercion happens at dispatch time.
	assert.Equal(t, float64(3), inv.Args["rows"])
}

func TestParseAppResponseVisualRequiresSaveScreenshot(t *testing.T) {
	_, err := ParseAppResponse(prompts.Mode{Visual: true}, validAppJSON)
	require.ErrorIs(t, err, ErrSchemaViolation)

	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(validAppJSON), &doc))
	doc["SaveScreenshot"] = true
	raw, err := json.Marshal(doc)
	require.NoError(t, err)

	resp, err := ParseAppResponse(prompts.Mode{Visual: true}, string(raw))
	require.NoError(t, err)
	assert.True(t, resp.SaveScreenshot)
}

func TestParseAppMultiResponse(t *testing.T) {
	text := `{
		"Observation": "The paragraph is selected.",
		"Thought": "Font family and size are independent changes.",
		"ActionList": [
			{"Function": "set_font", "Args": {"font_name": "Arial"}, "ControlLabel": "42", "ControlText": "document body", "Status": "CONTINUE"},
			{"Function": "set_font", "Args": {"font_size": 12}, "ControlLabel": "42", "ControlText": "document body", "Status": "FINISH"}
		],
		"Plan": "<FINISH>",
		"Comment": "Both font changes applied."
	}`
	resp, err := ParseAppMultiResponse(prompts.Mode{MultiAction: true}, text)
	require.NoError(t, err)
	require.Len(t, resp.ActionList, 2)
	assert.Equal(t, AppStatusFinish, resp.Status())

	invs := resp.Invocations()
	require.Len(t, invs, 2)
	assert.Equal(t, "Arial", invs[0].Args["font_name"])
	assert.Equal(t, float64(12), invs[1].Args["font_size"])
}

func TestParseAppMultiResponseRejectsInvalidEntryStatus(t *testing.T) {
	text := `{
		"Observation": "",
		"Thought": "",
		"ActionList": [
			{"Function": "set_font", "Args": {}, "ControlLabel": "42", "ControlText": "", "Status": "MAYBE"}
		],
		"Plan": "",
		"Comment": ""
	}`
	_, err := ParseAppMultiResponse(prompts.Mode{MultiAction: true}, text)
	require.ErrorIs(t, err, ErrSchemaViolation)
}

func TestAppMultiResponseEmptyBatchIsFail(t *testing.T) {
	resp := &AppMultiResponse{}
	assert.Equal(t, AppStatusFail, resp.Status())
}

func TestExtractJSONObjectBraceMatching(t *testing.T) {
	text := `prefix {"a": "value with } brace", "b": {"c": 1}} suffix`
	raw, err := ExtractJSONObject(text)
	require.NoError(t, err)
	assert.Equal(t, `{"a": "value with } brace", "b": {"c": 1}}`, raw)
}

func TestExtractJSONObjectUnterminated(t *testing.T) {
	_, err := ExtractJSONObject(`{"a": 1`)
	require.ErrorIs(t, err, ErrSchemaViolation)
}

func TestRequiredKeysPerRole(t *testing.T) {
	hostKeys, err := RequiredKeys(prompts.Key{Role: prompts.RoleHost})
	require.NoError(t, err)
	assert.Contains(t, hostKeys, "Status")
	assert.Contains(t, hostKeys, "CurrentSubtask")
	assert.NotContains(t, hostKeys, "SaveScreenshot")

	appVisualKeys, err := RequiredKeys(prompts.Key{Role: prompts.RoleApp, Mode: prompts.Mode{Visual: true}})
	require.NoError(t, err)
	assert.Contains(t, appVisualKeys, "SaveScreenshot")
	assert.Contains(t, appVisualKeys, "Function")
}
