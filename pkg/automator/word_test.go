package automator

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deskpilot/deskpilot/pkg/catalog"
)

func wordInvocation(command string, args map[string]any) catalog.ActionInvocation {
	return catalog.ActionInvocation{Command: command, Args: args, ControlLabel: "42", ControlText: "document body"}
}

func TestWordInsertTable(t *testing.T) {
	w := NewWordReceiver("report.docx")

	result, err := w.Execute(context.Background(), wordInvocation("insert_table", map[string]any{
		// JSON numbers arrive as float64.
		"rows":    float64(3),
		"columns": float64(3),
	}))
	require.NoError(t, err)
	assert.Equal(t, "A table with 3 rows and 3 columns is inserted at the end of the document.", result)
	require.Len(t, w.Tables, 1)
	assert.Equal(t, wordTable{Rows: 3, Columns: 3}, w.Tables[0])

	_, err = w.Execute(context.Background(), wordInvocation("insert_table", map[string]any{
		"rows":    float64(0),
		"columns": float64(3),
	}))
	require.Error(t, err)
	assert.Len(t, w.Tables, 1)
}

func TestWordSelectText(t *testing.T) {
	w := NewWordReceiver("report.docx", "The quick brown fox.", "Second paragraph.")

	result, err := w.Execute(context.Background(), wordInvocation("select_text", map[string]any{"text": "quick brown"}))
	require.NoError(t, err)
	assert.Equal(t, "Text quick brown is selected.", result)
	assert.Equal(t, "quick brown", w.Selection())

	result, err = w.Execute(context.Background(), wordInvocation("select_text", map[string]any{"text": "missing"}))
	require.NoError(t, err)
	assert.Equal(t, "Text missing is not found.", result)
	assert.Equal(t, "quick brown", w.Selection())
}

func TestWordSelectParagraph(t *testing.T) {
	w := NewWordReceiver("report.docx", "First.", "", "Second.", "   ", "Third.")

	tests := []struct {
		name      string
		args      map[string]any
		result    string
		selection string
		wantErr   bool
	}{
		{
			name:      "non_empty filter skips blank paragraphs",
			args:      map[string]any{"start_index": float64(1), "end_index": float64(2)},
			result:    "Paragraphs 1 to 2 are selected.",
			selection: "First.\nSecond.",
		},
		{
			name:      "end_index -1 selects to the end",
			args:      map[string]any{"start_index": float64(2), "end_index": float64(-1)},
			result:    "Paragraphs 2 to 3 are selected.",
			selection: "Second.\nThird.",
		},
		{
			name:      "non_empty false keeps blank paragraphs",
			args:      map[string]any{"start_index": float64(1), "end_index": float64(2), "non_empty": false},
			result:    "Paragraphs 1 to 2 are selected.",
			selection: "First.\n",
		},
		{
			name:    "start index beyond the document",
			args:    map[string]any{"start_index": float64(9), "end_index": float64(-1)},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := w.Execute(context.Background(), wordInvocation("select_paragraph", tt.args))
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.result, result)
			assert.Equal(t, tt.selection, w.Selection())
		})
	}
}

func TestWordSelectTable(t *testing.T) {
	w := NewWordReceiver("report.docx")
	_, err := w.Execute(context.Background(), wordInvocation("insert_table", map[string]any{"rows": float64(2), "columns": float64(2)}))
	require.NoError(t, err)

	result, err := w.Execute(context.Background(), wordInvocation("select_table", map[string]any{"number": float64(1)}))
	require.NoError(t, err)
	assert.Equal(t, "Table 1 is selected.", result)

	result, err = w.Execute(context.Background(), wordInvocation("select_table", map[string]any{"number": float64(5)}))
	require.NoError(t, err)
	assert.Equal(t, "Table number 5 is out of range.", result)
}

func TestWordSetFont(t *testing.T) {
	w := NewWordReceiver("report.docx", "Hello world.")

	result, err := w.Execute(context.Background(), wordInvocation("set_font", map[string]any{"font_name": "Arial"}))
	require.NoError(t, err)
	assert.Equal(t, "No text is selected to set the font.", result)

	_, err = w.Execute(context.Background(), wordInvocation("select_text", map[string]any{"text": "Hello"}))
	require.NoError(t, err)

	result, err = w.Execute(context.Background(), wordInvocation("set_font", map[string]any{"font_name": "Arial", "font_size": float64(12)}))
	require.NoError(t, err)
	assert.Equal(t, "Font is set to Arial. Font size is set to 12.", result)

	name, size := w.Font()
	assert.Equal(t, "Arial", name)
	assert.Equal(t, 12, size)
}

func TestWordSaveAsUniqueNames(t *testing.T) {
	w := NewWordReceiver("report.docx")

	result, err := w.Execute(context.Background(), wordInvocation("save_as", map[string]any{"file_dir": "/tmp"}))
	require.NoError(t, err)
	assert.Contains(t, result, "/tmp/report.docx")
	assert.Contains(t, result, "format code 12")

	result, err = w.Execute(context.Background(), wordInvocation("save_as", map[string]any{"file_dir": "/tmp"}))
	require.NoError(t, err)
	assert.Contains(t, result, "/tmp/report_1.docx")

	result, err = w.Execute(context.Background(), wordInvocation("save_as", map[string]any{"file_dir": "/tmp", "file_ext": "pdf"}))
	require.NoError(t, err)
	assert.Contains(t, result, "/tmp/report.pdf")
	assert.Contains(t, result, "format code 17")
}

func TestWordUnknownCommand(t *testing.T) {
	w := NewWordReceiver("report.docx")
	_, err := w.Execute(context.Background(), wordInvocation("rotate_page", nil))
	require.ErrorIs(t, err, catalog.ErrUnknownCommand)
}
