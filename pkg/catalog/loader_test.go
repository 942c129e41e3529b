package catalog

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const wordDocsYAML = `
application: WINWORD.EXE
commands:
  insert_table:
    summary: Insert a table at the end of the document.
    usage:
      args:
        - name: rows
          type: int
          description: The number of rows.
        - name: columns
          type: int
          description: The number of columns.
      example: insert_table(rows=3, columns=3)
      precondition: The control item must be the document body of Word.
      returns: A message describing the inserted table.
  select_text:
    summary: Select the given text.
    class_name: SelectTextCommand
    usage:
      args:
        - name: text
          type: str
          description: The text to be selected.
      example: select_text(text="Hello")
`

func TestLoadFromYAML(t *testing.T) {
	specs, err := LoadFromYAML(strings.NewReader(wordDocsYAML))
	require.NoError(t, err)
	require.Len(t, specs, 2)

	insertTable := specs[0]
	assert.Equal(t, "insert_table", insertTable.Name)
	assert.Equal(t, "Insert a table at the end of the document.", insertTable.Summary)
	// class_name defaults to the conventional handler name.
	assert.Equal(t, "InsertTableCommand", insertTable.ClassName)
	assert.Equal(t, []string{"WINWORD.EXE"}, insertTable.Applications)
	require.Len(t, insertTable.Parameters, 2)
	assert.Equal(t, "rows", insertTable.Parameters[0].Name)
	assert.True(t, insertTable.Parameters[0].Required())
	assert.Equal(t, "insert_table(rows=3, columns=3)", insertTable.Example)
	assert.Equal(t, "The control item must be the document body of Word.", insertTable.Precondition)

	selectText := specs[1]
	assert.Equal(t, "SelectTextCommand", selectText.ClassName)
}

func TestLoadFromYAMLRejectsNonMapping(t *testing.T) {
	_, err := LoadFromYAML(strings.NewReader("commands: [a, b]\n"))
	require.Error(t, err)
}

func TestBuiltinCatalog(t *testing.T) {
	registry, err := Builtin()
	require.NoError(t, err)

	for _, name := range []string{
		"insert_table", "select_text", "select_paragraph", "select_table", "set_font",
		"table2markdown", "insert_excel_table", "select_table_range", "get_range_values", "reorder_columns",
		"set_background_color",
		"save_as",
	} {
		assert.True(t, registry.Has(name), "missing builtin command %s", name)
	}

	// select_paragraph carries the documented defaults.
	spec, err := registry.Lookup("select_paragraph")
	require.NoError(t, err)
	nonEmpty, ok := spec.Parameter("non_empty")
	require.True(t, ok)
	assert.False(t, nonEmpty.Required())
	startIndex, ok := spec.Parameter("start_index")
	require.True(t, ok)
	assert.True(t, startIndex.Required())

	// save_as is shared by all applications.
	saveAs, err := registry.Lookup("save_as")
	require.NoError(t, err)
	assert.True(t, saveAs.AvailableFor("WINWORD.EXE"))
	assert.True(t, saveAs.AvailableFor("EXCEL.EXE"))
	assert.True(t, saveAs.AvailableFor("POWERPNT.EXE"))

	// Word commands do not leak into the Excel context.
	for spec := range registry.ListFor("EXCEL.EXE") {
		assert.NotEqual(t, "insert_table", spec.Name)
	}
}
