package automator

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/deskpilot/deskpilot/pkg/catalog"
)

// ExcelReceiver executes the Excel command set against an in-memory
// workbook model.
type ExcelReceiver struct {
	WorkbookName string
	WorkbookDir  string

	sheetOrder []string
	sheets     map[string][][]any

	selectedRange string
	saved         map[string]struct{}
}

func NewExcelReceiver(name string) *ExcelReceiver {
	return &ExcelReceiver{
		WorkbookName: name,
		sheets:       make(map[string][][]any),
		saved:        make(map[string]struct{}),
	}
}

func (e *ExcelReceiver) Application() string { return "EXCEL.EXE" }

// AddSheet registers a sheet with its cell values.
func (e *ExcelReceiver) AddSheet(name string, rows [][]any) {
	if _, exists := e.sheets[name]; !exists {
		e.sheetOrder = append(e.sheetOrder, name)
	}
	e.sheets[name] = rows
}

// Sheet returns the cell values of a sheet.
func (e *ExcelReceiver) Sheet(name string) [][]any {
	return e.sheets[e.resolveSheet(name)]
}

// SelectedRange reports the range selected by the last select_table_range.
func (e *ExcelReceiver) SelectedRange() string { return e.selectedRange }

// resolveSheet maps an unknown sheet name or a 1-based index string onto an
// existing sheet, falling back to the first sheet the way the COM receiver
// does.
func (e *ExcelReceiver) resolveSheet(name string) string {
	if _, ok := e.sheets[name]; ok {
		return name
	}
	if idx, err := strconv.Atoi(name); err == nil && idx >= 1 && idx <= len(e.sheetOrder) {
		return e.sheetOrder[idx-1]
	}
	if len(e.sheetOrder) > 0 {
		return e.sheetOrder[0]
	}
	return name
}

func (e *ExcelReceiver) Execute(ctx context.Context, inv catalog.ActionInvocation) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	switch inv.Command {
	case "table2markdown":
		return e.tableToMarkdown(argString(inv.Args, "sheet_name", "1")), nil
	case "insert_excel_table":
		return e.insertTable(
			argString(inv.Args, "sheet_name", "1"),
			argRows(inv.Args, "table"),
			argInt(inv.Args, "start_row", 1),
			argString(inv.Args, "start_col", "A"),
		)
	case "select_table_range":
		return e.selectRange(
			argString(inv.Args, "sheet_name", "1"),
			argInt(inv.Args, "start_row", 1),
			argString(inv.Args, "start_col", "A"),
			argInt(inv.Args, "end_row", -1),
			argString(inv.Args, "end_col", "-1"),
		), nil
	case "get_range_values":
		return e.rangeValues(
			argString(inv.Args, "sheet_name", "1"),
			argInt(inv.Args, "start_row", 1),
			argString(inv.Args, "start_col", "A"),
			argInt(inv.Args, "end_row", -1),
			argString(inv.Args, "end_col", "-1"),
		)
	case "reorder_columns":
		return e.reorderColumns(
			argString(inv.Args, "sheet_name", "1"),
			argStrings(inv.Args, "desired_order"),
		), nil
	case "save_as":
		return e.saveAs(
			argString(inv.Args, "file_dir", ""),
			argString(inv.Args, "file_name", ""),
			argString(inv.Args, "file_ext", ""),
		), nil
	default:
		return "", &catalog.UnknownCommandError{Name: inv.Command}
	}
}

// LettersToNumber converts a column letter reference to its 1-based number
// ("A" -> 1, "AB" -> 28).
func LettersToNumber(letters string) int {
	number := 0
	for _, c := range strings.ToUpper(letters) {
		if c < 'A' || c > 'Z' {
			return 0
		}
		number = number*26 + int(c-'A'+1)
	}
	return number
}

// columnRef accepts either a 1-based column number or a column letter.
func columnRef(ref string) int {
	if n, err := strconv.Atoi(strings.TrimSpace(ref)); err == nil {
		return n
	}
	return LettersToNumber(strings.TrimSpace(ref))
}

func formatCell(v any) string {
	switch tv := v.(type) {
	case nil:
		return ""
	case float64:
		if tv == float64(int64(tv)) {
			return strconv.FormatInt(int64(tv), 10)
		}
		return strconv.FormatFloat(tv, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", tv)
	}
}

func (e *ExcelReceiver) tableToMarkdown(sheetName string) string {
	rows := e.sheets[e.resolveSheet(sheetName)]
	if len(rows) == 0 {
		return "(empty sheet)"
	}

	var b strings.Builder
	header := rows[0]
	cells := make([]string, len(header))
	for i, v := range header {
		cells[i] = formatCell(v)
	}
	b.WriteString("| " + strings.Join(cells, " | ") + " |\n")

	seps := make([]string, len(header))
	for i := range seps {
		seps[i] = "---"
	}
	b.WriteString("| " + strings.Join(seps, " | ") + " |\n")

	for _, row := range rows[1:] {
		empty := true
		cells = make([]string, len(header))
		for i := range header {
			if i < len(row) {
				cells[i] = formatCell(row[i])
				if cells[i] != "" {
					empty = false
				}
			}
		}
		if empty {
			continue
		}
		b.WriteString("| " + strings.Join(cells, " | ") + " |\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func (e *ExcelReceiver) insertTable(sheetName string, table [][]any, startRow int, startCol string) (string, error) {
	if len(table) == 0 {
		return "", fmt.Errorf("no table values to insert")
	}
	name := e.resolveSheet(sheetName)
	col := columnRef(startCol)
	if col < 1 || startRow < 1 {
		return "", fmt.Errorf("invalid insert position row=%d col=%s", startRow, startCol)
	}

	rows := e.sheets[name]
	for i, tableRow := range table {
		for j, value := range tableRow {
			r, c := startRow+i-1, col+j-1
			for len(rows) <= r {
				rows = append(rows, nil)
			}
			for len(rows[r]) <= c {
				rows[r] = append(rows[r], nil)
			}
			rows[r][c] = value
		}
	}
	if _, exists := e.sheets[name]; !exists {
		e.sheetOrder = append(e.sheetOrder, name)
	}
	e.sheets[name] = rows
	return fmt.Sprintf("A table with %d rows is inserted into sheet %s at row %d.", len(table), name, startRow), nil
}

func (e *ExcelReceiver) clampRange(sheetName string, startRow int, startCol string, endRow int, endCol string) (string, int, int, int, int) {
	name := e.resolveSheet(sheetName)
	rows := e.sheets[name]

	sr, sc := startRow, columnRef(startCol)
	er := endRow
	if er == -1 || er > len(rows) {
		er = len(rows)
	}
	maxCols := 0
	for _, row := range rows {
		if len(row) > maxCols {
			maxCols = len(row)
		}
	}
	ec := columnRef(endCol)
	if strings.TrimSpace(endCol) == "-1" || ec > maxCols {
		ec = maxCols
	}
	return name, sr, sc, er, ec
}

func (e *ExcelReceiver) selectRange(sheetName string, startRow int, startCol string, endRow int, endCol string) string {
	name, sr, sc, er, ec := e.clampRange(sheetName, startRow, startCol, endRow, endCol)
	if sr < 1 || sc < 1 || er < sr || ec < sc {
		return fmt.Sprintf("Failed to select the range %d:%d to %d:%d.", sr, sc, er, ec)
	}
	e.selectedRange = fmt.Sprintf("%s!%d:%d-%d:%d", name, sr, sc, er, ec)
	return fmt.Sprintf("Range %d:%d to %d:%d is selected.", sr, sc, er, ec)
}

func (e *ExcelReceiver) rangeValues(sheetName string, startRow int, startCol string, endRow int, endCol string) (string, error) {
	name, sr, sc, er, ec := e.clampRange(sheetName, startRow, startCol, endRow, endCol)
	if sr < 1 || sc < 1 || er < sr || ec < sc {
		return "", fmt.Errorf("invalid range %d:%d to %d:%d", sr, sc, er, ec)
	}

	rows := e.sheets[name]
	values := make([][]string, 0, er-sr+1)
	for r := sr; r <= er; r++ {
		row := make([]string, 0, ec-sc+1)
		for c := sc; c <= ec; c++ {
			if r-1 < len(rows) && c-1 < len(rows[r-1]) {
				row = append(row, formatCell(rows[r-1][c-1]))
			} else {
				row = append(row, "")
			}
		}
		values = append(values, row)
	}
	raw, err := json.Marshal(values)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func (e *ExcelReceiver) reorderColumns(sheetName string, desiredOrder []string) string {
	name := e.resolveSheet(sheetName)
	rows := e.sheets[name]
	if len(rows) == 0 {
		return fmt.Sprintf("Sheet %s is empty; nothing to reorder.", name)
	}

	header := rows[0]
	index := map[string]int{}
	for i, v := range header {
		index[formatCell(v)] = i
	}

	order := make([]int, 0, len(header))
	used := make(map[int]struct{}, len(header))
	for _, want := range desiredOrder {
		if i, ok := index[want]; ok {
			order = append(order, i)
			used[i] = struct{}{}
		}
	}
	// Columns not listed keep their current relative order at the end.
	for i := range header {
		if _, ok := used[i]; !ok {
			order = append(order, i)
		}
	}

	reordered := make([][]any, len(rows))
	for r, row := range rows {
		newRow := make([]any, 0, len(order))
		for _, i := range order {
			if i < len(row) {
				newRow = append(newRow, row[i])
			} else {
				newRow = append(newRow, nil)
			}
		}
		reordered[r] = newRow
	}
	e.sheets[name] = reordered

	headers := make([]string, 0, len(order))
	for _, i := range order {
		headers = append(headers, formatCell(header[i]))
	}
	return fmt.Sprintf("Columns of sheet %s are reordered to: %s.", name, strings.Join(headers, ", "))
}

// excelFileFormats maps target extensions to the Excel SaveAs FileFormat
// codes.
var excelFileFormats = map[string]int{
	".xlsx": 51,
	".xlsm": 52,
	".xlsb": 50,
	".xls":  56,
	".csv":  6,
	".txt":  42,
	".pdf":  57,
	".xml":  46,
}

func (e *ExcelReceiver) saveAs(fileDir, fileName, fileExt string) string {
	if fileDir == "" {
		fileDir = e.WorkbookDir
	}
	if fileName == "" {
		fileName = strings.TrimSuffix(e.WorkbookName, path.Ext(e.WorkbookName))
		if fileName == "" {
			fileName = fmt.Sprintf("excel_workbook_%d", time.Now().Unix())
		}
	}
	if fileExt == "" {
		fileExt = ".xlsx"
	} else if !strings.HasPrefix(fileExt, ".") {
		fileExt = "." + fileExt
	}

	format, ok := excelFileFormats[strings.ToLower(fileExt)]
	if !ok {
		format = excelFileFormats[".xlsx"]
	}

	filePath := path.Join(fileDir, fileName+fileExt)
	for counter := 1; ; counter++ {
		if _, exists := e.saved[filePath]; !exists {
			break
		}
		filePath = path.Join(fileDir, fmt.Sprintf("%s_%d%s", fileName, counter, fileExt))
	}
	e.saved[filePath] = struct{}{}

	return fmt.Sprintf("Workbook successfully saved to %s (format code %d)", filePath, format)
}
