package automator

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/deskpilot/deskpilot/pkg/catalog"
)

// wordFileFormats maps target extensions to the Word SaveAs FileFormat
// codes.
var wordFileFormats = map[string]int{
	".doc":  0,
	".dot":  1,
	".txt":  2,
	".rtf":  6,
	".htm":  8,
	".html": 8,
	".mht":  9,
	".xml":  11,
	".docx": 12,
	".docm": 13,
	".dotx": 14,
	".dotm": 15,
	".pdf":  17,
	".xps":  18,
}

type wordTable struct {
	Rows    int
	Columns int
}

// WordReceiver executes the Word command set against an in-memory document
// model. The COM binding implements the same contract out of process.
type WordReceiver struct {
	DocumentName string
	DocumentDir  string
	Paragraphs   []string
	Tables       []wordTable

	selection string
	fontName  string
	fontSize  int
	saved     map[string]struct{}
}

func NewWordReceiver(name string, paragraphs ...string) *WordReceiver {
	return &WordReceiver{
		DocumentName: name,
		Paragraphs:   paragraphs,
		saved:        make(map[string]struct{}),
	}
}

func (w *WordReceiver) Application() string { return "WINWORD.EXE" }

// Selection returns the currently selected text, empty when nothing is
// selected.
func (w *WordReceiver) Selection() string { return w.selection }

// Font returns the font applied by the last set_font call.
func (w *WordReceiver) Font() (string, int) { return w.fontName, w.fontSize }

func (w *WordReceiver) Execute(ctx context.Context, inv catalog.ActionInvocation) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	switch inv.Command {
	case "insert_table":
		return w.insertTable(argInt(inv.Args, "rows", 0), argInt(inv.Args, "columns", 0))
	case "select_text":
		return w.selectText(argString(inv.Args, "text", "")), nil
	case "select_paragraph":
		return w.selectParagraph(
			argInt(inv.Args, "start_index", 1),
			argInt(inv.Args, "end_index", -1),
			argBool(inv.Args, "non_empty", true),
		)
	case "select_table":
		return w.selectTable(argInt(inv.Args, "number", 0)), nil
	case "set_font":
		return w.setFont(argString(inv.Args, "font_name", ""), argInt(inv.Args, "font_size", 0)), nil
	case "save_as":
		return w.saveAs(
			argString(inv.Args, "file_dir", ""),
			argString(inv.Args, "file_name", ""),
			argString(inv.Args, "file_ext", ""),
		), nil
	default:
		return "", &catalog.UnknownCommandError{Name: inv.Command}
	}
}

func (w *WordReceiver) insertTable(rows, columns int) (string, error) {
	if rows < 1 || columns < 1 {
		return "", fmt.Errorf("cannot insert a table with %d rows and %d columns", rows, columns)
	}
	w.Tables = append(w.Tables, wordTable{Rows: rows, Columns: columns})
	return fmt.Sprintf("A table with %d rows and %d columns is inserted at the end of the document.", rows, columns), nil
}

func (w *WordReceiver) selectText(text string) string {
	for _, paragraph := range w.Paragraphs {
		if strings.Contains(paragraph, text) && text != "" {
			w.selection = text
			return fmt.Sprintf("Text %s is selected.", text)
		}
	}
	return fmt.Sprintf("Text %s is not found.", text)
}

func (w *WordReceiver) selectParagraph(startIndex, endIndex int, nonEmpty bool) (string, error) {
	paragraphs := w.Paragraphs
	if nonEmpty {
		filtered := make([]string, 0, len(paragraphs))
		for _, p := range paragraphs {
			if strings.TrimSpace(p) != "" {
				filtered = append(filtered, p)
			}
		}
		paragraphs = filtered
	}

	if startIndex < 1 {
		startIndex = 1
	}
	if startIndex > len(paragraphs) {
		return "", fmt.Errorf("paragraph start index %d is out of range", startIndex)
	}
	if endIndex == -1 || endIndex > len(paragraphs) {
		endIndex = len(paragraphs)
	}
	if endIndex < startIndex {
		return "", fmt.Errorf("paragraph end index %d is before start index %d", endIndex, startIndex)
	}

	w.selection = strings.Join(paragraphs[startIndex-1:endIndex], "\n")
	return fmt.Sprintf("Paragraphs %d to %d are selected.", startIndex, endIndex), nil
}

func (w *WordReceiver) selectTable(number int) string {
	if number < 1 || number > len(w.Tables) {
		return fmt.Sprintf("Table number %d is out of range.", number)
	}
	w.selection = fmt.Sprintf("table %d", number)
	return fmt.Sprintf("Table %d is selected.", number)
}

func (w *WordReceiver) setFont(fontName string, fontSize int) string {
	if w.selection == "" {
		return "No text is selected to set the font."
	}

	message := ""
	if fontName != "" {
		w.fontName = fontName
		message += fmt.Sprintf("Font is set to %s.", fontName)
	}
	if fontSize > 0 {
		w.fontSize = fontSize
		if message != "" {
			message += " "
		}
		message += fmt.Sprintf("Font size is set to %d.", fontSize)
	}
	if message == "" {
		return "No font name or size was provided; nothing changed."
	}
	return message
}

func (w *WordReceiver) saveAs(fileDir, fileName, fileExt string) string {
	if fileDir == "" {
		fileDir = w.DocumentDir
	}
	if fileName == "" {
		fileName = strings.TrimSuffix(w.DocumentName, path.Ext(w.DocumentName))
		if fileName == "" {
			fileName = fmt.Sprintf("word_document_%d", time.Now().Unix())
		}
	}
	if fileExt == "" {
		fileExt = ".docx"
	} else if !strings.HasPrefix(fileExt, ".") {
		fileExt = "." + fileExt
	}

	format, ok := wordFileFormats[strings.ToLower(fileExt)]
	if !ok {
		format = wordFileFormats[".docx"]
	}

	filePath := path.Join(fileDir, fileName+fileExt)
	for counter := 1; ; counter++ {
		if _, exists := w.saved[filePath]; !exists {
			break
		}
		filePath = path.Join(fileDir, fmt.Sprintf("%s_%d%s", fileName, counter, fileExt))
	}
	w.saved[filePath] = struct{}{}

	return fmt.Sprintf("Document successfully saved to %s (format code %d)", filePath, format)
}
