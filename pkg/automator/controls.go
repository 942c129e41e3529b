package automator

import (
	"fmt"
	"strings"
)

// ControlItem is an addressable UI element identified by its label and text.
type ControlItem struct {
	Label       string `json:"label"`
	Text        string `json:"text"`
	ControlType string `json:"control_type"`
}

// Inspector enumerates the control items currently visible in the focused
// application. The real UIA/Win32 backends live outside this module; inside
// it a StaticInspector serves tests and dry runs.
type Inspector interface {
	ControlItems(application string) []ControlItem
}

// StaticInspector serves fixed control lists per application.
type StaticInspector struct {
	Items map[string][]ControlItem
}

func (s *StaticInspector) ControlItems(application string) []ControlItem {
	if s == nil || s.Items == nil {
		return nil
	}
	return s.Items[strings.ToUpper(application)]
}

// ContainsLabel reports whether the enumerated controls include the label.
func ContainsLabel(items []ControlItem, label string) bool {
	for _, item := range items {
		if item.Label == label {
			return true
		}
	}
	return false
}

// FormatControlItems renders control items for the control_item prompt
// placeholder, one item per line.
func FormatControlItems(items []ControlItem) string {
	if len(items) == 0 {
		return "(none)"
	}
	var b strings.Builder
	for _, item := range items {
		fmt.Fprintf(&b, "[%s] %s (%s)\n", item.Label, item.Text, item.ControlType)
	}
	return strings.TrimRight(b.String(), "\n")
}
