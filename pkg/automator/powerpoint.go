package automator

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/deskpilot/deskpilot/pkg/catalog"
)

var namedColors = map[string]string{
	"black":  "#000000",
	"white":  "#FFFFFF",
	"red":    "#FF0000",
	"green":  "#00FF00",
	"blue":   "#0000FF",
	"yellow": "#FFFF00",
	"orange": "#FFA500",
	"purple": "#800080",
	"gray":   "#808080",
	"grey":   "#808080",
}

type slide struct {
	Background string
}

// PowerPointReceiver executes the PowerPoint command set against an
// in-memory presentation model.
type PowerPointReceiver struct {
	PresentationName string
	PresentationDir  string
	CurrentSlide     int

	slides []slide
	saved  map[string]struct{}
}

func NewPowerPointReceiver(name string, slideCount int) *PowerPointReceiver {
	return &PowerPointReceiver{
		PresentationName: name,
		CurrentSlide:     1,
		slides:           make([]slide, slideCount),
		saved:            make(map[string]struct{}),
	}
}

func (p *PowerPointReceiver) Application() string { return "POWERPNT.EXE" }

// Background returns the background color of the 1-based slide index.
func (p *PowerPointReceiver) Background(index int) string {
	if index < 1 || index > len(p.slides) {
		return ""
	}
	return p.slides[index-1].Background
}

func (p *PowerPointReceiver) Execute(ctx context.Context, inv catalog.ActionInvocation) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	switch inv.Command {
	case "set_background_color":
		return p.setBackgroundColor(
			argString(inv.Args, "color", ""),
			argInts(inv.Args, "slide_index"),
		)
	case "save_as":
		return p.saveAs(
			argString(inv.Args, "file_dir", ""),
			argString(inv.Args, "file_name", ""),
			argString(inv.Args, "file_ext", ""),
			argBool(inv.Args, "current_slide_only", false),
		), nil
	default:
		return "", &catalog.UnknownCommandError{Name: inv.Command}
	}
}

func (p *PowerPointReceiver) setBackgroundColor(color string, slideIndex []int) (string, error) {
	rgb := color
	if named, ok := namedColors[strings.ToLower(color)]; ok {
		rgb = named
	}
	// Hex values are accepted with or without the leading "#".
	rgb = strings.TrimPrefix(rgb, "#")
	if len(rgb) != 6 || !isHexDigits(rgb) {
		return "", fmt.Errorf("unknown color %q", color)
	}
	rgb = "#" + strings.ToUpper(rgb)

	if len(slideIndex) == 0 {
		for i := 1; i <= len(p.slides); i++ {
			slideIndex = append(slideIndex, i)
		}
	}

	changed := make([]string, 0, len(slideIndex))
	for _, idx := range slideIndex {
		if idx < 1 || idx > len(p.slides) {
			return "", fmt.Errorf("slide index %d is out of range", idx)
		}
		p.slides[idx-1].Background = rgb
		changed = append(changed, fmt.Sprintf("%d", idx))
	}
	return fmt.Sprintf("Background color of slide(s) %s is set to %s.", strings.Join(changed, ", "), rgb), nil
}

func isHexDigits(s string) bool {
	for _, c := range s {
		switch {
		case c >= '0' && c <= '9':
		case c >= 'a' && c <= 'f':
		case c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}

var powerPointFileFormats = map[string]int{
	".pptx": 24,
	".ppt":  1,
	".pdf":  32,
	".xps":  33,
	".png":  18,
	".jpg":  17,
}

func (p *PowerPointReceiver) saveAs(fileDir, fileName, fileExt string, currentSlideOnly bool) string {
	if fileDir == "" {
		fileDir = p.PresentationDir
	}
	if fileName == "" {
		fileName = strings.TrimSuffix(p.PresentationName, path.Ext(p.PresentationName))
		if fileName == "" {
			fileName = fmt.Sprintf("presentation_%d", time.Now().Unix())
		}
	}
	if fileExt == "" {
		fileExt = ".pptx"
	} else if !strings.HasPrefix(fileExt, ".") {
		fileExt = "." + fileExt
	}

	format, ok := powerPointFileFormats[strings.ToLower(fileExt)]
	if !ok {
		format = powerPointFileFormats[".pptx"]
	}

	if currentSlideOnly {
		fileName = fmt.Sprintf("%s_slide_%d", fileName, p.CurrentSlide)
	}

	filePath := path.Join(fileDir, fileName+fileExt)
	for counter := 1; ; counter++ {
		if _, exists := p.saved[filePath]; !exists {
			break
		}
		filePath = path.Join(fileDir, fmt.Sprintf("%s_%d%s", fileName, counter, fileExt))
	}
	p.saved[filePath] = struct{}{}

	if currentSlideOnly {
		return fmt.Sprintf("Slide %d successfully exported to %s (format code %d)", p.CurrentSlide, filePath, format)
	}
	return fmt.Sprintf("Presentation successfully saved to %s (format code %d)", filePath, format)
}
