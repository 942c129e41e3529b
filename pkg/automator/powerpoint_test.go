package automator

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deskpilot/deskpilot/pkg/catalog"
)

func pptInvocation(command string, args map[string]any) catalog.ActionInvocation {
	return catalog.ActionInvocation{Command: command, Args: args, ControlLabel: "3", ControlText: "slide pane"}
}

func TestSetBackgroundColorNamed(t *testing.T) {
	p := NewPowerPointReceiver("deck.pptx", 3)

	result, err := p.Execute(context.Background(), pptInvocation("set_background_color", map[string]any{
		"color":       "blue",
		"slide_index": []any{float64(2)},
	}))
	require.NoError(t, err)
	assert.Equal(t, "Background color of slide(s) 2 is set to #0000FF.", result)
	assert.Equal(t, "", p.Background(1))
	assert.Equal(t, "#0000FF", p.Background(2))
}

func TestSetBackgroundColorAllSlides(t *testing.T) {
	p := NewPowerPointReceiver("deck.pptx", 2)

	result, err := p.Execute(context.Background(), pptInvocation("set_background_color", map[string]any{
		"color": "#ABCDEF",
	}))
	require.NoError(t, err)
	assert.Equal(t, "Background color of slide(s) 1, 2 is set to #ABCDEF.", result)
	assert.Equal(t, "#ABCDEF", p.Background(1))
	assert.Equal(t, "#ABCDEF", p.Background(2))
}

func TestSetBackgroundColorAcceptsBareHex(t *testing.T) {
	p := NewPowerPointReceiver("deck.pptx", 2)

	result, err := p.Execute(context.Background(), pptInvocation("set_background_color", map[string]any{
		"color":       "FF0000",
		"slide_index": []any{float64(1)},
	}))
	require.NoError(t, err)
	assert.Equal(t, "Background color of slide(s) 1 is set to #FF0000.", result)

	result, err = p.Execute(context.Background(), pptInvocation("set_background_color", map[string]any{
		"color":       "#ff00aa",
		"slide_index": []any{float64(2)},
	}))
	require.NoError(t, err)
	assert.Equal(t, "Background color of slide(s) 2 is set to #FF00AA.", result)
	assert.Equal(t, "#FF00AA", p.Background(2))
}

func TestSetBackgroundColorErrors(t *testing.T) {
	p := NewPowerPointReceiver("deck.pptx", 2)

	_, err := p.Execute(context.Background(), pptInvocation("set_background_color", map[string]any{
		"color": "plaid",
	}))
	require.Error(t, err)

	_, err = p.Execute(context.Background(), pptInvocation("set_background_color", map[string]any{
		"color":       "red",
		"slide_index": []any{float64(9)},
	}))
	require.Error(t, err)
}

func TestPowerPointSaveAsCurrentSlideOnly(t *testing.T) {
	p := NewPowerPointReceiver("deck.pptx", 3)
	p.CurrentSlide = 2

	result, err := p.Execute(context.Background(), pptInvocation("save_as", map[string]any{
		"file_dir":           "/tmp",
		"file_ext":           "png",
		"current_slide_only": true,
	}))
	require.NoError(t, err)
	assert.Contains(t, result, "Slide 2 successfully exported to /tmp/deck_slide_2.png")
	assert.Contains(t, result, "format code 18")

	result, err = p.Execute(context.Background(), pptInvocation("save_as", map[string]any{"file_dir": "/tmp"}))
	require.NoError(t, err)
	assert.Contains(t, result, "Presentation successfully saved to /tmp/deck.pptx")
	assert.Contains(t, result, "format code 24")
}
