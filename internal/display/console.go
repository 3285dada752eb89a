package display

import (
	"fmt"
	"io"
	"os"
	"strings"

	"signage-player/internal/slide"

	"golang.org/x/term"
)

const defaultConsoleWidth = 80

// Console draws the player on a single terminal line: the overlay message
// when it is visible, otherwise the "last updated" text and a progress bar.
// Slide changes are printed on their own lines above it.
type Console struct {
	out       io.Writer
	width     int
	tty       bool
	overlay   string
	timestamp string
	ratio     float64
	active    string
	lastLine  string
}

// NewConsole returns a console surface writing to out. When out is a
// terminal its width is used for the bar, otherwise 80 columns.
func NewConsole(out io.Writer) *Console {
	c := &Console{out: out, width: defaultConsoleWidth}
	if f, ok := out.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		c.tty = true
		if w, _, err := term.GetSize(int(f.Fd())); err == nil && w > 20 {
			c.width = w
		}
	}
	return c
}

func (c *Console) ShowOverlay(text string) {
	c.overlay = text
	c.println("! " + text)
	c.redraw()
}

func (c *Console) HideOverlay() {
	c.overlay = ""
	c.redraw()
}

func (c *Console) SetTimestamp(text string) {
	c.timestamp = text
	c.redraw()
}

func (c *Console) SetProgress(ratio float64) {
	c.ratio = ratio
	c.redraw()
}

func (c *Console) Insert(s *slide.Slide) {
	c.println(fmt.Sprintf("> slide %s (%d segments, %v)", s.ID, len(s.Segments), s.Duration))
}

func (c *Console) Activate(id string) {
	c.active = id
	c.redraw()
}

func (c *Console) Deactivate(id string) {
	if c.active == id {
		c.active = ""
	}
}

func (c *Console) Remove(string) {}

// Line returns the status line as it would be drawn.
func (c *Console) Line() string {
	if c.overlay != "" {
		return truncate(c.overlay, c.width)
	}

	pct := Width(c.ratio)
	label := c.timestamp
	barWidth := c.width - len([]rune(label)) - len(pct) - 5
	if barWidth < 10 {
		label = ""
		barWidth = c.width - len(pct) - 4
	}
	if barWidth < 1 {
		return pct
	}

	filled := int(c.ratio * float64(barWidth))
	if filled > barWidth {
		filled = barWidth
	}
	if filled < 0 {
		filled = 0
	}
	bar := strings.Repeat("#", filled) + strings.Repeat(".", barWidth-filled)

	if label == "" {
		return fmt.Sprintf("[%s] %s", bar, pct)
	}
	return fmt.Sprintf("%s [%s] %s", label, bar, pct)
}

func (c *Console) redraw() {
	line := c.Line()
	if line == c.lastLine {
		return
	}
	c.lastLine = line
	if c.tty {
		fmt.Fprintf(c.out, "\r\x1b[2K%s", line)
	}
}

func (c *Console) println(text string) {
	if c.tty {
		fmt.Fprintf(c.out, "\r\x1b[2K%s\n", text)
		c.lastLine = ""
		return
	}
	fmt.Fprintln(c.out, text)
}

func truncate(s string, width int) string {
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	return string(r[:width])
}
