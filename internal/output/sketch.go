package output

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"golang.org/x/sys/unix"

	"github.com/yourusername/winsync/internal/types"
	"github.com/yourusername/winsync/internal/windowinfo"
)

// SketchOptions controls the appearance of a window sketch
type SketchOptions struct {
	UseUnicode bool
	MaxWidth   int
	MaxHeight  int
}

// DefaultSketchOptions sizes the sketch to the terminal
func DefaultSketchOptions() SketchOptions {
	width, height := getTerminalSize()
	return SketchOptions{
		UseUnicode: supportsUnicode(),
		MaxWidth:   width,
		MaxHeight:  height / 2,
	}
}

type boxStyle struct {
	topLeft, topRight, bottomLeft, bottomRight rune
	horizontal, vertical                       rune
}

var (
	asciiStyle   = boxStyle{'+', '+', '+', '+', '-', '|'}
	unicodeStyle = boxStyle{'┌', '┐', '└', '┘', '─', '│'}
	dashedStyle  = boxStyle{'+', '+', '+', '+', '.', ':'}
)

// canvas is a 2D character buffer
type canvas struct {
	width, height int
	buffer        [][]rune
}

func newCanvas(width, height int) *canvas {
	buffer := make([][]rune, height)
	for i := range buffer {
		buffer[i] = []rune(strings.Repeat(" ", width))
	}
	return &canvas{width: width, height: height, buffer: buffer}
}

func (c *canvas) set(x, y int, r rune) {
	if x >= 0 && x < c.width && y >= 0 && y < c.height {
		c.buffer[y][x] = r
	}
}

func (c *canvas) box(width, height int, st boxStyle) {
	if width < 2 || height < 2 {
		return
	}
	c.set(0, 0, st.topLeft)
	c.set(width-1, 0, st.topRight)
	c.set(0, height-1, st.bottomLeft)
	c.set(width-1, height-1, st.bottomRight)
	for i := 1; i < width-1; i++ {
		c.set(i, 0, st.horizontal)
		c.set(i, height-1, st.horizontal)
	}
	for i := 1; i < height-1; i++ {
		c.set(0, i, st.vertical)
		c.set(width-1, i, st.vertical)
	}
}

func (c *canvas) textCentered(y, width int, text string) {
	runes := []rune(text)
	if len(runes) > width {
		runes = runes[:width]
	}
	x := (width - len(runes)) / 2
	for i, r := range runes {
		c.set(x+i, y, r)
	}
}

func (c *canvas) String() string {
	lines := make([]string, len(c.buffer))
	for i, row := range c.buffer {
		lines[i] = strings.TrimRight(string(row), " ")
	}
	return strings.Join(lines, "\n")
}

// SketchWindow draws the window outline with its minimum size nested inside,
// scaled to fit opts. Terminal cells are about twice as tall as wide, so
// heights are halved.
func SketchWindow(info windowinfo.WindowInfo, opts SketchOptions) string {
	if opts.MaxWidth < 10 || opts.MaxHeight < 4 || info.Size.W() <= 0 || info.Size.H() <= 0 {
		return fmt.Sprintf("[%s]\n", info.Size)
	}

	scale := min(
		float64(opts.MaxWidth-1)/float64(info.Size.W()),
		float64(opts.MaxHeight-1)*2/float64(info.Size.H()),
	)
	cells := func(v types.Vec2) (int, int) {
		return max(2, int(float64(v.W())*scale)), max(2, int(float64(v.H())*scale/2))
	}

	outerW, outerH := cells(info.Size)
	c := newCanvas(outerW, outerH)

	style := asciiStyle
	if opts.UseUnicode {
		style = unicodeStyle
	}
	if info.MinimumSize != info.Size && info.MinimumSize.W() > 0 && info.MinimumSize.H() > 0 {
		innerW, innerH := cells(info.MinimumSize)
		c.box(min(innerW, outerW), min(innerH, outerH), dashedStyle)
	}
	c.box(outerW, outerH, style)

	if outerH > 2 {
		c.textCentered(outerH/2, outerW, fmt.Sprintf("%s %s", info.Size, info.State))
	}

	return c.String() + "\n"
}

// PrintSketch prints a colored window sketch with a caption
func PrintSketch(w io.Writer, info windowinfo.WindowInfo, opts SketchOptions) {
	sketch := SketchWindow(info, opts)
	caption := fmt.Sprintf("%s  min %s  (%s)\n", info.Size, info.MinimumSize, info.Mode)

	if color.NoColor {
		fmt.Fprint(w, sketch+caption)
		return
	}
	color.New(color.FgCyan).Fprint(w, sketch)
	fmt.Fprint(w, caption)
}

// getTerminalSize returns the current terminal dimensions
func getTerminalSize() (width, height int) {
	ws, err := unix.IoctlGetWinsize(int(os.Stdout.Fd()), unix.TIOCGWINSZ)
	if err != nil {
		// Default to 80x24 if we can't detect
		return 80, 24
	}
	return int(ws.Col), int(ws.Row)
}

// supportsUnicode checks if the terminal supports Unicode
func supportsUnicode() bool {
	lang := os.Getenv("LANG")
	lcAll := os.Getenv("LC_ALL")

	return strings.Contains(lang, "UTF-8") || strings.Contains(lcAll, "UTF-8")
}
