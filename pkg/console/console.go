// Package console implements the line-oriented text commands accepted on the
// serial port. Commands draw into the live framebuffer, change line
// properties and drive the generator, so a terminal is enough to test a
// monitor without the host tool.
package console

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/tuffrabit/tinygo-vgax-rp2040/pkg/draw"
	"github.com/tuffrabit/tinygo-vgax-rp2040/pkg/logger"
	"github.com/tuffrabit/tinygo-vgax-rp2040/pkg/protocol"
	"github.com/tuffrabit/tinygo-vgax-rp2040/pkg/storage"
	"github.com/tuffrabit/tinygo-vgax-rp2040/pkg/text"
)

var (
	ErrUnknownCommand  = errors.New("unknown command")
	ErrMissingArgument = errors.New("missing argument")
	ErrTooManyArgs     = errors.New("too many arguments")
	ErrNoStorage       = errors.New("storage unavailable")
)

// ArgError reports an argument that could not be parsed.
type ArgError struct {
	Arg string
}

func (e *ArgError) Error() string {
	return fmt.Sprintf("bad argument %q", e.Arg)
}

// Console executes text commands against a generator.
type Console struct {
	video   protocol.Video
	canvas  *draw.Canvas
	storage *storage.Manager
	out     io.Writer

	// glyph fonts rasterized on first use by print
	fonts map[string]*text.GlyphFont
}

// New creates a console. sm may be nil when the flash could not be mounted.
func New(video protocol.Video, sm *storage.Manager, out io.Writer) *Console {
	return &Console{
		video:   video,
		canvas:  draw.New(video.Framebuffer()),
		storage: sm,
		out:     out,
		fonts:   make(map[string]*text.GlyphFont),
	}
}

// glyphFont returns the named tinyfont face as a GlyphFont.
func (c *Console) glyphFont(name string) (*text.GlyphFont, error) {
	if f, ok := c.fonts[name]; ok {
		return f, nil
	}
	f, err := text.RasterizeTinyFont(text.TinyFonts[name], 1, 1)
	if err != nil {
		return nil, err
	}
	c.fonts[name] = f
	return f, nil
}

// Canvas returns the canvas commands draw on.
func (c *Console) Canvas() *draw.Canvas {
	return c.canvas
}

// Exec runs one command line. Blank lines are ignored.
func (c *Console) Exec(line string) error {
	tk, err := tokenise(line)
	if err != nil {
		return err
	}

	keyword, ok := tk.get()
	if !ok {
		return nil
	}

	cmd, ok := commands[strings.ToLower(keyword)]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownCommand, keyword)
	}

	// reject extra words before the command has any effect
	if cmd.max >= 0 && tk.remaining() > cmd.max {
		return fmt.Errorf("%s: %w", keyword, ErrTooManyArgs)
	}
	if err := cmd.run(c, tk); err != nil {
		return fmt.Errorf("%s: %w", keyword, err)
	}
	return nil
}

// Run executes line and reports any error on the console output.
func (c *Console) Run(line string) {
	if err := c.Exec(line); err != nil {
		logger.Logf("console", "%v", err)
		fmt.Fprintf(c.out, "error: %v\n", err)
	}
}

func (c *Console) printf(format string, args ...interface{}) {
	fmt.Fprintf(c.out, format, args...)
}

func (c *Console) help(tk *tokens) error {
	if name, ok := tk.get(); ok {
		cmd, ok := commands[strings.ToLower(name)]
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnknownCommand, name)
		}
		c.printf("%s %s\n  %s\n", name, cmd.usage, cmd.help)
		return nil
	}

	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	c.printf("%s\n", strings.Join(names, " "))
	return nil
}
