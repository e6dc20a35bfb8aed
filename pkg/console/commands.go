package console

import (
	"strings"

	"github.com/tuffrabit/tinygo-vgax-rp2040/pkg/draw"
	"github.com/tuffrabit/tinygo-vgax-rp2040/pkg/framebuffer"
	"github.com/tuffrabit/tinygo-vgax-rp2040/pkg/logger"
	"github.com/tuffrabit/tinygo-vgax-rp2040/pkg/text"
	"github.com/tuffrabit/tinygo-vgax-rp2040/pkg/timing"
	"github.com/tuffrabit/tinygo-vgax-rp2040/pkg/vga"
)

type command struct {
	usage string
	help  string
	max   int // arguments accepted, -1 when run checks every trailing word
	run   func(c *Console, tk *tokens) error
}

// commands is filled in init because help refers back to it.
var commands map[string]command

func init() {
	commands = map[string]command{
		"help":   {"[command]", "List commands or describe one", 1, (*Console).help},
		"ping":   {"", "Reply with pong", 0, cmdPing},
		"clear":  {"[fill]", "Fill the framebuffer with a byte, default 0", 1, cmdClear},
		"pixel":  {"x y [0|1] [or|xor|set]", "Write one pixel", -1, cmdPixel},
		"get":    {"x y", "Print one pixel", 2, cmdGet},
		"line":   {"x0 y0 x1 y1 [0|1] [op]", "Draw a line", -1, cmdLine},
		"rect":   {"x y w h [0|1] [fill] [op]", "Draw a rectangle", -1, cmdRect},
		"circle": {"cx cy r [0|1] [fill] [op]", "Draw a circle", -1, cmdCircle},
		"tri":    {"x0 y0 x1 y1 x2 y2 [0|1] [fill] [op]", "Draw a triangle", -1, cmdTri},
		"text":   {"x y \"string\" [font] [op]", "Write text, y is the baseline", -1, cmdText},
		"print":  {"x y \"string\" [font] [bold] [wrap] [op]", "Print text with its top left corner at x y, \\n breaks lines", -1, cmdPrint},
		"prop":   {"y mask", "Set the colour mask of one visible line", 2, cmdProp},
		"props":  {"start end mask", "Set the colour mask of lines start to end-1", 3, cmdProps},
		"start":  {"", "Restart the generator from line 0", 0, cmdStart},
		"stop":   {"", "Stop the line timer", 0, cmdStop},
		"pause":  {"", "Stop pixel output, keep sync", 0, cmdPause},
		"resume": {"", "Resume pixel output", 0, cmdResume},
		"status": {"", "Print the generator state", 0, cmdStatus},
		"save":   {"slot", "Store the framebuffer in flash", 1, cmdSave},
		"load":   {"slot", "Load the framebuffer from flash", 1, cmdLoad},
		"frames": {"", "List stored framebuffer slots", 0, cmdFrames},
		"rand":   {"[seed]", "Print the next random number, optionally reseeding first", 1, cmdRand},
		"log":    {"[n]", "Print the last n log entries", 1, cmdLog},
	}
}

// style reads the optional trailing colour, fill and op words of a drawing
// command, in any order.
func style(tk *tokens) (v uint8, fill bool, op draw.Op, err error) {
	v = 1
	op = draw.OpSet
	for {
		s, ok := tk.peek()
		if !ok {
			return v, fill, op, nil
		}
		switch s {
		case "0":
			v = 0
		case "1":
			v = 1
		case "fill":
			fill = true
		default:
			o, ok := draw.ParseOp(s)
			if !ok {
				return 0, false, 0, &ArgError{Arg: s}
			}
			op = o
		}
		tk.get()
	}
}

func cmdPing(c *Console, tk *tokens) error {
	c.printf("pong\n")
	return nil
}

func cmdClear(c *Console, tk *tokens) error {
	fill, err := tk.optInt(0)
	if err != nil {
		return err
	}
	c.canvas.Clear(byte(fill))
	return nil
}

func cmdPixel(c *Console, tk *tokens) error {
	p, err := tk.ints(2)
	if err != nil {
		return err
	}
	v, _, op, err := style(tk)
	if err != nil {
		return err
	}
	c.canvas.PutPixel(p[0], p[1], v, op)
	return nil
}

func cmdGet(c *Console, tk *tokens) error {
	p, err := tk.ints(2)
	if err != nil {
		return err
	}
	c.printf("%d\n", c.canvas.GetPixel(p[0], p[1]))
	return nil
}

func cmdLine(c *Console, tk *tokens) error {
	p, err := tk.ints(4)
	if err != nil {
		return err
	}
	v, _, op, err := style(tk)
	if err != nil {
		return err
	}
	c.canvas.DrawLine(p[0], p[1], p[2], p[3], v, op)
	return nil
}

func cmdRect(c *Console, tk *tokens) error {
	p, err := tk.ints(4)
	if err != nil {
		return err
	}
	v, fill, op, err := style(tk)
	if err != nil {
		return err
	}
	c.canvas.DrawRect(p[0], p[1], p[2], p[3], v, fill, op)
	return nil
}

func cmdCircle(c *Console, tk *tokens) error {
	p, err := tk.ints(3)
	if err != nil {
		return err
	}
	v, fill, op, err := style(tk)
	if err != nil {
		return err
	}
	c.canvas.DrawCircle(p[0], p[1], p[2], v, fill, op)
	return nil
}

func cmdTri(c *Console, tk *tokens) error {
	p, err := tk.ints(6)
	if err != nil {
		return err
	}
	v, fill, op, err := style(tk)
	if err != nil {
		return err
	}
	c.canvas.DrawTriangle(p[0], p[1], p[2], p[3], p[4], p[5], v, fill, op)
	return nil
}

func cmdText(c *Console, tk *tokens) error {
	p, err := tk.ints(2)
	if err != nil {
		return err
	}
	str, ok := tk.get()
	if !ok {
		return ErrMissingArgument
	}

	font := text.DefaultTinyFont
	op := draw.OpOr
	for tk.remaining() > 0 {
		s, _ := tk.get()
		if f, ok := text.TinyFonts[s]; ok {
			font = f
		} else if o, ok := draw.ParseOp(s); ok {
			op = o
		} else {
			return &ArgError{Arg: s}
		}
	}

	text.WriteTinyFont(c.canvas, font, p[0], p[1], str, op)
	return nil
}

func cmdPrint(c *Console, tk *tokens) error {
	p, err := tk.ints(2)
	if err != nil {
		return err
	}
	str, ok := tk.get()
	if !ok {
		return ErrMissingArgument
	}

	name := "proggy"
	opts := text.DefaultOptions()
	for tk.remaining() > 0 {
		s, _ := tk.get()
		switch s {
		case "bold":
			opts.Bold = true
		case "wrap":
			opts.Wrap = true
		default:
			if _, ok := text.TinyFonts[s]; ok {
				name = s
			} else if o, ok := draw.ParseOp(s); ok {
				opts.Op = o
			} else {
				return &ArgError{Arg: s}
			}
		}
	}

	font, err := c.glyphFont(name)
	if err != nil {
		return err
	}
	info := text.NewPrinter(c.canvas, font).Print(strings.ReplaceAll(str, `\n`, "\n"), p[0], p[1], opts)
	c.printf("end %d %d width %d\n", info.X, info.Y, info.W)
	return nil
}

func cmdProp(c *Console, tk *tokens) error {
	p, err := tk.ints(2)
	if err != nil {
		return err
	}
	if !visible(p[0]) {
		return &ArgError{Arg: "y"}
	}
	c.video.Props().Set(p[0], uint8(p[1]))
	return nil
}

func cmdProps(c *Console, tk *tokens) error {
	p, err := tk.ints(3)
	if err != nil {
		return err
	}
	c.video.Props().SetRange(p[0], p[1], uint8(p[2]))
	return nil
}

func cmdStart(c *Console, tk *tokens) error {
	return c.video.Start()
}

func cmdStop(c *Console, tk *tokens) error {
	c.video.Stop()
	return nil
}

func cmdPause(c *Console, tk *tokens) error {
	c.video.Pause()
	return nil
}

func cmdResume(c *Console, tk *tokens) error {
	c.video.Resume()
	return nil
}

func cmdStatus(c *Console, tk *tokens) error {
	state := "stopped"
	switch {
	case c.video.Running():
		state = "running"
	case c.video.Armed():
		state = "paused"
	}
	c.printf("%s line=%d frames=%d\n", state, c.video.Line(), c.video.Frames())
	return nil
}

func slotArg(c *Console, tk *tokens) (uint8, error) {
	if c.storage == nil {
		return 0, ErrNoStorage
	}
	slot, err := tk.int()
	if err != nil {
		return 0, err
	}
	if slot < 0 || slot > 0xFF {
		return 0, &ArgError{Arg: "slot"}
	}
	return uint8(slot), nil
}

func cmdSave(c *Console, tk *tokens) error {
	slot, err := slotArg(c, tk)
	if err != nil {
		return err
	}
	return c.storage.SaveFrame(slot, c.video.Framebuffer())
}

func cmdLoad(c *Console, tk *tokens) error {
	slot, err := slotArg(c, tk)
	if err != nil {
		return err
	}
	return c.storage.LoadFrame(slot, c.video.Framebuffer())
}

func cmdFrames(c *Console, tk *tokens) error {
	if c.storage == nil {
		return ErrNoStorage
	}
	slots, err := c.storage.ListFrames()
	if err != nil {
		return err
	}
	c.printf("%v\n", slots)
	return nil
}

func cmdRand(c *Console, tk *tokens) error {
	if tk.remaining() > 0 {
		seed, err := tk.int()
		if err != nil {
			return err
		}
		timing.Seed(uint32(seed))
	}
	c.printf("%d\n", timing.Next())
	return nil
}

func cmdLog(c *Console, tk *tokens) error {
	n, err := tk.optInt(logger.MaxEntries)
	if err != nil {
		return err
	}
	logger.Tail(c.out, n)
	return nil
}

// visible reports whether y is a line that carries pixels.
func visible(y int) bool {
	return y >= 0 && y < vga.VisibleLines && y < framebuffer.Height
}
