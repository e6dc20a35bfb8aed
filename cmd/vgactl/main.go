//go:build linux || darwin

// vgactl drives a VGA generator over its USB serial port.
//
//	vgactl [-port /dev/ttyACM0] <command> [args]
package main

import (
	"bytes"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/pkg/term"

	"github.com/tuffrabit/tinygo-vgax-rp2040/pkg/framebuffer"
	"github.com/tuffrabit/tinygo-vgax-rp2040/pkg/imageconv"
	"github.com/tuffrabit/tinygo-vgax-rp2040/pkg/protocol"
)

const readTimeout = 2 * time.Second

var errUsage = errors.New("bad arguments")

var stdout io.Writer = os.Stdout

type command struct {
	usage string
	run   func(c *protocol.Client, args []string) error
}

var commands = map[string]command{
	"ping": {"", func(c *protocol.Client, args []string) error {
		reply, err := c.Ping([]byte("vgactl"))
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "pong %q\n", reply)
		return nil
	}},
	"status": {"", func(c *protocol.Client, args []string) error {
		st, err := c.Status()
		if err != nil {
			return err
		}
		state := "stopped"
		switch {
		case st.Running:
			state = "running"
		case st.Armed:
			state = "paused"
		}
		fmt.Fprintf(stdout, "%s line=%d frames=%d\n", state, st.Line, st.Frames)
		return nil
	}},
	"start":  {"", simple((*protocol.Client).Start)},
	"stop":   {"", simple((*protocol.Client).Stop)},
	"pause":  {"", simple((*protocol.Client).Pause)},
	"resume": {"", simple((*protocol.Client).Resume)},
	"clear": {"[0|1]", func(c *protocol.Client, args []string) error {
		var fill byte
		switch len(args) {
		case 0:
		case 1:
			switch args[0] {
			case "0":
			case "1":
				fill = 0xFF
			default:
				return errUsage
			}
		default:
			return errUsage
		}
		return c.Clear(fill)
	}},
	"upload":   {"[-dither] [-fit] [-invert] [-threshold N] FILE", upload},
	"download": {"FILE.bmp", download},
	"props": {"START MASK...", func(c *protocol.Client, args []string) error {
		if len(args) < 2 {
			return errUsage
		}
		start, err := strconv.Atoi(args[0])
		if err != nil {
			return errUsage
		}
		masks := make([]uint8, 0, len(args)-1)
		for _, a := range args[1:] {
			v, err := strconv.ParseUint(a, 0, 8)
			if err != nil {
				return errUsage
			}
			masks = append(masks, uint8(v))
		}
		return c.SetLineProps(start, masks)
	}},
	"save":   {"SLOT", slot((*protocol.Client).SaveFrame)},
	"load":   {"SLOT", slot((*protocol.Client).LoadFrame)},
	"delete": {"SLOT", slot((*protocol.Client).DeleteFrame)},
	"log": {"", func(c *protocol.Client, args []string) error {
		text, err := c.Log()
		if err != nil {
			return err
		}
		fmt.Fprint(stdout, text)
		return nil
	}},
}

func simple(fn func(*protocol.Client) error) func(*protocol.Client, []string) error {
	return func(c *protocol.Client, _ []string) error {
		return fn(c)
	}
}

func slot(fn func(*protocol.Client, uint8) error) func(*protocol.Client, []string) error {
	return func(c *protocol.Client, args []string) error {
		if len(args) != 1 {
			return errUsage
		}
		v, err := strconv.ParseUint(args[0], 0, 8)
		if err != nil {
			return errUsage
		}
		return fn(c, uint8(v))
	}
}

func upload(c *protocol.Client, args []string) error {
	fs := flag.NewFlagSet("upload", flag.ContinueOnError)
	dither := fs.Bool("dither", false, "Floyd-Steinberg dither instead of threshold")
	fit := fs.Bool("fit", false, "keep aspect ratio")
	invert := fs.Bool("invert", false, "swap black and white")
	threshold := fs.Uint("threshold", 128, "grey level that lights a pixel")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if fs.NArg() != 1 || *threshold == 0 || *threshold > 255 {
		return errUsage
	}

	f, err := os.Open(fs.Arg(0))
	if err != nil {
		return err
	}
	defer f.Close()

	img, err := imageconv.Decode(f)
	if err != nil {
		return fmt.Errorf("%s: %w", fs.Arg(0), err)
	}

	opts := imageconv.Options{
		Threshold: uint8(*threshold),
		Invert:    *invert,
		Fit:       *fit,
	}
	if *dither {
		opts.Mode = imageconv.Dither
	}
	data, err := imageconv.Convert(img, opts)
	if err != nil {
		return err
	}

	start := time.Now()
	if err := c.WriteFramebuffer(data); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "uploaded %d bytes in %v\n", framebuffer.Size, time.Since(start).Round(time.Millisecond))
	return nil
}

func download(c *protocol.Client, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	data, err := c.ReadFramebuffer()
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := imageconv.EncodeBMP(&buf, data); err != nil {
		return err
	}
	return os.WriteFile(args[0], buf.Bytes(), 0o644)
}

func usage() {
	fmt.Fprintf(os.Stderr, "usage: vgactl [-port DEV] [-baud N] <command> [args]\n\ncommands:\n")
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(os.Stderr, "  %-9s %s\n", name, commands[name].usage)
	}
}

func main() {
	port := flag.String("port", "/dev/ttyACM0", "serial device")
	baud := flag.Int("baud", 115200, "baud rate")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() < 1 {
		usage()
		os.Exit(2)
	}
	cmd, ok := commands[flag.Arg(0)]
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", flag.Arg(0))
		usage()
		os.Exit(2)
	}

	t, err := term.Open(*port, term.Speed(*baud), term.RawMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "* error opening %s: %v\n", *port, err)
		os.Exit(1)
	}
	defer t.Close()
	if err := t.SetReadTimeout(readTimeout); err != nil {
		fmt.Fprintf(os.Stderr, "* error: %v\n", err)
		os.Exit(1)
	}
	t.Flush()

	err = cmd.run(protocol.NewClient(t), flag.Args()[1:])
	if errors.Is(err, errUsage) {
		fmt.Fprintf(os.Stderr, "usage: vgactl %s %s\n", flag.Arg(0), cmd.usage)
		t.Close()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "* error: %v\n", err)
		t.Close()
		os.Exit(1)
	}
}
