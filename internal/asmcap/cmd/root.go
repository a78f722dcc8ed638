package cmd

import (
	"bytes"
	"context"
	"debug/elf"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/lipgloss/v2"
	"github.com/charmbracelet/x/term"
	"github.com/ianlancetaylor/demangle"
	"github.com/nxadm/tail"
	"github.com/spf13/cobra"

	"asmcap/internal/arm64dec"
	"asmcap/internal/asmtext"
	"asmcap/internal/capture"
	"asmcap/internal/elfx"
	"asmcap/internal/ir"
	"asmcap/internal/logging"
	"asmcap/internal/ui/colorize"
)

// captureOptions collects the flags that shape one capture run.
type captureOptions struct {
	pretty   bool
	listing  bool
	echo     bool
	demangle bool
	binary   bool
	elfInput bool
	follow   bool
}

func newCapture(opts captureOptions) *capture.Capture {
	var copts []capture.Option
	if opts.binary || opts.elfInput {
		copts = append(copts, capture.WithRegisterNamer(arm64dec.Registers()))
	} else {
		copts = append(copts, capture.WithRegisterNamer(asmtext.Registers()))
	}
	if opts.demangle {
		copts = append(copts, capture.WithSymbolFilter(func(name string) string {
			return demangle.Filter(name)
		}))
	}
	if opts.echo {
		copts = append(copts, capture.WithEcho(os.Stderr))
	}
	return capture.New(copts...)
}

// runCapture feeds the input through the selected frontend and writes the
// result to out. The capture core never sees where the input came from.
func runCapture(path string, opts captureOptions, out io.Writer) error {
	logger := logging.NewLogger()
	defer logger.Close()

	capt := newCapture(opts)

	switch {
	case opts.elfInput:
		img, err := elfx.Open(path)
		if err != nil {
			return err
		}
		defer img.Close()
		if img.Machine() != elf.EM_AARCH64 {
			logger.Warn("not an AArch64 image, decoding anyway", "machine", img.Machine())
		}
		code, err := img.TextBytes()
		if err != nil {
			return err
		}
		if skipped := arm64dec.New(img.Text.VA).Run(code, capt); skipped > 0 {
			logger.Warn("skipped undecodable words", "count", skipped)
		}

	case opts.binary:
		code, err := readInput(path)
		if err != nil {
			return err
		}
		if skipped := arm64dec.New(0).Run(code, capt); skipped > 0 {
			logger.Warn("skipped undecodable words", "count", skipped)
		}

	case opts.follow:
		if err := followFile(path, capt); err != nil {
			return err
		}

	default:
		r, closer, err := openInput(path)
		if err != nil {
			return err
		}
		defer closer()
		if err := asmtext.NewScanner(capt).Scan(r); err != nil {
			return fmt.Errorf("scan input: %w", err)
		}
	}

	// The core drops operand kinds it does not track; surfacing that is
	// the boundary's job.
	if n := capt.Dropped(); n > 0 {
		logger.Warn("dropped untracked operands", "count", n)
	}

	if opts.listing {
		return writeListing(out, capt.Stream())
	}
	return writeJSON(out, capt, opts.pretty)
}

// followFile tails a growing assembly file, feeding lines as they appear,
// and returns once the process is interrupted.
func followFile(path string, capt *capture.Capture) error {
	if path == "" {
		return fmt.Errorf("--follow needs a file argument")
	}

	t, err := tail.TailFile(path, tail.Config{
		Follow: true,
		ReOpen: true,
		Logger: tail.DiscardingLogger,
	})
	if err != nil {
		return fmt.Errorf("tail %s: %w", path, err)
	}
	defer t.Cleanup()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	scanner := asmtext.NewScanner(capt)
	for {
		select {
		case line, ok := <-t.Lines:
			if !ok {
				return t.Err()
			}
			if line.Err != nil {
				return line.Err
			}
			scanner.FeedLine(line.Text)
		case <-ctx.Done():
			t.Stop()
			return nil
		}
	}
}

func writeJSON(out io.Writer, capt *capture.Capture, pretty bool) error {
	data, err := capt.Render()
	if err != nil {
		return fmt.Errorf("render stream: %w", err)
	}
	if pretty {
		var buf bytes.Buffer
		if err := json.Indent(&buf, data, "", "  "); err != nil {
			return err
		}
		data = buf.Bytes()
	}
	_, err = fmt.Fprintf(out, "%s\n", data)
	return err
}

// writeListing renders the stream as colorized text instead of JSON:
// labels in the first column, one instruction per line, the source line as
// a trailing comment.
func writeListing(out io.Writer, stream *ir.InstructionStream) error {
	if f, ok := out.(*os.File); ok && term.IsTerminal(f.Fd()) {
		headerStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("252"))
		fmt.Fprintln(out, headerStyle.Render(fmt.Sprintf("Captured %d instructions", stream.Len())))
		fmt.Fprintln(out)
	}

	for _, inst := range stream.Instructions() {
		for _, label := range inst.Labels() {
			fmt.Fprintln(out, colorize.ColorizeListingLine(label+":"))
		}
		line := "  " + inst.String()
		if loc := inst.Location(); loc.Line > 0 {
			line = fmt.Sprintf("%-40s ; line %d", line, loc.Line-1)
		}
		fmt.Fprintln(out, colorize.ColorizeListingLine(line))
	}
	return nil
}

func openInput(path string) (io.Reader, func() error, error) {
	if path == "" {
		return os.Stdin, func() error { return nil }, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	return f, f.Close, nil
}

func readInput(path string) ([]byte, error) {
	if path == "" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}

var rootCmd = &cobra.Command{
	Use:   "asmcap [file]",
	Short: "Capture assembly decoder events into a serializable instruction stream",
	Long: `Asmcap listens to the event stream of an assembly decoder - labels,
instructions and symbol directives - and records it as an ordered
intermediate representation, rendered as a JSON tree.

Input is assembly text by default (file argument or stdin). With --bin the
input is raw ARM64 machine code; with --elf the .text section of an ELF
image is decoded instead.`,
	Example: `
# Capture an assembly file as JSON
asmcap prog.s

# Pretty-print and demangle C++ symbol references
asmcap --pretty --demangle prog.s

# Colorized text listing of the captured stream
asmcap --listing prog.s

# Decode the .text section of a shared object
asmcap --elf libgame.so

# Keep capturing while the file grows, render on Ctrl-C
asmcap --follow build/out.s
  `,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := ""
		if len(args) > 0 {
			path = args[0]
		}

		opts := captureOptions{}
		opts.pretty, _ = cmd.Flags().GetBool("pretty")
		opts.listing, _ = cmd.Flags().GetBool("listing")
		opts.echo, _ = cmd.Flags().GetBool("echo")
		opts.demangle, _ = cmd.Flags().GetBool("demangle")
		opts.binary, _ = cmd.Flags().GetBool("bin")
		opts.elfInput, _ = cmd.Flags().GetBool("elf")
		opts.follow, _ = cmd.Flags().GetBool("follow")

		if opts.binary && opts.elfInput {
			return fmt.Errorf("--bin and --elf are mutually exclusive")
		}
		if opts.elfInput && path == "" {
			return fmt.Errorf("--elf needs a file argument")
		}

		output, _ := cmd.Flags().GetString("output")
		out := io.Writer(os.Stdout)
		if output != "" {
			f, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("create output: %w", err)
			}
			defer f.Close()
			out = f
		}

		return runCapture(path, opts, out)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "Debug")

	rootCmd.Flags().BoolP("help", "h", false, "Help")
	rootCmd.Flags().BoolP("pretty", "p", false, "Indent the JSON output")
	rootCmd.Flags().BoolP("listing", "l", false, "Render a text listing instead of JSON")
	rootCmd.Flags().Bool("echo", false, "Mirror events to stderr as they arrive")
	rootCmd.Flags().Bool("demangle", false, "Demangle C++ symbol names in labels and operands")
	rootCmd.Flags().Bool("bin", false, "Treat input as raw ARM64 machine code")
	rootCmd.Flags().Bool("elf", false, "Decode the .text section of an ELF image")
	rootCmd.Flags().BoolP("follow", "f", false, "Tail the input file and keep capturing until interrupted")
	rootCmd.Flags().StringP("output", "o", "", "Write the result to a file instead of stdout")
}

func Execute() {
	// Bypass fang's rendering when output is being piped, so the JSON
	// stays machine-readable.
	if !term.IsTerminal(os.Stdout.Fd()) {
		if err := rootCmd.Execute(); err != nil {
			os.Exit(1)
		}
		return
	}

	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		os.Exit(1)
	}
}
