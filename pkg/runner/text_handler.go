package runner

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// TextConsole implements domain.Console for humans on a terminal.
// Messages carry the active task context as a prefix and may contain markup.
type TextConsole struct {
	mu      sync.Mutex
	reader  *bufio.Reader
	writer  io.Writer
	color   bool
	opts    settings
	context []string
}

// NewTextConsole creates a console reading answers from r and writing to w.
// Nil arguments fall back to the process's standard streams.
func NewTextConsole(r io.Reader, w io.Writer, opts ...ConsoleOption) *TextConsole {
	if r == nil {
		r = os.Stdin
	}
	if w == nil {
		w = os.Stdout
	}
	c := &TextConsole{
		reader: bufio.NewReader(r),
		writer: w,
		opts:   newSettings(opts),
	}
	switch c.opts.color {
	case ColorAlways:
		c.color = true
	case ColorAuto:
		c.color = IsTerminal(w) && !termenv.EnvNoColor()
	}
	return c
}

// IsTerminal reports whether w is a terminal.
func IsTerminal(w any) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func (c *TextConsole) Report(msg string) {
	if msg == "" || c.opts.quiet {
		return
	}
	c.emit(msg, false)
}

func (c *TextConsole) Info(msg string) {
	if msg == "" || !(c.opts.verbose || c.opts.debug) {
		return
	}
	c.emit(msg, false)
}

// Error always prints. detail, when present, is printed as is under the
// message.
func (c *TextConsole) Error(msg, detail string) {
	if msg == "" {
		return
	}
	c.emit("[!R]"+strings.TrimRight(msg, "\n")+"[!]", false)
	if detail != "" {
		c.emit(detail, true)
	}
}

// Check asks a yes/no question. An empty answer or end of input picks def.
func (c *TextConsole) Check(prompt string, def bool) bool {
	if c.opts.policy != nil {
		if decided, answer := c.opts.policy(prompt, def); decided {
			return answer
		}
	}

	token := "n"
	if def {
		token = "y"
	}
	msg := fmt.Sprintf("%s [%s] ", c.prefix(prompt), token)

	c.mu.Lock()
	defer c.mu.Unlock()
	for {
		fmt.Fprint(c.writer, Markup(msg, c.color))
		line, err := c.reader.ReadString('\n')
		if line == "" && err != nil {
			fmt.Fprintln(c.writer)
			return def
		}
		clean, serr := SanitizeAnswer(strings.TrimSpace(line))
		if serr != nil {
			fmt.Fprintf(c.writer, "Error: %v. Please try again.\n", serr)
			continue
		}
		if answer, ok := parseAnswer(clean, def); ok {
			return answer
		}
		if err != nil {
			return def
		}
	}
}

// Push enters a task context; subsequent messages are prefixed with it.
func (c *TextConsole) Push(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.context = append(c.context, name)
}

// Pop leaves the innermost task context.
func (c *TextConsole) Pop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.context) > 0 {
		c.context = c.context[:len(c.context)-1]
	}
}

// Document prints free-form text through the configured renderer, without
// prefixes. It is silent in quiet mode.
func (c *TextConsole) Document(text string) {
	if text == "" || c.opts.quiet {
		return
	}
	out := text
	if c.opts.renderer != nil {
		if rendered, err := c.opts.renderer(text); err == nil {
			out = rendered
		}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(c.writer, strings.TrimRight(out, "\n"))
}

// Printf writes a formatted line with markup and no context prefix.
func (c *TextConsole) Printf(format string, args ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(c.writer, Markup(fmt.Sprintf(format, args...), c.color))
}

func (c *TextConsole) emit(msg string, asis bool) {
	if !asis {
		msg = c.prefix(msg)
	}
	if c.opts.timestamps {
		msg = fmt.Sprintf("[!b]%s[!] %s", c.opts.now().Format(DefaultTimestampLayout), msg)
	}
	if !strings.HasSuffix(msg, "\n") {
		msg += "\n"
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprint(c.writer, Markup(msg, c.color))
}

func (c *TextConsole) prefix(msg string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.context) == 0 {
		return msg
	}
	return fmt.Sprintf("[!b][%s][!] %s", strings.Join(c.context, " "), msg)
}
