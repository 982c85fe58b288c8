package runner

import (
	"bufio"
	"encoding/json"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// Message kinds emitted by JSONConsole.
const (
	KindReport = "report"
	KindInfo   = "info"
	KindError  = "error"
	KindPrompt = "prompt"
)

// Message is one JSON line written by JSONConsole.
type Message struct {
	Kind      string    `json:"kind"`
	Timestamp time.Time `json:"timestamp"`
	Context   []string  `json:"context,omitempty"`
	Text      string    `json:"text"`
	Detail    string    `json:"detail,omitempty"`
	Default   *bool     `json:"default,omitempty"`
}

// JSONConsole implements domain.Console as JSON-Lines, for machine consumers.
// Markup is stripped from every message. Prompts are answered by a line
// holding a JSON boolean or a plain y/n.
type JSONConsole struct {
	mu      sync.Mutex
	reader  *bufio.Reader
	encoder *json.Encoder
	opts    settings
	context []string
}

// NewJSONConsole creates a console for structured IO.
func NewJSONConsole(r io.Reader, w io.Writer, opts ...ConsoleOption) *JSONConsole {
	if r == nil {
		r = os.Stdin
	}
	if w == nil {
		w = os.Stdout
	}
	return &JSONConsole{
		reader:  bufio.NewReader(r),
		encoder: json.NewEncoder(w),
		opts:    newSettings(opts),
	}
}

func (c *JSONConsole) Report(msg string) {
	if msg == "" || c.opts.quiet {
		return
	}
	c.emit(Message{Kind: KindReport, Text: msg})
}

func (c *JSONConsole) Info(msg string) {
	if msg == "" || !(c.opts.verbose || c.opts.debug) {
		return
	}
	c.emit(Message{Kind: KindInfo, Text: msg})
}

func (c *JSONConsole) Error(msg, detail string) {
	if msg == "" {
		return
	}
	c.emit(Message{Kind: KindError, Text: msg, Detail: detail})
}

func (c *JSONConsole) Check(prompt string, def bool) bool {
	if c.opts.policy != nil {
		if decided, answer := c.opts.policy(prompt, def); decided {
			return answer
		}
	}
	c.emit(Message{Kind: KindPrompt, Text: prompt, Default: &def})

	c.mu.Lock()
	defer c.mu.Unlock()
	for {
		line, err := c.reader.ReadString('\n')
		text := strings.TrimSpace(line)
		if text == "" && err != nil {
			return def
		}

		var answer bool
		if jerr := json.Unmarshal([]byte(text), &answer); jerr == nil {
			return answer
		}
		var s string
		if jerr := json.Unmarshal([]byte(text), &s); jerr == nil {
			text = s
		}
		if clean, serr := SanitizeAnswer(text); serr == nil {
			if answer, ok := parseAnswer(clean, def); ok {
				return answer
			}
		}
		if err != nil {
			return def
		}
	}
}

func (c *JSONConsole) Push(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.context = append(c.context, name)
}

func (c *JSONConsole) Pop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.context) > 0 {
		c.context = c.context[:len(c.context)-1]
	}
}

func (c *JSONConsole) emit(m Message) {
	c.mu.Lock()
	defer c.mu.Unlock()
	m.Timestamp = c.opts.now().UTC()
	m.Text = StripMarkup(m.Text)
	if len(c.context) > 0 {
		m.Context = append([]string(nil), c.context...)
	}
	// Encoding failures leave nothing to report to.
	_ = c.encoder.Encode(m)
}
