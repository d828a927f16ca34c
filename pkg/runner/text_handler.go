package runner

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/term"

	"github.com/aretw0/fitcoach/pkg/domain"
	"github.com/aretw0/fitcoach/pkg/schema"
)

// TextHandler implements the standard text-based interface.
// Choices are listed with numbers; typing the number picks the choice for
// the prompt it was listed on.
type TextHandler struct {
	Reader      *bufio.Reader
	Writer      io.Writer
	Renderer    ContentRenderer
	InputLimit  int
	interactive bool

	mu       sync.Mutex
	choices  []string
	choiceAt domain.State

	inputChan chan inputResult
	startOnce sync.Once
}

type inputResult struct {
	text string
	err  error
}

// TextHandlerOption defines configuration for TextHandler.
type TextHandlerOption func(*TextHandler)

// WithTextHandlerRenderer configures the content renderer.
func WithTextHandlerRenderer(renderer ContentRenderer) TextHandlerOption {
	return func(h *TextHandler) {
		h.Renderer = renderer
	}
}

// WithTextHandlerInputLimit sets the maximum accepted line size.
func WithTextHandlerInputLimit(n int) TextHandlerOption {
	return func(h *TextHandler) {
		h.InputLimit = n
	}
}

// NewTextHandler creates a handler for standard text IO.
func NewTextHandler(r io.Reader, w io.Writer, opts ...TextHandlerOption) *TextHandler {
	if r == nil {
		r = os.Stdin
	}
	if w == nil {
		w = os.Stdout
	}
	h := &TextHandler{
		Reader:      bufio.NewReader(r),
		Writer:      w,
		interactive: IsTerminal(r),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// IsTerminal reports whether v is an interactive terminal.
func IsTerminal(v any) bool {
	f, ok := v.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func (h *TextHandler) initPump() {
	h.startOnce.Do(func() {
		h.inputChan = make(chan inputResult)
		go h.pump()
	})
}

func (h *TextHandler) pump() {
	for {
		text, err := h.Reader.ReadString('\n')

		// If we got text (even with EOF), send it
		if text != "" {
			h.inputChan <- inputResult{text: text}
		}
		if err != nil {
			if err != io.EOF {
				h.inputChan <- inputResult{err: err}
			}
			close(h.inputChan)
			return
		}
	}
}

// Output prints a message, rendering markdown when a renderer is set.
func (h *TextHandler) Output(ctx context.Context, msg Message) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	text := msg.Text
	if msg.Markdown && h.Renderer != nil {
		if rendered, err := h.Renderer(text); err == nil {
			text = rendered
		}
	}
	if _, err := fmt.Fprintln(h.Writer, strings.TrimRight(text, "\n")); err != nil {
		return err
	}

	if ins := msg.Instruction; ins != nil && ins.Kind == domain.InstructPrompt {
		h.choices = ins.Options
		h.choiceAt = ins.State
		for i, opt := range ins.Options {
			fmt.Fprintf(h.Writer, "  [%d] %s\n", i+1, opt)
		}
	}
	return nil
}

// Input reads one line. A number matching a listed choice is returned as
// that choice, addressed to the prompt that listed it.
func (h *TextHandler) Input(ctx context.Context) (Reply, error) {
	h.initPump()

	for {
		if h.interactive {
			fmt.Fprint(h.Writer, "> ")
		}

		select {
		case <-ctx.Done():
			return Reply{}, ctx.Err()
		case res, ok := <-h.inputChan:
			if !ok {
				return Reply{}, io.EOF
			}
			if res.err != nil {
				return Reply{}, res.err
			}

			clean, err := schema.TruncateInput(strings.TrimSpace(res.text), h.InputLimit)
			if err != nil {
				fmt.Fprintf(h.Writer, "Error: %v. Please try again.\n", err)
				continue
			}
			if clean == "" {
				continue
			}
			return h.resolveChoice(clean), nil
		}
	}
}

func (h *TextHandler) resolveChoice(text string) Reply {
	h.mu.Lock()
	defer h.mu.Unlock()

	n, err := strconv.Atoi(text)
	if err != nil || n < 1 || n > len(h.choices) {
		return Reply{Value: text}
	}
	return Reply{Value: h.choices[n-1], State: h.choiceAt}
}
