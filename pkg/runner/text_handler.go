package runner

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/aretw0/parley/pkg/dialogue"
)

// TextHandler implements the standard text-based interface.
type TextHandler struct {
	Reader   *bufio.Reader
	Writer   io.Writer
	Renderer ContentRenderer

	// SpeakerFormat decorates speaker names, e.g. with terminal colours.
	SpeakerFormat func(string) string

	// Prompt is printed before each read. Empty disables it.
	Prompt string

	Sanitizer Sanitizer

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

// WithSpeakerFormat configures how speaker names are printed.
func WithSpeakerFormat(format func(string) string) TextHandlerOption {
	return func(h *TextHandler) {
		h.SpeakerFormat = format
	}
}

// WithPrompt overrides the input prompt.
func WithPrompt(p string) TextHandlerOption {
	return func(h *TextHandler) {
		h.Prompt = p
	}
}

// WithMaxInputSize rejects input lines longer than n bytes.
func WithMaxInputSize(n int) TextHandlerOption {
	return func(h *TextHandler) {
		h.Sanitizer = NewSanitizer(n)
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
		Reader: bufio.NewReader(r),
		Writer: w,
		Prompt: "> ",
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// initPump starts the background reader so Input can honour ctx while a
// read is blocked.
func (h *TextHandler) initPump() {
	h.startOnce.Do(func() {
		h.inputChan = make(chan inputResult)
		go h.pump()
	})
}

func (h *TextHandler) pump() {
	defer close(h.inputChan)
	for {
		text, err := h.Reader.ReadString('\n')
		if text != "" {
			h.inputChan <- inputResult{text: text}
		}
		if err != nil {
			if err != io.EOF {
				h.inputChan <- inputResult{err: err}
			}
			return
		}
	}
}

// Output prints "Speaker: text" followed by the numbered options.
func (h *TextHandler) Output(ctx context.Context, v dialogue.View) error {
	if v.Ended {
		return nil
	}
	body := v.Text
	if h.Renderer != nil {
		if rendered, err := h.Renderer(v.Text); err == nil {
			body = strings.TrimSpace(rendered)
		}
	}
	line := body
	if v.Speaker != "" {
		name := v.Speaker
		if h.SpeakerFormat != nil {
			name = h.SpeakerFormat(name)
		}
		line = name + ": " + body
	}
	if _, err := fmt.Fprintln(h.Writer, strings.TrimSpace(line)); err != nil {
		return err
	}
	for _, c := range v.Choices {
		mark := ""
		if c.Taken {
			mark = " (taken)"
		}
		if _, err := fmt.Fprintf(h.Writer, "  %d) %s%s\n", c.Index+1, c.Text, mark); err != nil {
			return err
		}
	}
	return nil
}

func (h *TextHandler) Input(ctx context.Context) (string, error) {
	h.initPump()

	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		default:
			if h.Prompt != "" {
				fmt.Fprint(h.Writer, h.Prompt)
			}
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case res, ok := <-h.inputChan:
			if !ok {
				return "", io.EOF
			}
			if res.err != nil {
				return "", res.err
			}
			clean, err := h.Sanitizer.Clean(strings.TrimSpace(res.text))
			if err != nil {
				fmt.Fprintf(h.Writer, "Error: %v. Please try again.\n", err)
				continue
			}
			return clean, nil
		}
	}
}

func (h *TextHandler) SystemOutput(ctx context.Context, msg string) error {
	_, err := fmt.Fprintf(h.Writer, "[%s]\n", msg)
	return err
}
