package runner

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"os"
	"strings"

	"github.com/aretw0/parley/pkg/dialogue"
)

// JSONHandler implements the IOHandler interface for structured JSON-Lines communication.
// Each view is written as one JSON object; input lines may be a bare number,
// a JSON number or a JSON string.
type JSONHandler struct {
	Reader    *bufio.Reader
	Writer    io.Writer
	Encoder   *json.Encoder
	Sanitizer Sanitizer
}

// NewJSONHandler creates a handler for JSON IO. maxInputSize bounds each
// input line; zero means DefaultMaxInputSize.
func NewJSONHandler(r io.Reader, w io.Writer, maxInputSize int) *JSONHandler {
	if r == nil {
		r = os.Stdin
	}
	if w == nil {
		w = os.Stdout
	}
	return &JSONHandler{
		Reader:    bufio.NewReader(r),
		Writer:    w,
		Encoder:   json.NewEncoder(w),
		Sanitizer: NewSanitizer(maxInputSize),
	}
}

func (h *JSONHandler) Output(ctx context.Context, v dialogue.View) error {
	return h.Encoder.Encode(v)
}

func (h *JSONHandler) Input(ctx context.Context) (string, error) {
	text, err := h.Reader.ReadString('\n')
	if err != nil && (err != io.EOF || text == "") {
		return "", err
	}
	text = strings.TrimSpace(text)

	var val string
	if err := json.Unmarshal([]byte(text), &val); err == nil {
		text = val
	}
	return h.Sanitizer.Clean(text)
}

func (h *JSONHandler) SystemOutput(ctx context.Context, msg string) error {
	return h.Encoder.Encode(map[string]string{"system": msg})
}
