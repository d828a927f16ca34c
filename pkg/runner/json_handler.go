package runner

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"os"
	"strings"
	"sync"
)

// JSONHandler implements the IOHandler interface for JSON-Lines communication.
// Each output is one JSON object; each input line is either a Reply object,
// a JSON string or plain text.
type JSONHandler struct {
	Reader  *bufio.Reader
	Encoder *json.Encoder

	mu sync.Mutex
}

// NewJSONHandler creates a handler for JSON IO.
func NewJSONHandler(r io.Reader, w io.Writer) *JSONHandler {
	if r == nil {
		r = os.Stdin
	}
	if w == nil {
		w = os.Stdout
	}
	return &JSONHandler{
		Reader:  bufio.NewReader(r),
		Encoder: json.NewEncoder(w),
	}
}

// Output emits the message as a single JSON line.
func (h *JSONHandler) Output(ctx context.Context, msg Message) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.Encoder.Encode(msg)
}

// Input reads one line.
func (h *JSONHandler) Input(ctx context.Context) (Reply, error) {
	for {
		if err := ctx.Err(); err != nil {
			return Reply{}, err
		}
		text, err := h.Reader.ReadString('\n')
		text = strings.TrimSpace(text)
		if text == "" {
			if err != nil {
				return Reply{}, err
			}
			continue
		}

		var reply Reply
		if strings.HasPrefix(text, "{") {
			if jErr := json.Unmarshal([]byte(text), &reply); jErr == nil {
				return reply, nil
			}
		}
		var val string
		if jErr := json.Unmarshal([]byte(text), &val); jErr == nil {
			return Reply{Value: val}, nil
		}
		// Fallback: plain text
		return Reply{Value: text}, nil
	}
}
