package host

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"

	"go.uber.org/zap"
)

// maxLine bounds one JSON-lines envelope; describe payloads can be large.
const maxLine = 16 << 20

// LineSink writes each inbound message to w as one line of JSON.
func LineSink(w io.Writer, logger *zap.Logger) Sink {
	if logger == nil {
		logger = zap.NewNop()
	}

	var mu sync.Mutex

	enc := json.NewEncoder(w)

	return func(m Message) {
		mu.Lock()
		defer mu.Unlock()

		if err := enc.Encode(m); err != nil {
			logger.Error("Writing message failed", zap.String("command", string(m.Command)), zap.Error(err))
		}
	}
}

// Serve reads one outbound envelope per line from r until EOF or ctx is
// done. Malformed lines are answered with an error event.
func (h *Host) Serve(ctx context.Context, r io.Reader) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64<<10), maxLine)

	for sc.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}

		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}

		m, err := Decode(line)
		if err == nil {
			err = h.Handle(ctx, m)
		}

		if err != nil {
			h.emitErr(err)
		}
	}

	if err := sc.Err(); err != nil && !errors.Is(err, io.EOF) {
		return err
	}

	return nil
}
