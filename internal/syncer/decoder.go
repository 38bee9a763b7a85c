package syncer

import (
	"encoding/json"
	"io"
	"strings"

	"sheetsync/internal/model"
)

// ScanEvents incrementally decodes a newline-delimited JSON event stream.
// Only complete, newline-terminated lines are parsed; a partial trailing
// line is buffered across reads and, if the stream ends mid-line, dropped
// as incomplete. A complete line that fails to parse is a different
// condition, malformed, and goes to onMalformed instead of killing the
// stream.
//
// onEvent is called once per decoded event, in stream order. The returned
// error is only a transport read error.
func ScanEvents(r io.Reader, onEvent func(model.SyncEvent), onMalformed func(line string, err error)) error {
	var tail string
	buf := make([]byte, 4096)

	handleLine := func(line string) {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			return
		}
		var ev model.SyncEvent
		if err := json.Unmarshal([]byte(line), &ev); err != nil {
			if onMalformed != nil {
				onMalformed(line, err)
			}
			return
		}
		onEvent(ev)
	}

	for {
		n, err := r.Read(buf)
		if n > 0 {
			chunk := tail + string(buf[:n])
			lines := strings.Split(chunk, "\n")
			tail = lines[len(lines)-1]
			for _, line := range lines[:len(lines)-1] {
				handleLine(line)
			}
		}
		if err == io.EOF {
			// Whatever is left was never newline-terminated: an
			// incomplete buffered fragment, silently dropped.
			return nil
		}
		if err != nil {
			return err
		}
	}
}
