package stream

import "strings"

// DefaultEvent is the frame event name used when a block carries no event line.
const DefaultEvent = "message"

// Frame is one decoded unit from the relay stream: an event name and the
// joined data payload.
type Frame struct {
	Event string
	Data  string
}

// Decoder incrementally parses the relay's "event:"/"data:" block format.
// Blocks are delimited by a blank line; a trailing partial block is buffered
// across Feed calls, so input may be fragmented at arbitrary byte boundaries.
//
// One Decoder serves one connection attempt; state does not survive reconnects.
type Decoder struct {
	buf string
}

// Feed appends chunk to the internal buffer and returns all frames whose
// terminating blank line has now been seen, in stream order.
func (d *Decoder) Feed(chunk string) []Frame {
	d.buf += chunk

	parts := strings.Split(d.buf, "\n\n")
	d.buf = parts[len(parts)-1]

	var frames []Frame
	for _, block := range parts[:len(parts)-1] {
		if f, ok := parseBlock(block); ok {
			frames = append(frames, f)
		}
	}
	return frames
}

// parseBlock decodes one complete block. It returns ok=false for blocks with
// no data lines (keep-alive padding between delimiters).
func parseBlock(block string) (Frame, bool) {
	f := Frame{Event: DefaultEvent}
	var data []string

	for _, line := range strings.Split(block, "\n") {
		switch {
		case strings.HasPrefix(line, "event:"):
			f.Event = strings.TrimSpace(line[len("event:"):])
		case strings.HasPrefix(line, "data:"):
			// The protocol allows one optional space after the colon.
			data = append(data, strings.TrimPrefix(line[len("data:"):], " "))
		}
		// Other lines (comments, unknown fields) are ignored.
	}

	f.Data = strings.Join(data, "\n")
	if f.Data == "" {
		return Frame{}, false
	}
	return f, true
}
