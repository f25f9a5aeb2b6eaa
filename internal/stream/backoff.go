package stream

import "time"

const (
	backoffFloor = time.Second
	backoffCap   = 15 * time.Second
)

// backoff produces the reconnect delay sequence 1s, 2s, 4s, 8s, 15s, 15s, …
// Reset returns it to the floor; the client resets on every successful
// connection, not on successful frame processing.
type backoff struct {
	next time.Duration
}

func (b *backoff) Next() time.Duration {
	if b.next == 0 {
		b.next = backoffFloor
	}
	d := b.next
	b.next *= 2
	if b.next > backoffCap {
		b.next = backoffCap
	}
	return d
}

func (b *backoff) Reset() {
	b.next = 0
}
