package stream

import (
	"reflect"
	"testing"
)

const sampleStream = "event: message\n" +
	"data: {\"from_agent_id\":\"bob\",\"content\":\"hi\",\"cursor\":\"c1\"}\n" +
	"\n" +
	"event: ping\n" +
	"data: {\"cursor\":\"c2\"}\n" +
	"\n" +
	"data: first line\n" +
	"data: second line\n" +
	"\n"

var sampleFrames = []Frame{
	{Event: "message", Data: `{"from_agent_id":"bob","content":"hi","cursor":"c1"}`},
	{Event: "ping", Data: `{"cursor":"c2"}`},
	{Event: "message", Data: "first line\nsecond line"},
}

func decodeInChunks(input string, size int) []Frame {
	d := &Decoder{}
	var frames []Frame
	for i := 0; i < len(input); i += size {
		end := min(i+size, len(input))
		frames = append(frames, d.Feed(input[i:end])...)
	}
	return frames
}

func TestFeed_WholeInput(t *testing.T) {
	d := &Decoder{}
	frames := d.Feed(sampleStream)
	if !reflect.DeepEqual(frames, sampleFrames) {
		t.Errorf("frames = %+v, want %+v", frames, sampleFrames)
	}
}

func TestFeed_AnyChunking(t *testing.T) {
	// Every chunk size, including byte-by-byte, must yield the same frame
	// sequence as decoding the input whole.
	for size := 1; size <= len(sampleStream); size++ {
		frames := decodeInChunks(sampleStream, size)
		if !reflect.DeepEqual(frames, sampleFrames) {
			t.Fatalf("chunk size %d: frames = %+v, want %+v", size, frames, sampleFrames)
		}
	}
}

func TestFeed_AnySplitPoint(t *testing.T) {
	// Every two-part split, covering mid-line and mid-delimiter boundaries.
	for i := 0; i <= len(sampleStream); i++ {
		d := &Decoder{}
		frames := d.Feed(sampleStream[:i])
		frames = append(frames, d.Feed(sampleStream[i:])...)
		if !reflect.DeepEqual(frames, sampleFrames) {
			t.Fatalf("split at %d: frames = %+v, want %+v", i, frames, sampleFrames)
		}
	}
}

func TestFeed_DefaultEventName(t *testing.T) {
	d := &Decoder{}
	frames := d.Feed("data: hello\n\n")
	if len(frames) != 1 {
		t.Fatalf("frames = %d, want 1", len(frames))
	}
	if frames[0].Event != "message" {
		t.Errorf("event = %q, want %q", frames[0].Event, "message")
	}
	if frames[0].Data != "hello" {
		t.Errorf("data = %q, want %q", frames[0].Data, "hello")
	}
}

func TestFeed_EmptyDataYieldsNoFrame(t *testing.T) {
	cases := map[string]string{
		"blank block":          "\n\n",
		"event only":           "event: ping\n\n",
		"blank data line only": "data:\n\n",
		"unknown lines only":   ": keep-alive\nretry: 3000\n\n",
	}

	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			d := &Decoder{}
			if frames := d.Feed(input); len(frames) != 0 {
				t.Errorf("frames = %+v, want none", frames)
			}
		})
	}
}

func TestFeed_AtMostOneLeadingSpaceStripped(t *testing.T) {
	d := &Decoder{}
	frames := d.Feed("data:  two spaces\n\n")
	if len(frames) != 1 {
		t.Fatalf("frames = %d, want 1", len(frames))
	}
	if frames[0].Data != " two spaces" {
		t.Errorf("data = %q, want %q", frames[0].Data, " two spaces")
	}
}

func TestFeed_MultilineDataJoined(t *testing.T) {
	d := &Decoder{}
	frames := d.Feed("data: a\ndata: b\ndata: c\n\n")
	if len(frames) != 1 {
		t.Fatalf("frames = %d, want 1", len(frames))
	}
	if frames[0].Data != "a\nb\nc" {
		t.Errorf("data = %q, want %q", frames[0].Data, "a\nb\nc")
	}
}

func TestFeed_EventNameTrimmed(t *testing.T) {
	d := &Decoder{}
	frames := d.Feed("event:   ping  \ndata: x\n\n")
	if len(frames) != 1 {
		t.Fatalf("frames = %d, want 1", len(frames))
	}
	if frames[0].Event != "ping" {
		t.Errorf("event = %q, want %q", frames[0].Event, "ping")
	}
}

func TestFeed_IncompleteBlockIsBuffered(t *testing.T) {
	d := &Decoder{}

	if frames := d.Feed("event: message\ndata: partial"); len(frames) != 0 {
		t.Fatalf("premature frames: %+v", frames)
	}

	frames := d.Feed(" rest\n\n")
	if len(frames) != 1 {
		t.Fatalf("frames = %d, want 1", len(frames))
	}
	if frames[0].Data != "partial rest" {
		t.Errorf("data = %q, want %q", frames[0].Data, "partial rest")
	}
}
