// Package sse parses server-sent-event streams incrementally.
//
// The parser is a small state machine fed arbitrary byte chunks: it buffers
// until a full line is available, extracts `data:` frames, and retains any
// trailing partial line for the next feed. Feeding a stream in one chunk or
// split at arbitrary byte boundaries yields identical frames.
package sse

import (
	"bytes"
	"encoding/json"
	"strings"
)

// doneSentinel terminates a stream without error.
const doneSentinel = "[DONE]"

// Frame is one decoded data frame of the stream.
type Frame struct {
	// Data is the raw JSON payload following the `data:` marker.
	Data string
}

// Parser accumulates stream bytes and yields complete data frames.
// The zero value is ready to use.
type Parser struct {
	buf  []byte
	done bool
}

// Done reports whether the termination sentinel has been seen. After that,
// further input is ignored.
func (p *Parser) Done() bool { return p.done }

// Feed appends chunk to the internal buffer and returns all data frames
// completed by it.
//
// A trailing line without a newline stays buffered, so a frame split across
// two reads (even mid-JSON) is assembled once the rest arrives. A terminated
// data line whose payload is not valid JSON is dropped silently: it can never
// be completed by later reads, and a cosmetic glitch must not disrupt the
// conversation.
func (p *Parser) Feed(chunk []byte) []Frame {
	if p.done {
		return nil
	}
	p.buf = append(p.buf, chunk...)

	var frames []Frame
	for {
		i := bytes.IndexByte(p.buf, '\n')
		if i < 0 {
			return frames
		}
		line := strings.TrimRight(string(p.buf[:i]), "\r")
		p.buf = p.buf[i+1:]

		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, ":") {
			continue
		}
		if !strings.HasPrefix(line, "data:") {
			// event:/id:/retry: fields carry no content for us
			continue
		}
		payload := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if payload == doneSentinel {
			p.done = true
			p.buf = nil
			return frames
		}
		if !json.Valid([]byte(payload)) {
			continue
		}
		frames = append(frames, Frame{Data: payload})
	}
}

// completionChunk is the slice of an OpenAI-style streamed completion
// payload we care about.
type completionChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
}

// Delta extracts the incremental content fragment from a frame payload.
// Payloads without a content delta yield "".
func Delta(f Frame) string {
	var decoded completionChunk
	if err := json.Unmarshal([]byte(f.Data), &decoded); err != nil {
		return ""
	}
	if len(decoded.Choices) == 0 {
		return ""
	}
	return decoded.Choices[0].Delta.Content
}
