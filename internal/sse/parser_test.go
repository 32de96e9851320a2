package sse

import (
	"fmt"
	"strings"
	"testing"
)

func contentFrame(delta string) string {
	return fmt.Sprintf("data: {\"choices\":[{\"delta\":{\"content\":%q}}]}\n\n", delta)
}

func collect(p *Parser, chunks ...string) string {
	var b strings.Builder
	for _, c := range chunks {
		for _, f := range p.Feed([]byte(c)) {
			b.WriteString(Delta(f))
		}
	}
	return b.String()
}

func TestFeedWholeStream(t *testing.T) {
	stream := contentFrame("I hear ") + contentFrame("you. ") + contentFrame("Tell me more.") + "data: [DONE]\n\n"

	var p Parser
	got := collect(&p, stream)
	if got != "I hear you. Tell me more." {
		t.Fatalf("unexpected content: %q", got)
	}
	if !p.Done() {
		t.Fatalf("expected parser to be done")
	}
}

func TestSplitReadsMatchSingleRead(t *testing.T) {
	stream := contentFrame("I hear ") + contentFrame("you. ") + contentFrame("Tell me more.") + "data: [DONE]\n\n"

	var whole Parser
	want := collect(&whole, stream)

	// byte-at-a-time is the worst possible split
	var p Parser
	var b strings.Builder
	for i := 0; i < len(stream); i++ {
		for _, f := range p.Feed([]byte{stream[i]}) {
			b.WriteString(Delta(f))
		}
	}
	if b.String() != want {
		t.Fatalf("split reads produced %q, single read produced %q", b.String(), want)
	}
	if !p.Done() {
		t.Fatalf("expected parser to be done after split reads")
	}
}

func TestFrameSplitMidJSON(t *testing.T) {
	frame := contentFrame("Hello world")
	// cut inside the JSON payload
	cut := len(frame) / 2

	var p Parser
	if got := collect(&p, frame[:cut]); got != "" {
		t.Fatalf("expected no content from partial frame, got %q", got)
	}
	if got := collect(&p, frame[cut:]); got != "Hello world" {
		t.Fatalf("expected merged content after second read, got %q", got)
	}
}

func TestDoneSentinelStopsParsing(t *testing.T) {
	var p Parser
	got := collect(&p, "data: [DONE]\n\n"+contentFrame("ignored"))
	if got != "" {
		t.Fatalf("expected no content after sentinel, got %q", got)
	}
	if !p.Done() {
		t.Fatalf("expected done")
	}
	if frames := p.Feed([]byte(contentFrame("late"))); frames != nil {
		t.Fatalf("expected nil frames after done, got %v", frames)
	}
}

func TestNonDataLinesIgnored(t *testing.T) {
	stream := ": keep-alive comment\n" +
		"event: chunk\n" +
		contentFrame("ok") +
		"retry: 3000\n" +
		"data: [DONE]\n"

	var p Parser
	if got := collect(&p, stream); got != "ok" {
		t.Fatalf("unexpected content: %q", got)
	}
}

func TestTerminatedMalformedDataLineDropped(t *testing.T) {
	stream := "data: {not json at all\n" + contentFrame("fine")

	var p Parser
	if got := collect(&p, stream); got != "fine" {
		t.Fatalf("expected malformed line to be dropped silently, got %q", got)
	}
}

func TestDeltaWithoutContent(t *testing.T) {
	var p Parser
	frames := p.Feed([]byte("data: {\"choices\":[]}\n"))
	if len(frames) != 1 {
		t.Fatalf("expected 1 frame, got %d", len(frames))
	}
	if d := Delta(frames[0]); d != "" {
		t.Fatalf("expected empty delta, got %q", d)
	}
}
