package stream

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/weft-dev/weft/pkg/template"
)

// slowLoader resolves to a value after a delay, standing in for a
// data dependency that is not ready when the shell renders.
type slowLoader struct {
	delay time.Duration
	value any
}

func (l *slowLoader) Load() any {
	time.Sleep(l.delay)
	return l.value
}

// panicLoader fails every access.
type panicLoader struct{}

func (panicLoader) Load() any {
	panic("backend unavailable")
}

func mustParse(t *testing.T, src string) *template.Node {
	t.Helper()
	n, err := template.Parse(src)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return n
}

const twoBoundaryDoc = `<html><body>` +
	`<h1>{{title}}</h1>` +
	`<suspense><div class="slow">{{slow}}</div><fallback><p>loading slow</p></fallback></suspense>` +
	`<suspense><div class="fast">{{fast}}</div><fallback><p>loading fast</p></fallback></suspense>` +
	`</body></html>`

func TestStreamShellFirstCloseLast(t *testing.T) {
	scope := template.NewScope(map[string]any{
		"title": "Feed",
		"slow":  &slowLoader{delay: 100 * time.Millisecond, value: "slow data"},
		"fast":  &slowLoader{delay: 10 * time.Millisecond, value: "fast data"},
	})

	var buf bytes.Buffer
	w := &FlushableWriter{Writer: &buf}
	res, err := New(Config{}).Stream(context.Background(), w, mustParse(t, twoBoundaryDoc), scope)
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}
	if res.Failed || res.Aborted {
		t.Fatalf("unexpected result flags: %+v", res)
	}

	out := buf.String()

	shellEnd := strings.Index(out, "loading fast")
	if shellEnd < 0 {
		t.Fatalf("shell missing fast fallback:\n%s", out)
	}
	for _, frag := range []string{"slow data", "fast data"} {
		i := strings.Index(out, frag)
		if i < 0 {
			t.Fatalf("output missing fragment %q:\n%s", frag, out)
		}
		if i < shellEnd {
			t.Errorf("fragment %q streamed before the shell finished", frag)
		}
	}

	// The 10ms boundary settles well before the 100ms one.
	if strings.Index(out, "fast data") > strings.Index(out, "slow data") {
		t.Errorf("fast fragment streamed after slow fragment:\n%s", out)
	}

	closeAt := strings.Index(out, "</body></html>")
	if closeAt < 0 {
		t.Fatalf("closing markup missing:\n%s", out)
	}
	if closeAt < strings.Index(out, "slow data") || closeAt < strings.Index(out, "fast data") {
		t.Errorf("closing markup streamed before all fragments:\n%s", out)
	}

	// Shell, two chunks, close.
	if w.FlushCount < 4 {
		t.Errorf("FlushCount = %d, want at least 4", w.FlushCount)
	}
}

func TestStreamAssemblesFullDocument(t *testing.T) {
	scope := template.NewScope(map[string]any{
		"title": "Feed",
		"slow":  &slowLoader{delay: time.Millisecond, value: "slow data"},
		"fast":  "fast data",
	})

	var buf bytes.Buffer
	res, err := New(Config{}).Stream(context.Background(), &buf, mustParse(t, twoBoundaryDoc), scope)
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}
	if !res.Cacheable() {
		t.Fatalf("expected cacheable result, got %+v", res)
	}

	want := `<html><body>` +
		`<h1>Feed</h1>` +
		`<div class="slow">slow data</div>` +
		`<div class="fast">fast data</div>` +
		`</body></html>`
	if res.HTML != want {
		t.Errorf("assembled HTML = %q, want %q", res.HTML, want)
	}
}

func TestStreamFailedFragment(t *testing.T) {
	scope := template.NewScope(map[string]any{
		"title": "Feed",
		"slow":  panicLoader{},
		"fast":  "fast data",
	})

	var buf bytes.Buffer
	res, err := New(Config{}).Stream(context.Background(), &buf, mustParse(t, twoBoundaryDoc), scope)
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}

	if !res.Failed {
		t.Fatal("expected Failed result")
	}
	if res.Cacheable() {
		t.Fatal("failed result must not be cacheable")
	}
	if res.HTML != "" {
		t.Errorf("failed result should carry no cacheable HTML, got %q", res.HTML)
	}

	out := buf.String()
	if !strings.Contains(out, `class="weft-error"`) {
		t.Errorf("output missing error placeholder:\n%s", out)
	}
	if !strings.Contains(out, "fast data") {
		t.Errorf("healthy fragment missing from output:\n%s", out)
	}
	if !strings.Contains(out, "</body></html>") {
		t.Errorf("closing markup missing after failure:\n%s", out)
	}
}

func TestStreamNoBoundaries(t *testing.T) {
	doc := mustParse(t, `<html><body><p>{{msg}}</p></body></html>`)
	scope := template.NewScope(map[string]any{"msg": "hello"})

	var buf bytes.Buffer
	res, err := New(Config{}).Stream(context.Background(), &buf, doc, scope)
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}

	want := `<html><body><p>hello</p></body></html>`
	if buf.String() != want {
		t.Errorf("output = %q, want %q", buf.String(), want)
	}
	if res.HTML != want {
		t.Errorf("HTML = %q, want %q", res.HTML, want)
	}
	if !res.Cacheable() {
		t.Errorf("plain document should be cacheable: %+v", res)
	}
}

func TestStreamAbortOnCancel(t *testing.T) {
	scope := template.NewScope(map[string]any{
		"title": "Feed",
		"slow":  &slowLoader{delay: 500 * time.Millisecond, value: "slow data"},
		"fast":  &slowLoader{delay: 400 * time.Millisecond, value: "fast data"},
	})

	ctx, cancel := context.WithCancel(context.Background())

	var buf bytes.Buffer
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	res, err := New(Config{}).Stream(ctx, &buf, mustParse(t, twoBoundaryDoc), scope)
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}

	if !res.Aborted {
		t.Fatal("expected Aborted result after cancellation")
	}
	if res.Cacheable() {
		t.Fatal("aborted result must not be cacheable")
	}
	if res.HTML != "" {
		t.Errorf("aborted result should carry no HTML, got %q", res.HTML)
	}

	out := buf.String()
	if strings.Contains(out, "slow data") || strings.Contains(out, "fast data") {
		t.Errorf("fragment output written after abort:\n%s", out)
	}
	if !strings.Contains(out, "loading slow") {
		t.Errorf("shell was not written before abort:\n%s", out)
	}
}

func TestStreamFallbackInsideHolder(t *testing.T) {
	scope := template.NewScope(map[string]any{
		"title": "Feed",
		"slow":  "x",
		"fast":  "y",
	})

	var buf bytes.Buffer
	_, err := New(Config{}).Stream(context.Background(), &buf, mustParse(t, twoBoundaryDoc), scope)
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, `<template data-weft-boundary="w-b1"><p>loading slow</p></template>`) {
		t.Errorf("first holder malformed:\n%s", out)
	}
	if !strings.Contains(out, `<template data-weft-fragment="w-b1">`) {
		t.Errorf("first fragment chunk missing:\n%s", out)
	}
	if !strings.Contains(out, `weft.swap("w-b1")`) {
		t.Errorf("activation instruction missing:\n%s", out)
	}
}
