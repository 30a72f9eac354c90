package stream

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/weft-dev/weft/pkg/render"
	"github.com/weft-dev/weft/pkg/template"
)

// DefaultConcurrency bounds simultaneous fragment renders per request.
const DefaultConcurrency = 4

// Config configures a Streamer.
type Config struct {
	// Concurrency is the maximum number of fragments rendering at
	// once. Zero means DefaultConcurrency.
	Concurrency int
}

// Result describes one completed (or abandoned) streaming render.
type Result struct {
	// HTML is the fully assembled document with real fragment content
	// in place of the holders. Empty when the stream was aborted.
	HTML string

	// Failed is set when any fragment render failed. The response must
	// not be cached.
	Failed bool

	// Aborted is set when the connection dropped before close. The
	// response must not be cached.
	Aborted bool
}

// Cacheable reports whether the rendered document may be persisted.
func (r *Result) Cacheable() bool {
	return !r.Failed && !r.Aborted
}

// Streamer renders documents progressively. Safe for concurrent use;
// all per-request state lives in the Stream call.
type Streamer struct {
	config Config
}

// New creates a Streamer.
func New(config Config) *Streamer {
	if config.Concurrency <= 0 {
		config.Concurrency = DefaultConcurrency
	}
	return &Streamer{config: config}
}

// fragment is one collected suspense boundary.
type fragment struct {
	id     string
	node   *template.Node
	holder string // exact holder markup written into the shell
}

// completion is the outcome of one fragment render.
type completion struct {
	frag   *fragment
	markup string
	failed bool
}

// Stream renders doc against scope, writing the shell first, fragment
// replacement chunks as they complete, and the closing markup last.
// If w implements http.Flusher, output is flushed after every chunk.
//
// ctx cancellation (client disconnect) stops the stream: output of
// still-running fragments is discarded and the result is marked
// aborted. A fragment failure substitutes an inline error placeholder
// and marks the result failed; other fragments are unaffected.
func (s *Streamer) Stream(ctx context.Context, w io.Writer, doc *template.Node, scope *template.Scope) (*Result, error) {
	flusher, _ := w.(http.Flusher)
	flush := func() {
		if flusher != nil {
			flusher.Flush()
		}
	}

	// Collect + Shell: one walk. Suspense nodes render their fallback
	// into an inert holder and queue their content for deferred render.
	var frags []*fragment
	fallbackRenderer := render.New(render.Config{})

	shellRenderer := render.New(render.Config{
		OnSuspense: func(sw io.Writer, n *template.Node, sc *template.Scope) error {
			id := fmt.Sprintf("w-b%d", len(frags)+1)

			var fb bytes.Buffer
			for _, c := range n.Fallback {
				if err := fallbackRenderer.RenderToWriter(&fb, c, sc); err != nil {
					return err
				}
			}

			holder := fmt.Sprintf(`<template data-weft-boundary=%q>%s</template>`, id, fb.String())
			frags = append(frags, &fragment{
				id:     id,
				node:   n,
				holder: holder,
			})
			_, err := io.WriteString(sw, holder)
			return err
		},
	})

	var shell bytes.Buffer
	if err := shellRenderer.RenderToWriter(&shell, doc, scope); err != nil {
		return nil, err
	}

	// The closing tags are held back until every fragment settled.
	shellHTML, closing := splitClosing(shell.String())

	if _, err := io.WriteString(w, shellHTML); err != nil {
		return &Result{Aborted: true}, err
	}
	flush()

	result := &Result{}

	if len(frags) > 0 {
		// Buffered so late completions never block after an abort.
		done := make(chan completion, len(frags))

		var g errgroup.Group
		g.SetLimit(s.config.Concurrency)
		for _, f := range frags {
			f := f
			g.Go(func() error {
				done <- renderFragment(f, scope)
				return nil
			})
		}

		replacements := make(map[string]string, len(frags))

	recv:
		for range frags {
			select {
			case <-ctx.Done():
				result.Aborted = true
				break recv
			case c := <-done:
				if c.failed {
					result.Failed = true
				}
				replacements[c.frag.id] = c.markup
				if _, err := io.WriteString(w, chunkFor(c.frag.id, c.markup)); err != nil {
					result.Aborted = true
					break recv
				}
				flush()
			}
		}

		if result.Aborted {
			// In-flight fragments may still finish; their output is
			// discarded with the channel.
			go func() { _ = g.Wait() }()
			return result, nil
		}
		_ = g.Wait()

		result.HTML = assemble(shellHTML+closing, frags, replacements)
	} else {
		result.HTML = shellHTML + closing
	}

	if closing != "" {
		if _, err := io.WriteString(w, closing); err != nil {
			result.Aborted = true
			result.HTML = ""
			return result, err
		}
	}
	flush()

	if result.Failed {
		result.HTML = ""
	}
	return result, nil
}

// renderFragment renders one deferred region, converting a panic or
// render error into an inline error placeholder.
func renderFragment(f *fragment, scope *template.Scope) (c completion) {
	c.frag = f

	defer func() {
		if r := recover(); r != nil {
			c.failed = true
			c.markup = errorPlaceholder(f.id)
		}
	}()

	var buf bytes.Buffer
	r := render.New(render.Config{})
	for _, child := range f.node.Content {
		if err := r.RenderToWriter(&buf, child, scope); err != nil {
			c.failed = true
			c.markup = errorPlaceholder(f.id)
			return c
		}
	}
	c.markup = buf.String()
	return c
}

// chunkFor builds one replacement chunk: the inert content holder plus
// the activation instruction pairing it with its boundary.
func chunkFor(id, markup string) string {
	return fmt.Sprintf(`<template data-weft-fragment=%q>%s</template><script>weft.swap(%q)</script>`,
		id, markup, id)
}

// errorPlaceholder is the visible substitute for a failed fragment.
func errorPlaceholder(id string) string {
	return fmt.Sprintf(`<span class="weft-error" data-weft-failed=%q>render failed</span>`, id)
}

// splitClosing splits rendered markup into everything before the
// closing body/html tags and the closing tags themselves, so fragment
// chunks can be appended inside the document.
func splitClosing(html string) (shell, closing string) {
	if i := strings.LastIndex(html, "</body>"); i >= 0 {
		return html[:i], html[i:]
	}
	return html, ""
}

// assemble substitutes each fragment's final markup for its holder in
// the shell, producing the complete document for caching.
func assemble(doc string, frags []*fragment, replacements map[string]string) string {
	for _, f := range frags {
		if markup, ok := replacements[f.id]; ok {
			doc = strings.Replace(doc, f.holder, markup, 1)
		}
	}
	return doc
}

// FlushableWriter wraps an io.Writer with flush counting. It exists so
// streaming behavior can be tested without an http.ResponseWriter.
type FlushableWriter struct {
	io.Writer
	FlushCount int
}

// Flush implements http.Flusher.
func (w *FlushableWriter) Flush() {
	w.FlushCount++
}
