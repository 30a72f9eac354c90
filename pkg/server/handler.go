package server

import (
	"bytes"
	"io"
	"net/http"

	"github.com/weft-dev/weft/pkg/template"
)

// handlePage serves a registered page: fresh cache hits directly,
// everything else through a streamed render. The rendered document is
// persisted only when no fragment failed and the client stayed
// connected.
func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	defer func() {
		if rec := recover(); rec != nil {
			s.logger.Error("panic serving page", "path", r.URL.Path, "panic", rec)
			s.serveStaticError(w)
		}
	}()

	page, ok := s.pages[r.URL.Path]
	if !ok {
		http.NotFound(w, r)
		return
	}

	ctx := r.Context()
	setDocumentHeaders(w)

	lookup, err := s.cache.Get(ctx, page.Path, page.Freshness)
	if err != nil {
		// A broken cache backend degrades to a miss.
		s.logger.Error("cache read failed", "path", page.Path, "error", err)
		lookup.Found = false
	}

	if lookup.Found && !lookup.Stale {
		io.WriteString(w, lookup.Markup)
		return
	}

	scope, err := page.scope(ctx, r)
	if err != nil {
		s.logger.Error("page data failed", "path", page.Path, "error", err)
		if lookup.Found {
			// The invalidated entry kept its markup for exactly this.
			io.WriteString(w, lookup.Markup)
			return
		}
		s.serveErrorPage(w, r)
		return
	}

	if lookup.Found {
		s.regenerateWithFallback(w, r, page, scope, lookup.Markup)
		return
	}
	s.streamToClient(w, r, page, scope)
}

// streamToClient renders a cold page progressively to the response.
func (s *Server) streamToClient(w http.ResponseWriter, r *http.Request, page *Page, scope *template.Scope) {
	result, err := s.streamer.Stream(r.Context(), w, page.Template, scope)
	if result == nil {
		// Shell render failed before anything was written.
		s.logger.Error("shell render failed", "path", page.Path, "error", err)
		s.serveErrorPage(w, r)
		return
	}
	if err != nil {
		s.logger.Warn("stream interrupted", "path", page.Path, "error", err)
	}

	if result.Cacheable() {
		if err := s.cache.Set(r.Context(), page.Path, result.HTML); err != nil {
			s.logger.Error("cache write failed", "path", page.Path, "error", err)
		}
	}
}

// regenerateWithFallback re-renders a page that still has stale
// markup. The render goes to a buffer so a failed regeneration can
// serve the prior document instead of a half-broken one.
func (s *Server) regenerateWithFallback(w http.ResponseWriter, r *http.Request, page *Page, scope *template.Scope, prior string) {
	var buf bytes.Buffer
	result, err := s.streamer.Stream(r.Context(), &buf, page.Template, scope)
	if result == nil || !result.Cacheable() {
		s.logger.Warn("regeneration failed, serving prior markup", "path", page.Path, "error", err)
		io.WriteString(w, prior)
		return
	}

	if err := s.cache.Set(r.Context(), page.Path, result.HTML); err != nil {
		s.logger.Error("cache write failed", "path", page.Path, "error", err)
	}
	io.WriteString(w, result.HTML)
}

// serveErrorPage renders the configured error page through the normal
// pipeline, falling back to a static document when it fails too.
func (s *Server) serveErrorPage(w http.ResponseWriter, r *http.Request) {
	page := s.config.ErrorPage
	if page == nil {
		s.serveStaticError(w)
		return
	}

	scope, err := page.scope(r.Context(), r)
	if err != nil {
		s.logger.Error("error page data failed", "error", err)
		s.serveStaticError(w)
		return
	}

	var buf bytes.Buffer
	result, streamErr := s.streamer.Stream(r.Context(), &buf, page.Template, scope)
	if result == nil || result.Failed {
		s.logger.Error("error page render failed", "error", streamErr)
		s.serveStaticError(w)
		return
	}

	w.WriteHeader(http.StatusInternalServerError)
	io.WriteString(w, result.HTML)
}

// serveStaticError is the last resort when the error page itself
// cannot render.
func (s *Server) serveStaticError(w http.ResponseWriter) {
	w.WriteHeader(http.StatusInternalServerError)
	io.WriteString(w, staticErrorDocument)
}

func setDocumentHeaders(w http.ResponseWriter) {
	h := w.Header()
	h.Set("Content-Type", "text/html; charset=utf-8")
	h.Set("X-Content-Type-Options", "nosniff")
}

const staticErrorDocument = `<!DOCTYPE html>
<html>
<head><title>Something went wrong</title></head>
<body>
<h1>Something went wrong</h1>
<p>The page could not be rendered. Please try again later.</p>
</body>
</html>
`
