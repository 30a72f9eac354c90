package server

import (
	"context"
	"net/http"

	"github.com/weft-dev/weft/pkg/cache"
	"github.com/weft-dev/weft/pkg/template"
)

// DataFunc builds the scope a page renders against. It runs once per
// render, before the shell is written, so an error here can still fall
// back to a cached document or the error page.
type DataFunc func(ctx context.Context, r *http.Request) (*template.Scope, error)

// Page binds a URL path to a parsed template and its data loader.
type Page struct {
	// Path is the exact request path the page serves (e.g. "/feed").
	Path string

	// Template is the parsed document.
	Template *template.Node

	// Data builds the render scope. nil renders against an empty
	// scope.
	Data DataFunc

	// Freshness is the cache window for this page. The zero value is
	// cache.Always; use cache.Never or a duration for cacheable pages.
	Freshness cache.Freshness
}

// scope resolves the page's render scope.
func (p *Page) scope(ctx context.Context, r *http.Request) (*template.Scope, error) {
	if p.Data == nil {
		return template.NewScope(nil), nil
	}
	return p.Data(ctx, r)
}
