package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/weft-dev/weft/pkg/cache"
)

func TestRouteFor(t *testing.T) {
	cases := []struct {
		path string
		want string
	}{
		{"pages/index.html", "/"},
		{"pages/feed.html", "/feed"},
		{"pages/blog/post.html", "/blog/post"},
		{"pages/blog/index.html", "/blog"},
	}
	for _, c := range cases {
		if got := routeFor("pages", filepath.FromSlash(c.path)); got != c.want {
			t.Errorf("routeFor(%q) = %q, want %q", c.path, got, c.want)
		}
	}
}

func TestLoadPages(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) {
		path := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	write("index.html", `<html><body><h1>{{title}}</h1></body></html>`)
	write("index.json", `{"title": "Home"}`)
	write("about.html", `<html><body><p>about</p></body></html>`)
	write("notes.txt", "ignored")

	pages, err := loadPages(dir, cache.Never)
	if err != nil {
		t.Fatalf("loadPages: %v", err)
	}
	if len(pages) != 2 {
		t.Fatalf("expected 2 pages, got %d", len(pages))
	}

	byPath := map[string]bool{}
	for _, p := range pages {
		byPath[p.Path] = p.Data != nil
		if p.Freshness != cache.Never {
			t.Errorf("page %s freshness = %v, want Never", p.Path, p.Freshness)
		}
	}
	if hasData, ok := byPath["/"]; !ok || !hasData {
		t.Errorf("expected / with data, got %v", byPath)
	}
	if hasData, ok := byPath["/about"]; !ok || hasData {
		t.Errorf("expected /about without data, got %v", byPath)
	}
}

func TestLoadPagesMissingDir(t *testing.T) {
	pages, err := loadPages(filepath.Join(t.TempDir(), "absent"), cache.Always)
	if err != nil {
		t.Fatalf("expected missing directory to be tolerated, got %v", err)
	}
	if len(pages) != 0 {
		t.Fatalf("expected no pages, got %d", len(pages))
	}
}
