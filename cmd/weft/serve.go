package main

import (
	"context"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/weft-dev/weft/internal/config"
	"github.com/weft-dev/weft/pkg/cache"
	"github.com/weft-dev/weft/pkg/server"
	"github.com/weft-dev/weft/pkg/template"
)

var (
	serveConfigDir string
	servePages     string
	servePort      int
	serveHost      string
	serveDev       bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve a directory of page templates",
	Long: `Serve renders every .html template under the pages directory as a
route. pages/index.html becomes /, pages/feed.html becomes /feed, and
nested directories map to nested paths. A sibling .json file supplies
the page's data.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVarP(&serveConfigDir, "config", "c", ".", "directory containing weft.json")
	serveCmd.Flags().StringVar(&servePages, "pages", "pages", "directory of page templates")
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "override the configured port")
	serveCmd.Flags().StringVar(&serveHost, "host", "", "override the configured host")
	serveCmd.Flags().BoolVar(&serveDev, "dev", false, "enable live reload")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(serveConfigDir)
	if err != nil {
		if !errorsIsMissingConfig(err) {
			return err
		}
		warn("no weft.json found, using defaults")
		cfg = config.New()
	}
	if servePort != 0 {
		cfg.Server.Port = servePort
	}
	if serveHost != "" {
		cfg.Server.Host = serveHost
	}
	if serveDev {
		cfg.Dev.Reload = true
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	store, err := buildStore(cfg)
	if err != nil {
		return err
	}

	freshness, err := cfg.FreshnessWindow()
	if err != nil {
		return err
	}

	srv := server.New(server.Config{
		Address:           cfg.Address(),
		Store:             store,
		StreamConcurrency: cfg.Stream.Concurrency,
		DevReload:         cfg.Dev.Reload,
	})

	pages, err := loadPages(servePages, cache.Freshness(freshness))
	if err != nil {
		return err
	}
	if len(pages) == 0 {
		warn("no templates found under %s", servePages)
	}
	for _, p := range pages {
		srv.Register(p)
		info("registered %s", p.Path)
	}

	fmt.Print(banner)
	success("serving on http://%s", cfg.Address())
	if cfg.Dev.Reload {
		info("live reload enabled")
	}

	return srv.Run()
}

// buildStore constructs the render cache backend from configuration.
// The sql, s3 and redis backends need a driver or client that only
// the library API can supply, so serve handles memory alone.
func buildStore(cfg *config.Config) (cache.Store, error) {
	switch cfg.Cache.Backend {
	case "memory":
		opts := []cache.MemoryStoreOption{cache.WithMaxEntries(cfg.Cache.MaxEntries)}
		if ttl := cfg.CacheTTL(); ttl > 0 {
			opts = append(opts, cache.WithJanitor(ttl/4, ttl))
		}
		return cache.NewMemoryStore(opts...), nil
	default:
		return nil, fmt.Errorf("the %q cache backend requires wiring through the library API; set cache.backend to \"memory\" for weft serve", cfg.Cache.Backend)
	}
}

// loadPages walks the pages directory and builds a Page per template.
func loadPages(dir string, freshness cache.Freshness) ([]*server.Page, error) {
	var pages []*server.Page
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir && os.IsNotExist(err) {
				return filepath.SkipAll
			}
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".html") {
			return nil
		}

		doc, err := parseTemplateFile(path)
		if err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}

		data, err := loadPageData(strings.TrimSuffix(path, ".html") + ".json")
		if err != nil {
			return err
		}

		pages = append(pages, &server.Page{
			Path:      routeFor(dir, path),
			Template:  doc,
			Data:      data,
			Freshness: freshness,
		})
		return nil
	})
	return pages, err
}

// routeFor maps a template path under dir to its URL path.
func routeFor(dir, path string) string {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		rel = filepath.Base(path)
	}
	route := "/" + filepath.ToSlash(strings.TrimSuffix(rel, ".html"))
	if route == "/index" {
		return "/"
	}
	route = strings.TrimSuffix(route, "/index")
	return route
}

func parseTemplateFile(path string) (*template.Node, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return template.Parse(string(src))
}

// loadPageData reads an optional sibling .json file into a static
// scope. A missing file means the page renders against an empty scope.
func loadPageData(path string) (server.DataFunc, error) {
	vars, err := readJSONVars(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return func(ctx context.Context, r *http.Request) (*template.Scope, error) {
		return template.NewScope(vars), nil
	}, nil
}
