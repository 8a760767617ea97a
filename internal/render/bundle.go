// Package render serves the catalog's HTML pages. A Bundle wraps the
// built frontend directory: index.html is an html/template executed with
// the page data, every other file is served as is.
package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/catalogapp/catalog-server/internal/auth"
	"github.com/catalogapp/catalog-server/internal/domain"
	"github.com/catalogapp/catalog-server/internal/edge"
	"github.com/catalogapp/catalog-server/internal/watcher"
)

// IndexFile is the page template inside the build directory.
const IndexFile = "index.html"

// ErrArtifactMissing is returned by Load when the build directory or its
// index.html does not exist.
var ErrArtifactMissing = errors.New("render artifact missing")

var templateFuncs = template.FuncMap{
	"join": strings.Join,
	"contains": func(list []string, s string) bool {
		return slices.Contains(list, s)
	},
}

// Bundle loads and caches the built page. It implements
// edge.RendererLoader.
type Bundle struct {
	dir    string
	loader *DataLoader
	logger *slog.Logger

	mu   sync.RWMutex
	page *Page
}

// NewBundle creates a bundle over the build directory dir.
func NewBundle(dir string, loader *DataLoader, logger *slog.Logger) *Bundle {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Bundle{dir: dir, loader: loader, logger: logger}
}

// Dir returns the build directory.
func (b *Bundle) Dir() string { return b.dir }

// Load returns the cached page, parsing index.html on first use.
func (b *Bundle) Load() (edge.Renderer, error) {
	b.mu.RLock()
	p := b.page
	b.mu.RUnlock()
	if p != nil {
		return p, nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.page != nil {
		return b.page, nil
	}

	index := filepath.Join(b.dir, IndexFile)
	tmpl, err := template.New(IndexFile).Funcs(templateFuncs).ParseFiles(index)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrArtifactMissing, index)
	}
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", index, err)
	}

	b.page = &Page{
		dir:    b.dir,
		tmpl:   tmpl,
		static: http.FileServer(http.Dir(b.dir)),
		loader: b.loader,
	}
	b.logger.Info("page bundle loaded", "dir", b.dir)
	return b.page, nil
}

// Invalidate drops the cached page; the next Load re-reads the build.
func (b *Bundle) Invalidate() {
	b.mu.Lock()
	b.page = nil
	b.mu.Unlock()
}

// Follow invalidates the bundle on every event until ctx is done or
// events is closed.
func (b *Bundle) Follow(ctx context.Context, events <-chan watcher.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			b.logger.Debug("build changed, reloading bundle", "path", ev.Path, "op", ev.Op.String())
			b.Invalidate()
		}
	}
}

// Page is a parsed index template plus the static files next to it.
type Page struct {
	dir    string
	tmpl   *template.Template
	static http.Handler
	loader *DataLoader
}

// view is the template's dot.
type view struct {
	Data     *PageData
	User     *domain.PublicUser
	Strategy string
}

// Render serves a static build file when one matches the path and renders
// index.html otherwise.
func (p *Page) Render(w http.ResponseWriter, r *http.Request, client *http.Client) error {
	if p.isStatic(r.URL.Path) {
		p.static.ServeHTTP(w, r)
		return nil
	}

	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return nil
	}

	data, err := p.loader.Load(r.Context(), r, client)
	if err != nil {
		return fmt.Errorf("load page data: %w", err)
	}

	v := view{Data: data, Strategy: p.loader.Strategy().String()}
	if c, err := r.Cookie(auth.UserDataCookie); err == nil {
		if u, err := auth.DecodeUserData(c.Value); err == nil {
			v.User = u
		}
	}

	var buf bytes.Buffer
	if err := p.tmpl.Execute(&buf, v); err != nil {
		return fmt.Errorf("execute %s: %w", IndexFile, err)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	if r.Method != http.MethodHead {
		_, _ = buf.WriteTo(w)
	}
	return nil
}

func (p *Page) isStatic(urlPath string) bool {
	clean := path.Clean("/" + urlPath)
	if clean == "/" || clean == "/"+IndexFile {
		return false
	}
	info, err := os.Stat(filepath.Join(p.dir, filepath.FromSlash(clean)))
	return err == nil && info.Mode().IsRegular()
}
