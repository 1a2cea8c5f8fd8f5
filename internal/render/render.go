// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package render parses the embedded HTML templates and executes them with
// the per-request data every page shares.
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
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/alexedwards/scs/v2"

	"github.com/olegiv/blogicum/internal/blog"
	"github.com/olegiv/blogicum/internal/markup"
	"github.com/olegiv/blogicum/internal/middleware"
	"github.com/olegiv/blogicum/internal/session"
	"github.com/olegiv/blogicum/internal/store"
)

// SiteName is shown in the page title and header.
const SiteName = "Blogicum"

// pageDirs hold one template per page. Each is parsed together with the
// base layout and all partials.
var pageDirs = []string{"blog", "registration", "pages"}

const (
	baseLayout  = "layouts/base.html"
	partialsDir = "partials"
)

// SidebarSource supplies the category list shown on every page.
type SidebarSource interface {
	Categories(ctx context.Context) ([]store.CategoryWithCount, error)
}

// Renderer handles template rendering with caching.
type Renderer struct {
	templates      map[string]*template.Template
	sessionManager *scs.SessionManager
	sidebar        SidebarSource
	loc            *time.Location
}

// Config holds renderer configuration.
type Config struct {
	TemplatesFS    fs.FS
	SessionManager *scs.SessionManager
	Sidebar        SidebarSource
	// Location is the zone dates are displayed and entered in.
	Location *time.Location
}

// New creates a new Renderer with parsed templates.
func New(cfg Config) (*Renderer, error) {
	r := &Renderer{
		templates:      make(map[string]*template.Template),
		sessionManager: cfg.SessionManager,
		sidebar:        cfg.Sidebar,
		loc:            cfg.Location,
	}
	if r.loc == nil {
		r.loc = time.UTC
	}

	if err := r.parseTemplates(cfg.TemplatesFS); err != nil {
		return nil, err
	}

	return r, nil
}

func (r *Renderer) parseTemplates(templatesFS fs.FS) error {
	partials, err := templateFiles(templatesFS, partialsDir)
	if err != nil {
		return fmt.Errorf("getting partials: %w", err)
	}

	for _, dir := range pageDirs {
		pages, err := templateFiles(templatesFS, dir)
		if err != nil {
			return fmt.Errorf("getting %s templates: %w", dir, err)
		}

		for _, tmplPath := range pages {
			name := dir + "/" + strings.TrimSuffix(path.Base(tmplPath), ".html")

			files := []string{baseLayout}
			files = append(files, partials...)
			files = append(files, tmplPath)

			tmpl, err := template.New("").Funcs(r.TemplateFuncs()).ParseFS(templatesFS, files...)
			if err != nil {
				return fmt.Errorf("parsing template %s: %w", name, err)
			}
			r.templates[name] = tmpl
		}
	}

	return nil
}

// templateFiles returns all .html files in a directory. A missing directory
// yields no files.
func templateFiles(templatesFS fs.FS, dir string) ([]string, error) {
	entries, err := fs.ReadDir(templatesFS, dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	var files []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".html") {
			files = append(files, path.Join(dir, entry.Name()))
		}
	}
	return files, nil
}

// Has reports whether a template with the given name was parsed.
func (r *Renderer) Has(name string) bool {
	_, ok := r.templates[name]
	return ok
}

// TemplateFuncs returns custom template functions.
func (r *Renderer) TemplateFuncs() template.FuncMap {
	loc := r.loc
	if loc == nil {
		loc = time.UTC
	}

	return template.FuncMap{
		"formatDate": func(t time.Time) string {
			return t.In(loc).Format("2 January 2006")
		},
		"formatDateTime": func(t time.Time) string {
			return t.In(loc).Format("2 January 2006, 15:04")
		},
		"isoDate": func(t time.Time) string {
			return t.UTC().Format(time.RFC3339)
		},
		"pubDateValue": func(t time.Time) string {
			return blog.FormatPubDate(t, loc)
		},
		"markdown": markup.Post,
		"comment":  markup.Comment,
		"excerpt":  markup.Excerpt,
		"isOwner": func(authorID int64, user *store.User) bool {
			if user == nil {
				return false
			}
			return blog.IsOwner(authorID, user.ID)
		},
		"pageURL":   pageURL,
		"pageRange": pageRange,
		"add": func(a, b int) int {
			return a + b
		},
		"sub": func(a, b int) int {
			return a - b
		},
	}
}

// pageURL returns base with ?page=n, or base alone for the first page.
func pageURL(base string, n int) string {
	if n <= 1 {
		return base
	}
	return base + "?page=" + strconv.Itoa(n)
}

// pageRange returns the page numbers linked around the current page.
func pageRange(p blog.Page) []int {
	const window = 2
	lo := max(p.Number-window, 1)
	hi := min(p.Number+window, p.TotalPages)

	result := make([]int, 0, hi-lo+1)
	for i := lo; i <= hi; i++ {
		result = append(result, i)
	}
	return result
}

// TemplateData holds data passed to templates.
type TemplateData struct {
	Title       string
	SiteName    string
	User        *store.User
	Data        any
	Form        any
	Errors      blog.FormErrors
	Flash       string
	Sidebar     []store.CategoryWithCount
	CurrentPath string
	CurrentYear int
}

// Render renders a template with status 200.
func (r *Renderer) Render(w http.ResponseWriter, req *http.Request, name string, data TemplateData) error {
	return r.RenderStatus(w, req, http.StatusOK, name, data)
}

// RenderStatus renders a template with the given status. The template is
// executed into a buffer first so a failing template never sends a
// partial page.
func (r *Renderer) RenderStatus(w http.ResponseWriter, req *http.Request, status int, name string, data TemplateData) error {
	tmpl, ok := r.templates[name]
	if !ok {
		return fmt.Errorf("template %s not found", name)
	}

	r.addDefaultData(req, &data)

	buf := new(bytes.Buffer)
	if err := tmpl.ExecuteTemplate(buf, "base", data); err != nil {
		return fmt.Errorf("executing template %s: %w", name, err)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
	return nil
}

func (r *Renderer) addDefaultData(req *http.Request, data *TemplateData) {
	data.SiteName = SiteName
	data.CurrentYear = time.Now().In(r.loc).Year()
	data.CurrentPath = req.URL.Path
	if data.User == nil {
		data.User = middleware.GetUser(req)
	}
	if data.Errors == nil {
		data.Errors = blog.FormErrors{}
	}

	if r.sessionManager != nil {
		data.Flash = r.sessionManager.PopString(req.Context(), session.KeyFlash)
	}

	if data.Sidebar == nil && r.sidebar != nil {
		items, err := r.sidebar.Categories(req.Context())
		if err != nil {
			slog.WarnContext(req.Context(), "failed to load sidebar categories", "error", err)
		}
		data.Sidebar = items
	}
}

// SetFlash stores a one-time message shown on the next rendered page.
func (r *Renderer) SetFlash(req *http.Request, message string) {
	if r.sessionManager != nil {
		r.sessionManager.Put(req.Context(), session.KeyFlash, message)
	}
}
