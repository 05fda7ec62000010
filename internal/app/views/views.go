// Package views renders the portal's HTML pages from embedded templates.
package views

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/gin-gonic/gin/render"
	"github.com/yuin/goldmark"
	goldmarkhtml "github.com/yuin/goldmark/renderer/html"

	"github.com/aurcc/bonafide-portal/internal/pkg/helpers"
)

//go:embed templates
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

const (
	layoutName = "layout"
	pageDir    = "templates/pages"
)

// markdown renders user-entered text. Raw HTML is escaped because WithUnsafe is not set.
var markdown = goldmark.New(
	goldmark.WithRendererOptions(
		goldmarkhtml.WithHardWraps(),
	),
)

// Renderer implements gin's render.HTMLRender over one template set per page.
type Renderer struct {
	templates map[string]*template.Template
}

// New parses the layout, the shared partials and every page template.
// Page names are their paths below templates/pages without the extension, e.g. "student/apply".
func New() (*Renderer, error) {
	base, err := template.New(layoutName).Funcs(Funcs()).ParseFS(templateFS, "templates/layout.html", "templates/partials.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse layout: %w", err)
	}

	r := &Renderer{templates: make(map[string]*template.Template)}
	err = fs.WalkDir(templateFS, pageDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || path.Ext(p) != ".html" {
			return err
		}
		t, err := base.Clone()
		if err != nil {
			return err
		}
		if _, err := t.ParseFS(templateFS, p); err != nil {
			return fmt.Errorf("failed to parse %s: %w", p, err)
		}
		name := strings.TrimSuffix(strings.TrimPrefix(p, pageDir+"/"), ".html")
		r.templates[name] = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}

// MustNew is New for program start-up.
func MustNew() *Renderer {
	r, err := New()
	if err != nil {
		panic(err)
	}
	return r
}

// Has reports whether a page template exists.
func (r *Renderer) Has(name string) bool {
	_, ok := r.templates[name]
	return ok
}

// Instance implements render.HTMLRender.
func (r *Renderer) Instance(name string, data any) render.Render {
	t, ok := r.templates[name]
	if !ok {
		return render.Data{
			ContentType: "text/plain; charset=utf-8",
			Data:        []byte(http.StatusText(http.StatusInternalServerError) + ": unknown page " + name),
		}
	}
	return render.HTML{Template: t, Name: layoutName, Data: data}
}

// Funcs returns the helpers available to every template.
func Funcs() template.FuncMap {
	return template.FuncMap{
		"markdown":  Markdown,
		"date":      FormatDate,
		"datetime":  FormatDateTime,
		"timestamp": FormatTimestamp,
		"money":     FormatMoney,
		"idOf":      IDOf,
		"sameID":    SameID,
		"upper":     strings.ToUpper,
		"add":       func(a, b int) int { return a + b },
		"years":     func() []int { return []int{1, 2, 3, 4} },
		"field": func(fields map[string]string, name string) string {
			return fields[name]
		},
		"dict": Dict,
	}
}

// Static serves the embedded stylesheet below /static.
func Static() http.FileSystem {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return http.FS(sub)
}

// Dict builds a map from alternating keys and values, for passing several values to a partial.
func Dict(pairs ...any) (map[string]any, error) {
	if len(pairs)%2 != 0 {
		return nil, fmt.Errorf("dict: odd number of arguments")
	}
	m := make(map[string]any, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		key, ok := pairs[i].(string)
		if !ok {
			return nil, fmt.Errorf("dict: key %v is not a string", pairs[i])
		}
		m[key] = pairs[i+1]
	}
	return m, nil
}

// Markdown converts text to sanitized HTML, falling back to escaped text.
func Markdown(text string) template.HTML {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(text), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(text))
	}
	return template.HTML(buf.String())
}

// FormatDate accepts time.Time or *time.Time and renders "17 Oct 2026"; missing values render "-".
func FormatDate(v any) string {
	return helpers.FormatDate(asTime(v))
}

// FormatDateTime renders "17 Oct 2026, 08:30".
func FormatDateTime(v any) string {
	return helpers.FormatDateTime(asTime(v))
}

// FormatTimestamp renders a timestamp string from the API, or the raw value when it does not parse.
func FormatTimestamp(s string) string {
	t, err := helpers.ParseTimestamp(s)
	if err != nil {
		return s
	}
	return helpers.FormatDateTime(t)
}

// FormatMoney renders an amount in rupees with two decimals.
func FormatMoney(v float64) string {
	return fmt.Sprintf("₹%.2f", v)
}

// IDOf dereferences an optional foreign key; nil renders as 0.
func IDOf(id *int64) int64 {
	if id == nil {
		return 0
	}
	return *id
}

// SameID compares an optional foreign key with an option value.
func SameID(id *int64, option int64) bool {
	return id != nil && *id == option
}

func asTime(v any) time.Time {
	switch t := v.(type) {
	case time.Time:
		return t
	case *time.Time:
		if t != nil {
			return *t
		}
	}
	return time.Time{}
}
