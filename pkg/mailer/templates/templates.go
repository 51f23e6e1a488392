package templates

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	htmpl "html/template"
	"io"
	"reflect"
	"strings"
	"sync"
	texttpl "text/template"
	"time"
)

//go:embed *.tmpl
var FS embed.FS

// EmailData defines standard fields for email templates.
type EmailData struct {
	Name           string `json:"Name"`
	Email          string `json:"Email"`
	RecipientEmail string `json:"RecipientEmail"`
	Type           string `json:"Type"`

	AppName string `json:"AppName"`
	SiteURL string `json:"SiteURL"`

	AuthorName string `json:"AuthorName"`
	RecipeName string `json:"RecipeName"`
	RecipeURL  string `json:"RecipeURL"`
}

// ToMap converts EmailData to a map[string]any for EmailJob.Data
func ToMap(d EmailData) map[string]any {
	b, _ := json.Marshal(d)
	var m map[string]any
	_ = json.Unmarshal(b, &m)
	return m
}

// defaultFn supports pipe usage: {{ .Value | default "Fallback" }}
func defaultFn(fallback any, value any) any {
	switch x := value.(type) {
	case string:
		if strings.TrimSpace(x) == "" {
			return fallback
		}
		return x
	case nil:
		return fallback
	default:
		rv := reflect.ValueOf(value)
		if !rv.IsValid() {
			return fallback
		}
		zero := reflect.Zero(rv.Type()).Interface()
		if reflect.DeepEqual(value, zero) {
			return fallback
		}
		return value
	}
}

func baseFuncs() map[string]any {
	return map[string]any{
		"now":        func() time.Time { return time.Now().UTC() },
		"formatTime": func(t time.Time, layout string) string { return t.Format(layout) },
		"upper":      strings.ToUpper,
		"default":    defaultFn,
	}
}

var (
	htmlFuncMap = htmpl.FuncMap(baseFuncs())
	textFuncMap = texttpl.FuncMap(baseFuncs())
)

// Template names
const (
	NewRecipe = "new_recipe"
	Welcome   = "welcome"
)

type executor interface {
	Execute(w io.Writer, data any) error
}

// parsed caches templates by file name; the embedded FS never changes at runtime.
var parsed sync.Map

func lookup(filename string, isHTML bool) (executor, error) {
	if t, ok := parsed.Load(filename); ok {
		return t.(executor), nil
	}
	var (
		t   executor
		err error
	)
	if isHTML {
		t, err = htmpl.New(filename).Funcs(htmlFuncMap).ParseFS(FS, filename)
	} else {
		t, err = texttpl.New(filename).Funcs(textFuncMap).ParseFS(FS, filename)
	}
	if err != nil {
		return nil, fmt.Errorf("parse %q: %w", filename, err)
	}
	actual, _ := parsed.LoadOrStore(filename, t)
	return actual.(executor), nil
}

// renderFile renders one template file from the embedded FS.
// isHTML selects html/template escaping over text/template.
func renderFile(filename string, isHTML bool, data any) (string, error) {
	t, err := lookup(filename, isHTML)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("exec %q: %w", filename, err)
	}
	return strings.TrimSpace(buf.String()), nil
}

// Render loads and renders subject, text, and html templates for the given base name.
// Expects: <name>.subject.tmpl, <name>.text.tmpl, <name>.html.tmpl
func Render(name string, data any) (subject string, text string, html string, err error) {
	subject, err = renderFile(name+".subject.tmpl", false, data)
	if err != nil {
		return "", "", "", err
	}
	text, err = renderFile(name+".text.tmpl", false, data)
	if err != nil {
		return "", "", "", err
	}
	html, err = renderFile(name+".html.tmpl", true, data)
	if err != nil {
		return "", "", "", err
	}
	return subject, text, html, nil
}
