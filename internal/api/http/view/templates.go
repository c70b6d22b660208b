// Package view renders the board page and streams DOM patches to the browser.
package view

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"net/url"
	"strings"
	"time"

	"github.com/dtroode/noteboard/internal/board"
	"github.com/dtroode/noteboard/internal/model"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// Static returns the stylesheet and images served under /static/.
func Static() fs.FS {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return sub
}

// ColorClass is the CSS class of a card background.
func ColorClass(c model.Color) string {
	if c == model.ColorNone {
		return "background-none"
	}
	return "background-" + string(c)
}

// LikeLabel is the like count as shown on a card.
func LikeLabel(n int) string {
	return fmt.Sprintf("(%d)", n)
}

// Action joins base and the escaped path segments into an action URL that is
// safe inside a quoted script string.
func Action(base string, segments ...string) template.JSStr {
	var b strings.Builder
	b.WriteString(base)
	for _, s := range segments {
		b.WriteByte('/')
		b.WriteString(url.PathEscape(s))
	}
	return template.JSStr(b.String())
}

var funcs = template.FuncMap{
	"action":     Action,
	"colorClass": ColorClass,
	"likes":      LikeLabel,
	"palette":    func() []model.Color { return model.Palette },
	"date":       func(t time.Time) string { return t.Local().Format("2006-01-02 15:04") },
	"iso":        func(t time.Time) string { return t.UTC().Format(time.RFC3339) },
	"editSignals": func(c board.Card) (string, error) {
		b, err := json.Marshal(map[string]any{
			"edits": map[string]EditSignals{c.ID: {Text: c.Draft, Color: string(c.DraftColor)}},
		})
		return string(b), err
	},
}

// Templates renders pages and fragments.
type Templates struct {
	tmpl *template.Template
}

func NewTemplates() (*Templates, error) {
	tmpl, err := template.New("board").Funcs(funcs).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	return &Templates{tmpl: tmpl}, nil
}

// Page is the data of the board page.
type Page struct {
	Base    string
	Signals string
	Viewer  Viewer
}

// Viewer is the data of the page header.
type Viewer struct {
	Base   string
	Viewer board.ViewerState
}

type cardData struct {
	Base string
	Card board.Card
}

type noticeData struct {
	Base   string
	Notice board.Notice
}

// Verification is the data of the email verification page.
type Verification struct {
	Verified bool
	Email    string
	Error    string
}

func (t *Templates) Page(w io.Writer, p Page) error {
	return t.tmpl.ExecuteTemplate(w, "page", p)
}

func (t *Templates) Verification(w io.Writer, v Verification) error {
	return t.tmpl.ExecuteTemplate(w, "verify", v)
}

func (t *Templates) Viewer(base string, v board.ViewerState) (string, error) {
	return t.fragment("viewer", Viewer{Base: base, Viewer: v})
}

func (t *Templates) Card(base string, c board.Card) (string, error) {
	return t.fragment("card", cardData{Base: base, Card: c})
}

func (t *Templates) CardBody(base string, c board.Card) (string, error) {
	return t.fragment("body", cardData{Base: base, Card: c})
}

func (t *Templates) CardAuthor(base string, c board.Card) (string, error) {
	return t.fragment("author", cardData{Base: base, Card: c})
}

func (t *Templates) CardEditor(base string, c board.Card) (string, error) {
	return t.fragment("editor", cardData{Base: base, Card: c})
}

func (t *Templates) Notice(base string, n board.Notice) (string, error) {
	return t.fragment("notice", noticeData{Base: base, Notice: n})
}

func (t *Templates) fragment(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := t.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("failed to render %s: %w", name, err)
	}
	return buf.String(), nil
}
