package web

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"

	"github.com/hpungsan/drape/internal/chat"
	"github.com/hpungsan/drape/internal/errors"
	"github.com/hpungsan/drape/internal/ops"
	"github.com/hpungsan/drape/internal/view"
)

// PageData contains common fields used across all page templates.
type PageData struct {
	Title   string
	Version string
}

// ChatLine is a transcript turn prepared for the page.
type ChatLine struct {
	chat.Turn
	HTML template.HTML
}

// IndexPageData is the template data for the single application page.
type IndexPageData struct {
	PageData
	*ops.Snapshot
	Chat []ChatLine
}

// ErrorPageData is the template data for the error page.
type ErrorPageData struct {
	PageData
	StatusCode int
	Message    string
}

// Renderer manages template parsing and rendering.
type Renderer struct {
	templates map[string]*template.Template
	version   string
	logger    *slog.Logger
}

// NewRenderer creates a Renderer by parsing templates from the given FS.
func NewRenderer(templateFS fs.FS, version string, logger *slog.Logger) *Renderer {
	funcMap := template.FuncMap{
		"shows":       shows,
		"swatchStyle": swatchStyle,
		"dataURL":     dataURL,
	}

	// Parse layout as the base template
	layoutTmpl := template.Must(template.New("layout").Funcs(funcMap).ParseFS(templateFS, "layout.html"))

	pages := map[string]string{
		"index": "index.html",
		"error": "error.html",
	}

	templates := make(map[string]*template.Template, len(pages))
	for name, file := range pages {
		t := template.Must(layoutTmpl.Clone())
		template.Must(t.ParseFS(templateFS, file))
		templates[name] = t
	}

	return &Renderer{
		templates: templates,
		version:   version,
		logger:    logger,
	}
}

// renderPage renders a named page template with the given data and HTTP 200 status.
func (r *Renderer) renderPage(w http.ResponseWriter, req *http.Request, name string, data any) {
	r.renderPageStatus(w, req, http.StatusOK, name, data)
}

// renderPageStatus renders a named page template with the given data and HTTP status code.
// For HTMX requests, only the "content" block is rendered to avoid duplicating the layout.
func (r *Renderer) renderPageStatus(w http.ResponseWriter, req *http.Request, status int, name string, data any) {
	t, ok := r.templates[name]
	if !ok {
		r.logger.Error("template not found", "template", name)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	block := "layout"
	if req != nil && req.Header.Get("HX-Request") == "true" {
		block = "content"
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, block, data); err != nil {
		r.logger.Error("template execution error", "template", name, "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

// renderError renders an error response with content negotiation.
// Only the user-facing message is ever written; causes go to the log.
func (r *Renderer) renderError(w http.ResponseWriter, req *http.Request, err error) {
	var dErr *errors.DrapeError
	if !stderrors.As(err, &dErr) {
		r.logger.Error("unclassified error", "error", err)
		dErr = errors.NewInternal(nil)
	}

	status := dErr.Status
	message := dErr.Message

	// HTMX request: return HTML fragment
	if req.Header.Get("HX-Request") == "true" {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(status)
		fmt.Fprintf(w, `<div class="error-message">%s</div>`, template.HTMLEscapeString(message))
		return
	}

	if wantsJSON(req) {
		renderJSON(w, status, map[string]any{
			"error": map[string]any{
				"code":    string(dErr.Code),
				"message": message,
				"status":  status,
			},
		})
		return
	}

	r.renderPageStatus(w, req, status, "error", ErrorPageData{
		PageData: PageData{
			Title:   fmt.Sprintf("Error %d", status),
			Version: r.version,
		},
		StatusCode: status,
		Message:    message,
	})
}

// renderJSON writes a JSON response.
func renderJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func wantsJSON(req *http.Request) bool {
	return strings.Contains(req.Header.Get("Accept"), "application/json")
}

// renderMarkdown converts markdown text to HTML using goldmark.
// goldmark drops raw HTML by default, so assistant replies cannot inject markup.
func renderMarkdown(md string) template.HTML {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(md), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(md))
	}
	return template.HTML(buf.String())
}

// chatLines renders assistant turns as markdown; everything else is escaped text.
func chatLines(turns []chat.Turn) []ChatLine {
	lines := make([]ChatLine, 0, len(turns))
	for _, t := range turns {
		line := ChatLine{Turn: t}
		if t.Role == chat.RoleAssistant && !t.Provisional {
			line.HTML = renderMarkdown(t.Text)
		} else {
			line.HTML = template.HTML(template.HTMLEscapeString(t.Text))
		}
		lines = append(lines, line)
	}
	return lines
}

// shows reports whether panel p is in the visible set.
func shows(visible []view.Panel, p string) bool {
	for _, v := range visible {
		if string(v) == p {
			return true
		}
	}
	return false
}

var colorToken = regexp.MustCompile(`^#?[A-Za-z0-9]{1,32}$`)

// swatchStyle is the inline style of a colour swatch. Tokens that are not a
// plain colour name or hex value get no style.
func swatchStyle(color string) template.CSS {
	color = strings.TrimSpace(color)
	if !colorToken.MatchString(color) {
		return ""
	}
	return template.CSS("background-color: " + color)
}

// dataURL marks an image data URI as safe for a src attribute. Anything
// else is dropped.
func dataURL(uri string) template.URL {
	if !strings.HasPrefix(uri, "data:image/") {
		return ""
	}
	return template.URL(uri)
}
