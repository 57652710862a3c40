package web

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/hpungsan/drape/internal/capture"
	"github.com/hpungsan/drape/internal/errors"
	"github.com/hpungsan/drape/internal/ops"
)

// Handlers contains HTTP route handlers for the web UI.
//
// Every mutating route answers JSON when asked for it and otherwise
// redirects back to the page, which is rendered from the App snapshot.
type Handlers struct {
	app      *ops.App
	renderer *Renderer
	logger   *slog.Logger
}

// HandleIndex handles GET /: the whole application page.
func (h *Handlers) HandleIndex(w http.ResponseWriter, r *http.Request) {
	snap := h.app.State()
	h.renderer.renderPage(w, r, "index", IndexPageData{
		PageData: PageData{
			Title:   "drape",
			Version: h.renderer.version,
		},
		Snapshot: snap,
		Chat:     chatLines(snap.Transcript),
	})
}

// HandleUpload handles POST /upload. The picker and the drop zone both post here.
func (h *Handlers) HandleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		h.renderer.renderError(w, r, errors.NewValidation("invalid upload"))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		h.renderer.renderError(w, r, errors.NewValidation("file is required"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		h.renderer.renderError(w, r, errors.NewValidation("invalid upload"))
		return
	}

	// Clients send octet-stream when they do not know the type
	contentType := header.Header.Get("Content-Type")
	if contentType == "application/octet-stream" {
		contentType = ""
	}

	source := capture.SourcePicker
	if r.FormValue("source") == "drop" {
		source = capture.SourceDrop
	}

	out, err := h.app.SelectFile(r.Context(), ops.SelectInput{
		Source: source,
		File: capture.File{
			Name:        header.Filename,
			ContentType: contentType,
			Data:        data,
		},
	})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	h.done(w, r, out)
}

// HandleGender handles POST /gender: change the attribute selector.
func (h *Handlers) HandleGender(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderer.renderError(w, r, errors.NewValidation("invalid form data"))
		return
	}

	g, err := h.app.SetGender(r.FormValue("gender"))
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	h.done(w, r, map[string]any{"gender": g})
}

// HandleAnalyze handles POST /analyze.
//
// A missing photo or a failed analysis leaves a warning on the App and the
// page shows it; those are not error pages. Busy and illegal-transition
// errors are.
func (h *Handlers) HandleAnalyze(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderer.renderError(w, r, errors.NewValidation("invalid form data"))
		return
	}

	out, err := h.app.Analyze(r.Context(), ops.AnalyzeInput{Gender: r.FormValue("gender")})
	if err != nil {
		if wantsJSON(r) || errors.Is(err, errors.ErrBusy) || errors.Is(err, errors.ErrIllegalTransition) || h.app.Warning() == "" {
			h.renderer.renderError(w, r, err)
			return
		}
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	h.done(w, r, out)
}

// HandleReset handles POST /reset: "new analysis".
func (h *Handlers) HandleReset(w http.ResponseWriter, r *http.Request) {
	if err := h.app.NewAnalysis(); err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	h.done(w, r, map[string]any{"state": h.app.View().State().String()})
}

// HandleReplay handles GET /history/{id}: show a history entry again.
func (h *Handlers) HandleReplay(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		h.renderer.renderError(w, r, errors.NewValidation("history ID is required"))
		return
	}

	out, err := h.app.Replay(id)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	h.done(w, r, out)
}

// HandleChat handles POST /chat: send a chat message.
func (h *Handlers) HandleChat(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderer.renderError(w, r, errors.NewValidation("invalid form data"))
		return
	}

	out, err := h.app.SendChat(r.Context(), r.FormValue("message"))
	if err != nil {
		// Blank messages are a no-op for the page
		if !wantsJSON(r) && errors.Is(err, errors.ErrValidation) {
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}
		h.renderer.renderError(w, r, err)
		return
	}
	h.done(w, r, out)
}

// HandleChatToggle handles POST /chat/toggle.
func (h *Handlers) HandleChatToggle(w http.ResponseWriter, r *http.Request) {
	h.done(w, r, map[string]any{"chat_open": h.app.ToggleChat()})
}

// HandleSidebarToggle handles POST /sidebar/toggle.
func (h *Handlers) HandleSidebarToggle(w http.ResponseWriter, r *http.Request) {
	h.done(w, r, map[string]any{"sidebar_open": h.app.ToggleSidebar()})
}

// HandleState handles GET /api/state: a JSON snapshot of the App.
func (h *Handlers) HandleState(w http.ResponseWriter, r *http.Request) {
	renderJSON(w, http.StatusOK, h.app.State())
}

// done finishes a mutating request: JSON callers get payload, HTMX callers
// get the page content, everyone else is redirected to the page.
func (h *Handlers) done(w http.ResponseWriter, r *http.Request, payload any) {
	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, payload)
		return
	}
	if r.Header.Get("HX-Request") == "true" {
		h.HandleIndex(w, r)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
