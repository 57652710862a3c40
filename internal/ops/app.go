package ops

import (
	"crypto/rand"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/hpungsan/drape/internal/analysis"
	"github.com/hpungsan/drape/internal/capture"
	"github.com/hpungsan/drape/internal/chat"
	"github.com/hpungsan/drape/internal/config"
	"github.com/hpungsan/drape/internal/history"
	"github.com/hpungsan/drape/internal/remote"
	"github.com/hpungsan/drape/internal/render"
	"github.com/hpungsan/drape/internal/view"
)

// User-visible warnings. Remote and transport failures share one text.
const (
	WarnNoPhoto        = "Please upload a photo first."
	WarnAnalysisFailed = "Analysis failed. Please try again."
	WarnNotSaved       = "The result is shown but could not be saved to history."
)

// DateLayout is the human-readable local date stored on each record.
const DateLayout = "Jan 2, 2006"

// Deps are the collaborators of an App. Config, Analyzer, Chatter and
// History are required.
type Deps struct {
	Config   *config.Config
	Logger   *slog.Logger
	Analyzer remote.Analyzer
	Chatter  remote.Chatter
	History  *history.Store

	// ExportsDir is where Export writes when no path is given.
	ExportsDir string

	// Optional; defaults are used when nil.
	Capture *capture.Capture
	Now     func() time.Time
	Entropy io.Reader
}

// App is the application state shared by the CLI, the web UI and the MCP
// server. Mutation is serialised by mu, which is never held across a
// remote call; analyze is additionally guarded by busy.
type App struct {
	cfg      *config.Config
	logger   *slog.Logger
	analyzer remote.Analyzer
	history  *history.Store
	capture  *capture.Capture
	view     *view.Controller
	chat     *chat.Session
	now      func() time.Time

	exportsDir string

	busy atomic.Bool

	mu      sync.Mutex
	gender  string
	warning string
	record  *analysis.Result // record on display; nil outside RESULTS
	current *render.View     // its rendering, published in one step
	entropy *ulid.MonotonicEntropy
}

// New builds an App. The history store should already be loaded.
func New(deps Deps) *App {
	a := &App{
		cfg:      deps.Config,
		logger:   deps.Logger,
		analyzer: deps.Analyzer,
		history:  deps.History,
		capture:  deps.Capture,
		view:     view.NewController(),
		now:      deps.Now,

		exportsDir: deps.ExportsDir,
	}
	if a.cfg == nil {
		a.cfg = config.DefaultConfig()
	}
	if a.logger == nil {
		a.logger = slog.Default()
	}
	if a.capture == nil {
		a.capture = capture.New()
	}
	if a.now == nil {
		a.now = time.Now
	}
	entropy := deps.Entropy
	if entropy == nil {
		entropy = rand.Reader
	}
	a.entropy = ulid.Monotonic(entropy, 0)

	a.gender = a.cfg.DefaultGender
	if g, ok := a.cfg.ValidGender(a.gender); ok {
		a.gender = g
	}

	a.chat = chat.NewSession(deps.Chatter, a, a.logger)
	return a
}

// Config returns the configuration the App was built with.
func (a *App) Config() *config.Config {
	return a.cfg
}

// Capture returns the file capture component.
func (a *App) Capture() *capture.Capture {
	return a.capture
}

// View returns the view controller.
func (a *App) View() *view.Controller {
	return a.view
}

// Chat returns the chat session.
func (a *App) Chat() *chat.Session {
	return a.chat
}

// History returns the history store.
func (a *App) History() *history.Store {
	return a.history
}

// Warning returns the warning currently shown to the user, if any.
func (a *App) Warning() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.warning
}

// ClearWarning dismisses the current warning.
func (a *App) ClearWarning() {
	a.setWarning("")
}

func (a *App) setWarning(msg string) {
	a.mu.Lock()
	a.warning = msg
	a.mu.Unlock()
}

// Current returns the rendering on display, or nil outside RESULTS.
func (a *App) Current() *render.View {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.current
}

// ChatContext implements chat.ContextSource. The skin tone is that of the
// record on display while in RESULTS and "Unknown" otherwise.
func (a *App) ChatContext() (gender, skinTone string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	skinTone = analysis.UnknownSkinTone
	if a.view.State() == view.Results && a.record != nil && a.record.SkinTone != "" {
		skinTone = a.record.SkinTone
	}
	return a.gender, skinTone
}

// transition fires ev and, if the view accepts it, swaps in the record on
// display and its rendering in the same step. Lock order is mu, then the
// view controller's own lock.
func (a *App) transition(ev view.Event, r *analysis.Result, v *render.View) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, err := a.view.Fire(ev); err != nil {
		return err
	}
	a.record = r
	a.current = v
	return nil
}

func (a *App) renderOptions() render.Options {
	return render.Options{SearchURL: a.cfg.ShopSearchURL, Genders: a.cfg.Genders}
}

func (a *App) newID() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(a.now()), a.entropy).String()
}
