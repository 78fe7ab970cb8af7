// Package app drives frames: it owns the windows of an application, calls
// the layout function when a window has to be regenerated and runs the
// diff, restyle, relayout and paint pipeline of every window.
package app

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"styledom/pkg/config"
	"styledom/pkg/dom"
	"styledom/pkg/task"
	"styledom/pkg/text"
)

// closeTimeout bounds how long a closed window waits for its threads.
const closeTimeout = 2 * time.Second

// Option configures an App.
type Option func(*App)

func WithLogger(l *zap.Logger) Option {
	return func(a *App) { a.log = l }
}

// WithClock replaces the system clock, e.g. with a task.ManualClock.
func WithClock(c task.Clock) Option {
	return func(a *App) { a.clock = c }
}

// WithFonts replaces the configured font provider.
func WithFonts(p text.FontProvider) Option {
	return func(a *App) { a.fonts = p }
}

// App is an application: user data, a layout function and its windows.
type App struct {
	userData any
	cfg      *config.Config
	layout   LayoutFunc
	log      *zap.Logger
	clock    task.Clock
	fonts    text.FontProvider
	limiter  *rate.Limiter

	mu      sync.Mutex
	windows []*Window
	queued  []WindowOptions
	nextDom dom.DomId
}

// New returns an app calling layoutFn for the page of each window. A nil
// cfg means config.Default().
func New(userData any, cfg *config.Config, layoutFn LayoutFunc, opts ...Option) (*App, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if layoutFn == nil {
		return nil, errors.New("app: nil layout function")
	}
	a := &App{
		userData: userData,
		cfg:      cfg,
		layout:   layoutFn,
		log:      zap.NewNop(),
		clock:    task.SystemClock{},
	}
	for _, o := range opts {
		o(a)
	}
	a.log = a.log.Named("app")
	if _, err := NewShaper(cfg.Text.ShaperKind); err != nil {
		return nil, err
	}
	if a.fonts == nil {
		fonts, err := NewFonts(cfg.Text)
		if err != nil {
			a.log.Warn("font setup", zap.Error(err))
		}
		a.fonts = fonts
	}
	limit, burst := rate.Inf, max(cfg.Frame.Burst, 1)
	if cfg.Frame.RatePerSecond > 0 {
		limit = rate.Limit(cfg.Frame.RatePerSecond)
	}
	a.limiter = rate.NewLimiter(limit, burst)
	return a, nil
}

// Config returns the app configuration.
func (a *App) Config() *config.Config { return a.cfg }

// UserData returns the data handed to the layout function.
func (a *App) UserData() any { return a.userData }

// OpenWindow opens a window now. Its first frame builds the page.
func (a *App) OpenWindow(opts WindowOptions) (*Window, error) {
	a.mu.Lock()
	a.nextDom++
	id := a.nextDom
	a.mu.Unlock()

	w, err := newWindow(a, id, opts)
	if err != nil {
		return nil, fmt.Errorf("open window %q: %w", opts.Title, err)
	}
	a.mu.Lock()
	a.windows = append(a.windows, w)
	a.mu.Unlock()
	a.log.Info("window opened", zap.Stringer("window", w.id), zap.String("title", opts.Title))
	return w, nil
}

// Windows returns the open windows in opening order.
func (a *App) Windows() []*Window {
	a.mu.Lock()
	defer a.mu.Unlock()
	return slices.Clone(a.windows)
}

// queueWindow opens a window at the start of the next frame.
func (a *App) queueWindow(opts WindowOptions) {
	a.mu.Lock()
	a.queued = append(a.queued, opts)
	a.mu.Unlock()
}

func (a *App) regenerateAll() {
	for _, w := range a.Windows() {
		w.Regenerate()
	}
}

// Frame opens queued windows, runs a frame on every window and drops the
// windows that closed. Frame errors of single windows are joined.
func (a *App) Frame(now time.Time) error {
	a.mu.Lock()
	queued := a.queued
	a.queued = nil
	a.mu.Unlock()
	var errs []error
	for _, opts := range queued {
		if _, err := a.OpenWindow(opts); err != nil {
			errs = append(errs, err)
		}
	}

	for _, w := range a.Windows() {
		if _, err := w.Frame(now); err != nil {
			errs = append(errs, err)
		}
		if w.Closed() {
			a.drop(w)
			ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
			if err := w.shutdown(ctx); err != nil {
				errs = append(errs, err)
			}
			cancel()
		}
	}
	return errors.Join(errs...)
}

func (a *App) drop(w *Window) {
	a.mu.Lock()
	a.windows = slices.DeleteFunc(a.windows, func(o *Window) bool { return o == w })
	a.mu.Unlock()
	a.log.Info("window closed", zap.Stringer("window", w.id))
}

// Run opens a window and runs frames, paced by the configured frame rate,
// until ctx is done or the last window closed. Threads of the remaining
// windows are stopped before it returns.
func (a *App) Run(ctx context.Context, opts WindowOptions) error {
	if _, err := a.OpenWindow(opts); err != nil {
		return err
	}
	return a.Loop(ctx)
}

// Loop runs frames for the windows already open, like Run.
func (a *App) Loop(ctx context.Context) error {
	for {
		if err := a.limiter.Wait(ctx); err != nil {
			break
		}
		if err := a.Frame(a.clock.Now()); err != nil {
			a.log.Warn("frame failed", zap.Error(err))
		}
		if len(a.Windows()) == 0 {
			break
		}
	}
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), closeTimeout)
	defer cancel()
	return a.Shutdown(shutdownCtx)
}

// Shutdown stops the threads of every window and waits for them.
func (a *App) Shutdown(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, w := range a.Windows() {
		g.Go(func() error { return w.shutdown(ctx) })
	}
	return g.Wait()
}
