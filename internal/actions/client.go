// internal/actions/client.go
package actions

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/xkilldash9x/wxauto/api/schemas"
	"github.com/xkilldash9x/wxauto/internal/config"
	"github.com/xkilldash9x/wxauto/internal/lang"
	"github.com/xkilldash9x/wxauto/internal/lock"
	"github.com/xkilldash9x/wxauto/internal/observability"
	"github.com/xkilldash9x/wxauto/internal/parser"
	"github.com/xkilldash9x/wxauto/internal/resolver"
	"github.com/xkilldash9x/wxauto/internal/uia"
	"go.uber.org/zap"
)

// Options wires a Client to the binding and to the shared services.
type Options struct {
	Desktop uia.Desktop
	// Root is the application's main window.
	Root uia.Control
	// PID owns every transient window the flows wait for.
	PID int
	// Lock serializes UI access. Every Client driving the same application
	// must share one lock; nil builds a private in-process lock.
	Lock    *lock.ActorLock
	Tables  *lang.Tables
	Config  config.AutomationConfig
	Logger  *zap.Logger
	Metrics *observability.Metrics
}

// Client composes the resolver, parser and actor lock into the multi-step
// flows of the application. Every flow runs under the actor lock and returns
// a schemas.Response; not-found conditions are failures, not errors.
type Client struct {
	desktop  uia.Desktop
	root     uia.Control
	pid      int
	lock     *lock.ActorLock
	resolver *resolver.Resolver
	table    *lang.Table
	parser   *parser.Parser
	cfg      config.AutomationConfig
	logger   *zap.Logger
	metrics  *observability.Metrics

	moments  *Moments
	sessions *SessionBox
}

func NewClient(opts Options) (*Client, error) {
	if opts.Desktop == nil {
		return nil, errors.New("desktop binding is required")
	}
	if opts.Root == nil {
		return nil, errors.New("main window is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	tables := opts.Tables
	if tables == nil {
		var err error
		if tables, err = lang.Load(); err != nil {
			return nil, fmt.Errorf("loading language tables: %w", err)
		}
	}
	table := tables.For(opts.Config.Language)
	p, err := parser.New(table)
	if err != nil {
		return nil, fmt.Errorf("building parser for language %q: %w", table.Language(), err)
	}
	l := opts.Lock
	if l == nil {
		l = lock.New(lock.Options{}, logger, opts.Metrics)
	}

	c := &Client{
		desktop:  opts.Desktop,
		root:     opts.Root,
		pid:      opts.PID,
		lock:     l,
		resolver: resolver.New(opts.Desktop, opts.Config.PollInterval, logger, opts.Metrics),
		table:    table,
		parser:   p,
		cfg:      opts.Config,
		logger:   logger.Named("actions"),
		metrics:  opts.Metrics,
	}
	c.moments = &Moments{c: c}
	c.sessions = &SessionBox{c: c}
	return c, nil
}

// Lock returns the actor lock, for callers composing their own sequences.
func (c *Client) Lock() *lock.ActorLock { return c.lock }

// Resolver returns the resolver used by the flows.
func (c *Client) Resolver() *resolver.Resolver { return c.resolver }

// Parser returns the parser for the active language.
func (c *Client) Parser() *parser.Parser { return c.parser }

// Text returns the localized caption for key.
func (c *Client) Text(key string) string { return c.table.Text(key) }

func (c *Client) Moments() *Moments { return c.moments }

func (c *Client) Sessions() *SessionBox { return c.sessions }

func (c *Client) Messages() *MessageActions { return &MessageActions{c: c} }

// do runs one named action under the actor lock. Each invocation is tagged
// with a fresh action id in the logs.
func (c *Client) do(ctx context.Context, action string, fn func(ctx context.Context, log *zap.Logger) schemas.Response) schemas.Response {
	log := c.logger.With(zap.String("action", action), zap.String("action_id", uuid.NewString()))

	var resp schemas.Response
	err := c.lock.Do(ctx, func(ctx context.Context) error {
		resp = fn(ctx, log)
		return nil
	})
	if err != nil {
		log.Info("Could not acquire the UI lock.", zap.Error(err))
		resp = schemas.Failuref("could not acquire the UI lock: %v", err)
	}

	if resp.IsSuccess() {
		log.Debug("Action succeeded.", zap.String("message", resp.Message))
	} else {
		log.Info("Action failed.", zap.String("reason", resp.Message))
	}
	c.metrics.RecordAction(action, resp.IsSuccess())
	return resp
}

// query runs a read-only enumeration under the actor lock. A lock failure
// yields the zero value.
func query[T any](ctx context.Context, c *Client, name string, fn func(ctx context.Context) T) T {
	out, err := lock.Run(ctx, c.lock, func(ctx context.Context) (T, error) {
		return fn(ctx), nil
	})
	if err != nil {
		c.logger.Info("Could not acquire the UI lock.", zap.String("query", name), zap.Error(err))
	}
	return out
}

// waitMenuWindow polls for a tool window of class whose direct children
// include one of captions.
func (c *Client) waitMenuWindow(ctx context.Context, class string, timeout time.Duration, captions ...string) (uia.Control, bool) {
	return c.resolver.WaitWindow(ctx, resolver.WindowQuery{
		ClassName: class,
		PID:       c.pid,
		Child:     resolver.ByNameIn(captions...),
	}, timeout)
}

// pause waits d or until ctx is done. It reports whether the full wait elapsed.
func pause(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
