/*
Package registry ties levels, patterns and sinks together.

A Registry maps category names to ordered rule lists. A rule is a level
mask, a compiled pattern and an opened sink. Each log call to a category
is rendered through, and written by, every rule whose mask holds its level:
a single call may fan out to several sinks.

A Registry goes through three states:

	Uninitialized --Build--> Ready --Close--> Closed

Build runs once and must complete before any Dispatch. After that, the
registry is read-only and safe for concurrent Dispatch calls. Close must
not race with Dispatch; the embedding program is responsible for that.

A call to a category with no rules of its own uses the rules of the
wildcard category "*". If there is no wildcard category either, the call
is dropped silently.
*/
package registry

import (
	"io"
	"os"
	"strconv"
	"sync"

	"github.com/benbjohnson/clock"
	"github.com/sirupsen/logrus"
	"go.uber.org/atomic"
	"go.uber.org/multierr"

	"github.com/ugorji/go-catlog/errorutil"
	"github.com/ugorji/go-catlog/ioutil"
	"github.com/ugorji/go-catlog/level"
	"github.com/ugorji/go-catlog/pattern"
	"github.com/ugorji/go-catlog/safestore"
	"github.com/ugorji/go-catlog/sink"
)

// Published defaults.
const (
	Wildcard       = "*"
	DefaultFormat  = "default"
	DefaultPattern = "%d(%Y-%m-%d %H:%M:%S).%S %-6V [%f:%L] %m%n"
	DefaultLevel   = "*"
)

// State is the lifecycle state of a Registry.
type State uint32

const (
	Uninitialized State = iota
	Ready
	Closed
	// building is held while Build runs, so a concurrent Build or Dispatch
	// does not see a half-built registry.
	building
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Ready:
		return "ready"
	case Closed:
		return "closed"
	case building:
		return "building"
	}
	return "state(" + strconv.Itoa(int(s)) + ")"
}

// Rule routes the levels in Mask of one category through Program to Sink.
type Rule struct {
	Category string
	// LevelSpec is the level filter as configured, e.g. ">=warn".
	LevelSpec string
	Mask      level.Mask
	// Format is the name of the pattern used, after falling back to the default.
	Format  string
	Program *pattern.Program
	Sink    sink.Sink
}

// Category is a named, ordered list of rules. It is immutable.
type Category struct {
	name  string
	rules []Rule
}

func (c *Category) Name() string { return c.name }

// Rules returns a copy of the rules, in declaration order.
func (c *Category) Rules() []Rule {
	return append([]Rule(nil), c.rules...)
}

// Len returns the number of rules.
func (c *Category) Len() int { return len(c.rules) }

// Stats counts dispatch activity since Build.
type Stats struct {
	// Calls is the number of Dispatch calls on a Ready registry.
	Calls uint64 `codec:"calls" yaml:"calls"`
	// Writes is the number of records written to sinks.
	Writes uint64 `codec:"writes" yaml:"writes"`
	// Errors is the number of failed renders and writes.
	Errors uint64 `codec:"errors" yaml:"errors"`
}

// Option configures a Registry.
type Option func(*Registry)

// WithDiagnostics sets where the registry reports on itself
// (format fallbacks, build summary, failures closing sinks).
func WithDiagnostics(l logrus.FieldLogger) Option {
	return func(r *Registry) { r.diag = l }
}

// WithClock sets the clock used to timestamp records and expand file paths.
func WithClock(c clock.Clock) Option {
	return func(r *Registry) { r.clock = c }
}

// WithStdout sets the writer behind ">stdout".
func WithStdout(w io.Writer) Option {
	return func(r *Registry) { r.sinkOpts = append(r.sinkOpts, sink.WithStdout(w)) }
}

// WithStderr sets the writer behind ">stderr".
func WithStderr(w io.Writer) Option {
	return func(r *Registry) { r.sinkOpts = append(r.sinkOpts, sink.WithStderr(w)) }
}

// WithLocking turns the per-sink write lock on (the default) or off.
func WithLocking(v bool) Option {
	return func(r *Registry) { r.sinkOpts = append(r.sinkOpts, sink.WithLocking(v)) }
}

// WithMaxRecord sets the capacity of the buffer each record is rendered into.
// Records which do not fit fail with errorutil.RecordTooLong.
func WithMaxRecord(n int) Option {
	return func(r *Registry) {
		if n > 0 {
			r.maxRecord = n
		}
	}
}

// Registry is the category table, and the dispatcher which consults it.
type Registry struct {
	state atomic.Uint32

	patterns   *safestore.T[*pattern.Program]
	categories *safestore.T[*Category]

	clock     clock.Clock
	renderer  *pattern.Renderer
	diag      logrus.FieldLogger
	sinkOpts  []sink.Option
	maxRecord int
	bufs      sync.Pool

	calls  atomic.Uint64
	writes atomic.Uint64
	errors atomic.Uint64
}

// New returns an Uninitialized registry. Call Build to make it Ready.
func New(opts ...Option) *Registry {
	r := &Registry{maxRecord: ioutil.DefaultSize}
	for _, fn := range opts {
		fn(r)
	}
	if r.clock == nil {
		r.clock = clock.New()
	}
	if r.diag == nil {
		r.diag = defaultDiagnostics()
	}
	r.renderer = pattern.NewRenderer(r.clock)
	r.sinkOpts = append(r.sinkOpts, sink.WithClock(r.clock))
	r.bufs.New = func() interface{} { return ioutil.NewBuffer(r.maxRecord) }
	return r
}

func defaultDiagnostics() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetLevel(logrus.WarnLevel)
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return l.WithField("component", "catlog")
}

// State returns the lifecycle state.
func (r *Registry) State() State {
	s := State(r.state.Load())
	if s == building {
		return Uninitialized
	}
	return s
}

// Stats returns the dispatch counters.
func (r *Registry) Stats() Stats {
	return Stats{
		Calls:  r.calls.Load(),
		Writes: r.writes.Load(),
		Errors: r.errors.Load(),
	}
}

// Lookup returns the category registered under exactly name.
// It reports not found unless the registry is Ready.
func (r *Registry) Lookup(name string) (c *Category, ok bool) {
	if State(r.state.Load()) != Ready {
		return
	}
	return r.categories.Get(name)
}

// Match returns the category name resolves to: the category itself if
// registered, else the wildcard category, else not found.
func (r *Registry) Match(name string) (c *Category, ok bool) {
	if c, ok = r.Lookup(name); !ok {
		c, ok = r.Lookup(Wildcard)
	}
	return
}

// Accepts reports whether a Dispatch at lvl to the named category would
// reach at least one rule.
func (r *Registry) Accepts(name string, lvl level.Level) bool {
	c, ok := r.Match(name)
	if !ok {
		return false
	}
	for i := range c.rules {
		if c.rules[i].Mask.Has(lvl) {
			return true
		}
	}
	return false
}

// Categories returns the registered category names, in declaration order.
func (r *Registry) Categories() []string {
	if State(r.state.Load()) != Ready {
		return nil
	}
	return r.categories.Keys()
}

// Dispatch renders rec through, and writes it with, every rule of the named
// category whose mask holds rec.Level.
//
// It fails with errorutil.NotInitialized before Build. After Close, and for
// a category which matches nothing, it does nothing. A failed render or
// write does not stop the remaining rules; all failures are returned together.
func (r *Registry) Dispatch(name string, rec *pattern.Record) (err error) {
	switch State(r.state.Load()) {
	case Ready:
	case Closed:
		return
	default:
		return errorutil.Newf(errorutil.NotInitialized, "dispatching to %q", name)
	}
	r.calls.Inc()
	c, ok := r.Match(name)
	if !ok {
		return
	}
	var b *ioutil.Buffer
	// every rule renders the record at the same instant
	now := r.renderer.Clock().Now()
	for i := range c.rules {
		u := &c.rules[i]
		if !u.Mask.Has(rec.Level) {
			continue
		}
		if b == nil {
			b = r.bufs.Get().(*ioutil.Buffer)
			defer r.bufs.Put(b)
		}
		b.Reset()
		if err2 := u.Program.RenderAt(b, rec, now); err2 != nil {
			r.errors.Inc()
			err = multierr.Append(err, err2)
			continue
		}
		if _, err2 := u.Sink.Write(b.Bytes()); err2 != nil {
			r.errors.Inc()
			err = multierr.Append(err, err2)
			continue
		}
		r.writes.Inc()
	}
	return
}

// Close releases every sink exactly once, and moves the registry to Closed.
// Calling it again is a no-op.
func (r *Registry) Close() (err error) {
	var prev State
	for {
		prev = State(r.state.Load())
		if prev == Closed {
			return
		}
		if prev == building {
			return errorutil.Newf(errorutil.NotInitialized, "closing while building")
		}
		if r.state.CompareAndSwap(uint32(prev), uint32(Closed)) {
			break
		}
	}
	if prev != Ready {
		return
	}
	var n int
	r.categories.Range(func(_ string, c *Category) bool {
		for i := range c.rules {
			n++
			err = multierr.Append(err, c.rules[i].Sink.Close())
		}
		return true
	})
	if err != nil {
		r.diag.WithError(err).Warn("closing sinks")
	}
	r.diag.WithField("sinks", n).Debug("registry closed")
	return
}
