package logging

import (
	"fmt"
	"strconv"

	"github.com/ugorji/go-catlog/config"
	"github.com/ugorji/go-catlog/errorutil"
	"github.com/ugorji/go-catlog/level"
	"github.com/ugorji/go-catlog/mdc"
	"github.com/ugorji/go-catlog/pattern"
	"github.com/ugorji/go-catlog/registry"
	"github.com/ugorji/go-catlog/runtimeutil"
)

// Logger hands log calls to a built registry.
type Logger struct {
	reg *registry.Registry
}

// New returns a Logger over reg. reg should be Ready.
func New(reg *registry.Registry) *Logger {
	return &Logger{reg: reg}
}

// Open loads the configuration file at path, and builds a Logger from it.
func Open(path string, opts ...registry.Option) (l *Logger, err error) {
	cfg, err := config.Load(path)
	if err != nil {
		return
	}
	return OpenConfig(cfg, opts...)
}

// OpenConfig builds a Logger from cfg. A nil cfg logs everything to stdout
// with the default pattern.
func OpenConfig(cfg *config.Config, opts ...registry.Option) (l *Logger, err error) {
	reg := registry.New(opts...)
	if err = reg.Build(cfg); err != nil {
		return
	}
	return New(reg), nil
}

// Registry returns the registry behind l.
func (l *Logger) Registry() *registry.Registry { return l.reg }

// Close releases every sink. Logging afterwards is a no-op.
func (l *Logger) Close() error {
	return l.reg.Close()
}

// Category returns a handle for logging to the named category.
// It is cheap, and safe to keep for the life of l.
func (l *Logger) Category(name string) *Category {
	return &Category{l: l, name: name}
}

// Log is the all-encompassing function that can be used by helper log
// functions without losing the caller's position.
//
// Example:
//
//	func logW(message string, params ...interface{}) {
//	  lg.Log(1, "app", level.Warn, message, params...)
//	}
func (l *Logger) Log(calldepth uint8, category string, lvl level.Level, message string, params ...interface{}) error {
	return l.logR(calldepth+1, category, lvl, message, params...)
}

// Enabled reports whether any rule would accept a call to category at lvl.
func (l *Logger) Enabled(category string, lvl level.Level) bool {
	return l.reg.Accepts(category, lvl)
}

func (l *Logger) logR(calldepth uint8, category string, lvl level.Level, message string, params ...interface{},
) (err error) {
	if !lvl.Valid() {
		return errorutil.Newf(errorutil.InvalidLevelSpec, "logging to %q at level %d", category, uint8(lvl))
	}
	if l.reg.State() == registry.Ready && !l.Enabled(category, lvl) {
		return
	}
	var r pattern.Record
	r.Level = lvl
	r.Func, r.File, r.Line = runtimeutil.Caller(calldepth + 1)
	r.LineStr = strconv.Itoa(r.Line)
	if len(params) == 0 {
		r.Message = message
	} else {
		r.Message = fmt.Sprintf(message, params...)
	}
	return l.reg.Dispatch(category, &r)
}

// Category logs to one named category of a Logger.
type Category struct {
	l    *Logger
	name string
}

func (c *Category) Name() string { return c.name }

// Enabled reports whether a call at lvl would be written anywhere.
func (c *Category) Enabled(lvl level.Level) bool {
	return c.l.Enabled(c.name, lvl)
}

// Log is like Logger.Log for this category.
func (c *Category) Log(calldepth uint8, lvl level.Level, message string, params ...interface{}) error {
	return c.l.logR(calldepth+1, c.name, lvl, message, params...)
}

func (c *Category) Debug(message string, params ...interface{}) error {
	return c.l.logR(1, c.name, level.Debug, message, params...)
}

func (c *Category) Info(message string, params ...interface{}) error {
	return c.l.logR(1, c.name, level.Info, message, params...)
}

func (c *Category) Notice(message string, params ...interface{}) error {
	return c.l.logR(1, c.name, level.Notice, message, params...)
}

func (c *Category) Warn(message string, params ...interface{}) error {
	return c.l.logR(1, c.name, level.Warn, message, params...)
}

func (c *Category) Error(message string, params ...interface{}) error {
	return c.l.logR(1, c.name, level.Error, message, params...)
}

// Error2 logs err along with an associated message, at level Error.
// It is a no-op if err is nil.
func (c *Category) Error2(err error, message string, params ...interface{}) error {
	if err == nil {
		return nil
	}
	if len(params) > 0 {
		message = fmt.Sprintf(message, params...)
	}
	return c.l.logR(1, c.name, level.Error, "%s :: %v", message, err)
}

// Fatal logs at level Fatal. It does not exit.
func (c *Category) Fatal(message string, params ...interface{}) error {
	return c.l.logR(1, c.name, level.Fatal, message, params...)
}

// PutMDC sets key to value in the calling goroutine's diagnostic context.
func PutMDC(key, value string) { mdc.Put(key, value) }

// GetMDC returns the value of key in the calling goroutine's diagnostic context.
func GetMDC(key string) (string, bool) { return mdc.Get(key) }

// RemoveMDC deletes key from the calling goroutine's diagnostic context.
func RemoveMDC(key string) { mdc.Remove(key) }

// ClearMDC empties the calling goroutine's diagnostic context.
func ClearMDC() { mdc.Clear() }
