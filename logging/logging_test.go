package logging

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ugorji/go-catlog/config"
	"github.com/ugorji/go-catlog/errorutil"
	"github.com/ugorji/go-catlog/level"
	"github.com/ugorji/go-catlog/registry"
	"github.com/ugorji/go-catlog/runtimeutil"
	"github.com/ugorji/go-catlog/testutil"
)

const testConfig = `
	[format]
	src = "%V|%f|%U|%m%n"
	msg = "%m%n"
	[rules]
	app.>=notice = src;>stdout
	*.>=error = msg;>stderr
`

func open(t *testing.T, text string, out, errw *testutil.SyncBuffer) *Logger {
	t.Helper()
	diag, _ := logtest.NewNullLogger()
	lg, err := Open(testutil.WriteFile(t, "catlog.conf", text),
		registry.WithDiagnostics(diag),
		registry.WithClock(testutil.FixedClock(t)),
		registry.WithStdout(out),
		registry.WithStderr(errw))
	require.NoError(t, err)
	t.Cleanup(func() { lg.Close() })
	return lg
}

// here returns the line it is called from.
func here() int {
	_, _, line := runtimeutil.Caller(1)
	return line
}

func TestCallerCapture(t *testing.T) {
	var out, errw testutil.SyncBuffer
	lg := open(t, testConfig, &out, &errw)
	app := lg.Category("app")
	assert.Equal(t, "app", app.Name())

	require.NoError(t, app.Warn("disk %d%% full", 91))
	assert.Equal(t, "warn|logging_test.go|TestCallerCapture|disk 91% full\n", out.String())

	// the line number is the one of the call site
	out.Reset()
	lg.Close()
	lg = open(t, "[format]\nf = \"%f:%L %m%n\"\n[rules]\n*=f;>stdout\n", &out, &errw)
	require.NoError(t, lg.Category("x").Info("here"))
	line := here() - 1
	assert.Equal(t, "logging_test.go:"+strconv.Itoa(line)+" here\n", out.String())
}

func TestLevels(t *testing.T) {
	var out, errw testutil.SyncBuffer
	lg := open(t, testConfig, &out, &errw)
	app := lg.Category("app")
	for _, fn := range []func(string, ...interface{}) error{app.Debug, app.Info, app.Notice, app.Warn, app.Error, app.Fatal} {
		require.NoError(t, fn("m"))
	}
	var got []string
	for _, l := range out.Lines() {
		got = append(got, strings.SplitN(l, "|", 2)[0])
	}
	assert.Equal(t, []string{"notice", "warn", "error", "fatal"}, got)
	// app has its own rules, so the wildcard never sees it
	assert.Empty(t, errw.String())

	other := lg.Category("other")
	require.NoError(t, other.Warn("dropped"))
	require.NoError(t, other.Fatal("kept"))
	assert.Equal(t, "kept\n", errw.String())

	assert.True(t, app.Enabled(level.Notice))
	assert.False(t, app.Enabled(level.Info))
	assert.False(t, other.Enabled(level.Warn))
}

type helper struct{ lg *Logger }

func (h helper) warnf(format string, params ...interface{}) error {
	return h.lg.Log(1, "app", level.Warn, format, params...)
}

func TestLogCalldepth(t *testing.T) {
	var out, errw testutil.SyncBuffer
	lg := open(t, testConfig, &out, &errw)
	require.NoError(t, helper{lg}.warnf("via %s", "helper"))
	assert.Equal(t, "warn|logging_test.go|TestLogCalldepth|via helper\n", out.String())

	out.Reset()
	require.NoError(t, lg.Category("app").Log(0, level.Error, "direct"))
	assert.Equal(t, "error|logging_test.go|TestLogCalldepth|direct\n", out.String())
}

func TestError2(t *testing.T) {
	var out, errw testutil.SyncBuffer
	lg := open(t, testConfig, &out, &errw)
	app := lg.Category("app")
	require.NoError(t, app.Error2(nil, "nothing"))
	require.NoError(t, app.Error2(errors.New("boom"), "saving %s", "x"))
	assert.Equal(t, "error|logging_test.go|TestError2|saving x :: boom\n", out.String())
}

func TestInvalidLevel(t *testing.T) {
	var out, errw testutil.SyncBuffer
	lg := open(t, testConfig, &out, &errw)
	err := lg.Category("app").Log(0, level.Level(17), "x")
	assert.ErrorIs(t, err, errorutil.InvalidLevelSpec)
}

func TestClosedIsNoop(t *testing.T) {
	var out, errw testutil.SyncBuffer
	lg := open(t, testConfig, &out, &errw)
	require.NoError(t, lg.Close())
	require.NoError(t, lg.Category("app").Fatal("after close"))
	assert.Zero(t, out.Writes())
	require.NoError(t, lg.Close())
}

func TestNotInitialized(t *testing.T) {
	lg := New(registry.New())
	err := lg.Category("app").Info("x")
	assert.ErrorIs(t, err, errorutil.NotInitialized)
}

func TestOpenErrors(t *testing.T) {
	_, err := Open(testutil.WriteFile(t, "bad.conf", "[rules]\napp.loud = ;>stdout\n"))
	assert.ErrorIs(t, err, errorutil.InvalidLevelSpec)

	_, err = Open(t.TempDir() + "/missing.conf")
	assert.Error(t, err)
}

func TestOpenConfig(t *testing.T) {
	var out testutil.SyncBuffer
	cfg := config.New()
	require.NoError(t, cfg.Add(config.Format, "f", "%v %m%n"))
	require.NoError(t, cfg.AddRule("net.=info=f;>stdout"))
	diag, hook := logtest.NewNullLogger()
	diag.SetLevel(logrus.DebugLevel)
	lg, err := OpenConfig(cfg, registry.WithStdout(&out), registry.WithDiagnostics(diag))
	require.NoError(t, err)
	defer lg.Close()

	net := lg.Category("net")
	net.Info("up")
	net.Warn("not info")
	assert.Equal(t, "INFO up\n", out.String())
	assert.Equal(t, registry.Ready, lg.Registry().State())
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, "registry built", hook.LastEntry().Message)
}

func TestFlags(t *testing.T) {
	var c Config
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	c.Flags(fs)
	assert.True(t, c.LockWrites)
	assert.Equal(t, 512, c.MaxRecord)

	fpath := testutil.WriteFile(t, "c.conf", "[format]\nf = \"%m%n\"\n[rules]\n*=f;>stdout\n")
	require.NoError(t, fs.Parse([]string{"--log-config", fpath, "--log-lock-writes=false", "--log-max-record", "8"}))
	assert.Equal(t, fpath, c.File)
	assert.False(t, c.LockWrites)
	assert.Equal(t, 8, c.MaxRecord)

	var out testutil.SyncBuffer
	lg, err := c.Open(registry.WithStdout(&out))
	require.NoError(t, err)
	defer lg.Close()
	x := lg.Category("x")
	require.NoError(t, x.Info("short"))
	assert.ErrorIs(t, x.Info("much too long"), errorutil.RecordTooLong)
	assert.Equal(t, "short\n", out.String())
}

func TestMDC(t *testing.T) {
	defer ClearMDC()
	PutMDC("req", "7")
	v, ok := GetMDC("req")
	assert.True(t, ok)
	assert.Equal(t, "7", v)
	RemoveMDC("req")
	_, ok = GetMDC("req")
	assert.False(t, ok)
	PutMDC("a", "1")
	ClearMDC()
	_, ok = GetMDC("a")
	assert.False(t, ok)
}

func ExampleLogger() {
	cfg := config.New()
	cfg.Add(config.Format, "short", "%-6V %m%n")
	cfg.AddRule("db.>=warn=short;>stdout")
	lg, err := OpenConfig(cfg)
	if err != nil {
		fmt.Println(err)
		return
	}
	defer lg.Close()
	db := lg.Category("db")
	db.Info("connected")
	db.Warn("slow query: %dms", 1200)
	// Output:
	// warn   slow query: 1200ms
}
