package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ugorji/go-catlog/testutil"
)

const testConfig = `
# catlog configuration
[general]

[format]
simple = "%-6V %m%n"
full   = %d(%Y-%m-%d %H:%M:%S).%S %-6V [%f:%L] %m%n
semi   = "a;b #c"

[rules]
app.>=warn = simple;>stdout
app.*=full;/tmp/app.log
db = ;>stderr
net.=info=simple
*.* = full
app.>notice = simple;| logger -t app
`

func TestParse(t *testing.T) {
	c, err := Parse([]byte(testConfig))
	require.NoError(t, err)
	assert.True(t, c.HasGroup(General))
	assert.True(t, c.HasGroup(Format))
	assert.True(t, c.HasGroup(Rules))
	assert.False(t, c.HasGroup("other"))
	assert.Equal(t, []string{General, Format, Rules}, c.Groups())

	assert.Equal(t, []Entry{
		{"simple", "%-6V %m%n"},
		{"full", "%d(%Y-%m-%d %H:%M:%S).%S %-6V [%f:%L] %m%n"},
		{"semi", "a;b #c"},
	}, c.Entries(Format))

	assert.Equal(t, []Entry{
		{"app.>=warn", "simple;>stdout"},
		{"app.*", "full;/tmp/app.log"},
		{"db", ";>stderr"},
		{"net.=info", "simple"},
		{"*.*", "full"},
		{"app.>notice", "simple;| logger -t app"},
	}, c.Entries(Rules))

	assert.Empty(t, c.Entries(General))
	assert.Nil(t, c.Entries("missing"))
}

func TestLoad(t *testing.T) {
	fpath := testutil.WriteFile(t, "catlog.conf", testConfig)
	c, err := Load(fpath)
	require.NoError(t, err)
	assert.Len(t, c.Entries(Rules), 6)

	_, err = Load(fpath + ".missing")
	assert.Error(t, err)
}

func TestRepeatedKeys(t *testing.T) {
	c, err := Parse([]byte(`
		[rules]
		app = simple;>stdout
		db  = simple;>stderr
		app = full;/tmp/a.log
		app = simple;>stdout
	`))
	require.NoError(t, err)
	// shadows of a key follow its first value; identical lines collapse
	assert.Equal(t, []Entry{
		{"app", "simple;>stdout"},
		{"app", "full;/tmp/a.log"},
		{"db", "simple;>stderr"},
	}, c.Entries(Rules))
}

func TestUnknownGroupsAndDefault(t *testing.T) {
	c, err := Parse([]byte("stray = 1\n[rules]\n*=x\n[extras]\nk=v\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"DEFAULT", Rules, "extras"}, c.Groups())
	assert.False(t, c.HasGroup(Format))
}

func TestAddRule(t *testing.T) {
	c := New()
	assert.False(t, c.HasGroup(Rules))
	require.NoError(t, c.Add(Format, "f1", `"%m%n"`))
	require.NoError(t, c.AddRule("app.>=warn=fmt1;>stdout"))
	require.NoError(t, c.AddRule("app.*=fmt2;/tmp/app.log"))
	require.NoError(t, c.AddRule("*=f1"))
	assert.Error(t, c.AddRule("app"))

	assert.True(t, c.HasGroup(Rules))
	assert.Equal(t, []Entry{{"f1", "%m%n"}}, c.Entries(Format))
	assert.Equal(t, []Entry{
		{"app.>=warn", "fmt1;>stdout"},
		{"app.*", "fmt2;/tmp/app.log"},
		{"*", "f1"},
	}, c.Entries(Rules))
}

func TestSplitRuleLine(t *testing.T) {
	var tbl = []struct {
		Line       string
		Key, Value string
		OK         bool
	}{
		{"app.>=warn=fmt1;>stdout", "app.>=warn", "fmt1;>stdout", true},
		{"app.=warn = fmt1", "app.=warn", "fmt1", true},
		{"app.>warn=", "app.>warn", "", true},
		{"app.warn=fmt", "app.warn", "fmt", true},
		{"app. >= warn = fmt", "app. >= warn", "fmt", true},
		{"app=fmt.x;a=b", "app", "fmt.x;a=b", true},
		{"  * = f;>stderr  ", "*", "f;>stderr", true},
		{"app.>=warn", "", "", false},
		{"app", "", "", false},
	}
	for _, tb := range tbl {
		k, v, ok := SplitRuleLine(tb.Line)
		assert.Equal(t, tb.OK, ok, tb.Line)
		assert.Equal(t, tb.Key, k, tb.Line)
		assert.Equal(t, tb.Value, v, tb.Line)
	}
}
