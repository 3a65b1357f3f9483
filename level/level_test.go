package level

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ugorji/go/codec"

	"github.com/ugorji/go-catlog/errorutil"
)

var testParseMaskTbl = []struct {
	Spec string
	Mask Mask
}{
	{"*", All},
	{"debug", All},
	{">debug", All &^ Debug.Bit()},
	{"=debug", Debug.Bit()},
	{"info", Info.Bit() | Notice.Bit() | Warn.Bit() | Error.Bit() | Fatal.Bit()},
	{">info", Notice.Bit() | Warn.Bit() | Error.Bit() | Fatal.Bit()},
	{"=info", Info.Bit()},
	{"notice", Notice.Bit() | Warn.Bit() | Error.Bit() | Fatal.Bit()},
	{">notice", Warn.Bit() | Error.Bit() | Fatal.Bit()},
	{"=notice", Notice.Bit()},
	{"warn", Warn.Bit() | Error.Bit() | Fatal.Bit()},
	{">=warn", Warn.Bit() | Error.Bit() | Fatal.Bit()},
	{">warn", Error.Bit() | Fatal.Bit()},
	{"=warn", Warn.Bit()},
	{"error", Error.Bit() | Fatal.Bit()},
	{">error", Fatal.Bit()},
	{"=error", Error.Bit()},
	{"fatal", Fatal.Bit()},
	{">fatal", 0},
	{"=fatal", Fatal.Bit()},
}

func TestParseMask(t *testing.T) {
	for _, tb := range testParseMaskTbl {
		m, err := ParseMask(tb.Spec)
		require.NoError(t, err, tb.Spec)
		assert.Equal(t, tb.Mask, m, "spec: %q, got: %v", tb.Spec, m)
	}
}

func TestParseMaskInvalid(t *testing.T) {
	for _, spec := range []string{"", "=", ">", ">=", "WARN", "warning", "<warn", "=>warn", "**", " warn", "warn "} {
		m, err := ParseMask(spec)
		assert.Zero(t, m, spec)
		assert.ErrorIs(t, err, errorutil.InvalidLevelSpec, "spec: %q", spec)
	}
}

func TestParseMaskProperties(t *testing.T) {
	var union Mask
	for l := Debug; l <= Fatal; l++ {
		eq := MustParseMask("=" + l.String())
		assert.Equal(t, l.Bit(), eq)
		assert.Len(t, eq.Levels(), 1)
		union |= eq

		ge := MustParseMask(">=" + l.String())
		gt := MustParseMask(">" + l.String())
		assert.Equal(t, ge, ge|gt, "%v: >= must be a superset of >", l)
		assert.False(t, gt.Has(l), "%v: > must exclude its own level", l)
		assert.True(t, ge.Has(l), "%v: >= must include its own level", l)
		assert.Equal(t, ge, MustParseMask(l.String()), "%v: bare name must equal >=", l)
	}
	assert.Equal(t, MustParseMask("*"), union)
}

func TestLevelNames(t *testing.T) {
	assert.Equal(t, "warn", Warn.String())
	assert.Equal(t, "WARN", Warn.Upper())
	assert.Equal(t, "invalid", Level(9).String())
	assert.Zero(t, Level(9).Bit())
	l, ok := Parse("notice")
	assert.True(t, ok)
	assert.Equal(t, Notice, l)
	_, ok = Parse("Notice")
	assert.False(t, ok)
}

func TestMaskString(t *testing.T) {
	assert.Equal(t, "*", All.String())
	assert.Equal(t, "none", Mask(0).String())
	assert.Equal(t, "warn|error|fatal", MustParseMask("warn").String())
}

func TestMaskCodec(t *testing.T) {
	var h codec.JsonHandle
	var b []byte
	in := struct {
		Level Level
		Mask  Mask
	}{Error, MustParseMask(">info")}
	require.NoError(t, codec.NewEncoderBytes(&b, &h).Encode(&in))
	assert.JSONEq(t, `{"Level":"error","Mask":"notice|warn|error|fatal"}`, string(b))

	var out struct {
		Level Level
		Mask  Mask
	}
	require.NoError(t, codec.NewDecoderBytes(b, &h).Decode(&out))
	assert.Equal(t, in.Level, out.Level)
	assert.Equal(t, in.Mask, out.Mask)
}
