// Package config reads catlog configuration: an INI-style text of three groups.
//
//	[general]
//	[format]
//	NAME = "PATTERN"
//	[rules]
//	CATEGORY[.LEVELSPEC] = FORMAT;DESTINATION
//
// Entries keep the order they were declared in, and a key may repeat.
// Values are taken verbatim: inline comments are not recognized (patterns
// and destinations may contain ';' and '#') and surrounding quotes are stripped.
//
// A rule key may itself contain '=', as in "app.>=warn". Its key ends at the
// first '=' which is not the level operator following the first '.'.
package config

import (
	"bufio"
	"bytes"
	"os"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/ini.v1"
)

// Group names.
const (
	General = "general"
	Format  = "format"
	Rules   = "rules"
)

// Entry is one key/value pair of a group.
type Entry struct {
	Key   string
	Value string
}

// Config is an ordered, in-memory configuration.
type Config struct {
	f *ini.File
}

var loadOptions = ini.LoadOptions{
	IgnoreInlineComment: true,
	IgnoreContinuation:  true,
	AllowShadows:        true,
	KeyValueDelimiters:  "=",
}

// New returns an empty Config, to be filled with Add and AddRule.
func New() *Config {
	return &Config{f: ini.Empty(loadOptions)}
}

// Load reads the configuration file at path.
func Load(path string) (c *Config, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading config %s", path)
	}
	if c, err = Parse(data); err != nil {
		return nil, errors.Wrapf(err, "loading config %s", path)
	}
	return
}

// Parse reads a configuration from its text.
func Parse(data []byte) (c *Config, err error) {
	if data, err = quoteRuleKeys(data); err != nil {
		return nil, errors.Wrap(err, "parsing config")
	}
	f, err := ini.LoadSources(loadOptions, data)
	if err != nil {
		return nil, errors.Wrap(err, "parsing config")
	}
	return &Config{f: f}, nil
}

// HasGroup reports whether the configuration declares the named group.
func (c *Config) HasGroup(name string) bool {
	_, err := c.f.GetSection(name)
	return err == nil
}

// Groups returns the declared group names, in order.
// The unnamed group holding entries before any header is included only if not empty.
func (c *Config) Groups() (names []string) {
	for _, s := range c.f.Sections() {
		if s.Name() == ini.DefaultSection && len(s.Keys()) == 0 {
			continue
		}
		names = append(names, s.Name())
	}
	return
}

// Entries returns the entries of a group in declaration order.
// A repeated key yields one entry per distinct value.
func (c *Config) Entries(group string) (es []Entry) {
	s, err := c.f.GetSection(group)
	if err != nil {
		return
	}
	for _, k := range s.Keys() {
		vals := k.ValueWithShadows()
		if len(vals) == 0 {
			vals = []string{""}
		}
		for _, v := range vals {
			es = append(es, Entry{Key: k.Name(), Value: v})
		}
	}
	return
}

// Add appends an entry to a group, creating the group if needed.
func (c *Config) Add(group, key, value string) (err error) {
	if _, err = c.f.Section(group).NewKey(key, trimQuotes(strings.TrimSpace(value))); err != nil {
		err = errors.Wrapf(err, "adding %s to [%s]", key, group)
	}
	return
}

// AddRule appends a rule line, e.g. "app.>=warn=fmt1;>stdout", to the rules group.
func (c *Config) AddRule(line string) error {
	key, value, ok := SplitRuleLine(line)
	if !ok {
		return errors.Errorf("adding rule %q: no key-value delimiter", line)
	}
	return c.Add(Rules, key, value)
}

// SplitRuleLine splits a rule line into its trimmed key and value.
//
// The key ends at the first '=', unless a '.' comes before it: then an
// optional level operator (">", "=" or ">=") right after the '.' is part of
// the key, and the key ends at the next '='.
func SplitRuleLine(line string) (key, value string, ok bool) {
	i := strings.IndexByte(line, '=')
	if i == -1 {
		return
	}
	if dot := strings.IndexByte(line, '.'); dot != -1 && dot < i {
		j := dot + 1
		for j < len(line) && line[j] == ' ' {
			j++
		}
		if j < len(line) && line[j] == '>' {
			j++
		}
		if j < len(line) && line[j] == '=' {
			j++
		}
		k := strings.IndexByte(line[j:], '=')
		if k == -1 {
			return
		}
		i = j + k
	}
	return strings.TrimSpace(line[:i]), strings.TrimSpace(line[i+1:]), true
}

// quoteRuleKeys backquotes the key of every entry in the rules group,
// so the INI reader does not split it at a level operator.
func quoteRuleKeys(data []byte) ([]byte, error) {
	var out bytes.Buffer
	out.Grow(len(data) + 64)
	var inRules bool
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 4096), 1<<20)
	for sc.Scan() {
		line := sc.Text()
		t := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(t, "[") && strings.HasSuffix(t, "]"):
			inRules = strings.TrimSpace(t[1:len(t)-1]) == Rules
		case !inRules, t == "", t[0] == '#', t[0] == ';', t[0] == '`', t[0] == '"':
		default:
			if key, value, ok := SplitRuleLine(t); ok && !strings.Contains(key, "`") {
				line = "`" + key + "` = " + value
			}
		}
		out.WriteString(line)
		out.WriteByte('\n')
	}
	return out.Bytes(), sc.Err()
}

func trimQuotes(s string) string {
	if len(s) >= 2 && (s[0] == '"' && s[len(s)-1] == '"' || s[0] == '\'' && s[len(s)-1] == '\'') {
		return s[1 : len(s)-1]
	}
	return s
}
