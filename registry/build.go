package registry

import (
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/ugorji/go-catlog/config"
	"github.com/ugorji/go-catlog/errorutil"
	"github.com/ugorji/go-catlog/level"
	"github.com/ugorji/go-catlog/pattern"
	"github.com/ugorji/go-catlog/safestore"
	"github.com/ugorji/go-catlog/sink"
)

// RuleSpec is a rule as declared, before anything is compiled or opened.
type RuleSpec struct {
	Category  string
	LevelSpec string
	Format    string
	Dest      string
}

// ParseRule splits a rules entry into its parts.
//
// The key splits into category and level spec at its first '.', and the value
// into format name and destination at its first ';'. Each part is trimmed.
// A missing level spec is DefaultLevel. A missing destination stays empty,
// which resolves to the default sink.
func ParseRule(key, value string) (r RuleSpec) {
	r.Category, r.LevelSpec = key, DefaultLevel
	if i := strings.IndexByte(key, '.'); i != -1 {
		r.Category, r.LevelSpec = key[:i], strings.TrimSpace(key[i+1:])
		if r.LevelSpec == "" {
			r.LevelSpec = DefaultLevel
		}
	}
	r.Category = strings.TrimSpace(r.Category)
	r.Format = value
	if i := strings.IndexByte(value, ';'); i != -1 {
		r.Format, r.Dest = value[:i], strings.TrimSpace(value[i+1:])
	}
	r.Format = strings.TrimSpace(r.Format)
	return
}

// Build compiles the formats and rules of cfg, opens every sink, and makes the
// registry Ready. A nil cfg is an empty configuration.
//
// Build fails with errorutil.AlreadyInitialized unless the registry is
// Uninitialized. On any other failure, every sink already opened is closed
// and the registry stays Uninitialized.
func (r *Registry) Build(cfg *config.Config) (err error) {
	if !r.state.CompareAndSwap(uint32(Uninitialized), uint32(building)) {
		return errorutil.Newf(errorutil.AlreadyInitialized, "building registry in state %v", r.State())
	}
	defer func() {
		if err != nil {
			r.state.Store(uint32(Uninitialized))
		}
	}()
	if cfg == nil {
		cfg = config.New()
	}
	patterns, err := r.buildPatterns(cfg)
	if err != nil {
		return
	}
	categories, nrules, err := r.buildCategories(cfg, patterns)
	if err != nil {
		return
	}
	r.patterns, r.categories = patterns, categories
	r.state.Store(uint32(Ready))
	r.diag.WithFields(logrus.Fields{
		"formats":    patterns.Len(),
		"categories": categories.Len(),
		"rules":      nrules,
	}).Debug("registry built")
	return
}

// buildPatterns compiles every format. The first declaration of a name wins,
// and the default format is added unless declared.
func (r *Registry) buildPatterns(cfg *config.Config) (patterns *safestore.T[*pattern.Program], err error) {
	patterns = safestore.New[*pattern.Program](false)
	for _, e := range cfg.Entries(config.Format) {
		p, err := pattern.Compile(e.Value)
		if err != nil {
			errorutil.OnErrorf(&err, errorutil.InvalidPattern, "format %q", e.Key)
			return nil, err
		}
		if !patterns.PutIfAbsent(e.Key, p) {
			r.diag.WithField("format", e.Key).Warn("duplicate format ignored; first declaration kept")
		}
	}
	if !patterns.Contains(DefaultFormat) {
		patterns.PutIfAbsent(DefaultFormat, pattern.MustCompile(DefaultPattern))
	}
	return
}

// buildCategories builds the category table in two passes. The first counts
// the rules of each category, so the second fills rule lists of exactly
// that size, in declaration order.
func (r *Registry) buildCategories(cfg *config.Config, patterns *safestore.T[*pattern.Program]) (
	categories *safestore.T[*Category], nrules int, err error) {
	entries := cfg.Entries(config.Rules)
	specs := make([]RuleSpec, 0, len(entries))
	for _, e := range entries {
		specs = append(specs, ParseRule(e.Key, e.Value))
	}
	if len(specs) == 0 {
		specs = append(specs, RuleSpec{Category: Wildcard, LevelSpec: DefaultLevel, Format: DefaultFormat, Dest: sink.Default})
	}

	// phase 1: count
	counts := make(map[string]int)
	categories = safestore.New[*Category](false)
	for _, s := range specs {
		if counts[s.Category]++; counts[s.Category] == 1 {
			categories.PutIfAbsent(s.Category, &Category{name: s.Category})
		}
	}

	// phase 2: build
	var opened []sink.Sink
	defer func() {
		if err != nil {
			r.closeAll(opened)
			categories = nil
		}
	}()
	for _, s := range specs {
		c, _ := categories.Get(s.Category)
		if c.rules == nil {
			c.rules = make([]Rule, 0, counts[s.Category])
		}
		var u Rule
		if u, err = r.buildRule(s, patterns); err != nil {
			return
		}
		opened = append(opened, u.Sink)
		c.rules = append(c.rules, u)
		nrules++
	}
	return
}

func (r *Registry) buildRule(s RuleSpec, patterns *safestore.T[*pattern.Program]) (u Rule, err error) {
	defer errorutil.OnErrorf(&err, 0, "rule %s.%s", s.Category, s.LevelSpec)
	u = Rule{Category: s.Category, LevelSpec: s.LevelSpec, Format: s.Format}
	if u.Mask, err = level.ParseMask(s.LevelSpec); err != nil {
		return
	}
	var ok bool
	if u.Program, ok = patterns.Get(s.Format); !ok {
		if s.Format != "" {
			r.diag.WithFields(logrus.Fields{
				"category": s.Category,
				"format":   s.Format,
			}).Warn("unknown format; using default")
		}
		u.Format = DefaultFormat
		u.Program, _ = patterns.Get(DefaultFormat)
	}
	w, err := sink.Resolve(s.Dest, r.sinkOpts...)
	if err != nil {
		return
	}
	u.Sink = w
	return
}

func (r *Registry) closeAll(sinks []sink.Sink) {
	for _, s := range sinks {
		if err := s.Close(); err != nil {
			r.diag.WithError(err).WithField("sink", s.Dest()).Warn("closing sink after failed build")
		}
	}
}
