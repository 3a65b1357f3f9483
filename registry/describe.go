package registry

import (
	"io"

	"github.com/ugorji/go/codec"

	"github.com/ugorji/go-catlog/level"
)

// RuleInfo summarizes a rule for display.
type RuleInfo struct {
	Level   string     `codec:"level" yaml:"level"`
	Mask    level.Mask `codec:"mask" yaml:"mask"`
	Format  string     `codec:"format" yaml:"format"`
	Pattern string     `codec:"pattern" yaml:"pattern"`
	Dest    string     `codec:"dest" yaml:"dest"`
}

// CategoryInfo summarizes a category for display.
type CategoryInfo struct {
	Name  string     `codec:"name" yaml:"name"`
	Rules []RuleInfo `codec:"rules" yaml:"rules"`
}

var jsonHandle = codec.JsonHandle{Indent: 2}

// Describe summarizes every category and its rules, in declaration order.
// It returns nil unless the registry is Ready.
func (r *Registry) Describe() (cs []CategoryInfo) {
	for _, name := range r.Categories() {
		c, ok := r.Lookup(name)
		if !ok {
			continue
		}
		ci := CategoryInfo{Name: name, Rules: make([]RuleInfo, len(c.rules))}
		for i := range c.rules {
			u := &c.rules[i]
			ci.Rules[i] = RuleInfo{
				Level:   u.LevelSpec,
				Mask:    u.Mask,
				Format:  u.Format,
				Pattern: u.Program.Source(),
				Dest:    u.Sink.Dest(),
			}
		}
		cs = append(cs, ci)
	}
	return
}

// WriteDescription writes Describe to w as indented JSON.
func (r *Registry) WriteDescription(w io.Writer) error {
	return codec.NewEncoder(w, &jsonHandle).Encode(r.Describe())
}
