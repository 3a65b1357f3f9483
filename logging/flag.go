package logging

import (
	"github.com/spf13/pflag"

	"github.com/ugorji/go-catlog/ioutil"
	"github.com/ugorji/go-catlog/registry"
)

// Config holds the command-line settings of a Logger.
type Config struct {
	File       string
	LockWrites bool
	MaxRecord  int
}

func (p *Config) Flags(flags *pflag.FlagSet) {
	flags.StringVar(&p.File, "log-config", "", "catlog configuration file (default: everything to stdout)")
	flags.BoolVar(&p.LockWrites, "log-lock-writes", true, "serialize writes to each sink")
	flags.IntVar(&p.MaxRecord, "log-max-record", ioutil.DefaultSize, "capacity of one rendered record, in bytes")
}

// Options returns the registry options p stands for.
func (p *Config) Options() []registry.Option {
	return []registry.Option{
		registry.WithLocking(p.LockWrites),
		registry.WithMaxRecord(p.MaxRecord),
	}
}

// Open builds a Logger from p, with opts applied after p's own options.
func (p *Config) Open(opts ...registry.Option) (*Logger, error) {
	opts = append(p.Options(), opts...)
	if p.File == "" {
		return OpenConfig(nil, opts...)
	}
	return Open(p.File, opts...)
}
