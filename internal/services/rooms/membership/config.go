package membership

import "time"

// Config tunes retry and cascade behavior.
type Config struct {
	// MaxAttempts bounds compare-and-update attempts per record write.
	MaxAttempts int `env:"TRACKASONE_ROOMS_MAX_ATTEMPTS" envDefault:"5"`
	// InitialBackoff is the first retry delay before jitter.
	InitialBackoff time.Duration `env:"TRACKASONE_ROOMS_INITIAL_BACKOFF" envDefault:"10ms"`
	// MaxBackoff caps a single retry delay.
	MaxBackoff time.Duration `env:"TRACKASONE_ROOMS_MAX_BACKOFF" envDefault:"250ms"`
	// CascadeConcurrency bounds concurrent task deletes in one cascade.
	CascadeConcurrency int `env:"TRACKASONE_ROOMS_CASCADE_CONCURRENCY" envDefault:"8"`
}

// DefaultConfig returns the defaults used when no environment is parsed.
func DefaultConfig() Config {
	return Config{
		MaxAttempts:        5,
		InitialBackoff:     10 * time.Millisecond,
		MaxBackoff:         250 * time.Millisecond,
		CascadeConcurrency: 8,
	}
}

func (c Config) normalized() Config {
	def := DefaultConfig()
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = def.MaxAttempts
	}
	if c.InitialBackoff <= 0 {
		c.InitialBackoff = def.InitialBackoff
	}
	if c.MaxBackoff < c.InitialBackoff {
		c.MaxBackoff = c.InitialBackoff
	}
	if c.CascadeConcurrency <= 0 {
		c.CascadeConcurrency = def.CascadeConcurrency
	}
	return c
}
