package resilience

import (
	"time"

	"github.com/sells-group/radar/internal/config"
)

// FromConfig converts resilience config values into a retry policy and a
// breaker config, keeping defaults for unset fields.
func FromConfig(cfg config.ResilienceConfig) (Policy, BreakerConfig) {
	p := DefaultPolicy()
	if cfg.MaxAttempts > 0 {
		p.Attempts = cfg.MaxAttempts
	}
	if cfg.InitialBackoffMs > 0 {
		p.Initial = time.Duration(cfg.InitialBackoffMs) * time.Millisecond
	}
	if cfg.MaxBackoffMs > 0 {
		p.Max = time.Duration(cfg.MaxBackoffMs) * time.Millisecond
	}
	if cfg.Multiplier > 0 {
		p.Multiplier = cfg.Multiplier
	}
	if cfg.JitterFraction >= 0 {
		p.Jitter = cfg.JitterFraction
	}

	b := DefaultBreakerConfig()
	if cfg.FailureThreshold > 0 {
		b.FailureThreshold = cfg.FailureThreshold
	}
	if cfg.ResetTimeoutSecs > 0 {
		b.Cooldown = time.Duration(cfg.ResetTimeoutSecs) * time.Second
	}
	return p, b
}
