package eventbridge

import "time"

// Config configures Publisher's NATS connection, JetStream subject,
// and circuit breaker.
type Config struct {
	URL     string
	Subject string

	MaxReconnects   int
	ReconnectWait   time.Duration
	ReconnectBuffer int

	// BreakerFailureThreshold is the number of consecutive publish
	// failures before the breaker opens.
	BreakerFailureThreshold uint32
	// BreakerTimeout is how long the breaker stays open before probing
	// with a single request again.
	BreakerTimeout time.Duration
}

// DefaultConfig returns sensible defaults; callers still need to set
// URL and Subject.
func DefaultConfig() Config {
	return Config{
		MaxReconnects:           -1,
		ReconnectWait:           2 * time.Second,
		ReconnectBuffer:         8 * 1024 * 1024,
		BreakerFailureThreshold: 5,
		BreakerTimeout:          30 * time.Second,
	}
}
