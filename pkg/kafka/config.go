package kafka

import "time"

// ProducerConfig holds producer configuration.
type ProducerConfig struct {
	Brokers      []string
	RequiredAcks int
	Compression  string
	MaxAttempts  int
	WriteTimeout time.Duration
	ReadTimeout  time.Duration
	HashByKey    bool
}

// ProducerOption configures the producer.
type ProducerOption func(*ProducerConfig)

// WithBrokers sets broker addresses.
func WithBrokers(brokers []string) ProducerOption {
	return func(c *ProducerConfig) { c.Brokers = brokers }
}

// WithRequiredAcks sets the required acks level.
func WithRequiredAcks(acks int) ProducerOption {
	return func(c *ProducerConfig) { c.RequiredAcks = acks }
}

// WithCompression sets the compression codec name.
func WithCompression(comp string) ProducerOption {
	return func(c *ProducerConfig) {
		if comp != "" {
			c.Compression = comp
		}
	}
}

// WithMaxAttempts sets the delivery retry limit.
func WithMaxAttempts(n int) ProducerOption {
	return func(c *ProducerConfig) {
		if n > 0 {
			c.MaxAttempts = n
		}
	}
}

// WithTimeouts sets write/read timeouts.
func WithTimeouts(write, read time.Duration) ProducerOption {
	return func(c *ProducerConfig) {
		if write > 0 {
			c.WriteTimeout = write
		}
		if read > 0 {
			c.ReadTimeout = read
		}
	}
}

// WithHashByKey routes messages with the same key to the same partition.
func WithHashByKey(enabled bool) ProducerOption {
	return func(c *ProducerConfig) { c.HashByKey = enabled }
}
