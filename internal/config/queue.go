package config

// QueueConfig controls publishing of review and rating activity to
// RabbitMQ.  Publishing is off unless a broker URL is set.
type QueueConfig struct {
	URL     string
	Consume bool // also run the in-process activity consumer
}

// Enabled reports whether a broker is configured.
func (q QueueConfig) Enabled() bool { return q.URL != "" }

// LoadQueueConfig reads:
//   RABBITMQ_URL (or AMQP_URL) – broker URL; empty disables events
//   QUEUE_CONSUMER – run the activity consumer in this process (default false)
func LoadQueueConfig() QueueConfig {
	url := envStr("RABBITMQ_URL", "")
	if url == "" {
		url = envStr("AMQP_URL", "")
	}
	return QueueConfig{URL: url, Consume: envBool("QUEUE_CONSUMER", false)}
}
