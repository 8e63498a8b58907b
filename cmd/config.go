package cmd

import "time"

type Config struct {
	HTTPPort               string
	DBHost                 string
	DBPort                 string
	DBUser                 string
	DBPassword             string
	DBName                 string
	DBSslMode              string
	KafkaHost              string
	KafkaConsumerGroup     string
	KafkaOrderCreatedTopic string
	KafkaDeadLetterTopic   string
	GatewayLatency         time.Duration
	GatewayFailureRate     float64
	GatewayTimeout         time.Duration
	RetryMaxAttempts       int
	RetryMinDelay          time.Duration
	RetryMaxDelay          time.Duration
	RetryMultiplier        float64
	RepublishSchedule      string
	RepublishStaleAfter    time.Duration
}
