package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradeforge/matching-engine/config"
)

func notifierConfig(kafkaEnabled bool) *config.Config {
	return &config.Config{
		Engine: config.EngineConfig{
			TradeHistorySize: 100,
			TradeLogPath:     "trades.log",
			NotifyBufferSize: 16,
		},
		Logger: config.LoggerConfig{Level: "INFO"},
		Kafka: config.KafkaConfig{
			Enabled:     kafkaEnabled,
			Brokers:     []string{"localhost:9092"},
			TopicPrefix: "engine",
		},
	}
}

func TestBuildNotifiersWithoutKafka(t *testing.T) {
	sink, closers := buildNotifiers(notifierConfig(false))
	require.NotNil(t, sink)
	assert.Empty(t, closers, "No closable sinks without Kafka")
	require.NoError(t, sink.Close())
}

func TestBuildNotifiersClosesKafkaSink(t *testing.T) {
	sink, closers := buildNotifiers(notifierConfig(true))
	require.NotNil(t, sink)
	require.Len(t, closers, 1, "Kafka sink must be returned for closing")

	// Shutdown order: drain the dispatcher, then close the sinks it fed
	require.NoError(t, sink.Close())
	for _, closer := range closers {
		assert.NoError(t, closer.Close())
	}
}
