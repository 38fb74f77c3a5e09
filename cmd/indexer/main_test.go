package main

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/iuliansafta/solana-indexer/internal/config"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestBuildAlerter_NoWebhooksConfigured(t *testing.T) {
	cfg := &config.Config{}
	assert.Nil(t, buildAlerter(cfg, testLogger()))
}

func TestBuildAlerter_SlackConfigured(t *testing.T) {
	cfg := &config.Config{}
	cfg.Alert.SlackWebhookURL = "https://hooks.slack.com/services/T/B/x"
	assert.NotNil(t, buildAlerter(cfg, testLogger()))
}

func TestBuildAlerter_BothConfigured(t *testing.T) {
	cfg := &config.Config{}
	cfg.Alert.SlackWebhookURL = "https://hooks.slack.com/services/T/B/x"
	cfg.Alert.WebhookURL = "https://alerts.example.com/hook"
	assert.NotNil(t, buildAlerter(cfg, testLogger()))
}
