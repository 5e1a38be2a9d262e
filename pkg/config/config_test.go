package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Rmx21/knowledgeKeeper/pkg/constants"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{
		"AWS_REGION", "CONNECT_INSTANCE_ID", "CONTACT_FLOW_ID", "SOURCE_PHONE_NUMBER",
		"REDIS_URL", constants.EnvMaxQuestions, constants.EnvDeliveryCeiling,
		constants.EnvDeliveryPollSeconds, constants.EnvRecordingWait,
		constants.EnvTranscribeWait, constants.EnvOutputDir,
		"INTERVIEW_LANGUAGE", "INSTANCE_ID", "PORT", "LOG_LEVEL",
	} {
		t.Setenv(key, "")
	}

	cfg := Load()

	assert.Equal(t, "us-west-2", cfg.AWSRegion)
	assert.Empty(t, cfg.ConnectInstanceID)
	assert.Empty(t, cfg.RedisURL)
	assert.Equal(t, constants.DefaultMaxQuestions, cfg.MaxQuestions)
	assert.Equal(t, constants.DefaultDeliveryCeilingMinutes, cfg.DeliveryCeilingMinutes)
	assert.Equal(t, "knowledge_output", cfg.OutputDir)
	assert.Equal(t, constants.DefaultLanguage, cfg.Language)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.NotEmpty(t, cfg.InstanceID)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("AWS_REGION", "eu-west-1")
	t.Setenv("CONNECT_INSTANCE_ID", "inst-42")
	t.Setenv(constants.EnvMaxQuestions, "6")
	t.Setenv(constants.EnvDeliveryCeiling, "5")
	t.Setenv(constants.EnvOutputDir, "/tmp/knowledge")
	t.Setenv("INTERVIEW_LANGUAGE", "en")

	cfg := Load()

	assert.Equal(t, "eu-west-1", cfg.AWSRegion)
	assert.Equal(t, "inst-42", cfg.ConnectInstanceID)
	assert.Equal(t, 6, cfg.MaxQuestions)
	assert.Equal(t, 5, cfg.DeliveryCeilingMinutes)
	assert.Equal(t, "/tmp/knowledge", cfg.OutputDir)
	assert.Equal(t, "en", cfg.Language)
}

func TestLoad_BadIntegerFallsBackToDefault(t *testing.T) {
	t.Setenv(constants.EnvMaxQuestions, "not-a-number")
	cfg := Load()
	assert.Equal(t, constants.DefaultMaxQuestions, cfg.MaxQuestions)
}

func TestDurationAccessors(t *testing.T) {
	cfg := &Config{
		DeliveryCeilingMinutes: 10,
		DeliveryPollSeconds:    2,
		RecordingWaitMinutes:   3,
		TranscribeWaitSeconds:  300,
	}

	assert.Equal(t, 10*time.Minute, cfg.DeliveryCeiling())
	assert.Equal(t, 2*time.Second, cfg.DeliveryPollInterval())
	assert.Equal(t, 3*time.Minute, cfg.RecordingWait())
	assert.Equal(t, 5*time.Minute, cfg.TranscribeWait())
}
