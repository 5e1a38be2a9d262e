package config

import (
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/Rmx21/knowledgeKeeper/pkg/constants"
)

type Config struct {
	AWSRegion         string
	ConnectInstanceID string
	ContactFlowID     string
	SourcePhoneNumber string

	RedisURL string

	MaxQuestions           int
	DeliveryCeilingMinutes int
	DeliveryPollSeconds    int
	RecordingWaitMinutes   int
	TranscribeWaitSeconds  int

	OutputDir string
	Language  string

	InstanceID string
	Port       string
	LogLevel   string
}

func Load() *Config {
	config := &Config{
		AWSRegion:         getEnv("AWS_REGION", "us-west-2"),
		ConnectInstanceID: getEnv("CONNECT_INSTANCE_ID", ""),
		ContactFlowID:     getEnv("CONTACT_FLOW_ID", ""),
		SourcePhoneNumber: getEnv("SOURCE_PHONE_NUMBER", ""),

		RedisURL: getEnv("REDIS_URL", ""),

		MaxQuestions:           getEnvInt(constants.EnvMaxQuestions, constants.DefaultMaxQuestions),
		DeliveryCeilingMinutes: getEnvInt(constants.EnvDeliveryCeiling, constants.DefaultDeliveryCeilingMinutes),
		DeliveryPollSeconds:    getEnvInt(constants.EnvDeliveryPollSeconds, constants.DefaultDeliveryPollSeconds),
		RecordingWaitMinutes:   getEnvInt(constants.EnvRecordingWait, constants.DefaultRecordingWaitMinutes),
		TranscribeWaitSeconds:  getEnvInt(constants.EnvTranscribeWait, constants.DefaultTranscribeWaitSeconds),

		OutputDir: getEnv(constants.EnvOutputDir, "knowledge_output"),
		Language:  getEnv("INTERVIEW_LANGUAGE", constants.DefaultLanguage),

		InstanceID: getEnv("INSTANCE_ID", generateInstanceID()),
		Port:       getEnv("PORT", "8080"),
		LogLevel:   getEnv("LOG_LEVEL", "info"),
	}

	return config
}

func (c *Config) DeliveryCeiling() time.Duration {
	return time.Duration(c.DeliveryCeilingMinutes) * time.Minute
}

func (c *Config) DeliveryPollInterval() time.Duration {
	return time.Duration(c.DeliveryPollSeconds) * time.Second
}

func (c *Config) RecordingWait() time.Duration {
	return time.Duration(c.RecordingWaitMinutes) * time.Minute
}

func (c *Config) TranscribeWait() time.Duration {
	return time.Duration(c.TranscribeWaitSeconds) * time.Second
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func generateInstanceID() string {
	hostname, err := os.Hostname()
	if err != nil {
		return uuid.New().String()
	}
	return hostname + "-" + uuid.New().String()[:8]
}
