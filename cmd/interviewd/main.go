package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/connect"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/transcribe"
	"github.com/sirupsen/logrus"

	"github.com/Rmx21/knowledgeKeeper/pkg/config"
	"github.com/Rmx21/knowledgeKeeper/pkg/handlers"
	"github.com/Rmx21/knowledgeKeeper/pkg/interview"
	"github.com/Rmx21/knowledgeKeeper/pkg/knowledge"
	"github.com/Rmx21/knowledgeKeeper/pkg/metrics"
	"github.com/Rmx21/knowledgeKeeper/pkg/server"
	"github.com/Rmx21/knowledgeKeeper/pkg/session"
	"github.com/Rmx21/knowledgeKeeper/pkg/telephony"
	"github.com/Rmx21/knowledgeKeeper/pkg/transcription"
)

func main() {
	cfg := config.Load()

	logger := logrus.New()
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logger.SetLevel(level)
	}
	logger.SetFormatter(&logrus.JSONFormatter{})

	logger.WithField("instance_id", cfg.InstanceID).Info("Starting interview orchestrator")

	if cfg.ConnectInstanceID == "" || cfg.ContactFlowID == "" || cfg.SourcePhoneNumber == "" {
		logger.Fatal("CONNECT_INSTANCE_ID, CONTACT_FLOW_ID and SOURCE_PHONE_NUMBER must be set")
	}

	m := metrics.NewMetrics()

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(), awsconfig.WithRegion(cfg.AWSRegion))
	if err != nil {
		logger.WithError(err).Fatal("Failed to load AWS configuration")
	}

	gateway := telephony.NewConnectGateway(connect.NewFromConfig(awsCfg), cfg, logger, m)
	store := transcription.NewS3Store(s3.NewFromConfig(awsCfg))
	transcriber := transcription.NewAWSTranscriber(transcribe.NewFromConfig(awsCfg))
	pipeline := transcription.NewPipeline(store, transcriber, gateway.RecordingLocation, cfg, logger, m)

	var lock interview.SessionLock
	var lockOwner handlers.SessionOwner
	if cfg.RedisURL != "" {
		sessionStore, err := session.NewStore(cfg.RedisURL, logger)
		if err != nil {
			logger.WithError(err).Fatal("Failed to connect to Redis")
		}
		defer sessionStore.Close()
		lock = sessionStore
		lockOwner = sessionStore
	} else {
		logger.Info("REDIS_URL not set, session exclusivity is process-local only")
	}

	registry := interview.NewRegistry(lock, logger, m)
	delivery := interview.NewDelivery(gateway, cfg, logger, m)
	persister := knowledge.NewPersister(cfg.OutputDir, logger, m)
	controller := interview.NewController(gateway, delivery, pipeline, persister, registry, cfg, logger, m)

	handler := handlers.NewHandler(controller, registry, lockOwner, cfg, logger)
	svc := server.NewService(cfg, logger, handler)

	if err := svc.Start(); err != nil {
		logger.WithError(err).Fatal("Failed to start service")
	}
	logger.WithField("port", cfg.Port).Info("Interview orchestrator started")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	<-sigCh
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := svc.Stop(shutdownCtx); err != nil {
		logger.WithError(err).Error("Error during service shutdown")
	}

	logger.Info("Interview orchestrator shutdown complete")
}
