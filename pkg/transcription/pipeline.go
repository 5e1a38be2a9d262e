package transcription

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/Rmx21/knowledgeKeeper/pkg/config"
	"github.com/Rmx21/knowledgeKeeper/pkg/constants"
	"github.com/Rmx21/knowledgeKeeper/pkg/metrics"
	"github.com/Rmx21/knowledgeKeeper/pkg/models"
)

// ErrRecordingNotFound means no recording for the contact appeared in
// storage before the discovery ceiling expired
var ErrRecordingNotFound = errors.New("recording not found before ceiling")

// LocationFunc resolves the bucket and prefix where recordings land
type LocationFunc func(ctx context.Context) (bucket, prefix string, err error)

// Pipeline locates a call recording, runs it through an async transcription
// job and returns plain text. Both phases poll under their own wall-clock
// ceiling; temporary artifacts are removed on every terminal outcome.
type Pipeline struct {
	store       ObjectStore
	transcriber Transcriber
	locate      LocationFunc
	config      *config.Config
	logger      *logrus.Logger
	metrics     *metrics.Metrics

	now   func() time.Time
	sleep func(time.Duration)
}

func NewPipeline(store ObjectStore, transcriber Transcriber, locate LocationFunc, cfg *config.Config, logger *logrus.Logger, m *metrics.Metrics) *Pipeline {
	return &Pipeline{
		store:       store,
		transcriber: transcriber,
		locate:      locate,
		config:      cfg,
		logger:      logger,
		metrics:     m,
		now:         time.Now,
		sleep:       time.Sleep,
	}
}

// FetchAndTranscribe waits for the contact's recording to appear, submits it
// for transcription and returns the transcript text. Transcription failure
// and timeout are reported as sentinel transcript strings, not errors, so
// document generation downstream degrades instead of aborting. Only a
// missing recording (or an unresolvable storage location) is an error.
func (p *Pipeline) FetchAndTranscribe(ctx context.Context, contactID string) (models.TranscriptResult, error) {
	bucket, prefix, err := p.locate(ctx)
	if err != nil {
		return models.TranscriptResult{}, fmt.Errorf("failed to resolve recording location: %w", err)
	}

	key, err := p.discoverRecording(ctx, bucket, prefix, contactID)
	if err != nil {
		return models.TranscriptResult{}, err
	}

	start := p.now()
	text := p.transcribeRecording(ctx, bucket, key, contactID)
	p.metrics.TranscriptionDuration.Observe(p.now().Sub(start).Seconds())

	return models.TranscriptResult{
		Transcript: text,
		AudioRef:   S3URI(bucket, key),
		Bucket:     bucket,
		Key:        key,
	}, nil
}

// discoverRecording lists the recording prefix until an object whose key
// contains the contact id shows up with the expected audio extension.
// Listing failures count as "not there yet" and the loop keeps polling.
func (p *Pipeline) discoverRecording(ctx context.Context, bucket, prefix, contactID string) (string, error) {
	ceiling := p.config.RecordingWait()
	interval := constants.SecondsToDuration(constants.RecordingPollSeconds)
	start := p.now()

	for {
		p.metrics.RecordingDiscoveryPolls.Inc()
		keys, err := p.store.List(ctx, bucket, prefix)
		if err != nil {
			p.logger.WithError(err).WithField("contact_id", contactID).Warn("Failed to list recordings")
		}
		for _, key := range keys {
			if strings.Contains(key, contactID) && strings.HasSuffix(key, constants.RecordingExtension) {
				p.logger.WithFields(logrus.Fields{
					"contact_id": contactID,
					"key":        key,
				}).Info("Call recording located")
				return key, nil
			}
		}

		if p.now().Sub(start) >= ceiling {
			p.logger.WithFields(logrus.Fields{
				"contact_id": contactID,
				"waited":     p.now().Sub(start),
			}).Warn("Recording never appeared in storage")
			return "", ErrRecordingNotFound
		}
		p.sleep(interval)
	}
}

// transcribeRecording copies the recording to a temporary key, runs the
// transcription job to a terminal state and returns the transcript text or
// a sentinel. The temporary object and the job handle are removed no matter
// how the wait loop exits.
func (p *Pipeline) transcribeRecording(ctx context.Context, bucket, key, contactID string) string {
	tempKey := fmt.Sprintf("%s%s_%s%s", constants.TempTranscribePrefix, contactID, uuid.New().String(), constants.RecordingExtension)
	if err := p.store.Copy(ctx, bucket, key, tempKey); err != nil {
		p.logger.WithError(err).WithField("contact_id", contactID).Error("Failed to stage recording for transcription")
		p.metrics.TranscriptionOutcomes.WithLabelValues("failed").Inc()
		return constants.TranscriptFailed
	}

	jobName := fmt.Sprintf("transcribe-%s-%d", contactID, p.now().Unix())

	// Cleanup is unconditional: whatever the outcome below, neither the
	// temp copy nor the job handle survives this call.
	defer func() {
		cleanupCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := p.store.Delete(cleanupCtx, bucket, tempKey); err != nil {
			p.logger.WithError(err).WithField("key", tempKey).Warn("Failed to delete temp transcription input")
		}
		if err := p.transcriber.DeleteJob(cleanupCtx, jobName); err != nil {
			p.logger.WithError(err).WithField("job", jobName).Debug("Failed to delete transcription job")
		}
	}()

	if err := p.transcriber.StartJob(ctx, jobName, S3URI(bucket, tempKey), constants.TranscribeLanguageCode); err != nil {
		p.logger.WithError(err).WithField("job", jobName).Error("Failed to start transcription job")
		p.metrics.TranscriptionOutcomes.WithLabelValues("failed").Inc()
		return constants.TranscriptFailed
	}

	ceiling := p.config.TranscribeWait()
	interval := constants.SecondsToDuration(constants.TranscribePollSeconds)
	start := p.now()

	for p.now().Sub(start) < ceiling {
		status, resultURI, err := p.transcriber.JobStatus(ctx, jobName)
		if err != nil {
			// a single failed poll is not terminal, keep waiting
			p.logger.WithError(err).WithField("job", jobName).Warn("Failed to poll transcription job")
		} else {
			switch status {
			case models.JobCompleted:
				text, err := p.transcriber.FetchResult(ctx, resultURI)
				if err != nil {
					p.logger.WithError(err).WithField("job", jobName).Error("Failed to fetch transcript result")
					p.metrics.TranscriptionOutcomes.WithLabelValues("failed").Inc()
					return constants.TranscriptFailed
				}
				p.metrics.TranscriptionOutcomes.WithLabelValues("completed").Inc()
				p.logger.WithField("job", jobName).Info("Transcription completed")
				return text
			case models.JobFailed:
				p.metrics.TranscriptionOutcomes.WithLabelValues("failed").Inc()
				p.logger.WithField("job", jobName).Error("Transcription job failed")
				return constants.TranscriptFailed
			}
		}
		p.sleep(interval)
	}

	p.metrics.TranscriptionOutcomes.WithLabelValues("timeout").Inc()
	p.logger.WithFields(logrus.Fields{
		"job":    jobName,
		"waited": p.now().Sub(start),
	}).Warn("Transcription job did not finish before ceiling")
	return constants.TranscriptTimeout
}

// UploadReport writes the call report next to the recording it describes
// and returns the object reference.
func (p *Pipeline) UploadReport(ctx context.Context, bucket, recordingKey, contactID string, report interface{}) (string, error) {
	body, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode call report: %w", err)
	}

	filename := fmt.Sprintf("call_report_%s_%s.json", contactID, p.now().Format("20060102_150405"))
	key := ReportKeyFor(recordingKey, filename)
	if err := p.store.Put(ctx, bucket, key, body, "application/json"); err != nil {
		return "", err
	}

	location := S3URI(bucket, key)
	p.logger.WithField("location", location).Info("Call report uploaded")
	return location, nil
}
