package transcription

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/transcribe"
	transcribetypes "github.com/aws/aws-sdk-go-v2/service/transcribe/types"

	"github.com/Rmx21/knowledgeKeeper/pkg/models"
)

// Transcriber abstracts the async speech-to-text service
type Transcriber interface {
	// StartJob submits audio for transcription
	StartJob(ctx context.Context, jobName, mediaURI, languageCode string) error

	// JobStatus reports the job state and, when completed, the result URI
	JobStatus(ctx context.Context, jobName string) (models.JobStatus, string, error)

	// FetchResult downloads the result document and returns the transcript
	// text, result segments joined by newlines in original order
	FetchResult(ctx context.Context, resultURI string) (string, error)

	// DeleteJob removes the job handle
	DeleteJob(ctx context.Context, jobName string) error
}

// transcribeAPI is the subset of the Transcribe client the runner uses
type transcribeAPI interface {
	StartTranscriptionJob(ctx context.Context, params *transcribe.StartTranscriptionJobInput, optFns ...func(*transcribe.Options)) (*transcribe.StartTranscriptionJobOutput, error)
	GetTranscriptionJob(ctx context.Context, params *transcribe.GetTranscriptionJobInput, optFns ...func(*transcribe.Options)) (*transcribe.GetTranscriptionJobOutput, error)
	DeleteTranscriptionJob(ctx context.Context, params *transcribe.DeleteTranscriptionJobInput, optFns ...func(*transcribe.Options)) (*transcribe.DeleteTranscriptionJobOutput, error)
}

// AWSTranscriber implements Transcriber against Amazon Transcribe. The
// result document lives behind a presigned HTTPS URL, so fetching it is a
// plain HTTP GET rather than an S3 read.
type AWSTranscriber struct {
	client transcribeAPI
	http   *http.Client
}

func NewAWSTranscriber(client transcribeAPI) *AWSTranscriber {
	return &AWSTranscriber{
		client: client,
		http:   &http.Client{Timeout: 30 * time.Second},
	}
}

func (t *AWSTranscriber) StartJob(ctx context.Context, jobName, mediaURI, languageCode string) error {
	_, err := t.client.StartTranscriptionJob(ctx, &transcribe.StartTranscriptionJobInput{
		TranscriptionJobName: aws.String(jobName),
		Media:                &transcribetypes.Media{MediaFileUri: aws.String(mediaURI)},
		MediaFormat:          transcribetypes.MediaFormatWav,
		LanguageCode:         transcribetypes.LanguageCode(languageCode),
	})
	if err != nil {
		return fmt.Errorf("failed to start transcription job %s: %w", jobName, err)
	}
	return nil
}

func (t *AWSTranscriber) JobStatus(ctx context.Context, jobName string) (models.JobStatus, string, error) {
	resp, err := t.client.GetTranscriptionJob(ctx, &transcribe.GetTranscriptionJobInput{
		TranscriptionJobName: aws.String(jobName),
	})
	if err != nil {
		return models.JobRunning, "", fmt.Errorf("failed to get transcription job %s: %w", jobName, err)
	}
	job := resp.TranscriptionJob
	if job == nil {
		return models.JobRunning, "", fmt.Errorf("transcription job %s missing from response", jobName)
	}

	switch job.TranscriptionJobStatus {
	case transcribetypes.TranscriptionJobStatusCompleted:
		uri := ""
		if job.Transcript != nil {
			uri = aws.ToString(job.Transcript.TranscriptFileUri)
		}
		return models.JobCompleted, uri, nil
	case transcribetypes.TranscriptionJobStatusFailed:
		return models.JobFailed, "", nil
	default:
		return models.JobRunning, "", nil
	}
}

// resultDocument mirrors the fields of the Transcribe output we consume
type resultDocument struct {
	Results struct {
		AudioSegments []struct {
			Transcript string `json:"transcript"`
		} `json:"audio_segments"`
	} `json:"results"`
}

func (t *AWSTranscriber) FetchResult(ctx context.Context, resultURI string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, resultURI, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build transcript request: %w", err)
	}
	resp, err := t.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch transcript document: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("transcript document fetch returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read transcript document: %w", err)
	}

	var doc resultDocument
	if err := json.Unmarshal(body, &doc); err != nil {
		return "", fmt.Errorf("failed to decode transcript document: %w", err)
	}

	parts := make([]string, 0, len(doc.Results.AudioSegments))
	for _, seg := range doc.Results.AudioSegments {
		parts = append(parts, seg.Transcript)
	}
	return strings.Join(parts, "\n"), nil
}

func (t *AWSTranscriber) DeleteJob(ctx context.Context, jobName string) error {
	_, err := t.client.DeleteTranscriptionJob(ctx, &transcribe.DeleteTranscriptionJobInput{
		TranscriptionJobName: aws.String(jobName),
	})
	if err != nil {
		return fmt.Errorf("failed to delete transcription job %s: %w", jobName, err)
	}
	return nil
}
