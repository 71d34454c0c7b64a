package transcribe

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awstranscribe "github.com/aws/aws-sdk-go-v2/service/transcribe"
	"github.com/aws/aws-sdk-go-v2/service/transcribe/types"
)

// Transcriber converts a stored audio object into text. mediaURI is the
// object's s3:// location.
type Transcriber interface {
	Transcribe(ctx context.Context, mediaURI string) (string, error)
}

// AWSTranscriber runs a transcription job per attempt: start, poll until
// terminal, fetch the transcript document, delete the job.
type AWSTranscriber struct {
	client       *awstranscribe.Client
	httpClient   *http.Client
	languageCode types.LanguageCode
	pollInterval time.Duration
	maxPolls     int
}

func NewAWSTranscriber(ctx context.Context, region, languageCode string) (*AWSTranscriber, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return &AWSTranscriber{
		client:       awstranscribe.NewFromConfig(cfg),
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		languageCode: types.LanguageCode(languageCode),
		pollInterval: 5 * time.Second,
		maxPolls:     60,
	}, nil
}

func (t *AWSTranscriber) Transcribe(ctx context.Context, mediaURI string) (string, error) {
	// Job names must be unique within the account.
	jobName := fmt.Sprintf("speakscore-%d", time.Now().UnixNano())

	_, err := t.client.StartTranscriptionJob(ctx, &awstranscribe.StartTranscriptionJobInput{
		TranscriptionJobName: aws.String(jobName),
		Media: &types.Media{
			MediaFileUri: aws.String(mediaURI),
		},
		MediaFormat:  types.MediaFormatMp3,
		LanguageCode: t.languageCode,
	})
	if err != nil {
		return "", fmt.Errorf("start transcription job: %w", err)
	}

	for i := 0; i < t.maxPolls; i++ {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(t.pollInterval):
		}

		result, err := t.client.GetTranscriptionJob(ctx, &awstranscribe.GetTranscriptionJobInput{
			TranscriptionJobName: aws.String(jobName),
		})
		if err != nil {
			return "", fmt.Errorf("get transcription job: %w", err)
		}

		switch result.TranscriptionJob.TranscriptionJobStatus {
		case types.TranscriptionJobStatusCompleted:
			transcript := result.TranscriptionJob.Transcript
			if transcript == nil || transcript.TranscriptFileUri == nil {
				t.deleteJob(ctx, jobName)
				return "", fmt.Errorf("transcript URI is missing for job %s", jobName)
			}
			text, err := t.fetchTranscript(ctx, *transcript.TranscriptFileUri)
			t.deleteJob(ctx, jobName)
			return text, err
		case types.TranscriptionJobStatusFailed:
			reason := ""
			if result.TranscriptionJob.FailureReason != nil {
				reason = *result.TranscriptionJob.FailureReason
			}
			t.deleteJob(ctx, jobName)
			return "", fmt.Errorf("transcription job failed: %s", reason)
		}
	}

	t.deleteJob(ctx, jobName)
	return "", fmt.Errorf("transcription job %s timed out", jobName)
}

func (t *AWSTranscriber) deleteJob(ctx context.Context, jobName string) {
	_, _ = t.client.DeleteTranscriptionJob(ctx, &awstranscribe.DeleteTranscriptionJobInput{
		TranscriptionJobName: aws.String(jobName),
	})
}

// fetchTranscript downloads the transcript document from the pre-signed URL
// Transcribe returns and extracts the first transcript string.
func (t *AWSTranscriber) fetchTranscript(ctx context.Context, uri string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return "", fmt.Errorf("build transcript request: %w", err)
	}
	resp, err := t.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch transcript: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch transcript: status code %d", resp.StatusCode)
	}

	var doc struct {
		Results struct {
			Transcripts []struct {
				Transcript string `json:"transcript"`
			} `json:"transcripts"`
		} `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return "", fmt.Errorf("decode transcript JSON: %w", err)
	}
	if len(doc.Results.Transcripts) == 0 {
		return "", fmt.Errorf("no transcripts found in result")
	}
	return doc.Results.Transcripts[0].Transcript, nil
}
