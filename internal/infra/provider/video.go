package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/sony/gobreaker"

	"catchup-feed/internal/resilience/circuitbreaker"
	"catchup-feed/internal/resilience/retry"
)

// VideoAPIClient implements VideoFetcher against an HTTP video-transcript
// service: one endpoint lists recent videos for a channel, another returns
// the transcript for a given video.
type VideoAPIClient struct {
	client         *http.Client
	baseURL        string
	apiKey         string
	circuitBreaker *circuitbreaker.CircuitBreaker
	retryConfig    retry.Config
}

// NewVideoAPIClient builds a VideoAPIClient against baseURL.
func NewVideoAPIClient(client *http.Client, baseURL, apiKey string) *VideoAPIClient {
	return &VideoAPIClient{
		client:         client,
		baseURL:        baseURL,
		apiKey:         apiKey,
		circuitBreaker: circuitbreaker.New(circuitbreaker.VideoFetchConfig()),
		retryConfig:    retry.VideoFetchConfig(),
	}
}

type videoListPayload struct {
	Videos []struct {
		URL   string `json:"url"`
		Title string `json:"title"`
	} `json:"videos"`
}

type transcriptPayload struct {
	Text string `json:"text"`
}

// DiscoverRecent lists videos recently published on a channel.
func (c *VideoAPIClient) DiscoverRecent(ctx context.Context, channelExternalID string) ([]VideoRef, error) {
	var refs []VideoRef

	retryErr := retry.WithBackoff(ctx, c.retryConfig, func() error {
		cbResult, err := c.circuitBreaker.Execute(func() (interface{}, error) {
			return c.doDiscover(ctx, channelExternalID)
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) {
				slog.WarnContext(ctx, "video fetch circuit breaker open, request rejected",
					slog.String("channel", channelExternalID))
			}
			return err
		}
		refs = cbResult.([]VideoRef)
		return nil
	})
	return refs, retryErr
}

// FetchTranscript retrieves the full transcript text for a video.
func (c *VideoAPIClient) FetchTranscript(ctx context.Context, videoURL string) (*Transcript, error) {
	var t *Transcript

	retryErr := retry.WithBackoff(ctx, c.retryConfig, func() error {
		cbResult, err := c.circuitBreaker.Execute(func() (interface{}, error) {
			return c.doFetchTranscript(ctx, videoURL)
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) {
				slog.WarnContext(ctx, "video fetch circuit breaker open, request rejected",
					slog.String("video_url", videoURL))
			}
			return err
		}
		t = cbResult.(*Transcript)
		return nil
	})
	return t, retryErr
}

func (c *VideoAPIClient) doDiscover(ctx context.Context, channelExternalID string) ([]VideoRef, error) {
	reqCtx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	url := fmt.Sprintf("%s/channels/%s/recent", c.baseURL, channelExternalID)
	raw, err := c.get(reqCtx, url)
	if err != nil {
		return nil, err
	}

	var payload videoListPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("decode video list response: %w", err)
	}

	refs := make([]VideoRef, 0, len(payload.Videos))
	for _, v := range payload.Videos {
		refs = append(refs, VideoRef{URL: v.URL, Title: v.Title})
	}
	return refs, nil
}

func (c *VideoAPIClient) doFetchTranscript(ctx context.Context, videoURL string) (*Transcript, error) {
	reqCtx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	url := fmt.Sprintf("%s/transcripts?video_url=%s", c.baseURL, videoURL)
	raw, err := c.get(reqCtx, url)
	if err != nil {
		return nil, err
	}

	var payload transcriptPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("decode transcript response: %w", err)
	}

	return &Transcript{VideoURL: videoURL, Text: payload.Text}, nil
}

func (c *VideoAPIClient) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build video request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("video request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, &retry.HTTPError{StatusCode: resp.StatusCode, Message: "video service returned error"}
	}

	return io.ReadAll(io.LimitReader(resp.Body, 10<<20))
}
