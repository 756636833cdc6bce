package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/sony/gobreaker"

	"catchup-feed/internal/infra/fetcher"
	"catchup-feed/internal/resilience/circuitbreaker"
	"catchup-feed/internal/resilience/retry"
)

// webAnswerPayload mirrors the JSON shape returned by the web-research Q&A
// service: a synthesized answer plus the source links it drew on.
type webAnswerPayload struct {
	Answer    string   `json:"answer"`
	Citations []string `json:"citations"`
}

// WebResearchClient implements WebResearcher against an HTTP Q&A endpoint.
// When the provider's answer text is empty but citations are present, it
// falls back to extracting the readable body of the first citation so the
// extractor still has something to work with.
type WebResearchClient struct {
	client         *http.Client
	endpoint       string
	apiKey         string
	circuitBreaker *circuitbreaker.CircuitBreaker
	retryConfig    retry.Config
	readability    *fetcher.ReadabilityFetcher
}

// NewWebResearchClient builds a WebResearchClient against endpoint, authenticating
// with apiKey via a bearer token.
func NewWebResearchClient(client *http.Client, endpoint, apiKey string) *WebResearchClient {
	return &WebResearchClient{
		client:         client,
		endpoint:       endpoint,
		apiKey:         apiKey,
		circuitBreaker: circuitbreaker.New(circuitbreaker.WebResearchConfig()),
		retryConfig:    retry.WebResearchConfig(),
		readability:    fetcher.NewReadabilityFetcher(fetcher.DefaultConfig()),
	}
}

// Research submits a query to the web-research service and returns its
// answer and citations.
func (c *WebResearchClient) Research(ctx context.Context, query string) (*WebAnswer, error) {
	var answer *WebAnswer

	retryErr := retry.WithBackoff(ctx, c.retryConfig, func() error {
		cbResult, err := c.circuitBreaker.Execute(func() (interface{}, error) {
			return c.doResearch(ctx, query)
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) {
				slog.WarnContext(ctx, "web research circuit breaker open, request rejected",
					slog.String("query", query))
			}
			return err
		}
		answer = cbResult.(*WebAnswer)
		return nil
	})
	if retryErr != nil {
		return nil, retryErr
	}

	if answer.Text == "" && len(answer.Citations) > 0 {
		if body, err := c.readability.FetchContent(ctx, answer.Citations[0]); err == nil {
			answer.Text = body
		} else {
			slog.WarnContext(ctx, "readability fallback failed for citation",
				slog.String("url", answer.Citations[0]), slog.Any("error", err))
		}
	}

	return answer, nil
}

func (c *WebResearchClient) doResearch(ctx context.Context, query string) (*WebAnswer, error) {
	reqCtx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	body, err := json.Marshal(map[string]string{"query": query})
	if err != nil {
		return nil, fmt.Errorf("encode research request: %w", err)
	}

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build research request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("research request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, &retry.HTTPError{StatusCode: resp.StatusCode, Message: "research service returned error"}
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 5<<20))
	if err != nil {
		return nil, fmt.Errorf("read research response: %w", err)
	}

	var payload webAnswerPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("decode research response: %w", err)
	}

	return &WebAnswer{Text: payload.Answer, Citations: payload.Citations}, nil
}
