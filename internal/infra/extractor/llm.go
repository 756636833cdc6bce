// Package extractor provides the production and fallback implementations of
// the Extractor Contract (C2): turning raw provider output into structured
// CandidateItems.
package extractor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/sony/gobreaker"

	"catchup-feed/internal/domain/entity"
	"catchup-feed/internal/infra/provider"
	"catchup-feed/internal/resilience/circuitbreaker"
	"catchup-feed/internal/resilience/retry"
)

// LLMExtractor implements extract.Extractor by delegating structuring and
// relevance scoring to an Anthropic model. Every branch's provider output is
// wrapped in a prompt asking for a strict JSON array response.
type LLMExtractor struct {
	client         anthropic.Client
	circuitBreaker *circuitbreaker.CircuitBreaker
	retryConfig    retry.Config
	model          string
	maxTokens      int
}

// NewLLMExtractor creates an LLMExtractor authenticating with apiKey.
func NewLLMExtractor(apiKey string) *LLMExtractor {
	return &LLMExtractor{
		client:         anthropic.NewClient(option.WithAPIKey(apiKey)),
		circuitBreaker: circuitbreaker.New(circuitbreaker.ExtractorConfig()),
		retryConfig:    retry.ExtractorConfig(),
		model:          string(anthropic.ModelClaudeSonnet4_5_20250929),
		maxTokens:      2048,
	}
}

// rawCandidate is the JSON shape the extraction prompt asks the model for.
type rawCandidate struct {
	Title          string `json:"title"`
	Summary        string `json:"summary"`
	ArticleURL     string `json:"article_url"`
	RelevanceScore *int   `json:"relevance_score"`
}

func (e *LLMExtractor) ExtractWeb(ctx context.Context, topic *entity.Topic, answer *provider.WebAnswer, runDate time.Time) ([]*entity.CandidateItem, error) {
	prompt := buildWebPrompt(topic, answer)
	raw, err := e.call(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("extract web: %w", err)
	}
	return parseCandidates(raw, entity.SourceTypeWeb, topic.Text, "")
}

func (e *LLMExtractor) ExtractFeed(ctx context.Context, feed *entity.Feed, item *provider.FeedEntry, runDate time.Time) ([]*entity.CandidateItem, error) {
	prompt := buildFeedPrompt(feed, item)
	raw, err := e.call(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("extract feed: %w", err)
	}
	candidates, err := parseCandidates(raw, entity.SourceTypeFeed, feed.Name, item.URL)
	if err != nil {
		return nil, err
	}
	for _, c := range candidates {
		if c.ArticleURL == "" {
			c.ArticleURL = item.URL
		}
	}
	return candidates, nil
}

func (e *LLMExtractor) ExtractVideo(ctx context.Context, channel *entity.Channel, transcript *provider.Transcript, runDate time.Time) ([]*entity.CandidateItem, error) {
	prompt := buildVideoPrompt(channel, transcript)
	raw, err := e.call(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("extract video: %w", err)
	}
	candidates, err := parseCandidates(raw, entity.SourceTypeVideo, channel.Name, transcript.VideoURL)
	if err != nil {
		return nil, err
	}
	for _, c := range candidates {
		c.ArticleURL = transcript.VideoURL
	}
	return candidates, nil
}

func (e *LLMExtractor) SummarizeDigest(ctx context.Context, items []*entity.NewsItem, runDate time.Time) (string, error) {
	prompt := buildDigestPrompt(items, runDate)
	raw, err := e.call(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("summarize digest: %w", err)
	}
	return strings.TrimSpace(raw), nil
}

// call executes prompt against the model through the extractor circuit
// breaker and retry policy, returning the raw text response.
func (e *LLMExtractor) call(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	var result string
	retryErr := retry.WithBackoff(ctx, e.retryConfig, func() error {
		cbResult, err := e.circuitBreaker.Execute(func() (interface{}, error) {
			return e.doCall(ctx, prompt)
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) {
				slog.WarnContext(ctx, "extractor circuit breaker open, request rejected")
				return fmt.Errorf("extractor unavailable: circuit breaker open")
			}
			return err
		}
		result = cbResult.(string)
		return nil
	})
	if retryErr != nil {
		return "", retryErr
	}
	return result, nil
}

func (e *LLMExtractor) doCall(ctx context.Context, prompt string) (string, error) {
	message, err := e.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(e.model),
		MaxTokens: int64(e.maxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("extractor api error: %w", err)
	}
	if len(message.Content) == 0 {
		return "", fmt.Errorf("extractor api returned empty response")
	}
	textBlock, ok := message.Content[0].AsAny().(anthropic.TextBlock)
	if !ok {
		return "", fmt.Errorf("extractor api returned unexpected response type")
	}
	return textBlock.Text, nil
}

func buildWebPrompt(topic *entity.Topic, answer *provider.WebAnswer) string {
	return fmt.Sprintf(
		"You are extracting AI news items from a web-research answer about the topic %q (keywords: %s).\n"+
			"Respond with a strict JSON array, no prose, where each element has fields "+
			"title, summary, article_url (one of the citations below if it matches, else empty), relevance_score (0-10).\n\n"+
			"Answer:\n%s\n\nCitations:\n%s\n",
		topic.Text, strings.Join(topic.Keywords, ", "), answer.Text, strings.Join(answer.Citations, "\n"))
}

func buildFeedPrompt(feed *entity.Feed, item *provider.FeedEntry) string {
	return fmt.Sprintf(
		"You are extracting AI news items from one RSS entry from feed %q.\n"+
			"Respond with a strict JSON array, no prose, where each element has fields "+
			"title, summary, article_url, relevance_score (0-10). Usually this yields exactly one element.\n\n"+
			"Entry title: %s\nEntry url: %s\nEntry content:\n%s\n",
		feed.Name, item.Title, item.URL, item.Content)
}

func buildVideoPrompt(channel *entity.Channel, transcript *provider.Transcript) string {
	return fmt.Sprintf(
		"You are extracting AI news items from a video transcript on channel %q. "+
			"The transcript may cover several distinct stories; produce one element per story.\n"+
			"Respond with a strict JSON array, no prose, where each element has fields "+
			"title, summary, article_url (leave empty, it will be filled in), relevance_score (0-10).\n\n"+
			"Transcript:\n%s\n",
		channel.Name, transcript.Text)
}

func buildDigestPrompt(items []*entity.NewsItem, runDate time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Write a short, plain-text summary (3-5 sentences) of today's AI news digest for %s.\n", runDate.Format("2006-01-02"))
	b.WriteString("Items:\n")
	for _, it := range items {
		fmt.Fprintf(&b, "- %s: %s\n", it.Title, it.Summary)
	}
	return b.String()
}

// parseCandidates decodes the model's JSON array response into
// CandidateItems, defaulting relevance score to 5 when the model omits it or
// returns a value outside 0-10; an explicit score of 0 is kept.
func parseCandidates(raw string, sourceType entity.SourceType, sourceName, sourceURL string) ([]*entity.CandidateItem, error) {
	raw = stripCodeFence(raw)

	var rawItems []rawCandidate
	if err := json.Unmarshal([]byte(raw), &rawItems); err != nil {
		return nil, fmt.Errorf("parse extractor response: %w", err)
	}

	candidates := make([]*entity.CandidateItem, 0, len(rawItems))
	for _, r := range rawItems {
		score := defaultRelevanceScore
		if r.RelevanceScore != nil && *r.RelevanceScore >= 0 && *r.RelevanceScore <= 10 {
			score = *r.RelevanceScore
		}
		candidates = append(candidates, &entity.CandidateItem{
			Title:          r.Title,
			Summary:        r.Summary,
			SourceType:     sourceType,
			SourceName:     sourceName,
			SourceURL:      sourceURL,
			ArticleURL:     r.ArticleURL,
			RelevanceScore: score,
		})
	}
	return candidates, nil
}

// stripCodeFence removes a surrounding ```json ... ``` fence some models add
// despite being asked for raw JSON.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
