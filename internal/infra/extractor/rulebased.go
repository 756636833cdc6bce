package extractor

import (
	"context"
	"fmt"
	"strings"
	"time"

	"catchup-feed/internal/domain/entity"
	"catchup-feed/internal/infra/provider"
)

// defaultRelevanceScore is used by RuleBased for every candidate, since it
// has no way to meaningfully score relevance without an LLM.
const defaultRelevanceScore = 5

// summaryMaxChars bounds how much raw text RuleBased copies into a
// candidate's summary field.
const summaryMaxChars = 500

// videoChunkParagraphs is how many transcript paragraphs RuleBased groups
// into one candidate story.
const videoChunkParagraphs = 5

// RuleBased is a deterministic, non-LLM implementation of extract.Extractor.
// It is used when no model API key is configured, trading extraction
// quality for zero external dependency.
type RuleBased struct{}

// NewRuleBased creates a RuleBased extractor.
func NewRuleBased() *RuleBased {
	return &RuleBased{}
}

func (RuleBased) ExtractWeb(_ context.Context, topic *entity.Topic, answer *provider.WebAnswer, _ time.Time) ([]*entity.CandidateItem, error) {
	if strings.TrimSpace(answer.Text) == "" {
		return nil, nil
	}

	articleURL := ""
	if len(answer.Citations) > 0 {
		articleURL = answer.Citations[0]
	}

	return []*entity.CandidateItem{{
		Title:          firstSentence(answer.Text, topic.Text),
		Summary:        truncate(answer.Text, summaryMaxChars),
		SourceType:     entity.SourceTypeWeb,
		SourceName:     topic.Text,
		ArticleURL:     articleURL,
		RawContent:     answer.Text,
		RelevanceScore: defaultRelevanceScore,
	}}, nil
}

func (RuleBased) ExtractFeed(_ context.Context, feed *entity.Feed, item *provider.FeedEntry, _ time.Time) ([]*entity.CandidateItem, error) {
	if strings.TrimSpace(item.Title) == "" {
		return nil, nil
	}

	return []*entity.CandidateItem{{
		Title:          item.Title,
		Summary:        truncate(item.Content, summaryMaxChars),
		SourceType:     entity.SourceTypeFeed,
		SourceName:     feed.Name,
		SourceURL:      feed.URL,
		ArticleURL:     item.URL,
		RawContent:     item.Content,
		RelevanceScore: defaultRelevanceScore,
	}}, nil
}

func (RuleBased) ExtractVideo(_ context.Context, channel *entity.Channel, transcript *provider.Transcript, _ time.Time) ([]*entity.CandidateItem, error) {
	chunks := chunkParagraphs(transcript.Text, videoChunkParagraphs)
	candidates := make([]*entity.CandidateItem, 0, len(chunks))
	for _, chunk := range chunks {
		if strings.TrimSpace(chunk) == "" {
			continue
		}
		candidates = append(candidates, &entity.CandidateItem{
			Title:          firstSentence(chunk, channel.Name),
			Summary:        truncate(chunk, summaryMaxChars),
			SourceType:     entity.SourceTypeVideo,
			SourceName:     channel.Name,
			SourceURL:      channel.URL,
			ArticleURL:     transcript.VideoURL,
			RawContent:     chunk,
			RelevanceScore: defaultRelevanceScore,
		})
	}
	return candidates, nil
}

// SummarizeDigest returns a templated listing of item titles. It never
// fails, giving callers a safe fallback when the LLM summary call errors.
func (RuleBased) SummarizeDigest(_ context.Context, items []*entity.NewsItem, runDate time.Time) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "AI news digest for %s:\n", runDate.Format("2006-01-02"))
	for _, it := range items {
		fmt.Fprintf(&b, "- %s\n", it.Title)
	}
	return b.String(), nil
}

func firstSentence(text, fallback string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return fallback
	}
	if idx := strings.IndexAny(text, ".\n"); idx > 0 {
		return strings.TrimSpace(text[:idx])
	}
	return truncate(text, 120)
}

func truncate(s string, max int) string {
	s = strings.TrimSpace(s)
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}

// chunkParagraphs splits text into blank-line-separated paragraphs and
// groups every perChunk of them into one chunk.
func chunkParagraphs(text string, perChunk int) []string {
	paragraphs := strings.Split(text, "\n\n")
	var cleaned []string
	for _, p := range paragraphs {
		if strings.TrimSpace(p) != "" {
			cleaned = append(cleaned, p)
		}
	}
	if len(cleaned) == 0 {
		return nil
	}

	var chunks []string
	for i := 0; i < len(cleaned); i += perChunk {
		end := i + perChunk
		if end > len(cleaned) {
			end = len(cleaned)
		}
		chunks = append(chunks, strings.Join(cleaned[i:end], "\n\n"))
	}
	return chunks
}
