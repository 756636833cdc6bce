package entity

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSourceType_Valid(t *testing.T) {
	tests := []struct {
		name string
		typ  SourceType
		want bool
	}{
		{name: "web", typ: SourceTypeWeb, want: true},
		{name: "feed", typ: SourceTypeFeed, want: true},
		{name: "video", typ: SourceTypeVideo, want: true},
		{name: "empty", typ: SourceType(""), want: false},
		{name: "unknown", typ: SourceType("podcast"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.typ.Valid())
		})
	}
}

func TestCandidateItem_Validate(t *testing.T) {
	tests := []struct {
		name      string
		candidate CandidateItem
		wantErr   bool
	}{
		{
			name: "valid candidate",
			candidate: CandidateItem{
				Title:          "New model released",
				Summary:        "A lab released a new model today",
				SourceType:     SourceTypeWeb,
				RelevanceScore: 7,
			},
		},
		{
			name: "empty title",
			candidate: CandidateItem{
				Title:          "",
				Summary:        "summary",
				SourceType:     SourceTypeFeed,
				RelevanceScore: 5,
			},
			wantErr: true,
		},
		{
			name: "empty summary",
			candidate: CandidateItem{
				Title:          "title",
				Summary:        "",
				SourceType:     SourceTypeFeed,
				RelevanceScore: 5,
			},
			wantErr: true,
		},
		{
			name: "invalid source type",
			candidate: CandidateItem{
				Title:          "title",
				Summary:        "summary",
				SourceType:     SourceType("podcast"),
				RelevanceScore: 5,
			},
			wantErr: true,
		},
		{
			name: "relevance score too low",
			candidate: CandidateItem{
				Title:          "title",
				Summary:        "summary",
				SourceType:     SourceTypeVideo,
				RelevanceScore: -1,
			},
			wantErr: true,
		},
		{
			name: "relevance score too high",
			candidate: CandidateItem{
				Title:          "title",
				Summary:        "summary",
				SourceType:     SourceTypeVideo,
				RelevanceScore: 11,
			},
			wantErr: true,
		},
		{
			name: "title within rune limit",
			candidate: CandidateItem{
				Title:          strings.Repeat("あ", maxTitleRunes),
				Summary:        "summary",
				SourceType:     SourceTypeFeed,
				RelevanceScore: 5,
			},
		},
		{
			name: "title exceeds rune limit",
			candidate: CandidateItem{
				Title:          strings.Repeat("あ", maxTitleRunes+1),
				Summary:        "summary",
				SourceType:     SourceTypeFeed,
				RelevanceScore: 5,
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.candidate.Validate()
			if tt.wantErr {
				assert.Error(t, err)
				var verr *ValidationError
				assert.ErrorAs(t, err, &verr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNewsItem_Struct(t *testing.T) {
	now := time.Now()
	runDate := time.Date(2026, 7, 29, 0, 0, 0, 0, time.UTC)

	item := NewsItem{
		ID:             1,
		RunDate:        runDate,
		Title:          "New model released",
		Summary:        "A lab released a new model today",
		RelevanceScore: 7,
		MentionCount:   1,
		SourceType:     SourceTypeWeb,
		SourceURL:      "https://example.com/research?q=ai",
		SourceName:     "web-research",
		ArticleURL:     "https://example.com/article",
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	assert.Equal(t, int64(1), item.ID)
	assert.Equal(t, runDate, item.RunDate)
	assert.Equal(t, "New model released", item.Title)
	assert.Equal(t, 7, item.RelevanceScore)
	assert.Equal(t, 1, item.MentionCount)
	assert.Equal(t, SourceTypeWeb, item.SourceType)
}

func TestNewsItem_ZeroValue(t *testing.T) {
	var item NewsItem

	assert.Equal(t, int64(0), item.ID)
	assert.True(t, item.RunDate.IsZero())
	assert.Equal(t, "", item.Title)
	assert.Equal(t, 0, item.MentionCount)
	assert.Equal(t, SourceType(""), item.SourceType)
}

func TestNewsItem_Score(t *testing.T) {
	tests := []struct {
		name          string
		mentionCount  int
		relevance     int
		mentionWeight int
		want          int
	}{
		{name: "single mention", mentionCount: 1, relevance: 5, mentionWeight: 10, want: 15},
		{name: "three mentions", mentionCount: 3, relevance: 8, mentionWeight: 10, want: 38},
		{name: "zero relevance", mentionCount: 2, relevance: 0, mentionWeight: 10, want: 20},
		{name: "zero weight", mentionCount: 5, relevance: 9, mentionWeight: 0, want: 9},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item := NewsItem{MentionCount: tt.mentionCount, RelevanceScore: tt.relevance}
			assert.Equal(t, tt.want, item.Score(tt.mentionWeight))
		})
	}
}

func TestNewsItem_Mutability(t *testing.T) {
	item := NewsItem{
		Title:        "Original Title",
		MentionCount: 1,
	}

	item.Title = "Updated Title"
	item.MentionCount++

	assert.Equal(t, "Updated Title", item.Title)
	assert.Equal(t, 2, item.MentionCount)
}
