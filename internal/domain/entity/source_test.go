package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTopic_Struct(t *testing.T) {
	now := time.Now()

	topic := Topic{
		ID:        1,
		Text:      "generative AI agents",
		Keywords:  []string{"agents", "llm"},
		Priority:  7,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}

	assert.Equal(t, int64(1), topic.ID)
	assert.Equal(t, "generative AI agents", topic.Text)
	assert.Equal(t, []string{"agents", "llm"}, topic.Keywords)
	assert.Equal(t, 7, topic.Priority)
	assert.True(t, topic.Active)
}

func TestTopic_Validate(t *testing.T) {
	tests := []struct {
		name    string
		topic   Topic
		wantErr bool
	}{
		{
			name:  "valid topic",
			topic: Topic{Text: "AI safety", Priority: 5},
		},
		{
			name:    "empty text",
			topic:   Topic{Text: "", Priority: 5},
			wantErr: true,
		},
		{
			name:    "priority too low",
			topic:   Topic{Text: "AI safety", Priority: 0},
			wantErr: true,
		},
		{
			name:    "priority too high",
			topic:   Topic{Text: "AI safety", Priority: 11},
			wantErr: true,
		},
		{
			name:  "priority at lower bound",
			topic: Topic{Text: "AI safety", Priority: 1},
		},
		{
			name:  "priority at upper bound",
			topic: Topic{Text: "AI safety", Priority: 10},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.topic.Validate()
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

func TestFeed_Validate(t *testing.T) {
	tests := []struct {
		name    string
		feed    Feed
		wantErr bool
	}{
		{
			name: "valid feed",
			feed: Feed{Name: "Hacker News", URL: "https://news.ycombinator.com/rss"},
		},
		{
			name:    "empty name",
			feed:    Feed{Name: "", URL: "https://news.ycombinator.com/rss"},
			wantErr: true,
		},
		{
			name:    "empty url",
			feed:    Feed{Name: "Hacker News", URL: ""},
			wantErr: true,
		},
		{
			name:    "private ip url",
			feed:    Feed{Name: "Internal", URL: "http://127.0.0.1/feed.xml"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.feed.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestChannel_Validate(t *testing.T) {
	tests := []struct {
		name    string
		channel Channel
		wantErr bool
	}{
		{
			name:    "valid channel",
			channel: Channel{Name: "AI Explained", URL: "https://youtube.com/c/aiexplained", ExternalID: "UC123"},
		},
		{
			name:    "empty name",
			channel: Channel{Name: "", URL: "https://youtube.com/c/aiexplained", ExternalID: "UC123"},
			wantErr: true,
		},
		{
			name:    "empty external id",
			channel: Channel{Name: "AI Explained", URL: "https://youtube.com/c/aiexplained", ExternalID: ""},
			wantErr: true,
		},
		{
			name:    "invalid url",
			channel: Channel{Name: "AI Explained", URL: "not-a-url", ExternalID: "UC123"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.channel.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestTopic_ZeroValue(t *testing.T) {
	var topic Topic

	assert.Equal(t, int64(0), topic.ID)
	assert.Equal(t, "", topic.Text)
	assert.Nil(t, topic.Keywords)
	assert.Equal(t, 0, topic.Priority)
	assert.False(t, topic.Active)
}

func TestFeed_Mutability(t *testing.T) {
	feed := Feed{
		ID:     1,
		Name:   "Original Name",
		URL:    "https://example.com/original.xml",
		Active: true,
	}

	feed.Name = "Updated Name"
	feed.URL = "https://example.com/updated.xml"
	feed.Active = false

	assert.Equal(t, "Updated Name", feed.Name)
	assert.Equal(t, "https://example.com/updated.xml", feed.URL)
	assert.False(t, feed.Active)
}

func TestChannel_StateTransitions(t *testing.T) {
	channel := Channel{Name: "Test Channel", URL: "https://youtube.com/c/test", ExternalID: "UC1", Active: false}

	assert.False(t, channel.Active)

	channel.Active = true
	assert.True(t, channel.Active)

	channel.Active = false
	assert.False(t, channel.Active)
}

func TestSourceSet_ZeroValue(t *testing.T) {
	var set SourceSet

	assert.Nil(t, set.Topics)
	assert.Nil(t, set.Feeds)
	assert.Nil(t, set.Channels)
}

func TestSourceSet_WithData(t *testing.T) {
	set := SourceSet{
		Topics:   []*Topic{{ID: 1, Text: "AI", Priority: 9}, {ID: 2, Text: "ML", Priority: 3}},
		Feeds:    []*Feed{{ID: 1, Name: "Feed A", URL: "https://example.com/a.xml"}},
		Channels: []*Channel{{ID: 1, Name: "Channel A", URL: "https://youtube.com/a", ExternalID: "UCa"}},
	}

	assert.Len(t, set.Topics, 2)
	assert.Len(t, set.Feeds, 1)
	assert.Len(t, set.Channels, 1)
}
