// Package provider implements the adapters for the three external content
// providers the gatherer pipelines fan out over: a web-research Q&A service,
// an RSS/Atom feed parser, and a video-transcript service.
package provider

import "context"

// WebAnswer is one provider-returned answer to a topic query, ahead of
// extraction into CandidateItems.
type WebAnswer struct {
	Text      string
	Citations []string // stable origin links, when the provider supplies them
}

// WebResearcher answers a topic query with AI-researched text and citations.
type WebResearcher interface {
	Research(ctx context.Context, query string) (*WebAnswer, error)
}

// FeedEntry is one parsed RSS/Atom item ahead of extraction.
type FeedEntry struct {
	Title       string
	URL         string
	Content     string
	PublishedAt string
}

// FeedFetcher retrieves and parses entries from an RSS/Atom feed URL. The
// caller is responsible for truncating to the configured per-feed entry cap.
type FeedFetcher interface {
	Fetch(ctx context.Context, feedURL string) ([]FeedEntry, error)
}

// VideoRef identifies one recently published video on a channel.
type VideoRef struct {
	URL   string
	Title string
}

// Transcript is the full text of one video's spoken content.
type Transcript struct {
	VideoURL string
	Text     string
}

// VideoFetcher discovers recent videos for a channel and fetches their
// transcripts.
type VideoFetcher interface {
	DiscoverRecent(ctx context.Context, channelExternalID string) ([]VideoRef, error)
	FetchTranscript(ctx context.Context, videoURL string) (*Transcript, error)
}
