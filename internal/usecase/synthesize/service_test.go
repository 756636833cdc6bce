package synthesize_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"catchup-feed/internal/domain/entity"
	"catchup-feed/internal/infra/provider"
	"catchup-feed/internal/usecase/synthesize"
)

type stubStore struct {
	items []*entity.NewsItem
	err   error
}

func (s *stubStore) FindByRunDate(_ context.Context, _ time.Time) ([]*entity.NewsItem, error) {
	return s.items, s.err
}
func (s *stubStore) FindByArticleURL(_ context.Context, _ time.Time, _ string) (*entity.NewsItem, error) {
	return nil, entity.ErrNotFound
}
func (s *stubStore) Insert(_ context.Context, _ *entity.NewsItem) error { return nil }
func (s *stubStore) IncrementMention(_ context.Context, _ int64) (*entity.NewsItem, error) {
	return nil, entity.ErrNotFound
}
func (s *stubStore) WasProcessed(_ context.Context, _ time.Time, _, _, _ string) (bool, error) {
	return false, nil
}
func (s *stubStore) MarkProcessed(_ context.Context, _ time.Time, _, _, _ string) error { return nil }

// fakeExtractor implements extract.Extractor; only SummarizeDigest is
// exercised by the synthesizer, the rest are unused stubs.
type fakeExtractor struct {
	summary string
	err     error
}

func (fakeExtractor) ExtractWeb(context.Context, *entity.Topic, *provider.WebAnswer, time.Time) ([]*entity.CandidateItem, error) {
	return nil, nil
}
func (fakeExtractor) ExtractFeed(context.Context, *entity.Feed, *provider.FeedEntry, time.Time) ([]*entity.CandidateItem, error) {
	return nil, nil
}
func (fakeExtractor) ExtractVideo(context.Context, *entity.Channel, *provider.Transcript, time.Time) ([]*entity.CandidateItem, error) {
	return nil, nil
}
func (f fakeExtractor) SummarizeDigest(_ context.Context, _ []*entity.NewsItem, _ time.Time) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.summary, nil
}

func seedItems(n int) []*entity.NewsItem {
	now := time.Now()
	items := make([]*entity.NewsItem, 0, n)
	for i := 0; i < n; i++ {
		items = append(items, &entity.NewsItem{
			ID:             int64(i + 1),
			Title:          "Story " + string(rune('A'+i)),
			ArticleURL:     "https://example.com/" + string(rune('a'+i)),
			MentionCount:   1,
			RelevanceScore: 5,
			SourceType:     entity.SourceTypeWeb,
			CreatedAt:      now,
		})
	}
	return items
}

func TestService_Synthesize_SelectsTopTen(t *testing.T) {
	store := &stubStore{items: seedItems(15)}
	svc := synthesize.NewService(store, fakeExtractor{summary: "top stories today"})

	digest, err := svc.Synthesize(context.Background(), time.Now())
	if err != nil {
		t.Fatalf("Synthesize err=%v", err)
	}
	if len(digest.Items) != 10 {
		t.Fatalf("expected 10 items, got %d", len(digest.Items))
	}
	if digest.Summary != "top stories today" {
		t.Fatalf("expected extractor summary to be used, got %q", digest.Summary)
	}
}

func TestService_Synthesize_BestEffortBelowFive(t *testing.T) {
	store := &stubStore{items: seedItems(2)}
	svc := synthesize.NewService(store, fakeExtractor{summary: "short digest"})

	digest, err := svc.Synthesize(context.Background(), time.Now())
	if err != nil {
		t.Fatalf("Synthesize err=%v", err)
	}
	if len(digest.Items) != 2 {
		t.Fatalf("expected best-effort 2 items, got %d", len(digest.Items))
	}
}

func TestService_Synthesize_PolicyFailBelowFive(t *testing.T) {
	store := &stubStore{items: seedItems(2)}
	svc := synthesize.NewService(store, fakeExtractor{summary: "short digest"})
	svc.MinItemsPolicy = synthesize.PolicyFail

	if _, err := svc.Synthesize(context.Background(), time.Now()); err == nil {
		t.Fatal("expected error under PolicyFail with fewer than 5 items")
	}
}

func TestService_Synthesize_StoreReadFailureIsFatal(t *testing.T) {
	store := &stubStore{err: errors.New("db down")}
	svc := synthesize.NewService(store, fakeExtractor{})

	if _, err := svc.Synthesize(context.Background(), time.Now()); err == nil {
		t.Fatal("expected fatal error when store read fails")
	}
}

func TestService_Synthesize_FallsBackWhenExtractorFails(t *testing.T) {
	store := &stubStore{items: seedItems(5)}
	svc := synthesize.NewService(store, fakeExtractor{err: errors.New("llm unavailable")})

	digest, err := svc.Synthesize(context.Background(), time.Now())
	if err != nil {
		t.Fatalf("Synthesize err=%v", err)
	}
	if digest.Summary == "" {
		t.Fatal("expected templated fallback summary on extractor failure")
	}
}
