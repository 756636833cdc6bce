package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"catchup-feed/internal/domain/entity"
	"catchup-feed/internal/repository"
)

const pgUniqueViolation = "23505"

type NewsItemRepo struct{ db *sql.DB }

func NewNewsItemRepo(db *sql.DB) repository.NewsItemRepository {
	return &NewsItemRepo{db: db}
}

func scanNewsItem(scanner interface{ Scan(...any) error }) (*entity.NewsItem, error) {
	var item entity.NewsItem
	var sourceType string
	err := scanner.Scan(
		&item.ID, &item.RunDate, &item.Title, &item.Summary, &item.RelevanceScore,
		&item.MentionCount, &sourceType, &item.SourceURL, &item.SourceName,
		&item.ArticleURL, &item.RawContent, &item.CreatedAt, &item.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	item.SourceType = entity.SourceType(sourceType)
	return &item, nil
}

func (repo *NewsItemRepo) FindByRunDate(ctx context.Context, runDate time.Time) ([]*entity.NewsItem, error) {
	const query = `
SELECT id, run_date, title, summary, relevance_score, mention_count,
       source_type, source_url, source_name, article_url, raw_content,
       created_at, updated_at
FROM news_items
WHERE run_date = $1
ORDER BY id ASC`
	rows, err := repo.db.QueryContext(ctx, query, runDate)
	if err != nil {
		return nil, fmt.Errorf("FindByRunDate: %w", err)
	}
	defer func() { _ = rows.Close() }()

	items := make([]*entity.NewsItem, 0, 50)
	for rows.Next() {
		item, err := scanNewsItem(rows)
		if err != nil {
			return nil, fmt.Errorf("FindByRunDate: Scan: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (repo *NewsItemRepo) FindByArticleURL(ctx context.Context, runDate time.Time, articleURL string) (*entity.NewsItem, error) {
	const query = `
SELECT id, run_date, title, summary, relevance_score, mention_count,
       source_type, source_url, source_name, article_url, raw_content,
       created_at, updated_at
FROM news_items
WHERE run_date = $1 AND article_url = $2
LIMIT 1`
	row := repo.db.QueryRowContext(ctx, query, runDate, strings.TrimSpace(articleURL))
	item, err := scanNewsItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("FindByArticleURL: %w", err)
	}
	return item, nil
}

func (repo *NewsItemRepo) Insert(ctx context.Context, item *entity.NewsItem) error {
	const query = `
INSERT INTO news_items
       (run_date, title, summary, relevance_score, mention_count,
        source_type, source_url, source_name, article_url, raw_content)
VALUES ($1, $2, $3, $4, 1, $5, $6, $7, $8, $9)
RETURNING id, created_at, updated_at`
	err := repo.db.QueryRowContext(ctx, query,
		item.RunDate, item.Title, item.Summary, item.RelevanceScore,
		string(item.SourceType), item.SourceURL, item.SourceName,
		strings.TrimSpace(item.ArticleURL), item.RawContent,
	).Scan(&item.ID, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return entity.ErrStoreConflict
		}
		return fmt.Errorf("Insert: %w", err)
	}
	item.MentionCount = 1
	return nil
}

func (repo *NewsItemRepo) IncrementMention(ctx context.Context, id int64) (*entity.NewsItem, error) {
	const query = `
UPDATE news_items
SET mention_count = mention_count + 1, updated_at = now()
WHERE id = $1
RETURNING id, run_date, title, summary, relevance_score, mention_count,
          source_type, source_url, source_name, article_url, raw_content,
          created_at, updated_at`
	row := repo.db.QueryRowContext(ctx, query, id)
	item, err := scanNewsItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("IncrementMention: %w", err)
	}
	return item, nil
}

func (repo *NewsItemRepo) WasProcessed(ctx context.Context, runDate time.Time, branchTag, articleURL, title string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM processed_candidates WHERE run_date = $1 AND branch_tag = $2 AND dedup_key = $3)`
	var exists bool
	err := repo.db.QueryRowContext(ctx, query, runDate, branchTag, dedupKey(articleURL, title)).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("WasProcessed: %w", err)
	}
	return exists, nil
}

func (repo *NewsItemRepo) MarkProcessed(ctx context.Context, runDate time.Time, branchTag, articleURL, title string) error {
	const query = `
INSERT INTO processed_candidates (run_date, branch_tag, dedup_key)
VALUES ($1, $2, $3)
ON CONFLICT (run_date, branch_tag, dedup_key) DO NOTHING`
	_, err := repo.db.ExecContext(ctx, query, runDate, branchTag, dedupKey(articleURL, title))
	if err != nil {
		return fmt.Errorf("MarkProcessed: %w", err)
	}
	return nil
}

func dedupKey(articleURL, title string) string {
	if u := strings.TrimSpace(articleURL); u != "" {
		return "url:" + u
	}
	return "title:" + strings.ToLower(strings.TrimSpace(title))
}
