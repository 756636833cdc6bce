package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"catchup-feed/internal/domain/entity"
	"catchup-feed/internal/repository"
)

type SourceRepo struct{ db *sql.DB }

func NewSourceRepo(db *sql.DB) repository.SourceRepository {
	return &SourceRepo{db: db}
}

func (repo *SourceRepo) ListActiveTopics(ctx context.Context) ([]*entity.Topic, error) {
	const query = `
SELECT id, text, keywords, priority, active, created_at, updated_at
FROM topics
WHERE active = TRUE
ORDER BY priority DESC, id ASC`
	rows, err := repo.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("ListActiveTopics: %w", err)
	}
	defer func() { _ = rows.Close() }()

	topics := make([]*entity.Topic, 0, 20)
	for rows.Next() {
		var topic entity.Topic
		var keywords []string
		if err := rows.Scan(&topic.ID, &topic.Text, &keywords, &topic.Priority,
			&topic.Active, &topic.CreatedAt, &topic.UpdatedAt); err != nil {
			return nil, fmt.Errorf("ListActiveTopics: Scan: %w", err)
		}
		topic.Keywords = keywords
		topics = append(topics, &topic)
	}
	return topics, rows.Err()
}

func (repo *SourceRepo) ListActiveFeeds(ctx context.Context) ([]*entity.Feed, error) {
	const query = `
SELECT id, name, url, active, created_at, updated_at
FROM feeds
WHERE active = TRUE
ORDER BY id ASC`
	rows, err := repo.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("ListActiveFeeds: %w", err)
	}
	defer func() { _ = rows.Close() }()

	feeds := make([]*entity.Feed, 0, 20)
	for rows.Next() {
		var feed entity.Feed
		if err := rows.Scan(&feed.ID, &feed.Name, &feed.URL, &feed.Active,
			&feed.CreatedAt, &feed.UpdatedAt); err != nil {
			return nil, fmt.Errorf("ListActiveFeeds: Scan: %w", err)
		}
		feeds = append(feeds, &feed)
	}
	return feeds, rows.Err()
}

func (repo *SourceRepo) ListActiveChannels(ctx context.Context) ([]*entity.Channel, error) {
	const query = `
SELECT id, name, url, external_id, active, created_at, updated_at
FROM channels
WHERE active = TRUE
ORDER BY id ASC`
	rows, err := repo.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("ListActiveChannels: %w", err)
	}
	defer func() { _ = rows.Close() }()

	channels := make([]*entity.Channel, 0, 20)
	for rows.Next() {
		var channel entity.Channel
		if err := rows.Scan(&channel.ID, &channel.Name, &channel.URL, &channel.ExternalID,
			&channel.Active, &channel.CreatedAt, &channel.UpdatedAt); err != nil {
			return nil, fmt.Errorf("ListActiveChannels: Scan: %w", err)
		}
		channels = append(channels, &channel)
	}
	return channels, rows.Err()
}
