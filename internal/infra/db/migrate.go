package db

import (
	"database/sql"
)

// MigrateUp creates the schema backing the Source Loader, Dedup & Persist,
// and Synthesizer: topics/feeds/channels feed the three gatherer branches,
// news_items is the shared store the branches dedup and persist into, and
// processed_candidates backs idempotent-retry skipping.
func MigrateUp(db *sql.DB) error {
	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS topics (
    id         SERIAL PRIMARY KEY,
    text       TEXT NOT NULL,
    keywords   TEXT[] NOT NULL DEFAULT '{}',
    priority   SMALLINT NOT NULL DEFAULT 5,
    active     BOOLEAN NOT NULL DEFAULT TRUE,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`); err != nil {
		return err
	}

	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS feeds (
    id         SERIAL PRIMARY KEY,
    name       TEXT NOT NULL,
    url        TEXT NOT NULL UNIQUE,
    active     BOOLEAN NOT NULL DEFAULT TRUE,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`); err != nil {
		return err
	}

	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS channels (
    id          SERIAL PRIMARY KEY,
    name        TEXT NOT NULL,
    url         TEXT NOT NULL,
    external_id TEXT NOT NULL UNIQUE,
    active      BOOLEAN NOT NULL DEFAULT TRUE,
    created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
)`); err != nil {
		return err
	}

	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS news_items (
    id              SERIAL PRIMARY KEY,
    run_date        DATE NOT NULL,
    title           TEXT NOT NULL,
    summary         TEXT NOT NULL,
    relevance_score SMALLINT NOT NULL DEFAULT 5,
    mention_count   INTEGER NOT NULL DEFAULT 1,
    source_type     VARCHAR(10) NOT NULL,
    source_url      TEXT NOT NULL DEFAULT '',
    source_name     TEXT NOT NULL DEFAULT '',
    article_url     TEXT NOT NULL DEFAULT '',
    raw_content     TEXT NOT NULL DEFAULT '',
    created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
    CONSTRAINT chk_news_items_source_type CHECK (source_type IN ('web', 'feed', 'video'))
)`); err != nil {
		return err
	}

	// processed_candidates backs idempotent-retry skipping: a branch tags
	// each invocation, and a retry of the same invocation skips candidates
	// it already persisted rather than incrementing mention_count again.
	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS processed_candidates (
    run_date    DATE NOT NULL,
    branch_tag  TEXT NOT NULL,
    dedup_key   TEXT NOT NULL,
    created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
    PRIMARY KEY (run_date, branch_tag, dedup_key)
)`); err != nil {
		return err
	}

	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_topics_active ON topics(active) WHERE active = TRUE`,
		`CREATE INDEX IF NOT EXISTS idx_feeds_active ON feeds(active) WHERE active = TRUE`,
		`CREATE INDEX IF NOT EXISTS idx_channels_active ON channels(active) WHERE active = TRUE`,
		`CREATE INDEX IF NOT EXISTS idx_news_items_run_date ON news_items(run_date)`,
		`CREATE INDEX IF NOT EXISTS idx_news_items_run_date_score ON news_items(run_date, relevance_score DESC)`,
		// article_url is empty for candidates without a stable origin link, so
		// uniqueness is scoped to non-empty urls rather than the whole column.
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_news_items_run_date_article_url
		     ON news_items(run_date, article_url) WHERE article_url <> ''`,
	}
	for _, idx := range indexes {
		if _, err := db.Exec(idx); err != nil {
			return err
		}
	}

	return nil
}

// MigrateDown drops the tables MigrateUp created, in dependency order.
func MigrateDown(db *sql.DB) error {
	dropStatements := []string{
		`DROP TABLE IF EXISTS processed_candidates CASCADE`,
		`DROP TABLE IF EXISTS news_items CASCADE`,
		`DROP TABLE IF EXISTS channels CASCADE`,
		`DROP TABLE IF EXISTS feeds CASCADE`,
		`DROP TABLE IF EXISTS topics CASCADE`,
	}

	for _, stmt := range dropStatements {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}

	return nil
}
