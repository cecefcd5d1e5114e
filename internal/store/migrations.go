package store

const schema = `
CREATE TABLE IF NOT EXISTS articles (
    id             INTEGER PRIMARY KEY AUTOINCREMENT,
    fingerprint    TEXT NOT NULL UNIQUE,
    title          TEXT NOT NULL,
    description    TEXT NOT NULL DEFAULT '',
    link           TEXT NOT NULL,
    source         TEXT NOT NULL,
    category       TEXT NOT NULL DEFAULT 'General',
    published_time DATETIME NOT NULL,
    collected_time DATETIME NOT NULL,
    priority_score INTEGER NOT NULL DEFAULT 0,
    is_relevant    BOOLEAN NOT NULL DEFAULT 0,
    is_excluded    BOOLEAN NOT NULL DEFAULT 0,
    state          TEXT NOT NULL DEFAULT 'unselected'
        CHECK (state IN ('unselected', 'selected', 'posted'))
);

CREATE INDEX IF NOT EXISTS idx_articles_rank ON articles(priority_score DESC, collected_time DESC);
CREATE INDEX IF NOT EXISTS idx_articles_state ON articles(state);
CREATE INDEX IF NOT EXISTS idx_articles_collected ON articles(collected_time);
`
