package library

const schema = `
CREATE TABLE IF NOT EXISTS assets (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    asset_id TEXT NOT NULL UNIQUE,
    description TEXT NOT NULL,
    query TEXT NOT NULL,
    audio_path TEXT NOT NULL,
    embedding BLOB,
    created_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_assets_description ON assets(description);
`
