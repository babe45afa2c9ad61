package store

const schema = `
CREATE TABLE IF NOT EXISTS removals (
    id TEXT PRIMARY KEY,
    scan_id TEXT,
    name TEXT NOT NULL,
    version TEXT,
    kind TEXT NOT NULL,
    size_mb REAL,
    command TEXT,
    paths TEXT,
    success BOOLEAN NOT NULL,
    output TEXT,
    removed_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_removals_name ON removals(name);
CREATE INDEX IF NOT EXISTS idx_removals_removed_at ON removals(removed_at);
`
