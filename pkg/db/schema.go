package db

// The run log keeps only metadata about cycles and summarization runs.
// Nothing extracted from a page (subjects, senders, previews, summaries) is stored.
const schema = `
PRAGMA journal_mode = WAL;
PRAGMA synchronous = NORMAL;
PRAGMA foreign_keys = ON;
PRAGMA temp_store = MEMORY;

-- One row per analysis cycle on the page side
CREATE TABLE IF NOT EXISTS cycles (
    cycle_id TEXT PRIMARY KEY,
    mode TEXT NOT NULL,            -- aggregate, single
    extracted_count INTEGER NOT NULL DEFAULT 0,
    retained_count INTEGER NOT NULL DEFAULT 0,
    outcome TEXT NOT NULL,         -- summary, empty, error, no_response
    started_at INTEGER NOT NULL,    -- unix milliseconds
    finished_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_cycles_started ON cycles(started_at);

-- One row per accepted summarization request
CREATE TABLE IF NOT EXISTS runs (
    run_id INTEGER PRIMARY KEY AUTOINCREMENT,
    cycle_id TEXT,                 -- empty when the request did not come from a cycle
    mode TEXT NOT NULL,
    email_count INTEGER NOT NULL,
    path TEXT NOT NULL,            -- ai, rule, insufficient, minimal
    provider TEXT NOT NULL,
    language TEXT,
    duration_ms INTEGER NOT NULL,
    error TEXT,
    created_at INTEGER NOT NULL     -- unix milliseconds
);

CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at);
CREATE INDEX IF NOT EXISTS idx_runs_cycle ON runs(cycle_id);
CREATE INDEX IF NOT EXISTS idx_runs_path ON runs(path);
`
