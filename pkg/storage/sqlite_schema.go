package storage

// SchemaVersion is the current database schema version.
const SchemaVersion = 1

// Schema creates the generations table. Timestamps are stored as Unix
// nanoseconds so both drivers compare and order them the same way.
const Schema = `
CREATE TABLE IF NOT EXISTS generations (
    id TEXT PRIMARY KEY,
    request_id TEXT,
    created_at INTEGER NOT NULL,

    provider TEXT NOT NULL,
    model TEXT NOT NULL,
    user_id TEXT,
    prompt TEXT NOT NULL,

    primary_text TEXT,
    body_text TEXT,
    confident BOOLEAN NOT NULL DEFAULT 0,
    recovery_path TEXT,

    status TEXT NOT NULL,
    error_type TEXT,
    error TEXT,
    preview TEXT,

    prompt_tokens INTEGER,
    completion_tokens INTEGER,
    total_tokens INTEGER,
    latency_ns INTEGER
);

CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY,
    applied_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_generations_created_at ON generations(created_at);
CREATE INDEX IF NOT EXISTS idx_generations_provider ON generations(provider);
CREATE INDEX IF NOT EXISTS idx_generations_model ON generations(model);
CREATE INDEX IF NOT EXISTS idx_generations_status ON generations(status);
CREATE INDEX IF NOT EXISTS idx_generations_user_id ON generations(user_id);
`

// InsertSchemaVersion records the schema version once.
const InsertSchemaVersion = `
INSERT INTO schema_version (version, applied_at)
VALUES (?, datetime('now'))
ON CONFLICT(version) DO NOTHING;
`

// GetSchemaVersion retrieves the newest applied schema version.
const GetSchemaVersion = `
SELECT version FROM schema_version ORDER BY version DESC LIMIT 1;
`

const columns = `id, request_id, created_at, provider, model, user_id, prompt,
    primary_text, body_text, confident, recovery_path,
    status, error_type, error, preview,
    prompt_tokens, completion_tokens, total_tokens, latency_ns`
