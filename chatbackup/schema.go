package chatbackup

// Schema is the DDL for the chat backup table.
const Schema = `
CREATE TABLE IF NOT EXISTS chatbackup (
    id          TEXT PRIMARY KEY,
    user_id     TEXT NOT NULL,
    title       TEXT NOT NULL DEFAULT '',
    chat        TEXT NOT NULL,
    created_at  INTEGER NOT NULL,
    updated_at  INTEGER NOT NULL,
    share_id    TEXT UNIQUE,
    archived    INTEGER NOT NULL DEFAULT 0,
    pinned      INTEGER DEFAULT 0,
    meta        TEXT NOT NULL DEFAULT '{}',
    folder_id   TEXT
);
CREATE INDEX IF NOT EXISTS idx_chatbackup_user ON chatbackup(user_id, updated_at DESC);
`
