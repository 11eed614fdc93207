package cache

// Schema contains SQL schema definitions for the search cache
const Schema = `
-- Denormalized copy of decoded messages
CREATE TABLE IF NOT EXISTS messages (
    id INTEGER PRIMARY KEY,
    sender TEXT NOT NULL,
    content TEXT NOT NULL,
    content_preview TEXT,
    receive_date TEXT,
    file_paths TEXT,
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL
);

-- Full-text index over sender and content, external-content linked to
-- messages by rowid. unicode61 with diacritics preserved handles Korean.
CREATE VIRTUAL TABLE IF NOT EXISTS messages_fts USING fts5(
    sender,
    content,
    content='messages',
    content_rowid='id',
    tokenize='unicode61 remove_diacritics 0'
);

-- Keep the FTS index consistent with the base table. Updates are
-- delete-then-reinsert, which external-content FTS5 requires.
CREATE TRIGGER IF NOT EXISTS messages_ai AFTER INSERT ON messages BEGIN
    INSERT INTO messages_fts(rowid, sender, content)
    VALUES (new.id, new.sender, new.content);
END;

CREATE TRIGGER IF NOT EXISTS messages_ad AFTER DELETE ON messages BEGIN
    INSERT INTO messages_fts(messages_fts, rowid, sender, content)
    VALUES ('delete', old.id, old.sender, old.content);
END;

CREATE TRIGGER IF NOT EXISTS messages_au AFTER UPDATE ON messages BEGIN
    INSERT INTO messages_fts(messages_fts, rowid, sender, content)
    VALUES ('delete', old.id, old.sender, old.content);
    INSERT INTO messages_fts(rowid, sender, content)
    VALUES (new.id, new.sender, new.content);
END;

-- Singleton sync high-water mark
CREATE TABLE IF NOT EXISTS sync_metadata (
    id INTEGER PRIMARY KEY CHECK (id = 1),
    last_sync_time INTEGER NOT NULL,
    last_message_id INTEGER NOT NULL,
    total_messages INTEGER NOT NULL
);

-- Indexes for common queries
CREATE INDEX IF NOT EXISTS idx_messages_receive_date ON messages(receive_date);
CREATE INDEX IF NOT EXISTS idx_messages_sender ON messages(sender);
`
