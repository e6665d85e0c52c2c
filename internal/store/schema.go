package store

const schemaSQL = `
CREATE TABLE IF NOT EXISTS objects (
    key                  TEXT PRIMARY KEY,
    content              BLOB NOT NULL,
    size_bytes           INTEGER NOT NULL,
    last_modified_ns     INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS uploads (
    id                   TEXT PRIMARY KEY,
    key                  TEXT NOT NULL,
    size_bytes           INTEGER NOT NULL,
    uploaded_ns          INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_objects_modified ON objects(last_modified_ns);
CREATE INDEX IF NOT EXISTS idx_uploads_key ON uploads(key);
`
