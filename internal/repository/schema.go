package repository

// Schema definitions for the ClaimGuard database.
// Compatible with both SQLite and PostgreSQL.

// schemaAdjudications holds one row per adjudication. The claim, result and
// metadata columns carry JSON documents; the scalar columns exist for
// listing and filtering without decoding them.
const schemaAdjudications = `
CREATE TABLE IF NOT EXISTS adjudications (
    id TEXT PRIMARY KEY,
    claim_id TEXT NOT NULL,
    status TEXT NOT NULL,
    total_claimed REAL NOT NULL,
    total_approved REAL NOT NULL,
    created_at TIMESTAMP NOT NULL,
    claim TEXT,
    result TEXT NOT NULL,
    metadata TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_adjudications_claim ON adjudications(claim_id);
CREATE INDEX IF NOT EXISTS idx_adjudications_status ON adjudications(status);
CREATE INDEX IF NOT EXISTS idx_adjudications_created ON adjudications(created_at);
`

// AllSchemas returns all schema statements in order.
func AllSchemas() []string {
	return []string{
		schemaAdjudications,
	}
}
