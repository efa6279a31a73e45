package migrations

import (
	"newsmarker/internal/core"
)

// Migration001CreateDocumentsTable creates the table backing every collection
var Migration001CreateDocumentsTable = core.Migration{
	Version:     1,
	Name:        "create_documents_table",
	Description: "Create the JSON document table used by the docstore",
	UpSQL: `
		CREATE TABLE IF NOT EXISTS documents (
			collection TEXT NOT NULL,
			id TEXT NOT NULL,
			data TEXT NOT NULL,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL,
			PRIMARY KEY (collection, id)
		);

		CREATE INDEX IF NOT EXISTS idx_documents_collection_updated
			ON documents (collection, updated_at);
	`,
	DownSQL: `
		DROP INDEX IF EXISTS idx_documents_collection_updated;
		DROP TABLE IF EXISTS documents;
	`,
}
