package store

// schemaStatements creates every table the Store owns if it does not yet
// exist. CHECK constraints are only meaningful at table-creation time
// (spec §4.1) — once a table exists, invariant enforcement for it moves to
// the application layer (see the *_test.go boundary tests and the Insert*
// methods in this package).
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS research_articles (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		doi_norm TEXT UNIQUE,
		title TEXT NOT NULL,
		publication_date TEXT,
		total_citations INTEGER NOT NULL DEFAULT 0,
		citations_per_year REAL NOT NULL DEFAULT 0,
		authors TEXT NOT NULL DEFAULT '',
		source_title TEXT NOT NULL DEFAULT '',
		arxiv_id TEXT NOT NULL DEFAULT '',
		is_preprint INTEGER NOT NULL DEFAULT 0,
		preprint_platform TEXT NOT NULL DEFAULT '',
		abstract TEXT NOT NULL DEFAULT '',
		abstract_source TEXT NOT NULL DEFAULT '',
		oa_status TEXT NOT NULL DEFAULT '',
		license TEXT NOT NULL DEFAULT '',
		oa_pdf_url TEXT NOT NULL DEFAULT '',
		manual_url_publisher TEXT NOT NULL DEFAULT '',
		manual_url_repository TEXT NOT NULL DEFAULT '',
		provenance TEXT NOT NULL DEFAULT '',
		import_datetime TEXT NOT NULL,
		enrichment_datetime TEXT
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_research_articles_doi_norm ON research_articles(doi_norm)`,

	`CREATE TABLE IF NOT EXISTS filtering_queries (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		query TEXT NOT NULL,
		exclude TEXT NOT NULL DEFAULT '',
		model TEXT NOT NULL,
		max_concurrent INTEGER NOT NULL DEFAULT 5,
		started_at TEXT NOT NULL,
		total INTEGER NOT NULL DEFAULT 0,
		matched INTEGER NOT NULL DEFAULT 0,
		failed INTEGER NOT NULL DEFAULT 0,
		warnings INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE INDEX IF NOT EXISTS idx_filtering_queries_started_at ON filtering_queries(started_at)`,

	`CREATE TABLE IF NOT EXISTS records_filterings (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		record_id INTEGER NOT NULL REFERENCES research_articles(id) ON DELETE CASCADE,
		filtering_query_id INTEGER NOT NULL REFERENCES filtering_queries(id) ON DELETE CASCADE,
		match_result INTEGER NOT NULL,
		explanation TEXT NOT NULL DEFAULT '',
		decided_at TEXT NOT NULL,
		UNIQUE(record_id, filtering_query_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_records_filterings_record_id ON records_filterings(record_id)`,
	`CREATE INDEX IF NOT EXISTS idx_records_filterings_filtering_query_id ON records_filterings(filtering_query_id)`,

	`CREATE TABLE IF NOT EXISTS pdf_resolutions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		record_id INTEGER NOT NULL REFERENCES research_articles(id) ON DELETE CASCADE,
		filtering_query_id INTEGER REFERENCES filtering_queries(id) ON DELETE CASCADE,
		timestamp TEXT NOT NULL,
		candidates TEXT NOT NULL DEFAULT '[]'
	)`,
	`CREATE INDEX IF NOT EXISTS idx_pdf_resolutions_record_id ON pdf_resolutions(record_id)`,
	`CREATE INDEX IF NOT EXISTS idx_pdf_resolutions_filtering_query_id ON pdf_resolutions(filtering_query_id)`,

	`CREATE TABLE IF NOT EXISTS pdf_downloads (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		record_id INTEGER NOT NULL REFERENCES research_articles(id) ON DELETE CASCADE,
		filtering_query_id INTEGER REFERENCES filtering_queries(id) ON DELETE CASCADE,
		timestamp TEXT NOT NULL,
		url TEXT NOT NULL DEFAULT '',
		source TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL,
		pdf_local_path TEXT NOT NULL DEFAULT '',
		sha1 TEXT NOT NULL DEFAULT '',
		final_url TEXT NOT NULL DEFAULT '',
		error_message TEXT NOT NULL DEFAULT '',
		file_size_bytes INTEGER
	)`,
	`CREATE INDEX IF NOT EXISTS idx_pdf_downloads_record_id ON pdf_downloads(record_id)`,
	`CREATE INDEX IF NOT EXISTS idx_pdf_downloads_filtering_query_id ON pdf_downloads(filtering_query_id)`,
	`CREATE INDEX IF NOT EXISTS idx_pdf_downloads_status ON pdf_downloads(status)`,

	`CREATE TABLE IF NOT EXISTS docx_versions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		record_id INTEGER NOT NULL REFERENCES research_articles(id) ON DELETE CASCADE,
		local_path TEXT NOT NULL DEFAULT '',
		retrieved_at TEXT NOT NULL,
		file_size_bytes INTEGER,
		error_message TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE INDEX IF NOT EXISTS idx_docx_versions_record_id ON docx_versions(record_id)`,

	`CREATE TABLE IF NOT EXISTS markdown_versions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		record_id INTEGER NOT NULL REFERENCES research_articles(id) ON DELETE CASCADE,
		source_type TEXT NOT NULL,
		docx_version_id INTEGER REFERENCES docx_versions(id) ON DELETE CASCADE,
		html_version_id INTEGER,
		variant TEXT NOT NULL,
		local_path TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		file_size_bytes INTEGER,
		error_message TEXT NOT NULL DEFAULT '',
		CHECK (
			(docx_version_id IS NOT NULL AND html_version_id IS NULL AND source_type = 'docx')
			OR
			(html_version_id IS NOT NULL AND docx_version_id IS NULL AND source_type = 'html')
		)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_markdown_versions_record_id ON markdown_versions(record_id)`,
	`CREATE INDEX IF NOT EXISTS idx_markdown_versions_docx_version_id ON markdown_versions(docx_version_id)`,

	`CREATE TABLE IF NOT EXISTS article_versions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		preprint_id INTEGER NOT NULL REFERENCES research_articles(id) ON DELETE CASCADE,
		published_id INTEGER NOT NULL REFERENCES research_articles(id) ON DELETE CASCADE,
		discovery_source TEXT NOT NULL DEFAULT '',
		link_datetime TEXT NOT NULL,
		UNIQUE(preprint_id, published_id),
		CHECK (preprint_id != published_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_article_versions_preprint_id ON article_versions(preprint_id)`,
	`CREATE INDEX IF NOT EXISTS idx_article_versions_published_id ON article_versions(published_id)`,
}

// additiveColumns lists columns that may be missing from a table created by
// an older version of this schema. migrate() introspects each table via
// PRAGMA table_info and issues an ALTER TABLE ... ADD COLUMN for any that
// are absent, preserving existing rows (new column defaults to NULL) —
// the additive, idempotent migration discipline required by spec §4.1,
// adapted from the teacher's Postgres information_schema pattern to
// SQLite's PRAGMA table_info introspection.
var additiveColumns = map[string][]columnDef{
	"research_articles": {
		{"abstract_no_retrieval_reason", "TEXT NOT NULL DEFAULT ''"},
	},
	"pdf_downloads": {
		{"file_size_bytes", "INTEGER"},
	},
	"docx_versions": {
		{"file_size_bytes", "INTEGER"},
	},
	"markdown_versions": {
		{"file_size_bytes", "INTEGER"},
		{"html_version_id", "INTEGER"},
		{"source_type", "TEXT NOT NULL DEFAULT 'docx'"},
	},
}

type columnDef struct {
	Name string
	Type string
}
