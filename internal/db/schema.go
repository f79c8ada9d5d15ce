package db

// SchemaSQL is the complete schema for fresh kanban installs.
// This schema reflects the current state after all migrations.
//
// # Schema Drift Protection
//
// This is the SINGLE SOURCE OF TRUTH for the database schema. All tests use
// this schema via GetSchemaSQL(), so a repository that references a column
// missing here fails immediately with "no such column".
//
// # Keeping Schema in Sync
//
// When adding new columns or tables:
//  1. Add a migration to the migrations list
//  2. Update SchemaSQL here
//  3. Run `make test` to verify alignment
//
// Timestamps are stored as fixed-width UTC text so that lexical order is
// chronological order.
const SchemaSQL = `
-- Workspaces (tenant boundary)
CREATE TABLE IF NOT EXISTS workspaces (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	prefix TEXT NOT NULL,
	docs TEXT NOT NULL DEFAULT '',
	ticket_counter INTEGER NOT NULL DEFAULT 0,
	doc_counter INTEGER NOT NULL DEFAULT 0,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);

-- Workspace docs blob history (previous versions)
CREATE TABLE IF NOT EXISTS workspace_docs_history (
	id TEXT PRIMARY KEY,
	workspace_id TEXT NOT NULL,
	content TEXT NOT NULL,
	actor_type TEXT NOT NULL CHECK(actor_type IN ('user', 'agent', 'system')),
	actor_id TEXT NOT NULL,
	actor_name TEXT,
	created_at TEXT NOT NULL,
	FOREIGN KEY (workspace_id) REFERENCES workspaces(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_workspace_docs_history_ws ON workspace_docs_history(workspace_id, created_at);

-- Memberships (user <-> workspace with role)
CREATE TABLE IF NOT EXISTS memberships (
	workspace_id TEXT NOT NULL,
	user_id TEXT NOT NULL,
	role TEXT NOT NULL CHECK(role IN ('owner', 'admin', 'member')),
	created_at TEXT NOT NULL,
	PRIMARY KEY (workspace_id, user_id),
	FOREIGN KEY (workspace_id) REFERENCES workspaces(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_memberships_user ON memberships(user_id);

-- API keys (workspace-scoped credentials; only the SHA-256 of the secret is stored)
CREATE TABLE IF NOT EXISTS api_keys (
	id TEXT PRIMARY KEY,
	workspace_id TEXT NOT NULL,
	name TEXT NOT NULL,
	key_hash TEXT NOT NULL UNIQUE,
	role TEXT NOT NULL CHECK(role IN ('admin', 'agent')),
	created_at TEXT NOT NULL,
	FOREIGN KEY (workspace_id) REFERENCES workspaces(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_api_keys_workspace ON api_keys(workspace_id);

-- User profiles (read-side cache of upstream identities)
CREATE TABLE IF NOT EXISTS user_profiles (
	id TEXT PRIMARY KEY,
	email TEXT,
	display_name TEXT,
	avatar_url TEXT,
	updated_at TEXT NOT NULL
);

-- Feature docs (grouping documents, tree via parent_id)
CREATE TABLE IF NOT EXISTS feature_docs (
	id TEXT PRIMARY KEY,
	workspace_id TEXT NOT NULL,
	number INTEGER NOT NULL,
	title TEXT NOT NULL,
	content TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL CHECK(status IN ('unclaimed', 'in_progress', 'done')) DEFAULT 'unclaimed',
	order_key REAL NOT NULL,
	parent_id TEXT,
	archived INTEGER NOT NULL DEFAULT 0,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL,
	FOREIGN KEY (workspace_id) REFERENCES workspaces(id) ON DELETE CASCADE,
	FOREIGN KEY (parent_id) REFERENCES feature_docs(id) ON DELETE SET NULL,
	UNIQUE(workspace_id, number)
);

CREATE INDEX IF NOT EXISTS idx_feature_docs_parent ON feature_docs(workspace_id, parent_id);

-- Tickets (tree via parent_id; owner cleared whenever unclaimed)
CREATE TABLE IF NOT EXISTS tickets (
	id TEXT PRIMARY KEY,
	workspace_id TEXT NOT NULL,
	number INTEGER NOT NULL,
	title TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	doc_id TEXT,
	parent_id TEXT,
	order_key REAL NOT NULL,
	archived INTEGER NOT NULL DEFAULT 0,
	status TEXT NOT NULL CHECK(status IN ('unclaimed', 'in_progress', 'done')) DEFAULT 'unclaimed',
	owner_id TEXT,
	owner_type TEXT CHECK(owner_type IN ('user', 'agent')),
	owner_display_name TEXT,
	child_count INTEGER NOT NULL DEFAULT 0,
	child_done_count INTEGER NOT NULL DEFAULT 0,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL,
	FOREIGN KEY (workspace_id) REFERENCES workspaces(id) ON DELETE CASCADE,
	FOREIGN KEY (doc_id) REFERENCES feature_docs(id) ON DELETE SET NULL,
	FOREIGN KEY (parent_id) REFERENCES tickets(id) ON DELETE CASCADE,
	UNIQUE(workspace_id, number),
	CHECK(status <> 'unclaimed' OR (owner_id IS NULL AND owner_type IS NULL AND owner_display_name IS NULL))
);

CREATE INDEX IF NOT EXISTS idx_tickets_parent ON tickets(workspace_id, parent_id);
CREATE INDEX IF NOT EXISTS idx_tickets_status ON tickets(workspace_id, status);
CREATE INDEX IF NOT EXISTS idx_tickets_doc ON tickets(doc_id);

-- Ticket comments (append-only)
CREATE TABLE IF NOT EXISTS ticket_comments (
	id TEXT PRIMARY KEY,
	workspace_id TEXT NOT NULL,
	ticket_id TEXT NOT NULL,
	body TEXT NOT NULL,
	author_type TEXT NOT NULL CHECK(author_type IN ('user', 'agent', 'system')),
	author_id TEXT NOT NULL,
	author_name TEXT,
	created_at TEXT NOT NULL,
	FOREIGN KEY (ticket_id) REFERENCES tickets(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_ticket_comments_ticket ON ticket_comments(ticket_id, created_at);

-- Ticket activity (append-only audit trail; survives ticket deletion)
CREATE TABLE IF NOT EXISTS ticket_activity (
	id TEXT PRIMARY KEY,
	workspace_id TEXT NOT NULL,
	ticket_id TEXT NOT NULL,
	type TEXT NOT NULL CHECK(type IN (
		'ticket_created', 'ticket_updated', 'ticket_status_changed',
		'ticket_assignment_changed', 'ticket_comment_added', 'ticket_deleted'
	)),
	actor_type TEXT NOT NULL CHECK(actor_type IN ('user', 'agent', 'system')),
	actor_id TEXT NOT NULL,
	actor_name TEXT,
	data TEXT,
	created_at TEXT NOT NULL,
	FOREIGN KEY (workspace_id) REFERENCES workspaces(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_ticket_activity_ticket ON ticket_activity(ticket_id, created_at);

CREATE TRIGGER IF NOT EXISTS ticket_activity_no_update
BEFORE UPDATE ON ticket_activity
BEGIN
	SELECT RAISE(ABORT, 'ticket_activity is append-only');
END;
`

// GetSchemaSQL returns the authoritative schema SQL for use by tests.
// Tests should use this instead of hardcoding their own schema to prevent drift.
func GetSchemaSQL() string {
	return SchemaSQL
}
