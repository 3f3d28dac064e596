package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS messages (
	id              TEXT PRIMARY KEY,
	tenant_id       TEXT NOT NULL,
	project_id      TEXT NOT NULL,
	conversation_id TEXT NOT NULL,
	role            TEXT NOT NULL,
	content         TEXT NOT NULL,
	visibility      TEXT NOT NULL DEFAULT 'user',
	sub_agent_id    TEXT NOT NULL DEFAULT '',
	created_at      TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_messages_conversation
	ON messages (tenant_id, project_id, conversation_id, created_at);
`

// SQLiteStore persists messages in a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore opens (and migrates) a SQLite database at path. Use
// ":memory:" for an ephemeral store.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate history schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Append(ctx context.Context, msg Message) error {
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO messages (id, tenant_id, project_id, conversation_id, role, content, visibility, sub_agent_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		msg.ID, msg.TenantID, msg.ProjectID, msg.ConversationID,
		msg.Role, msg.Content, msg.Visibility, msg.SubAgentID, msg.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to append message: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Messages(ctx context.Context, q Query) ([]Message, error) {
	query := `SELECT id, tenant_id, project_id, conversation_id, role, content, visibility, sub_agent_id, created_at
		FROM messages
		WHERE tenant_id = ? AND project_id = ? AND conversation_id = ?`
	args := []any{q.TenantID, q.ProjectID, q.ConversationID}

	if q.SubAgentID != "" {
		query += ` AND sub_agent_id = ?`
		args = append(args, q.SubAgentID)
	}
	query += ` ORDER BY created_at ASC, id ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	var out []Message
	for rows.Next() {
		var msg Message
		if err := rows.Scan(&msg.ID, &msg.TenantID, &msg.ProjectID, &msg.ConversationID,
			&msg.Role, &msg.Content, &msg.Visibility, &msg.SubAgentID, &msg.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		out = append(out, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if q.Limit > 0 && len(out) > q.Limit {
		out = out[len(out)-q.Limit:]
	}
	return out, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
