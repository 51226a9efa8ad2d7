package database

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/neo/convogen/internal/conversation"
	"github.com/neo/convogen/internal/logging"
	"github.com/neo/convogen/internal/types"
)

// Store is the sqlite archive for finished conversation records. Only
// terminal conversations are accepted; the active phase lives in memory.
type Store struct {
	db *sql.DB
}

// Filter narrows and pages conversation listings
type Filter struct {
	Status   string
	Persona  string
	Page     int
	PageSize int
}

// DefaultPageSize bounds unpaged listings
const DefaultPageSize = 50

// New creates a database connection in dataDir and initializes the schema
func New(dataDir string) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %v", err)
	}

	dbPath := filepath.Join(dataDir, "conversations.db")
	db, err := sql.Open("sqlite3", dbPath+"?_journal=WAL&_foreign_keys=ON")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %v", err)
	}

	if err := createTables(db); err != nil {
		db.Close()
		return nil, err
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %v", err)
	}

	return &Store{db: db}, nil
}

// createTables creates the necessary database tables
func createTables(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %v", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		CREATE TABLE IF NOT EXISTS conversations (
			id TEXT PRIMARY KEY,
			persona TEXT NOT NULL,
			status TEXT NOT NULL,
			turn_count INTEGER NOT NULL,
			resolution_reason TEXT NOT NULL,
			created_at TEXT NOT NULL,
			ended_at TEXT NOT NULL,
			metadata TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_conversations_status ON conversations(status);
		CREATE INDEX IF NOT EXISTS idx_conversations_persona ON conversations(persona);

		CREATE TABLE IF NOT EXISTS messages (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			conversation_id TEXT NOT NULL REFERENCES conversations(id) ON DELETE CASCADE,
			position INTEGER NOT NULL,
			role TEXT NOT NULL,
			content TEXT NOT NULL,
			timestamp TEXT NOT NULL,
			metadata TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_messages_conversation ON messages(conversation_id);
	`)
	if err != nil {
		return fmt.Errorf("failed to create schema: %v", err)
	}

	return tx.Commit()
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveConversation archives a terminal conversation and its messages.
// Conversations still in the active phase are rejected.
func (s *Store) SaveConversation(conv *conversation.Conversation) error {
	if !conv.Status.IsTerminal() {
		return fmt.Errorf("conversation %s is %s; only terminal conversations are persisted", conv.ID, conv.Status)
	}
	if conv.EndedAt == nil {
		return fmt.Errorf("conversation %s has no end time", conv.ID)
	}

	metadata, err := json.Marshal(conv.Metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal conversation metadata: %v", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %v", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`INSERT INTO conversations
		(id, persona, status, turn_count, resolution_reason, created_at, ended_at, metadata)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		conv.ID, conv.Persona, conv.Status.String(), conv.TurnCount, conv.ResolutionReason,
		conv.CreatedAt.Format(time.RFC3339Nano), conv.EndedAt.Format(time.RFC3339Nano), string(metadata))
	if err != nil {
		return fmt.Errorf("failed to save conversation: %v", err)
	}

	for i, msg := range conv.Messages {
		msgMeta, err := json.Marshal(msg.Metadata)
		if err != nil {
			return fmt.Errorf("failed to marshal message metadata: %v", err)
		}
		_, err = tx.Exec(`INSERT INTO messages
			(conversation_id, position, role, content, timestamp, metadata)
			VALUES (?, ?, ?, ?, ?, ?)`,
			conv.ID, i, msg.Role.String(), msg.Content, msg.Timestamp.Format(time.RFC3339Nano), string(msgMeta))
		if err != nil {
			return fmt.Errorf("failed to save message %d: %v", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit conversation: %v", err)
	}

	logging.LogConversationEvent("conversation_archived", conv.ID, map[string]interface{}{
		"status":   conv.Status.String(),
		"messages": len(conv.Messages),
	})
	return nil
}

// GetConversation retrieves one archived conversation with its messages
func (s *Store) GetConversation(id string) (*conversation.Conversation, error) {
	row := s.db.QueryRow(`SELECT id, persona, status, turn_count, resolution_reason, created_at, ended_at, metadata
		FROM conversations WHERE id = ?`, id)

	conv, err := scanConversation(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("conversation not found: %s", id)
	}
	if err != nil {
		return nil, err
	}

	rows, err := s.db.Query(`SELECT role, content, timestamp, metadata
		FROM messages WHERE conversation_id = ? ORDER BY position`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load messages: %v", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			roleStr, content, tsStr, metaStr string
		)
		if err := rows.Scan(&roleStr, &content, &tsStr, &metaStr); err != nil {
			return nil, fmt.Errorf("failed to scan message: %v", err)
		}
		role, err := types.ParseRole(roleStr)
		if err != nil {
			return nil, err
		}
		ts, err := time.Parse(time.RFC3339Nano, tsStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse message timestamp: %v", err)
		}
		var meta map[string]interface{}
		if err := json.Unmarshal([]byte(metaStr), &meta); err != nil {
			return nil, fmt.Errorf("failed to parse message metadata: %v", err)
		}
		conv.Messages = append(conv.Messages, conversation.Message{
			Role:      role,
			Content:   content,
			Timestamp: ts,
			Metadata:  meta,
		})
	}
	return conv, rows.Err()
}

// ListConversations returns a page of archived conversations (without
// messages) plus the total match count.
func (s *Store) ListConversations(filter Filter) ([]*conversation.Conversation, int, error) {
	where := " WHERE 1=1"
	var args []interface{}
	if filter.Status != "" {
		where += " AND status = ?"
		args = append(args, filter.Status)
	}
	if filter.Persona != "" {
		where += " AND persona = ?"
		args = append(args, filter.Persona)
	}

	var total int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM conversations"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count conversations: %v", err)
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}

	query := `SELECT id, persona, status, turn_count, resolution_reason, created_at, ended_at, metadata
		FROM conversations` + where + ` ORDER BY created_at DESC LIMIT ? OFFSET ?`
	args = append(args, pageSize, (page-1)*pageSize)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list conversations: %v", err)
	}
	defer rows.Close()

	var out []*conversation.Conversation
	for rows.Next() {
		conv, err := scanConversation(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, conv)
	}
	return out, total, rows.Err()
}

// CountByStatus returns archived conversation counts keyed by status
func (s *Store) CountByStatus() (map[types.Status]int, error) {
	rows, err := s.db.Query(`SELECT status, COUNT(*) FROM conversations GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("failed to count by status: %v", err)
	}
	defer rows.Close()

	counts := make(map[types.Status]int)
	for rows.Next() {
		var statusStr string
		var n int
		if err := rows.Scan(&statusStr, &n); err != nil {
			return nil, fmt.Errorf("failed to scan status count: %v", err)
		}
		status, err := types.ParseStatus(statusStr)
		if err != nil {
			return nil, err
		}
		counts[status] = n
	}
	return counts, rows.Err()
}

// scanner covers both sql.Row and sql.Rows
type scanner interface {
	Scan(dest ...interface{}) error
}

// scanConversation reads one conversation row without its messages
func scanConversation(row scanner) (*conversation.Conversation, error) {
	var (
		conv                                            conversation.Conversation
		statusStr, createdStr, endedStr, metaStr, idStr string
	)
	err := row.Scan(&idStr, &conv.Persona, &statusStr, &conv.TurnCount,
		&conv.ResolutionReason, &createdStr, &endedStr, &metaStr)
	if err != nil {
		return nil, err
	}
	conv.ID = idStr

	status, err := types.ParseStatus(statusStr)
	if err != nil {
		return nil, err
	}
	conv.Status = status

	if conv.CreatedAt, err = time.Parse(time.RFC3339Nano, createdStr); err != nil {
		return nil, fmt.Errorf("failed to parse created_at: %v", err)
	}
	endedAt, err := time.Parse(time.RFC3339Nano, endedStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse ended_at: %v", err)
	}
	conv.EndedAt = &endedAt

	if err := json.Unmarshal([]byte(metaStr), &conv.Metadata); err != nil {
		return nil, fmt.Errorf("failed to parse conversation metadata: %v", err)
	}
	return &conv, nil
}
