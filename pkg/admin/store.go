package admin

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Store is the persistent record of admin users and admin-only commands.
type Store interface {
	ListAdmins() ([]string, error)
	ListAdminCommands() ([]string, error)
	InsertAdmin(userID, addedBy string) error
	DeleteAdmin(userID string) error
	InsertAdminCommand(name, addedBy string) error
	DeleteAdminCommand(name string) error
	Close() error
}

// SQLiteStore backs the admin policy with a local sqlite database.
type SQLiteStore struct {
	db *sql.DB
}

func OpenSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	for _, stmt := range []string{
		`CREATE TABLE IF NOT EXISTS admin_users (
			user_id TEXT PRIMARY KEY,
			added_at INTEGER NOT NULL,
			added_by TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS admin_commands (
			command_name TEXT PRIMARY KEY,
			added_at INTEGER NOT NULL,
			added_by TEXT
		)`,
	} {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("create schema: %w", err)
		}
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) ListAdmins() ([]string, error) {
	return s.listColumn(`SELECT user_id FROM admin_users`)
}

func (s *SQLiteStore) ListAdminCommands() ([]string, error) {
	return s.listColumn(`SELECT command_name FROM admin_commands`)
}

func (s *SQLiteStore) listColumn(query string) ([]string, error) {
	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("query admin store: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scan admin row: %w", err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) InsertAdmin(userID, addedBy string) error {
	_, err := s.db.Exec(
		`INSERT INTO admin_users (user_id, added_at, added_by) VALUES (?, ?, ?)`,
		userID, time.Now().Unix(), addedBy,
	)
	if err != nil {
		return fmt.Errorf("insert admin: %w", err)
	}
	return nil
}

func (s *SQLiteStore) DeleteAdmin(userID string) error {
	_, err := s.db.Exec(`DELETE FROM admin_users WHERE user_id = ?`, userID)
	if err != nil {
		return fmt.Errorf("delete admin: %w", err)
	}
	return nil
}

func (s *SQLiteStore) InsertAdminCommand(name, addedBy string) error {
	_, err := s.db.Exec(
		`INSERT INTO admin_commands (command_name, added_at, added_by) VALUES (?, ?, ?)`,
		name, time.Now().Unix(), addedBy,
	)
	if err != nil {
		return fmt.Errorf("insert admin command: %w", err)
	}
	return nil
}

func (s *SQLiteStore) DeleteAdminCommand(name string) error {
	_, err := s.db.Exec(`DELETE FROM admin_commands WHERE command_name = ?`, name)
	if err != nil {
		return fmt.Errorf("delete admin command: %w", err)
	}
	return nil
}
