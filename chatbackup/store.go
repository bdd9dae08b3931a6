// CLAUDE:SUMMARY SQLite persistence for converted chats: insert-and-read-back, lookup, per-user listing, share ids.
// Package chatbackup persists converted chat records as backup rows.
//
// Usage:
//
//	db, _ := dbopen.Open("docload.db", dbopen.WithMkdirAll())
//	s := chatbackup.New(db)
//	_ = s.Init(ctx)
//	b, err := s.Insert(ctx, rec)
package chatbackup

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hazyhaar/docload/chatconv"
	"github.com/hazyhaar/docload/dbopen"
)

// ErrConflict is wrapped when an id or share id is already taken.
var ErrConflict = errors.New("chatbackup: conflict")

// Backup is one persisted chat.
type Backup struct {
	ID        string         `json:"id"`
	UserID    string         `json:"user_id"`
	Title     string         `json:"title"`
	Chat      chatconv.Chat  `json:"chat"`
	CreatedAt int64          `json:"created_at"`
	UpdatedAt int64          `json:"updated_at"`
	ShareID   *string        `json:"share_id"`
	Archived  bool           `json:"archived"`
	Pinned    bool           `json:"pinned"`
	Meta      map[string]any `json:"meta"`
	FolderID  *string        `json:"folder_id"`
}

// Store is the chat backup data-access object.
type Store struct {
	DB *sql.DB
}

// New wraps an open database. Call Init before first use.
func New(db *sql.DB) *Store {
	return &Store{DB: db}
}

// Open opens (or creates) the database at path and applies the schema.
func Open(path string, opts ...dbopen.Option) (*Store, error) {
	allOpts := append([]dbopen.Option{
		dbopen.WithMkdirAll(),
		dbopen.WithSchema(Schema),
	}, opts...)

	db, err := dbopen.Open(path, allOpts...)
	if err != nil {
		return nil, err
	}
	return &Store{DB: db}, nil
}

// Init creates the table if needed.
func (s *Store) Init(ctx context.Context) error {
	if _, err := s.DB.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("chatbackup: init: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.DB.Close()
}

// Insert stores rec and returns the row as read back.
func (s *Store) Insert(ctx context.Context, rec *chatconv.Record) (*Backup, error) {
	chat, err := json.Marshal(rec.Chat)
	if err != nil {
		return nil, fmt.Errorf("chatbackup: encode chat: %w", err)
	}
	meta := rec.Meta
	if meta == nil {
		meta = map[string]any{}
	}
	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return nil, fmt.Errorf("chatbackup: encode meta: %w", err)
	}

	var b *Backup
	err = dbopen.RunTx(ctx, s.DB, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO chatbackup (id, user_id, title, chat, created_at, updated_at, meta, folder_id)
			VALUES (?,?,?,?,?,?,?,?)`,
			rec.ID, rec.UserID, rec.Title, string(chat), rec.CreatedAt, rec.UpdatedAt, string(metaJSON), rec.FolderID,
		)
		if err != nil {
			return err
		}
		b, err = scanBackup(tx.QueryRowContext(ctx, selectBackup+` WHERE id = ?`, rec.ID))
		return err
	})
	if dbopen.IsConstraint(err) {
		return nil, fmt.Errorf("%w: chat %s: %v", ErrConflict, rec.ID, err)
	}
	if err != nil {
		return nil, fmt.Errorf("chatbackup: insert %s: %w", rec.ID, err)
	}
	return b, nil
}

// Get returns the backup with the given id, or nil when there is none.
func (s *Store) Get(ctx context.Context, id string) (*Backup, error) {
	b, err := scanBackup(s.DB.QueryRowContext(ctx, selectBackup+` WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("chatbackup: get %s: %w", id, err)
	}
	return b, nil
}

// GetByShareID returns the backup published under shareID, or nil.
func (s *Store) GetByShareID(ctx context.Context, shareID string) (*Backup, error) {
	b, err := scanBackup(s.DB.QueryRowContext(ctx, selectBackup+` WHERE share_id = ?`, shareID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("chatbackup: get share %s: %w", shareID, err)
	}
	return b, nil
}

// ListByUser returns a user's backups, most recently updated first.
func (s *Store) ListByUser(ctx context.Context, userID string, limit int) ([]*Backup, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.DB.QueryContext(ctx, selectBackup+`
		WHERE user_id = ? ORDER BY updated_at DESC, id LIMIT ?`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("chatbackup: list: %w", err)
	}
	defer rows.Close()

	var out []*Backup
	for rows.Next() {
		b, err := scanBackup(rows)
		if err != nil {
			return nil, fmt.Errorf("chatbackup: list: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// SetShareID publishes a backup under shareID. A share id already used by
// another backup is a conflict.
func (s *Store) SetShareID(ctx context.Context, id, shareID string) error {
	res, err := s.DB.ExecContext(ctx, `UPDATE chatbackup SET share_id = ? WHERE id = ?`, shareID, id)
	if dbopen.IsConstraint(err) {
		return fmt.Errorf("%w: share id %s", ErrConflict, shareID)
	}
	if err != nil {
		return fmt.Errorf("chatbackup: share %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("chatbackup: share %s: %w", id, sql.ErrNoRows)
	}
	return nil
}

const selectBackup = `
	SELECT id, user_id, title, chat, created_at, updated_at, share_id, archived, pinned, meta, folder_id
	FROM chatbackup`

type scanner interface {
	Scan(dest ...any) error
}

func scanBackup(row scanner) (*Backup, error) {
	var (
		b        Backup
		chat     string
		meta     string
		shareID  sql.NullString
		folderID sql.NullString
		pinned   sql.NullBool
	)
	if err := row.Scan(&b.ID, &b.UserID, &b.Title, &chat, &b.CreatedAt, &b.UpdatedAt,
		&shareID, &b.Archived, &pinned, &meta, &folderID); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(chat), &b.Chat); err != nil {
		return nil, fmt.Errorf("decode chat: %w", err)
	}
	if err := json.Unmarshal([]byte(meta), &b.Meta); err != nil {
		return nil, fmt.Errorf("decode meta: %w", err)
	}
	if shareID.Valid {
		b.ShareID = &shareID.String
	}
	if folderID.Valid {
		b.FolderID = &folderID.String
	}
	b.Pinned = pinned.Bool
	return &b, nil
}
