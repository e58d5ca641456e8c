package messages

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/ftpchat/internal/client/models"
	"github.com/dmitrijs2005/ftpchat/internal/common"
	"github.com/dmitrijs2005/ftpchat/internal/dbx"
)

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// WithDB returns a repository bound to another handle, typically the
// transaction handed out by dbx.WithTx.
func (r *SQLiteRepository) WithDB(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Append(ctx context.Context, rec models.MessageRecord) error {

	query := `insert into messages (id, direction, payload, remote_path, url, digest, state, created_at)
			values (?, ?, ?, ?, ?, ?, ?, ?)`

	var remotePath, url, digest sql.NullString
	if rec.Ref != nil {
		remotePath = sql.NullString{String: rec.Ref.RemotePath, Valid: true}
		url = sql.NullString{String: rec.Ref.URL, Valid: true}
		digest = sql.NullString{String: rec.Ref.Digest, Valid: true}
	}

	_, err := r.db.ExecContext(ctx, query, rec.ID, string(rec.Direction), rec.Payload,
		remotePath, url, digest, string(rec.State), rec.CreatedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("failed to insert message: %w", err)
	}

	return nil
}

// UpdateState reads the current state and writes the new one in a single
// transaction when the repository holds a *sql.DB. Bound to a transaction
// through WithDB it runs inside that one.
func (r *SQLiteRepository) UpdateState(ctx context.Context, id string, state models.DeliveryState) error {
	db, ok := r.db.(*sql.DB)
	if !ok {
		return r.updateState(ctx, id, state)
	}

	return dbx.WithTx(ctx, db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return r.WithDB(tx).updateState(ctx, id, state)
	})
}

func (r *SQLiteRepository) updateState(ctx context.Context, id string, state models.DeliveryState) error {

	var current string
	err := r.db.QueryRowContext(ctx, `select state from messages where id=?`, id).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("update %s: %w", id, common.ErrorNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to read message state: %w", err)
	}

	if err := checkTransition(id, models.DeliveryState(current), state); err != nil {
		return err
	}

	query := `update messages set state=? where id=?`
	result, err := r.db.ExecContext(ctx, query, string(state), id)
	if err != nil {
		return fmt.Errorf("failed to update message state: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected != 1 {
		return fmt.Errorf("update %s: %w", id, common.ErrorNotFound)
	}

	return nil
}

const selectColumns = `select id, direction, payload, remote_path, url, digest, state, created_at from messages`

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(s scanner) (*models.MessageRecord, error) {
	var (
		rec                     models.MessageRecord
		direction, state        string
		remotePath, url, digest sql.NullString
		createdAt               int64
	)

	if err := s.Scan(&rec.ID, &direction, &rec.Payload, &remotePath, &url, &digest, &state, &createdAt); err != nil {
		return nil, err
	}

	rec.Direction = models.Direction(direction)
	rec.State = models.DeliveryState(state)
	rec.CreatedAt = time.Unix(0, createdAt).UTC()
	if remotePath.Valid {
		rec.Ref = &models.RemoteReference{RemotePath: remotePath.String, URL: url.String, Digest: digest.String}
	}
	return &rec, nil
}

func (r *SQLiteRepository) Get(ctx context.Context, id string) (*models.MessageRecord, error) {

	row := r.db.QueryRowContext(ctx, selectColumns+` where id=?`, id)

	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get %s: %w", id, common.ErrorNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read message: %w", err)
	}

	return rec, nil
}

func (r *SQLiteRepository) List(ctx context.Context) ([]models.MessageRecord, error) {

	rows, err := r.db.QueryContext(ctx, selectColumns+` order by seq`)
	if err != nil {
		return nil, fmt.Errorf("error selecting messages: %w", err)
	}
	defer rows.Close()

	result := make([]models.MessageRecord, 0)

	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *rec)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}
