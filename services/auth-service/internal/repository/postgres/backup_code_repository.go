package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fkheinstein204/saasforge/pkg/dbpool"
	"github.com/fkheinstein204/saasforge/services/auth-service/internal/domain"
	"github.com/fkheinstein204/saasforge/services/auth-service/internal/repository"
)

// BackupCodeRepository is the Postgres-backed BackupCodeRepository.
// ConsumeMatching runs over a dedicated bounded dbpool.Pool instead of
// the shared pgxpool, since it needs a raw connection to hold a
// row-lock across the verify-then-mark-used sequence.
type BackupCodeRepository struct {
	*BaseRepository
	conns *dbpool.Pool
}

func NewBackupCodeRepository(pool *pgxpool.Pool, conns *dbpool.Pool) repository.BackupCodeRepository {
	return &BackupCodeRepository{BaseRepository: NewBaseRepository(pool), conns: conns}
}

// ReplaceAll deletes every existing backup code row for userID and
// inserts hashes in a single transaction (used by both EnrollTOTP and
// GenerateBackupCodes).
func (r *BackupCodeRepository) ReplaceAll(ctx context.Context, userID string, hashes []string) error {
	tx, err := r.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM backup_codes WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("failed to clear backup codes: %w", err)
	}

	for _, hash := range hashes {
		if _, err := tx.Exec(ctx,
			`INSERT INTO backup_codes (id, user_id, code_hash) VALUES (gen_random_uuid(), $1, $2)`,
			userID, hash); err != nil {
			return fmt.Errorf("failed to insert backup code: %w", err)
		}
	}

	return tx.Commit(ctx)
}

func (r *BackupCodeRepository) ListUnused(ctx context.Context, userID string) ([]*domain.BackupCode, error) {
	query := `SELECT id, user_id, code_hash, used_at FROM backup_codes WHERE user_id = $1 AND used_at IS NULL`

	rows, err := r.Pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list backup codes: %w", err)
	}
	defer rows.Close()

	var codes []*domain.BackupCode
	for rows.Next() {
		var c domain.BackupCode
		if err := rows.Scan(&c.ID, &c.UserID, &c.CodeHash, &c.UsedAt); err != nil {
			return nil, fmt.Errorf("failed to scan backup code: %w", err)
		}
		codes = append(codes, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate backup codes: %w", err)
	}
	return codes, nil
}

// MarkUsed sets used_at for a single code.
func (r *BackupCodeRepository) MarkUsed(ctx context.Context, id string) error {
	result, err := r.Pool.Exec(ctx, `UPDATE backup_codes SET used_at = NOW() WHERE id = $1 AND used_at IS NULL`, id)
	if err != nil {
		return fmt.Errorf("failed to mark backup code used: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("backup code not found or already used")
	}
	return nil
}

// ConsumeMatching locks every unused backup code row for userID with
// SELECT ... FOR UPDATE, evaluates matches against each in order, and
// marks the first hit used before committing — all on one connection
// held for the duration of the check, so a second login racing on the
// same code blocks until the first transaction commits or rolls back
// rather than both succeeding against a stale ListUnused snapshot.
func (r *BackupCodeRepository) ConsumeMatching(ctx context.Context, userID string, matches func(codeHash string) bool) (bool, error) {
	handle, err := r.conns.Acquire(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to acquire pooled connection: %w", err)
	}
	defer handle.Release(ctx)

	tx, err := handle.Conn().Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	rows, err := tx.Query(ctx,
		`SELECT id, code_hash FROM backup_codes WHERE user_id = $1 AND used_at IS NULL FOR UPDATE`, userID)
	if err != nil {
		return false, fmt.Errorf("failed to lock backup codes: %w", err)
	}

	var matchedID string
	for rows.Next() {
		var id, hash string
		if err := rows.Scan(&id, &hash); err != nil {
			rows.Close()
			return false, fmt.Errorf("failed to scan backup code: %w", err)
		}
		if matchedID == "" && matches(hash) {
			matchedID = id
		}
	}
	if err := rows.Err(); err != nil {
		return false, fmt.Errorf("failed to iterate backup codes: %w", err)
	}
	rows.Close()

	if matchedID == "" {
		return false, nil
	}

	if _, err := tx.Exec(ctx, `UPDATE backup_codes SET used_at = NOW() WHERE id = $1`, matchedID); err != nil {
		return false, fmt.Errorf("failed to mark backup code used: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("failed to commit backup code consumption: %w", err)
	}
	return true, nil
}
