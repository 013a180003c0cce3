package db

import (
	"context"
	"errors"
	"log/slog"
	"net/netip"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shandysiswandi/loginguard/internal/guard/entity"
)

// IsBlocked drops an entry that expired by now and reports whether an
// active one remains.
func (s *DB) IsBlocked(ctx context.Context, ip string, now time.Time) (_ bool, err error) {
	ctx, span := s.startSpan(ctx, "IsBlocked")
	defer func() { s.endSpan(span, err) }()

	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return false, err
	}

	tx, err := s.conn.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return false, err
	}
	defer func() {
		if rErr := tx.Rollback(ctx); rErr != nil && !errors.Is(rErr, pgx.ErrTxClosed) {
			slog.ErrorContext(ctx, "failed to rollback", "error", rErr)
		}
	}()

	if _, err := tx.Exec(ctx, `DELETE FROM blocked_ips WHERE ip = $1 AND expires_at <= $2`, addr, now); err != nil {
		return false, s.mapError(err)
	}

	var exists bool
	if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM blocked_ips WHERE ip = $1)`, addr).Scan(&exists); err != nil {
		return false, s.mapError(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return false, s.mapError(err)
	}

	return exists, nil
}

// Block inserts or extends the block of ip. A re-block keeps the original
// creation time so list order stays stable.
func (s *DB) Block(ctx context.Context, ip string, expiresAt time.Time) (err error) {
	ctx, span := s.startSpan(ctx, "Block")
	defer func() { s.endSpan(span, err) }()

	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return err
	}

	const q = `INSERT INTO blocked_ips (ip, expires_at) VALUES ($1, $2)
ON CONFLICT (ip) DO UPDATE SET expires_at = EXCLUDED.expires_at`

	_, err = s.conn.Exec(ctx, q, addr, expiresAt)
	return s.mapError(err)
}

func (s *DB) Unblock(ctx context.Context, ip string) (err error) {
	ctx, span := s.startSpan(ctx, "Unblock")
	defer func() { s.endSpan(span, err) }()

	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return err
	}

	_, err = s.conn.Exec(ctx, `DELETE FROM blocked_ips WHERE ip = $1`, addr)
	return s.mapError(err)
}

func (s *DB) ClearAll(ctx context.Context) (_ int64, err error) {
	ctx, span := s.startSpan(ctx, "ClearAll")
	defer func() { s.endSpan(span, err) }()

	tag, err := s.conn.Exec(ctx, `DELETE FROM blocked_ips`)
	if err != nil {
		return 0, s.mapError(err)
	}

	return tag.RowsAffected(), nil
}

// ListBlocks returns every entry, expired ones included, oldest first.
func (s *DB) ListBlocks(ctx context.Context) (_ []entity.BlockEntry, err error) {
	ctx, span := s.startSpan(ctx, "ListBlocks")
	defer func() { s.endSpan(span, err) }()

	rows, err := s.conn.Query(ctx, `SELECT ip, expires_at, created_at FROM blocked_ips ORDER BY created_at, ip`)
	if err != nil {
		return nil, s.mapError(err)
	}

	entries, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (entity.BlockEntry, error) {
		var (
			addr netip.Addr
			e    entity.BlockEntry
		)
		if err := row.Scan(&addr, &e.ExpiresAt, &e.CreatedAt); err != nil {
			return entity.BlockEntry{}, err
		}
		e.IP = addr.String()
		return e, nil
	})
	if err != nil {
		return nil, s.mapError(err)
	}

	return entries, nil
}
