package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/xxxsen/otpverify/internal/config"
	"github.com/xxxsen/otpverify/internal/db"
	"github.com/xxxsen/otpverify/internal/model"
	"github.com/xxxsen/otpverify/internal/pkg/dbutil"
	appErr "github.com/xxxsen/otpverify/internal/pkg/errors"
)

const otpTable = "otp_records"

func init() {
	Register("postgres", createPostgresOtpRepo)
}

func createPostgresOtpRepo(ctx context.Context, args interface{}) (OtpRepo, error) {
	opts := db.Options{}
	if err := config.DecodeData(args, &opts); err != nil {
		return nil, err
	}
	if opts.DSN == "" && opts.Host == "" {
		return nil, fmt.Errorf("postgres dsn or host is required")
	}
	conn, err := db.Open(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.ApplyMigrations(ctx, conn); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("migrations: %w", err)
	}
	return NewPostgresOtpRepo(conn), nil
}

type PostgresOtpRepo struct {
	db *sql.DB
}

func NewPostgresOtpRepo(db *sql.DB) *PostgresOtpRepo {
	return &PostgresOtpRepo{db: db}
}

// Insert lets postgres assign ctime and seq, so ordering does not depend on
// the clocks of the service instances.
func (r *PostgresOtpRepo) Insert(ctx context.Context, record *model.OtpRecord) error {
	id := uuid.NewString()
	sqlStr, args, err := dbutil.Insert(otpTable, map[string]interface{}{
		"id":    id,
		"email": record.Email,
		"code":  record.Code,
	}, "ctime")
	if err != nil {
		return err
	}
	var ctime int64
	if err := r.db.QueryRowContext(ctx, sqlStr, args...).Scan(&ctime); err != nil {
		return err
	}
	record.ID = id
	record.Ctime = ctime
	return nil
}

func (r *PostgresOtpRepo) Latest(ctx context.Context, email string) (*model.OtpRecord, error) {
	where := map[string]interface{}{"email": email, "_orderby": "seq desc", "_limit": []uint{0, 1}}
	sqlStr, args, err := dbutil.Select(otpTable, where, []string{"id", "email", "code", "ctime"})
	if err != nil {
		return nil, err
	}
	var record model.OtpRecord
	err = r.db.QueryRowContext(ctx, sqlStr, args...).Scan(&record.ID, &record.Email, &record.Code, &record.Ctime)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, appErr.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *PostgresOtpRepo) DeleteIfMatch(ctx context.Context, id, code string) (bool, error) {
	affected, err := r.delete(ctx, map[string]interface{}{"id": id, "code": code})
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

func (r *PostgresOtpRepo) DeleteBefore(ctx context.Context, cutoff int64) (int64, error) {
	return r.delete(ctx, map[string]interface{}{"ctime <": cutoff})
}

func (r *PostgresOtpRepo) delete(ctx context.Context, where map[string]interface{}) (int64, error) {
	sqlStr, args, err := dbutil.Delete(otpTable, where)
	if err != nil {
		return 0, err
	}
	result, err := r.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (r *PostgresOtpRepo) Close() error {
	return r.db.Close()
}
