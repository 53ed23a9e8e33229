package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/sessiond/internal/model"
)

// PostgresSessionRepo はPostgreSQLを使用したセッションリポジトリ。
type PostgresSessionRepo struct {
	db *sql.DB
}

// NewPostgresSessionRepo はPostgresSessionRepoを生成する。
func NewPostgresSessionRepo(db *sql.DB) *PostgresSessionRepo {
	return &PostgresSessionRepo{db: db}
}

// Create はセッションを作成する。
func (r *PostgresSessionRepo) Create(ctx context.Context, session *model.Session) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO sessions (session_id, email, nickname, client_mac_address, client_ip,
		                       server_ip, server_mac_address, created_at, last_accessed_at, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		session.SessionID, session.Email, session.Nickname,
		session.ClientMacAddress, session.ClientIP,
		session.ServerIP, session.ServerMacAddress,
		session.CreatedAt, session.LastAccessedAt, string(session.Status),
	)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

// FindByID は指定IDのセッションを取得する。見つからない場合はnilを返す。
func (r *PostgresSessionRepo) FindByID(ctx context.Context, sessionID string) (*model.Session, error) {
	session := &model.Session{}
	err := r.db.QueryRowContext(ctx,
		`SELECT session_id, email, nickname, client_mac_address, client_ip,
		        server_ip, server_mac_address, created_at, last_accessed_at, status
		 FROM sessions
		 WHERE session_id = $1`,
		sessionID,
	).Scan(
		&session.SessionID, &session.Email, &session.Nickname,
		&session.ClientMacAddress, &session.ClientIP,
		&session.ServerIP, &session.ServerMacAddress,
		&session.CreatedAt, &session.LastAccessedAt, &session.Status,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find session: %w", err)
	}

	return session, nil
}

// Update はセッションのstatusとlastAccessedAtをIDで上書き更新する。
func (r *PostgresSessionRepo) Update(ctx context.Context, session *model.Session) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE sessions
		 SET status = $1, last_accessed_at = $2
		 WHERE session_id = $3`,
		string(session.Status), session.LastAccessedAt, session.SessionID,
	)
	if err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}
	return nil
}

// ListAll は全セッションを作成日時の昇順で返す。
func (r *PostgresSessionRepo) ListAll(ctx context.Context) ([]*model.Session, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT session_id, email, nickname, client_mac_address, client_ip,
		        server_ip, server_mac_address, created_at, last_accessed_at, status
		 FROM sessions
		 ORDER BY created_at ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	return scanSessions(rows)
}

// ListByStatus は指定ステータスのセッションを作成日時の昇順で返す。
func (r *PostgresSessionRepo) ListByStatus(ctx context.Context, status model.Status) ([]*model.Session, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT session_id, email, nickname, client_mac_address, client_ip,
		        server_ip, server_mac_address, created_at, last_accessed_at, status
		 FROM sessions
		 WHERE status = $1
		 ORDER BY created_at ASC`,
		string(status),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions by status: %w", err)
	}
	defer rows.Close()

	return scanSessions(rows)
}

// DeleteAll は全セッションを削除し、削除件数を返す。
func (r *PostgresSessionRepo) DeleteAll(ctx context.Context) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM sessions`)
	if err != nil {
		return 0, fmt.Errorf("failed to delete sessions: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count deleted sessions: %w", err)
	}
	return deleted, nil
}

// MarkInactiveBefore はlastAccessedAtがcutoffより古いアクティブセッションを
// 一括でInactivaに更新し、更新件数を返す。
func (r *PostgresSessionRepo) MarkInactiveBefore(ctx context.Context, cutoff string) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE sessions
		 SET status = $1
		 WHERE status = $2 AND last_accessed_at < $3`,
		string(model.StatusInactive), string(model.StatusActive), cutoff,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to mark inactive sessions: %w", err)
	}

	marked, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count marked sessions: %w", err)
	}
	return marked, nil
}

// scanSessions は検索結果の行をSessionスライスに変換する。
func scanSessions(rows *sql.Rows) ([]*model.Session, error) {
	sessions := []*model.Session{}
	for rows.Next() {
		session := &model.Session{}
		if err := rows.Scan(
			&session.SessionID, &session.Email, &session.Nickname,
			&session.ClientMacAddress, &session.ClientIP,
			&session.ServerIP, &session.ServerMacAddress,
			&session.CreatedAt, &session.LastAccessedAt, &session.Status,
		); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, session)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate sessions: %w", err)
	}
	return sessions, nil
}

// compile-time interface check
var _ SessionRepository = (*PostgresSessionRepo)(nil)
