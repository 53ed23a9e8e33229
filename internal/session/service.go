// Package session はセッションライフサイクルのドメインロジックを提供する。
// 状態遷移の検証、派生時間（滞在時間・無操作時間）の算出、
// セッションの作成・終了・更新・照会を含む。
package session

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/hitoshi/sessiond/internal/clock"
	"github.com/hitoshi/sessiond/internal/model"
	"github.com/hitoshi/sessiond/internal/repository"
)

// ServerIdentityResolver はサーバー側ネットワーク識別情報の解決インターフェース。
// netid.Resolverの部分集合として定義する。
type ServerIdentityResolver interface {
	ServerIdentity() (ip string, mac string)
}

// MetricsRecorder はセッション操作のメトリクス記録インターフェース。
// nilの場合は記録をスキップする。
type MetricsRecorder interface {
	RecordSessionCreated()
	RecordSessionEnded(reason string)
	RecordSessionUpdated(status string)
}

// EndReason はセッション終了の契機を表す。
type EndReason string

const (
	// EndReasonUser はユーザー操作による終了。
	EndReasonUser EndReason = "user"
	// EndReasonSystemFailure はシステム障害による終了。
	EndReasonSystemFailure EndReason = "system_failure"
)

// terminalStatus は終了契機に対応する終了ステータスを返す。
func terminalStatus(reason EndReason) model.Status {
	if reason == EndReasonSystemFailure {
		return model.StatusEndedBySystemFailure
	}
	return model.StatusEndedByUser
}

// LoginInput はセッション作成の入力を表す。
type LoginInput struct {
	Email      string
	Nickname   string
	MacAddress string
	ClientIP   string
}

// StatusResult はセッションと読み取り時に算出した派生時間を表す。
// 派生時間は永続化されない。
type StatusResult struct {
	Session         *model.Session
	SessionDuration string
	InactivityTime  string
}

// Service はセッションライフサイクルのサービス層。
type Service struct {
	repo     repository.SessionRepository
	clock    *clock.Clock
	identity ServerIdentityResolver
	metrics  MetricsRecorder
}

// NewService はServiceを生成する。metricsはnilを許容する。
func NewService(
	repo repository.SessionRepository,
	clk *clock.Clock,
	identity ServerIdentityResolver,
	metrics MetricsRecorder,
) *Service {
	return &Service{
		repo:     repo,
		clock:    clk,
		identity: identity,
		metrics:  metrics,
	}
}

// Login は新規セッションを作成する。
// UUIDのセッションIDを生成し、作成時刻・最終アクセス時刻を現在時刻で
// スタンプし、サーバー側のネットワーク識別情報を付与する。
// email、nickname、macAddressのいずれかが欠落している場合は
// CAMPO_FALTANTEエラーを返す。
func (s *Service) Login(ctx context.Context, in LoginInput) (*model.Session, error) {
	var missing []string
	if in.Email == "" {
		missing = append(missing, "email")
	}
	if in.Nickname == "" {
		missing = append(missing, "nickname")
	}
	if in.MacAddress == "" {
		missing = append(missing, "macAddress")
	}
	if len(missing) > 0 {
		return nil, model.NewMissingFieldError(strings.Join(missing, ", "))
	}

	now := s.clock.NowString()
	serverIP, serverMac := s.identity.ServerIdentity()

	session := &model.Session{
		SessionID:        uuid.NewString(),
		Email:            in.Email,
		Nickname:         in.Nickname,
		ClientMacAddress: in.MacAddress,
		ClientIP:         in.ClientIP,
		ServerIP:         serverIP,
		ServerMacAddress: serverMac,
		CreatedAt:        now,
		LastAccessedAt:   now,
		Status:           model.StatusActive,
	}

	if err := s.repo.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to store session: %w", err)
	}

	if s.metrics != nil {
		s.metrics.RecordSessionCreated()
	}
	slog.Info("session created",
		slog.String("session_id", session.SessionID),
		slog.String("client_ip", session.ClientIP),
	)

	return session, nil
}

// End はセッションを終了契機に対応する終了ステータスに遷移させ、
// lastAccessedAtを現在時刻に更新する。
// 未検出の場合はSESION_NO_ENCONTRADA、終了済みセッションに対しては
// TRANSICION_INVALIDAを返す。
func (s *Service) End(ctx context.Context, sessionID string, reason EndReason) (*model.Session, error) {
	session, err := s.repo.FindByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if session == nil {
		return nil, model.NewSessionNotFoundError(sessionID)
	}

	to := terminalStatus(reason)
	if !model.CanTransition(session.Status, to) {
		return nil, model.NewInvalidTransitionError(session.Status, to)
	}

	session.Status = to
	session.LastAccessedAt = s.clock.NowString()

	if err := s.repo.Update(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to end session: %w", err)
	}

	if s.metrics != nil {
		s.metrics.RecordSessionEnded(string(reason))
	}
	slog.Info("session ended",
		slog.String("session_id", sessionID),
		slog.String("reason", string(reason)),
	)

	return session, nil
}

// Update はセッションのステータスと最終アクセス時刻を上書きする。
// ステータスは定義済みの値かつ現在状態から遷移可能な値のみ許可する。
// lastAccessedAtOverrideが空でない場合はLayout形式で解析できることを
// 検証したうえでそのまま採用し、空の場合は現在時刻を使用する。
func (s *Service) Update(ctx context.Context, sessionID, status, lastAccessedAtOverride string) (*model.Session, error) {
	next, ok := model.ParseStatus(status)
	if !ok {
		return nil, model.NewInvalidStatusError(status)
	}

	lastAccessedAt := lastAccessedAtOverride
	if lastAccessedAt == "" {
		lastAccessedAt = s.clock.NowString()
	} else if _, err := s.clock.Parse(lastAccessedAt); err != nil {
		return nil, model.NewInvalidTimestampError(lastAccessedAtOverride)
	}

	session, err := s.repo.FindByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if session == nil {
		return nil, model.NewSessionNotFoundError(sessionID)
	}

	if !model.CanTransition(session.Status, next) {
		return nil, model.NewInvalidTransitionError(session.Status, next)
	}

	session.Status = next
	session.LastAccessedAt = lastAccessedAt

	if err := s.repo.Update(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to update session: %w", err)
	}

	if s.metrics != nil {
		s.metrics.RecordSessionUpdated(status)
	}

	return session, nil
}

// Status はセッションを取得し、滞在時間と無操作時間を現在時刻から算出する。
// 読み取り専用であり、保存されたレコードは変更しない。
func (s *Service) Status(ctx context.Context, sessionID string) (*StatusResult, error) {
	session, err := s.repo.FindByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if session == nil {
		return nil, model.NewSessionNotFoundError(sessionID)
	}

	timing, err := s.computeDerivedTiming(session, s.clock.Now())
	if err != nil {
		return nil, err
	}

	return &StatusResult{
		Session:         session,
		SessionDuration: timing.sessionDuration,
		InactivityTime:  timing.inactivityTime,
	}, nil
}

// ListAll は全セッションを返す。
func (s *Service) ListAll(ctx context.Context) ([]*model.Session, error) {
	sessions, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	return sessions, nil
}

// ListActive はステータスがActivaのセッションを返す。
func (s *Service) ListActive(ctx context.Context) ([]*model.Session, error) {
	sessions, err := s.repo.ListByStatus(ctx, model.StatusActive)
	if err != nil {
		return nil, fmt.Errorf("failed to list active sessions: %w", err)
	}
	return sessions, nil
}

// DeleteAll は全セッションを削除し、削除件数を返す。
func (s *Service) DeleteAll(ctx context.Context) (int64, error) {
	deleted, err := s.repo.DeleteAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to delete sessions: %w", err)
	}

	slog.Info("all sessions deleted", slog.Int64("deleted_count", deleted))
	return deleted, nil
}
