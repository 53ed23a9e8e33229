// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"

	"github.com/hitoshi/sessiond/internal/model"
)

// SessionRepository はセッションデータの永続化インターフェース。
// 全操作は単一レコード単位でアトミックであり、複数レコードの
// トランザクションは提供しない。
type SessionRepository interface {
	// Create はセッションを作成する。
	Create(ctx context.Context, session *model.Session) error

	// FindByID は指定IDのセッションを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, sessionID string) (*model.Session, error)

	// Update はセッションのstatusとlastAccessedAtをIDで上書き更新する。
	// createdAtおよび識別情報フィールドは変更しない。
	Update(ctx context.Context, session *model.Session) error

	// ListAll は全セッションを作成日時の昇順で返す。
	ListAll(ctx context.Context) ([]*model.Session, error)

	// ListByStatus は指定ステータスのセッションを作成日時の昇順で返す。
	ListByStatus(ctx context.Context, status model.Status) ([]*model.Session, error)

	// DeleteAll は全セッションを削除し、削除件数を返す。
	DeleteAll(ctx context.Context) (int64, error)

	// MarkInactiveBefore はlastAccessedAtがcutoff（Layout形式文字列）より
	// 古いアクティブセッションを一括でInactivaに更新し、更新件数を返す。
	// タイムスタンプは固定フォーマットのため文字列比較が時系列順と一致する。
	MarkInactiveBefore(ctx context.Context, cutoff string) (int64, error)
}
