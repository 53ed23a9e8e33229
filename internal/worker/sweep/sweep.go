// Package sweep は無操作セッションの自動非アクティブ化ジョブを提供する。
// 最終アクセスから無操作しきい値（デフォルト600秒）を超過したアクティブ
// セッションを、固定間隔（デフォルト60秒）で永続ストアに対して直接
// Inactivaへ更新する。
package sweep

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hitoshi/sessiond/internal/clock"
)

// Store はスイープに必要なストア操作のインターフェース。
// repository.SessionRepositoryの部分集合として定義する。
type Store interface {
	// MarkInactiveBefore はlastAccessedAtがcutoffより古いアクティブ
	// セッションを一括でInactivaに更新し、更新件数を返す。
	MarkInactiveBefore(ctx context.Context, cutoff string) (int64, error)
}

// MetricsRecorder はスイープ実行のメトリクス記録インターフェース。
// nilの場合は記録をスキップする。
type MetricsRecorder interface {
	RecordSweep(marked int64, duration time.Duration)
}

// Job は無操作セッションの非アクティブ化ジョブ。
// 1回の実行は単一のUPDATEで完結し、冪等である。
type Job struct {
	store         Store
	clock         *clock.Clock
	logger        *slog.Logger
	metrics       MetricsRecorder
	IdleThreshold time.Duration // 無操作とみなすまでの経過時間（デフォルト: 600秒）
}

// NewJob は新しいJobを生成する。metricsはnilを許容する。
// idleThresholdが0以下の場合はデフォルト値600秒を使用する。
func NewJob(store Store, clk *clock.Clock, logger *slog.Logger, metrics MetricsRecorder, idleThreshold time.Duration) *Job {
	if idleThreshold <= 0 {
		idleThreshold = 600 * time.Second
	}
	return &Job{
		store:         store,
		clock:         clk,
		logger:        logger,
		metrics:       metrics,
		IdleThreshold: idleThreshold,
	}
}

// Run は無操作しきい値を超過したアクティブセッションをInactivaに更新する。
// タイムスタンプは固定フォーマットの文字列のため、カットオフ文字列との
// 比較が時系列比較と一致する。対象が無い場合もエラーにならない。
func (j *Job) Run(ctx context.Context) error {
	start := time.Now()

	cutoff := j.clock.Format(j.clock.Now().Add(-j.IdleThreshold))

	marked, err := j.store.MarkInactiveBefore(ctx, cutoff)
	if err != nil {
		j.logger.Error("セッションスイープの実行に失敗しました",
			slog.String("error", err.Error()),
			slog.String("cutoff", cutoff),
		)
		return fmt.Errorf("failed to sweep inactive sessions: %w", err)
	}

	duration := time.Since(start)
	if j.metrics != nil {
		j.metrics.RecordSweep(marked, duration)
	}

	j.logger.Info("セッションスイープが完了しました",
		slog.Int64("marked_inactive", marked),
		slog.String("cutoff", cutoff),
		slog.Float64("duration_ms", float64(duration.Milliseconds())),
	)

	return nil
}

// Start は固定間隔のティッカーでスイープを起動する。
// 起動直後に1回実行し、以後はコンテキストがキャンセルされるまで
// interval間隔で実行を継続する。
func (j *Job) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	j.logger.Info("セッションスイープを開始しました",
		slog.Duration("interval", interval),
		slog.Duration("idle_threshold", j.IdleThreshold),
	)

	// 起動直後に1回実行（Run内でエラーはログ済み）
	_ = j.Run(ctx)

	for {
		select {
		case <-ctx.Done():
			j.logger.Info("セッションスイープを停止しました")
			return
		case <-ticker.C:
			_ = j.Run(ctx)
		}
	}
}
