package session

import (
	"fmt"
	"time"

	"github.com/hitoshi/sessiond/internal/model"
)

// derivedTiming は読み取り時に算出する派生時間を表す。
type derivedTiming struct {
	sessionDuration string
	inactivityTime  string
}

// computeDerivedTiming は保存されたタイムスタンプを再解析し、
// 滞在時間（now − createdAt）と無操作時間（now − lastAccessedAt）を
// 秒単位で算出する。純粋な読み取り専用計算であり、セッションは変更しない。
func (s *Service) computeDerivedTiming(session *model.Session, now time.Time) (*derivedTiming, error) {
	createdAt, err := s.clock.Parse(session.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse createdAt: %w", err)
	}
	lastAccessedAt, err := s.clock.Parse(session.LastAccessedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse lastAccessedAt: %w", err)
	}

	return &derivedTiming{
		sessionDuration: formatSeconds(wholeSeconds(now.Sub(createdAt))),
		inactivityTime:  formatSeconds(wholeSeconds(now.Sub(lastAccessedAt))),
	}, nil
}

// wholeSeconds は経過時間を秒単位の整数に切り捨てる。負値は0に丸める。
func wholeSeconds(d time.Duration) int {
	if d < 0 {
		return 0
	}
	return int(d / time.Second)
}

// formatSeconds は秒数を "M minuto(s), S segundo(s)" 形式のスペイン語表現に
// 整形する。ちょうど1のときのみ単数形、0を含むそれ以外は複数形を使用する。
func formatSeconds(totalSeconds int) string {
	minutes := totalSeconds / 60
	seconds := totalSeconds % 60
	return fmt.Sprintf("%d minuto%s, %d segundo%s",
		minutes, plural(minutes), seconds, plural(seconds))
}

// plural はスペイン語の複数形接尾辞を返す。
func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
