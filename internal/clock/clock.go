// Package clock は固定タイムゾーンの現在時刻と、その整形・再解析を提供する。
// タイムスタンプはすべて単一のレイアウト（"2006-01-02 15:04:05"）で表現し、
// 経過時間の算出は必ず同じレイアウトの再解析を経由する。
package clock

import (
	"fmt"
	"time"
)

// Layout はセッションタイムスタンプの唯一のフォーマット。
const Layout = "2006-01-02 15:04:05"

// DefaultTimezone はデフォルトのタイムゾーン名。
const DefaultTimezone = "America/Mexico_City"

// Clock は固定タイムゾーンに紐付いた時刻サービス。
type Clock struct {
	loc *time.Location
}

// New は指定タイムゾーンのClockを生成する。
// タイムゾーン名が解決できない場合はエラーを返す。
func New(timezone string) (*Clock, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("failed to load timezone %q: %w", timezone, err)
	}
	return &Clock{loc: loc}, nil
}

// Now は固定タイムゾーンにおける現在時刻を返す。
func (c *Clock) Now() time.Time {
	return time.Now().In(c.loc)
}

// NowString は現在時刻をLayout形式の文字列で返す。
func (c *Clock) NowString() string {
	return c.Format(c.Now())
}

// Format は時刻を固定タイムゾーンのLayout形式文字列に整形する。
func (c *Clock) Format(t time.Time) string {
	return t.In(c.loc).Format(Layout)
}

// Parse はLayout形式の文字列を固定タイムゾーンの時刻として解析する。
func (c *Clock) Parse(s string) (time.Time, error) {
	t, err := time.ParseInLocation(Layout, s, c.loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse timestamp %q: %w", s, err)
	}
	return t, nil
}
