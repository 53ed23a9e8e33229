// Package model はドメインモデルを定義する。
package model

// Session はユーザーのログインセッションを表す。
// タイムスタンプはすべて固定タイムゾーンのローカル時刻文字列
// （"2006-01-02 15:04:05" 形式）として保持する。
type Session struct {
	SessionID        string `json:"sessionId"`
	Email            string `json:"email"`
	Nickname         string `json:"nickname"`
	ClientMacAddress string `json:"macAddress"`
	ClientIP         string `json:"ip"`
	ServerIP         string `json:"serverIp"`
	ServerMacAddress string `json:"serverMacAddress"`
	CreatedAt        string `json:"createdAt"`
	LastAccessedAt   string `json:"lastAccessedAt"`
	Status           Status `json:"status"`
}

// Status はセッションのライフサイクル状態を表す。
// 値は元のAPIとのワイヤ互換のためスペイン語表記を使用する。
type Status string

const (
	// StatusActive はアクティブなセッション状態。
	StatusActive Status = "Activa"
	// StatusInactive は無操作しきい値を超過したセッション状態。
	StatusInactive Status = "Inactiva"
	// StatusEndedByUser はユーザー操作で終了したセッション状態。
	StatusEndedByUser Status = "Finalizada por el Usuario"
	// StatusEndedBySystemFailure はシステム障害で終了したセッション状態。
	StatusEndedBySystemFailure Status = "Finalizada por Falla de Sistema"
)

// ParseStatus は文字列をStatusに変換する。
// 定義外の値の場合はfalseを返す。
func ParseStatus(s string) (Status, bool) {
	switch Status(s) {
	case StatusActive, StatusInactive, StatusEndedByUser, StatusEndedBySystemFailure:
		return Status(s), true
	}
	return "", false
}

// transitions は現在状態から遷移可能な状態の集合を定義する。
// Activa→Activa は lastAccessedAt 更新のための自己遷移。
// Inactiva からは明示的な終了のみ許可し、Activa への復帰は公開しない。
// 終了状態（Finalizada…）からの遷移は存在しない。
var transitions = map[Status][]Status{
	StatusActive:   {StatusActive, StatusInactive, StatusEndedByUser, StatusEndedBySystemFailure},
	StatusInactive: {StatusEndedByUser, StatusEndedBySystemFailure},
}

// CanTransition は from から to への状態遷移が許可されているかを返す。
func CanTransition(from, to Status) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// IsTerminal は状態が終了状態（遷移先を持たない）かどうかを返す。
func IsTerminal(s Status) bool {
	return len(transitions[s]) == 0
}
