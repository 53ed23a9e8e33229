// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// クライアントに表示する原因カテゴリと対処方法を含む。
// メッセージは元のAPIとのワイヤ互換のためスペイン語表記を使用する。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: validation, session, system
	Action   string // クライアント向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeMissingField      = "CAMPO_FALTANTE"
	ErrCodeSessionNotFound   = "SESION_NO_ENCONTRADA"
	ErrCodeInvalidStatus     = "ESTADO_INVALIDO"
	ErrCodeInvalidTransition = "TRANSICION_INVALIDA"
	ErrCodeMissingAddress    = "DIRECCION_FALTANTE"
	ErrCodeInvalidTimestamp  = "FECHA_INVALIDA"
)

// NewMissingFieldError は必須フィールド欠落エラーを生成する。
func NewMissingFieldError(field string) *APIError {
	return &APIError{
		Code:     ErrCodeMissingField,
		Message:  fmt.Sprintf("Falta algún campo: %s", field),
		Category: "validation",
		Action:   "Incluya todos los campos obligatorios en la solicitud.",
	}
}

// NewSessionNotFoundError はセッション未検出エラーを生成する。
func NewSessionNotFoundError(sessionID string) *APIError {
	return &APIError{
		Code:     ErrCodeSessionNotFound,
		Message:  fmt.Sprintf("No se ha encontrado la sesión: %s", sessionID),
		Category: "session",
		Action:   "Verifique el identificador de la sesión.",
	}
}

// NewInvalidStatusError は定義外ステータス値のエラーを生成する。
func NewInvalidStatusError(status string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidStatus,
		Message:  fmt.Sprintf("Estado no válido: %s", status),
		Category: "validation",
		Action:   "Use uno de: Activa, Inactiva, Finalizada por el Usuario, Finalizada por Falla de Sistema.",
	}
}

// NewInvalidTransitionError は許可されない状態遷移のエラーを生成する。
func NewInvalidTransitionError(from, to Status) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidTransition,
		Message:  fmt.Sprintf("Transición de estado no permitida: %s → %s", from, to),
		Category: "session",
		Action:   "Consulte el estado actual de la sesión antes de actualizarla.",
	}
}

// NewMissingAddressError はクライアントアドレス無しエラーを生成する。
func NewMissingAddressError() *APIError {
	return &APIError{
		Code:     ErrCodeMissingAddress,
		Message:  "No se pudo determinar la dirección IP del cliente.",
		Category: "validation",
		Action:   "Verifique la configuración del proxy o del cliente.",
	}
}

// NewInvalidTimestampError は解析不能なタイムスタンプのエラーを生成する。
func NewInvalidTimestampError(value string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidTimestamp,
		Message:  fmt.Sprintf("Fecha no válida: %s", value),
		Category: "validation",
		Action:   "Use el formato YYYY-MM-DD HH:mm:ss.",
	}
}
