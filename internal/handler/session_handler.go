// Package handler はHTTPハンドラーを提供する。
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/hitoshi/sessiond/internal/model"
	"github.com/hitoshi/sessiond/internal/session"
)

const sessionCookieName = "session_id"

// SessionServiceInterface はセッションハンドラーが必要とするサービスインターフェース。
type SessionServiceInterface interface {
	// Login は新規セッションを作成する。
	Login(ctx context.Context, in session.LoginInput) (*model.Session, error)
	// End はセッションを終了契機に対応する終了ステータスに遷移させる。
	End(ctx context.Context, sessionID string, reason session.EndReason) (*model.Session, error)
	// Update はセッションのステータスと最終アクセス時刻を上書きする。
	Update(ctx context.Context, sessionID, status, lastAccessedAtOverride string) (*model.Session, error)
	// Status はセッションと読み取り時に算出した派生時間を返す。
	Status(ctx context.Context, sessionID string) (*session.StatusResult, error)
	// ListAll は全セッションを返す。
	ListAll(ctx context.Context) ([]*model.Session, error)
	// ListActive はステータスがActivaのセッションを返す。
	ListActive(ctx context.Context) ([]*model.Session, error)
	// DeleteAll は全セッションを削除し、削除件数を返す。
	DeleteAll(ctx context.Context) (int64, error)
}

// ClientIPResolver はクライアントIP解決のインターフェース。
// netid.Resolverの部分集合として定義する。
type ClientIPResolver interface {
	ClientIP(r *http.Request) (string, error)
}

// SessionHandlerConfig はセッションハンドラーの設定。
type SessionHandlerConfig struct {
	CookieDomain string
	CookieSecure bool
	CookieMaxAge int // セッションCookieの有効期間（秒）。ローリング更新される。
}

// SessionHandler はセッション管理のHTTPハンドラー。
// セッションCookieの値はエンティティのsessionIdと同一であり、
// リクエストボディ/クエリがsessionIdを省略した場合のフォールバックとなる。
type SessionHandler struct {
	service  SessionServiceInterface
	resolver ClientIPResolver
	config   SessionHandlerConfig
}

// NewSessionHandler はSessionHandlerを生成する。
func NewSessionHandler(service SessionServiceInterface, resolver ClientIPResolver, config SessionHandlerConfig) *SessionHandler {
	return &SessionHandler{
		service:  service,
		resolver: resolver,
		config:   config,
	}
}

// loginRequest はログインリクエストのボディ。
type loginRequest struct {
	Email      string `json:"email"`
	Nickname   string `json:"nickname"`
	MacAddress string `json:"macAddress"`
}

// logoutRequest はログアウトリクエストのボディ。
type logoutRequest struct {
	SessionID string `json:"sessionId"`
}

// updateRequest はセッション更新リクエストのボディ。
type updateRequest struct {
	SessionID      string `json:"sessionId"`
	Status         string `json:"status"`
	LastAccessedAt string `json:"lastAccessedAt"`
}

// statusSessionResponse はセッションと読み取り時の派生時間を結合したレスポンス。
type statusSessionResponse struct {
	*model.Session
	SessionDuration string `json:"sessionDuration"`
	InactivityTime  string `json:"inactivityTime"`
}

// apiErrorResponse は統一エラーフォーマットのレスポンス。
type apiErrorResponse struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Category string `json:"category"`
	Action   string `json:"action"`
}

// Welcome はAPIのルートに対する案内メッセージを返す。
// GET /
func (h *SessionHandler) Welcome(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "Bienvenido al api de control de sesiones.",
	})
}

// Login は新規セッションを作成する。
// POST /login
func (h *SessionHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, invalidBodyError())
		return
	}

	clientIP, err := h.resolver.ClientIP(r)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	created, err := h.service.Login(r.Context(), session.LoginInput{
		Email:      req.Email,
		Nickname:   req.Nickname,
		MacAddress: req.MacAddress,
		ClientIP:   clientIP,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	// セッションCookieを発行（HTTP Only、ローリング有効期限）
	h.setSessionCookie(w, created.SessionID)

	writeJSON(w, http.StatusOK, map[string]string{
		"message":   "Inicio de sesión exitoso.",
		"sessionId": created.SessionID,
	})
}

// Logout はセッションをユーザー契機で終了する。
// POST /logout
func (h *SessionHandler) Logout(w http.ResponseWriter, r *http.Request) {
	var req logoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, invalidBodyError())
		return
	}

	sessionID := h.sessionIDOrCookie(r, req.SessionID)
	if sessionID == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewMissingFieldError("sessionId"))
		return
	}

	ended, err := h.service.End(r.Context(), sessionID, session.EndReasonUser)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	h.clearSessionCookie(w)

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Logout exitoso.",
		"session": ended,
	})
}

// Update はセッションのステータスと最終アクセス時刻を上書きする。
// PUT /update
func (h *SessionHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req updateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, invalidBodyError())
		return
	}

	sessionID := h.sessionIDOrCookie(r, req.SessionID)
	if sessionID == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewMissingFieldError("sessionId"))
		return
	}
	if req.Status == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewMissingFieldError("status"))
		return
	}

	updated, err := h.service.Update(r.Context(), sessionID, req.Status, req.LastAccessedAt)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Sesión actualizada correctamente.",
		"session": updated,
	})
}

// Status はセッションと読み取り時に算出した派生時間を返す。
// 保存されたレコードは変更せず、セッションCookieの有効期限のみ更新する。
// GET /status?sessionId=
func (h *SessionHandler) Status(w http.ResponseWriter, r *http.Request) {
	sessionID := h.sessionIDOrCookie(r, r.URL.Query().Get("sessionId"))
	if sessionID == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewMissingFieldError("sessionId"))
		return
	}

	result, err := h.service.Status(r.Context(), sessionID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	// ローリング有効期限の更新
	h.setSessionCookie(w, result.Session.SessionID)

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Sesión activa.",
		"session": statusSessionResponse{
			Session:         result.Session,
			SessionDuration: result.SessionDuration,
			InactivityTime:  result.InactivityTime,
		},
	})
}

// AllSessions は全セッションの一覧を返す。
// GET /allSessions
func (h *SessionHandler) AllSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.service.ListAll(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"sessions": sessions})
}

// AllCurrentSessions はステータスがActivaのセッション一覧を返す。
// GET /allCurrentSessions
func (h *SessionHandler) AllCurrentSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.service.ListActive(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"sessions": sessions})
}

// DeleteAllSessions は全セッションを削除する管理用操作。
// DELETE /deleteAllSessions
func (h *SessionHandler) DeleteAllSessions(w http.ResponseWriter, r *http.Request) {
	deleted, err := h.service.DeleteAll(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message":      "Todas las sesiones han sido eliminadas.",
		"deletedCount": deleted,
	})
}

// sessionIDOrCookie は明示的なsessionIdを優先し、
// 空の場合はセッションCookieの値にフォールバックする。
func (h *SessionHandler) sessionIDOrCookie(r *http.Request, explicit string) string {
	if explicit != "" {
		return explicit
	}
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}

// setSessionCookie はセッションCookieを発行または有効期限を更新する。
func (h *SessionHandler) setSessionCookie(w http.ResponseWriter, sessionID string) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    sessionID,
		Path:     "/",
		Domain:   h.config.CookieDomain,
		MaxAge:   h.config.CookieMaxAge,
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

// clearSessionCookie はセッションCookieを削除する。
func (h *SessionHandler) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		Domain:   h.config.CookieDomain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

// invalidBodyError は解析不能なリクエストボディのエラーを生成する。
func invalidBodyError() *model.APIError {
	return &model.APIError{
		Code:     "SOLICITUD_INVALIDA",
		Message:  "No se pudo analizar el cuerpo de la solicitud.",
		Category: "validation",
		Action:   "Envíe la solicitud en formato JSON válido.",
	}
}

// writeJSON はJSONレスポンスを書き込む。
func writeJSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(body)
}

// writeAPIErrorResponse は統一エラーフォーマットでエラーレスポンスを書き込む。
func writeAPIErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	writeJSON(w, statusCode, apiErrorResponse{
		Code:     apiErr.Code,
		Message:  apiErr.Message,
		Category: apiErr.Category,
		Action:   apiErr.Action,
	})
}

// handleServiceError はサービス層から返されたエラーを適切なHTTPステータスコードに変換する。
func handleServiceError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		writeAPIErrorResponse(w, mapAPIErrorToHTTPStatus(apiErr), apiErr)
		return
	}

	// APIError以外のエラーは内部サーバーエラーとして扱う
	slog.Error("internal server error", slog.String("error", err.Error()))
	writeAPIErrorResponse(w, http.StatusInternalServerError, &model.APIError{
		Code:     "INTERNAL_ERROR",
		Message:  "Se ha producido un error interno.",
		Category: "system",
		Action:   "Espere un momento y vuelva a intentarlo.",
	})
}

// mapAPIErrorToHTTPStatus はAPIErrorコードからHTTPステータスコードにマッピングする。
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeMissingField, model.ErrCodeInvalidStatus,
		model.ErrCodeMissingAddress, model.ErrCodeInvalidTimestamp,
		"SOLICITUD_INVALIDA":
		return http.StatusBadRequest
	case model.ErrCodeSessionNotFound:
		return http.StatusNotFound
	case model.ErrCodeInvalidTransition:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
