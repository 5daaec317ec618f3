package common

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorResponse 定義 API 錯誤響應結構
type ErrorResponse struct {
	Code    string `json:"code"`              // 錯誤代碼
	Message string `json:"message"`           // 錯誤信息
	Details string `json:"details,omitempty"` // 詳細信息（僅在開發模式顯示）
}

// CustomError 定義自定義錯誤類型
type CustomError struct {
	Code    string // 錯誤代碼
	Message string // 錯誤信息
	Err     error  // 原始錯誤
	Status  int    // HTTP 狀態碼
}

func (e *CustomError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

func (e *CustomError) Unwrap() error {
	return e.Err
}

// NewError 創建新的自定義錯誤
func NewError(code string, message string, status int, err error) *CustomError {
	return &CustomError{
		Code:    code,
		Message: message,
		Status:  status,
		Err:     err,
	}
}

// 預定義錯誤代碼
const (
	ErrCodeInvalidRequest   = "INVALID_REQUEST"
	ErrCodeNotFound         = "NOT_FOUND"
	ErrCodeTooManyRequests  = "TOO_MANY_REQUESTS"
	ErrCodeInvalidArgument  = "INVALID_ARGUMENT"
	ErrCodeEmptyCollection  = "EMPTY_COLLECTION"
	ErrCodeCacheMiss        = "CACHE_MISS"
	ErrCodeProviderDown     = "PROVIDER_UNAVAILABLE"
	ErrCodeInternalError    = "INTERNAL_ERROR"
	ErrCodeGatewayTimeout   = "GATEWAY_TIMEOUT"
	ErrCodeEntityTooLarge   = "REQUEST_ENTITY_TOO_LARGE"
	ErrCodeMethodNotAllowed = "METHOD_NOT_ALLOWED"
)

// 預定義錯誤
var (
	ErrInvalidRequest   = NewError(ErrCodeInvalidRequest, "無效的請求", http.StatusBadRequest, nil)
	ErrNotFound         = NewError(ErrCodeNotFound, "資源不存在", http.StatusNotFound, nil)
	ErrMethodNotAllowed = NewError(ErrCodeMethodNotAllowed, "不支援的請求方法", http.StatusMethodNotAllowed, nil)

	// ErrCacheMiss 快取中不存在該簽名，屬於正常分支
	ErrCacheMiss = NewError(ErrCodeCacheMiss, "快取未命中", http.StatusNotFound, nil)
	// ErrProviderUnavailable 供應商即時請求失敗（網路錯誤或非 2xx）
	ErrProviderUnavailable = NewError(ErrCodeProviderDown, "食譜供應商暫時不可用", http.StatusBadGateway, nil)
	// ErrInvalidArgument 排序參數無效或領域模型不變式被違反
	ErrInvalidArgument = NewError(ErrCodeInvalidArgument, "無效的參數", http.StatusBadRequest, nil)
	// ErrEmptyCollection 對空集合執行取出操作
	ErrEmptyCollection = NewError(ErrCodeEmptyCollection, "集合為空", http.StatusConflict, nil)
)

// InvalidArgumentf 包裝 ErrInvalidArgument 並附上細節
func InvalidArgumentf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}

// StatusOf 取得錯誤對應的 HTTP 狀態碼與錯誤代碼
func StatusOf(err error) (int, string) {
	var ce *CustomError
	if errors.As(err, &ce) {
		return ce.Status, ce.Code
	}
	return http.StatusInternalServerError, ErrCodeInternalError
}

// ToErrorResponse 轉換為 API 錯誤響應，debug 模式下附上原始錯誤
func ToErrorResponse(err error, debug bool) (int, ErrorResponse) {
	status, code := StatusOf(err)
	resp := ErrorResponse{Code: code, Message: err.Error()}
	var ce *CustomError
	if errors.As(err, &ce) {
		resp.Message = ce.Message
	}
	if debug {
		resp.Details = err.Error()
	}
	return status, resp
}
