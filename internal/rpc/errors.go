package rpc

import (
	"errors"
	"fmt"
	"net/http"
)

// Code はRPCエラーの種別。
type Code string

const (
	// CodeBadRequest は入力が不正であることを表す。
	CodeBadRequest Code = "BAD_REQUEST"
	// CodeUnauthorized は認証が必要であることを表す。
	CodeUnauthorized Code = "UNAUTHORIZED"
	// CodeNotFound はプロシージャが存在しないことを表す。
	CodeNotFound Code = "NOT_FOUND"
	// CodeMethodNotSupported はプロシージャの種別とHTTPメソッドが一致しないことを表す。
	CodeMethodNotSupported Code = "METHOD_NOT_SUPPORTED"
	// CodeInternal はサーバー内部のエラーを表す。
	CodeInternal Code = "INTERNAL_SERVER_ERROR"
)

// HTTPStatus はエラー種別に対応するHTTPステータスコードを返す。
func (c Code) HTTPStatus() int {
	switch c {
	case CodeBadRequest:
		return http.StatusBadRequest
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeNotFound:
		return http.StatusNotFound
	case CodeMethodNotSupported:
		return http.StatusMethodNotAllowed
	default:
		return http.StatusInternalServerError
	}
}

// Error はクライアントに返すRPCエラー。
type Error struct {
	// Code はエラー種別。
	Code Code
	// Message はクライアントに返すメッセージ。
	Message string
	// Cause は元になったエラー。クライアントには返さない。
	Cause error
}

// NewError はRPCエラーを生成する。
func NewError(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// AsError は任意のエラーをRPCエラーに変換する。
// RPCエラーでないものは内部エラーとして扱い、メッセージは汎用のものにする。
func AsError(err error) *Error {
	var rpcErr *Error
	if errors.As(err, &rpcErr) {
		return rpcErr
	}
	return &Error{Code: CodeInternal, Message: "internal server error", Cause: err}
}
