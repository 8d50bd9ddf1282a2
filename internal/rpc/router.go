package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

var (
	// ErrDuplicateKey は同じトップレベルキーが複数回指定されたことを表す。
	ErrDuplicateKey = errors.New("rpc: duplicate router key")
	// ErrInvalidName はキーまたはプロシージャ名が不正であることを表す。
	ErrInvalidName = errors.New("rpc: invalid name")
)

// Router はプロシージャ名からプロシージャへの対応表。
type Router map[string]Procedure

// Entry はAppRouterに登録するトップレベルキーとルーターの組。
type Entry struct {
	// Key はトップレベルキー。呼び出しパスの先頭部分になる。
	Key string
	// Router はキー配下のプロシージャ群。
	Router Router
}

// AppRouter は複数のルーターをトップレベルキーで束ねた不変のディスパッチテーブル。
type AppRouter struct {
	routes map[string]Router
	keys   []string
}

// CreateRouter はエントリを束ねてAppRouterを構築する。
// キーの重複や不正な名前がある場合はAppRouterを生成せずにエラーを返す。
func CreateRouter(entries ...Entry) (*AppRouter, error) {
	routes := make(map[string]Router, len(entries))
	keys := make([]string, 0, len(entries))
	for _, e := range entries {
		if err := validateName(e.Key); err != nil {
			return nil, fmt.Errorf("key %q: %w", e.Key, err)
		}
		if _, dup := routes[e.Key]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateKey, e.Key)
		}

		procs := make(Router, len(e.Router))
		for name, p := range e.Router {
			if err := validateName(name); err != nil {
				return nil, fmt.Errorf("procedure %q.%q: %w", e.Key, name, err)
			}
			if p.call == nil {
				return nil, fmt.Errorf("procedure %q.%q: %w: not defined with Query or Mutation", e.Key, name, ErrInvalidName)
			}
			procs[name] = p
		}
		routes[e.Key] = procs
		keys = append(keys, e.Key)
	}
	sort.Strings(keys)
	return &AppRouter{routes: routes, keys: keys}, nil
}

func validateName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty", ErrInvalidName)
	}
	if strings.Contains(name, ".") {
		return fmt.Errorf("%w: must not contain '.'", ErrInvalidName)
	}
	return nil
}

// Keys はトップレベルキーを昇順で返す。
func (r *AppRouter) Keys() []string {
	return append([]string(nil), r.keys...)
}

// Lookup は "<key>.<name>" 形式のパスに完全一致するプロシージャを返す。
func (r *AppRouter) Lookup(path string) (Procedure, bool) {
	key, name, ok := strings.Cut(path, ".")
	if !ok {
		return Procedure{}, false
	}
	procs, ok := r.routes[key]
	if !ok {
		return Procedure{}, false
	}
	p, ok := procs[name]
	return p, ok
}

// Call はパスに対応するプロシージャを呼び出す。
// kindがプロシージャの種別と一致しない場合はMETHOD_NOT_SUPPORTEDを返す。
func (r *AppRouter) Call(ctx context.Context, path string, kind Kind, headers http.Header, raw json.RawMessage) (any, error) {
	p, ok := r.Lookup(path)
	if !ok {
		return nil, NewError(CodeNotFound, "no procedure found on path %q", path)
	}
	if p.kind != kind {
		return nil, NewError(CodeMethodNotSupported, "%s is a %s, not a %s", path, p.kind, kind)
	}
	return p.call(withCall(ctx, path, headers), raw)
}

// ProcedureInfo はDescribeが返すプロシージャの形。
type ProcedureInfo struct {
	// Path は "<key>.<name>" 形式の呼び出しパス。
	Path string `json:"path"`
	// Kind はプロシージャの種別。
	Kind Kind `json:"kind"`
	// Input は入力型の名前。
	Input string `json:"input"`
	// Output は出力型の名前。
	Output string `json:"output"`
	// Middleware は適用されているミドルウェア名。
	Middleware []string `json:"middleware,omitempty"`
}

// Describe は全プロシージャの形をパスの昇順で返す。
func (r *AppRouter) Describe() []ProcedureInfo {
	var infos []ProcedureInfo
	for _, key := range r.keys {
		for name, p := range r.routes[key] {
			infos = append(infos, ProcedureInfo{
				Path:       key + "." + name,
				Kind:       p.kind,
				Input:      p.input.String(),
				Output:     p.output.String(),
				Middleware: p.middleware,
			})
		}
	}
	sort.Slice(infos, func(i, j int) bool {
		return infos[i].Path < infos[j].Path
	})
	return infos
}

// Invoke はサーバー内からプロシージャを型付きで呼び出す。
// 出力がOut型でない場合はエラーを返す。
func Invoke[Out any](ctx context.Context, r *AppRouter, path string, input any) (Out, error) {
	var zero Out
	p, ok := r.Lookup(path)
	if !ok {
		return zero, NewError(CodeNotFound, "no procedure found on path %q", path)
	}

	var raw json.RawMessage
	if input != nil {
		b, err := json.Marshal(input)
		if err != nil {
			return zero, &Error{Code: CodeBadRequest, Message: "invalid input", Cause: err}
		}
		raw = b
	}

	out, err := r.Call(ctx, path, p.kind, HeadersFromContext(ctx), raw)
	if err != nil {
		return zero, err
	}
	if out == nil {
		return zero, nil
	}
	typed, ok := out.(Out)
	if !ok {
		return zero, fmt.Errorf("rpc: %s returned %T, not %T", path, out, zero)
	}
	return typed, nil
}

// callKey はコンテキストに呼び出し情報を格納するためのキー。
type callKey struct{}

// callInfo は処理中の呼び出しの情報。
type callInfo struct {
	path    string
	headers http.Header
}

func withCall(ctx context.Context, path string, headers http.Header) context.Context {
	return context.WithValue(ctx, callKey{}, callInfo{path: path, headers: headers})
}

// PathFromContext は処理中のプロシージャのパスを返す。
func PathFromContext(ctx context.Context) string {
	info, _ := ctx.Value(callKey{}).(callInfo)
	return info.path
}

// HeadersFromContext は処理中の呼び出しのリクエストヘッダーを返す。
func HeadersFromContext(ctx context.Context) http.Header {
	info, _ := ctx.Value(callKey{}).(callInfo)
	return info.headers
}
