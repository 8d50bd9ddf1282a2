package rpc

import (
	"context"
	"encoding/json"
	"reflect"
)

// Kind はプロシージャの種別。
type Kind string

const (
	// KindQuery は読み取り専用のプロシージャ。
	KindQuery Kind = "query"
	// KindMutation は状態を変更するプロシージャ。
	KindMutation Kind = "mutation"
)

// Void は入力を取らないプロシージャの入力型。
type Void struct{}

// Validator は入力型が実装すると、デコード後に呼び出される。
type Validator interface {
	Validate() error
}

// Handler はミドルウェアから呼び出される後続処理。
type Handler func(ctx context.Context) (any, error)

// Middleware はプロシージャ呼び出しの前後に処理を挟む。
type Middleware func(ctx context.Context, next Handler) (any, error)

// Procedure は名前付きの遠隔呼び出し1つ分の定義。
type Procedure struct {
	kind       Kind
	input      reflect.Type
	output     reflect.Type
	middleware []string
	call       func(ctx context.Context, raw json.RawMessage) (any, error)
}

// Query は読み取り専用のプロシージャを定義する。
func Query[In, Out any](fn func(ctx context.Context, in In) (Out, error)) Procedure {
	return newProcedure(KindQuery, fn)
}

// Mutation は状態を変更するプロシージャを定義する。
func Mutation[In, Out any](fn func(ctx context.Context, in In) (Out, error)) Procedure {
	return newProcedure(KindMutation, fn)
}

func newProcedure[In, Out any](kind Kind, fn func(ctx context.Context, in In) (Out, error)) Procedure {
	return Procedure{
		kind:   kind,
		input:  reflect.TypeFor[In](),
		output: reflect.TypeFor[Out](),
		call: func(ctx context.Context, raw json.RawMessage) (any, error) {
			in, err := decodeInput[In](raw)
			if err != nil {
				return nil, err
			}
			return fn(ctx, in)
		},
	}
}

// Use はミドルウェアを追加した新しいプロシージャを返す。
// nameはDescribeの出力に含まれる。
func (p Procedure) Use(name string, mw Middleware) Procedure {
	inner := p.call
	p.middleware = append(append([]string(nil), p.middleware...), name)
	p.call = func(ctx context.Context, raw json.RawMessage) (any, error) {
		return mw(ctx, func(ctx context.Context) (any, error) {
			return inner(ctx, raw)
		})
	}
	return p
}

// Kind はプロシージャの種別を返す。
func (p Procedure) Kind() Kind {
	return p.kind
}

// Input は入力型を返す。
func (p Procedure) Input() reflect.Type {
	return p.input
}

// Output は出力型を返す。
func (p Procedure) Output() reflect.Type {
	return p.output
}

// decodeInput はJSONの入力をIn型にデコードし、Validatorを実装していれば検証する。
func decodeInput[In any](raw json.RawMessage) (In, error) {
	var in In
	if _, ok := any(in).(Void); ok {
		return in, nil
	}

	if len(raw) == 0 || string(raw) == "null" {
		if reflect.TypeFor[In]().Kind() == reflect.Pointer {
			return in, nil
		}
		return in, NewError(CodeBadRequest, "input is required")
	}
	if err := json.Unmarshal(raw, &in); err != nil {
		return in, &Error{Code: CodeBadRequest, Message: "invalid input: " + err.Error(), Cause: err}
	}

	v, ok := any(in).(Validator)
	if !ok {
		v, ok = any(&in).(Validator)
	}
	if ok {
		if err := v.Validate(); err != nil {
			return in, &Error{Code: CodeBadRequest, Message: err.Error(), Cause: err}
		}
	}
	return in, nil
}
