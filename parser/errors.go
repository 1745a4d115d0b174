// 解析公共部分：错误分类、告警集合与属性读取
package parser

import (
	"errors"
	"fmt"
	"strings"
)

// Kind 解析错误类别
type Kind int

const (
	// MalformedDocument 根元素不符或XML无法解析，整个文档不可用，由调用方决定如何处理
	MalformedDocument Kind = iota + 1
	// MissingRequiredAttribute 数值属性缺失或非数值，跳过所属元素并继续解析
	MissingRequiredAttribute
	// EmptyModel 解析后没有道路或实体，播放永远不会就绪
	EmptyModel
)

func (k Kind) String() string {
	switch k {
	case MalformedDocument:
		return "MalformedDocument"
	case MissingRequiredAttribute:
		return "MissingRequiredAttribute"
	case EmptyModel:
		return "EmptyModel"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Error 结构化解析错误
type Error struct {
	Kind    Kind
	Element string // 出错元素路径，如 road[1]/planView/geometry[0]
	Attr    string // 出错属性名（可为空）
	Err     error  // 底层错误（可为空）
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.String())
	if e.Element != "" {
		b.WriteString(" at ")
		b.WriteString(e.Element)
	}
	if e.Attr != "" {
		b.WriteString(" @")
		b.WriteString(e.Attr)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is 同类别的Error视为相等，便于errors.Is(err, &parser.Error{Kind: ...})
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Element == "" || t.Element == e.Element) && (t.Attr == "" || t.Attr == e.Attr)
}

// 用于errors.Is的类别哨兵
var (
	ErrMalformedDocument        = &Error{Kind: MalformedDocument}
	ErrMissingRequiredAttribute = &Error{Kind: MissingRequiredAttribute}
	ErrEmptyModel               = &Error{Kind: EmptyModel}
)

// IsKind 判断err链中是否存在指定类别的解析错误
func IsKind(err error, kind Kind) bool {
	return errors.Is(err, &Error{Kind: kind})
}

// Warnings 解析过程中收集的非致命错误（按出现顺序）
type Warnings []error

// Add 追加告警
func (w *Warnings) Add(err error) {
	if err != nil {
		*w = append(*w, err)
	}
}

// Count 统计指定类别的告警数量
func (w Warnings) Count(kind Kind) int {
	n := 0
	for _, err := range w {
		if IsKind(err, kind) {
			n++
		}
	}
	return n
}

// Err 合并为单个error，没有告警时返回nil
func (w Warnings) Err() error {
	return errors.Join(w...)
}
