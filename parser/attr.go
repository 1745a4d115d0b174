package parser

import (
	"fmt"
	"strconv"
	"strings"
)

// Attrs 元素属性读取器
// 功能：以"存在/缺失"的方式逐个读取属性，第一次失败后后续读取全部短路
// 说明：调用方读完全部属性后只需检查一次Err()，无需层层判断
type Attrs struct {
	element string
	err     error
}

// NewAttrs 创建属性读取器，element为出错时报告的元素路径
func NewAttrs(element string) *Attrs {
	return &Attrs{element: element}
}

// Float 读取必填数值属性
func (a *Attrs) Float(name, raw string) float64 {
	if a.err != nil {
		return 0
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		a.err = &Error{Kind: MissingRequiredAttribute, Element: a.element, Attr: name, Err: fmt.Errorf("attribute is absent")}
		return 0
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		a.err = &Error{Kind: MissingRequiredAttribute, Element: a.element, Attr: name, Err: err}
		return 0
	}
	return v
}

// FloatOr 读取可选数值属性，缺失时返回def，非数值时报错
func (a *Attrs) FloatOr(name, raw string, def float64) float64 {
	if strings.TrimSpace(raw) == "" {
		return def
	}
	return a.Float(name, raw)
}

// Int 读取必填整数属性
func (a *Attrs) Int(name, raw string) int32 {
	if a.err != nil {
		return 0
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		a.err = &Error{Kind: MissingRequiredAttribute, Element: a.element, Attr: name, Err: fmt.Errorf("attribute is absent")}
		return 0
	}
	v, err := strconv.ParseInt(raw, 10, 32)
	if err != nil {
		a.err = &Error{Kind: MissingRequiredAttribute, Element: a.element, Attr: name, Err: err}
		return 0
	}
	return int32(v)
}

// String 读取必填字符串属性
func (a *Attrs) String(name, raw string) string {
	if a.err != nil {
		return ""
	}
	if strings.TrimSpace(raw) == "" {
		a.err = &Error{Kind: MissingRequiredAttribute, Element: a.element, Attr: name, Err: fmt.Errorf("attribute is absent")}
		return ""
	}
	return raw
}

// Fail 记录自定义错误（仅保留第一个）
func (a *Attrs) Fail(name string, err error) {
	if a.err == nil {
		a.err = &Error{Kind: MissingRequiredAttribute, Element: a.element, Attr: name, Err: err}
	}
}

// Err 返回第一次读取失败的错误
func (a *Attrs) Err() error {
	return a.err
}
