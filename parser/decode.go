package parser

import (
	"errors"
	"fmt"

	"github.com/beevik/etree"
)

// ReadRoot 读取XML文档并校验根元素名
// 功能：根元素不是root或XML无法解析时返回MalformedDocument
// 返回：根元素，调用方在其上按路径查询子元素
// 说明：根元素不符不是解析失败，而是"不是这种格式"，调用方可以据此改走其他处理
func ReadRoot(text []byte, root string) (*etree.Element, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(text); err != nil {
		return nil, &Error{Kind: MalformedDocument, Err: err}
	}
	r := doc.Root()
	if r == nil {
		return nil, &Error{Kind: MalformedDocument, Err: errors.New("no root element")}
	}
	if r.Tag != root {
		return nil, &Error{
			Kind:    MalformedDocument,
			Element: r.Tag,
			Err:     fmt.Errorf("root element is <%s>, want <%s>", r.Tag, root),
		}
	}
	return r, nil
}

// Attr 读取属性原始文本，缺失时为空串，交给Attrs做数值转换
func Attr(e *etree.Element, name string) string {
	return e.SelectAttrValue(name, "")
}
