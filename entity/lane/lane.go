package lane

import (
	"fmt"
	"sort"

	"github.com/tsinghua-fib-lab/roadscene-sim/geom"
)

// DefaultWidth 车道缺少width记录时使用的默认宽度
const DefaultWidth = 3.0

// Type 车道类型（OpenDRIVE lane@type）
type Type string

const (
	TypeDriving  Type = "driving"
	TypeSidewalk Type = "sidewalk"
	TypeShoulder Type = "shoulder"
	TypeBorder   Type = "border"
	TypeNone     Type = "none"
)

// Width 车道宽度记录
// 功能：描述从所在车道段起点偏移SOffset处开始生效的宽度多项式
type Width struct {
	SOffset float64
	Poly    geom.CubicPoly
}

// Lane 车道实体
// 功能：表示车道段中的一条车道，包含带符号ID、类型与宽度多项式
// 说明：ID为0的是参考车道，不属于可行驶路面；正ID在参考线左侧，负ID在右侧
type Lane struct {
	id     int32
	typ    Type
	widths []Width // 按SOffset升序
}

// New 创建车道
// 功能：根据解析结果创建Lane对象，宽度记录按SOffset排序
// 参数：id-带符号车道ID，typ-车道类型，widths-宽度记录（可为空）
// 返回：Lane实例
func New(id int32, typ Type, widths []Width) *Lane {
	ws := append([]Width(nil), widths...)
	sort.SliceStable(ws, func(i, j int) bool { return ws[i].SOffset < ws[j].SOffset })
	return &Lane{id: id, typ: typ, widths: ws}
}

// ID 获取车道ID
func (l *Lane) ID() int32 {
	return l.id
}

// Type 获取车道类型
func (l *Lane) Type() Type {
	return l.typ
}

// Widths 获取宽度记录
func (l *Lane) Widths() []Width {
	return l.widths
}

// HasWidth 是否存在宽度记录
func (l *Lane) HasWidth() bool {
	return len(l.widths) > 0
}

// IsReference 是否为参考车道
func (l *Lane) IsReference() bool {
	return l.id == 0
}

// IsDriving 是否为可渲染的行车道
func (l *Lane) IsDriving() bool {
	return l.typ == TypeDriving && l.id != 0
}

// Side 车道位于参考线的哪一侧：1左侧，-1右侧，0参考车道
func (l *Lane) Side() float64 {
	switch {
	case l.id > 0:
		return 1
	case l.id < 0:
		return -1
	default:
		return 0
	}
}

// WidthAt 计算车道宽度
// 功能：在距所在车道段起点ds处计算宽度
// 参数：ds-相对车道段起点的弧长偏移（不是道路全局弧长）
// 返回：宽度；没有宽度记录时返回false
// 算法说明：
// 1. 选取SOffset不大于ds的最后一条宽度记录（ds小于所有SOffset时取第一条）
// 2. t = max(0, ds - SOffset)，代入多项式
func (l *Lane) WidthAt(ds float64) (float64, bool) {
	if len(l.widths) == 0 {
		return 0, false
	}
	w := l.widths[0]
	for _, cand := range l.widths[1:] {
		if cand.SOffset > ds {
			break
		}
		w = cand
	}
	t := ds - w.SOffset
	if t < 0 {
		t = 0
	}
	return w.Poly.Eval(t), true
}

func (l *Lane) String() string {
	return fmt.Sprintf("Lane %d(%s)", l.id, l.typ)
}
