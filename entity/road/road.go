package road

import (
	"fmt"

	"git.fiblab.net/general/common/v2/mathutil"
	"github.com/samber/lo"
	"github.com/tsinghua-fib-lab/roadscene-sim/entity/lane"
	"github.com/tsinghua-fib-lab/roadscene-sim/geom"
)

// LaneSection 车道段
// 功能：道路上从弧长S开始的一段，段内车道数量与宽度多项式保持不变
type LaneSection struct {
	S     float64      // 起点弧长（道路全局）
	Lanes []*lane.Lane // 按文档顺序
}

// Lane 根据ID查找车道
func (ls *LaneSection) Lane(id int32) (*lane.Lane, bool) {
	return lo.Find(ls.Lanes, func(l *lane.Lane) bool { return l.ID() == id })
}

// Road 道路实体
// 功能：表示路网中的一条道路，包含参考线段与车道段
type Road struct {
	id       string
	name     string
	length   float64
	segments []geom.Segment
	sections []*LaneSection
}

// New 创建道路
// 功能：根据解析结果创建Road对象
// 参数：id-道路ID，name-名称，length-声明长度（<=0时取参考线总长），segments-参考线段，sections-车道段
// 返回：Road实例
func New(id, name string, length float64, segments []geom.Segment, sections []*LaneSection) *Road {
	r := &Road{
		id:       id,
		name:     name,
		length:   length,
		segments: segments,
		sections: sections,
	}
	if r.length <= 0 && len(segments) > 0 {
		r.length = segments[len(segments)-1].End() - segments[0].S
	}
	return r
}

// ID 获取道路ID
func (r *Road) ID() string {
	return r.id
}

// Name 获取道路名称
func (r *Road) Name() string {
	return r.name
}

// Length 获取道路长度
func (r *Road) Length() float64 {
	return r.length
}

// Segments 获取参考线段（按弧长顺序）
func (r *Road) Segments() []geom.Segment {
	return r.segments
}

// Sections 获取车道段（按弧长顺序）
func (r *Road) Sections() []*LaneSection {
	return r.sections
}

// SectionRange 获取第i个车道段覆盖的弧长区间[start, end)
// 说明：最后一个车道段延伸到无穷远，避免道路长度声明不准确时丢失车道
func (r *Road) SectionRange(i int) (start, end float64) {
	start = r.sections[i].S
	if i+1 < len(r.sections) {
		return start, r.sections[i+1].S
	}
	return start, mathutil.INF
}

// SectionAt 获取覆盖弧长s的车道段索引
func (r *Road) SectionAt(s float64) (int, bool) {
	idx := -1
	for i, sec := range r.sections {
		if sec.S <= s {
			idx = i
		}
	}
	return idx, idx >= 0
}

// SegmentAt 获取覆盖弧长s的参考线段
func (r *Road) SegmentAt(s float64) (geom.Segment, bool) {
	for i, g := range r.segments {
		if s < g.End() || i == len(r.segments)-1 {
			if s < g.S {
				return geom.Segment{}, false
			}
			return g, true
		}
	}
	return geom.Segment{}, false
}

// PoseAt 计算参考线上弧长s处的位姿
func (r *Road) PoseAt(s float64) (geom.Pose, bool) {
	g, ok := r.SegmentAt(s)
	if !ok {
		return geom.Pose{}, false
	}
	return g.PoseAt(s - g.S), true
}

// CheckContiguous 检查参考线连续性
func (r *Road) CheckContiguous(tol float64) []*geom.ContiguityError {
	return geom.CheckContiguous(r.segments, tol)
}

// String 获取Road的字符串表示
func (r *Road) String() string {
	return fmt.Sprintf("Road %s", r.id)
}
