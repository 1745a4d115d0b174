// Package mesh 将路网转换为可绘制的车道面片
package mesh

import (
	"fmt"

	"git.fiblab.net/general/common/v2/geometry"
	"git.fiblab.net/general/common/v2/parallel"
	"github.com/samber/lo"
	"github.com/tsinghua-fib-lab/roadscene-sim/entity/lane"
	"github.com/tsinghua-fib-lab/roadscene-sim/entity/road"
	"github.com/tsinghua-fib-lab/roadscene-sim/geom"
)

// DefaultArcSegments 圆弧默认拆分的直线面片数
const DefaultArcSegments = 20

// LanePatch 车道面片
// 功能：渲染器绘制的最小单元，一个以Position为锚点、朝向Heading的矩形
type LanePatch struct {
	RoadID       string
	LaneID       int32
	SegmentIndex int // 所在参考线段在道路中的索引
	SubIndex     int // 圆弧拆分后的子面片索引，直线为0
	Position     geometry.Point
	Heading      float64
	Length       float64
	Width        float64
}

func (p LanePatch) String() string {
	return fmt.Sprintf("LanePatch{road=%s lane=%d seg=%d/%d pos=(%.3f,%.3f) hdg=%.4f len=%.3f w=%.3f}",
		p.RoadID, p.LaneID, p.SegmentIndex, p.SubIndex, p.Position.X, p.Position.Y, p.Heading, p.Length, p.Width)
}

// Builder 车道面片构建器
type Builder struct {
	ArcSegments int // 每段圆弧拆分的面片数，<=0时使用DefaultArcSegments
}

// NewBuilder 创建构建器
func NewBuilder(arcSegments int) *Builder {
	return &Builder{ArcSegments: arcSegments}
}

func (b *Builder) arcSegments() int {
	if b == nil || b.ArcSegments <= 0 {
		return DefaultArcSegments
	}
	return b.ArcSegments
}

// Build 生成整个路网的车道面片
// 功能：按道路、参考线段、车道段、车道、子面片的顺序输出面片
// 参数：net-路网
// 返回：面片列表，同一路网多次调用结果完全相同
// 说明：各道路并行构建，GoMap保持输入顺序，因此输出顺序确定
func (b *Builder) Build(net *road.Network) []LanePatch {
	perRoad := parallel.GoMap(net.Roads(), func(r *road.Road) []LanePatch {
		return b.BuildRoad(r)
	})
	return lo.Flatten(perRoad)
}

// BuildRoad 生成单条道路的车道面片
// 算法说明：
// 1. 对每个参考线段，找出弧长区间与之重叠的车道段
// 2. 对车道段内的每条行车道（非0ID、driving类型、在线段关联区间内）计算宽度
// 3. 宽度的自变量是相对车道段起点的偏移：t = max(0, segment.S - section.S)
// 4. 直线输出一个整段面片，圆弧按ArcSegments等分输出子面片
func (b *Builder) BuildRoad(r *road.Road) []LanePatch {
	if len(r.Segments()) == 0 {
		log.Warnf("%v has no geometry, skipped", r)
		return nil
	}
	var patches []LanePatch
	for gi, g := range r.Segments() {
		for si, sec := range r.Sections() {
			start, end := r.SectionRange(si)
			if !(start < g.End() && end > g.S) {
				continue
			}
			ds := g.S - start
			if ds < 0 {
				ds = 0
			}
			for _, l := range sec.Lanes {
				if !l.IsDriving() {
					continue
				}
				if g.Lanes != nil && !g.Lanes.Contains(l.ID()) {
					continue
				}
				width, ok := l.WidthAt(ds)
				if !ok {
					log.Warnf("%v %v has no width, skipped", r, l)
					continue
				}
				patches = append(patches, b.segmentPatches(r, gi, g, l, width)...)
			}
		}
	}
	return patches
}

func (b *Builder) segmentPatches(r *road.Road, gi int, g geom.Segment, l *lane.Lane, width float64) []LanePatch {
	if g.Kind == geom.Line || g.Curvature == 0 {
		return []LanePatch{{
			RoadID:       r.ID(),
			LaneID:       l.ID(),
			SegmentIndex: gi,
			Position:     g.Origin.Point,
			Heading:      g.Origin.Heading,
			Length:       g.Length,
			Width:        width,
		}}
	}
	return lo.Map(ArcChords(g, b.arcSegments()), func(c Chord, i int) LanePatch {
		return LanePatch{
			RoadID:       r.ID(),
			LaneID:       l.ID(),
			SegmentIndex: gi,
			SubIndex:     i,
			Position:     c.Mid,
			Heading:      c.Heading,
			Length:       c.Length,
			Width:        width,
		}
	})
}

// Chord 圆弧拆分得到的直线子段
type Chord struct {
	Start, End geometry.Point
	Mid        geometry.Point // 弦中点
	Heading    float64        // 子段中点处的切向
	Length     float64        // 子段对应的弧长
}

// ArcChords 将圆弧等弧长拆分为n段
// 功能：端点由圆心积分得到，落在真实圆弧上；朝向按弧长线性递增
// 说明：相邻子段朝向差恒为κ·L/n，保证子段之间切向连续
func ArcChords(g geom.Segment, n int) []Chord {
	if n <= 0 {
		n = DefaultArcSegments
	}
	step := g.Length / float64(n)
	chords := make([]Chord, n)
	prev := g.PoseAt(0)
	for i := 0; i < n; i++ {
		next := g.PoseAt(float64(i+1) * step)
		chords[i] = Chord{
			Start:   prev.Point,
			End:     next.Point,
			Mid:     geometry.Blend(prev.Point, next.Point, 0.5),
			Heading: g.Origin.Heading + g.Curvature*(float64(i)+0.5)*step,
			Length:  step,
		}
		prev = next
	}
	return chords
}
