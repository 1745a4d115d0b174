package mesh

import (
	"math"

	"git.fiblab.net/general/common/v2/geometry"
	"github.com/tsinghua-fib-lab/roadscene-sim/entity/lane"
	"github.com/tsinghua-fib-lab/roadscene-sim/entity/road"
)

// Centerline 按车道段采样的车道中心线
type Centerline struct {
	RoadID       string
	SectionIndex int
	LaneID       int32
	Type         lane.Type
	Width        float64 // 采样宽度的平均值
	Points       []geometry.Point
}

// Centerlines 采样全部行车道中心线
// 功能：沿参考线每隔step采样一次，按内侧车道宽度累加得到横向偏移
// 参数：net-路网，step-采样间隔（<=0时取1）
// 返回：按道路、车道段、车道顺序排列的中心线
// 算法说明：
// 1. 左侧车道（正ID）偏移为正，右侧车道（负ID）偏移为负
// 2. 偏移 = 参考线与本车道之间所有车道宽度之和 + 本车道宽度/2
// 3. 宽度均以相对车道段起点的偏移求值
func Centerlines(net *road.Network, step float64) []Centerline {
	if step <= 0 {
		step = 1
	}
	var out []Centerline
	for _, r := range net.Roads() {
		segs := r.Segments()
		if len(segs) == 0 {
			continue
		}
		roadStart, roadEnd := segs[0].S, segs[len(segs)-1].End()
		for si, sec := range r.Sections() {
			start, end := r.SectionRange(si)
			start = math.Max(start, roadStart)
			end = math.Min(end, roadEnd)
			if end <= start {
				continue
			}
			samples := sampleS(start, end, step)
			for _, l := range sec.Lanes {
				if !l.IsDriving() {
					continue
				}
				c := Centerline{RoadID: r.ID(), SectionIndex: si, LaneID: l.ID(), Type: l.Type()}
				sum := 0.0
				for _, s := range samples {
					pose, ok := r.PoseAt(s)
					if !ok {
						continue
					}
					offset, w := lateralOffset(sec, l, s-sec.S)
					c.Points = append(c.Points, pose.Lateral(offset).Point)
					sum += w
				}
				if len(c.Points) == 0 {
					continue
				}
				c.Width = sum / float64(len(c.Points))
				out = append(out, c)
			}
		}
	}
	return out
}

// sampleS 在[start, end]上等间隔采样，总是包含两个端点
func sampleS(start, end, step float64) []float64 {
	n := int(math.Ceil((end - start) / step))
	if n < 1 {
		n = 1
	}
	out := make([]float64, 0, n+1)
	for i := 0; i <= n; i++ {
		out = append(out, start+(end-start)*float64(i)/float64(n))
	}
	return out
}

// lateralOffset 计算车道中心相对参考线的横向偏移与本车道宽度
func lateralOffset(sec *road.LaneSection, target *lane.Lane, ds float64) (offset, width float64) {
	side := target.Side()
	inner := 0.0
	for _, l := range sec.Lanes {
		if l.Side() != side || l == target {
			continue
		}
		if math.Abs(float64(l.ID())) < math.Abs(float64(target.ID())) {
			w, _ := l.WidthAt(ds)
			inner += w
		}
	}
	width, _ = target.WidthAt(ds)
	return side * (inner + width/2), width
}
