package geom

import (
	"fmt"
	"math"
)

// ShapeKind 参考线段形状
type ShapeKind int

const (
	Line ShapeKind = iota // 直线
	Arc                   // 圆弧（曲率恒定）
)

func (k ShapeKind) String() string {
	switch k {
	case Line:
		return "line"
	case Arc:
		return "arc"
	default:
		return fmt.Sprintf("ShapeKind(%d)", int(k))
	}
}

// LaneRange 线段关联的可行驶车道ID区间（闭区间）
type LaneRange struct {
	From, To int32
}

// Contains 判断车道ID是否落在区间内
func (r LaneRange) Contains(id int32) bool {
	lo, hi := r.From, r.To
	if lo > hi {
		lo, hi = hi, lo
	}
	return id >= lo && id <= hi
}

// Segment 平面参考线段（planView/geometry）
// 功能：以起点弧长S、起点位姿、长度和形状描述道路参考线的一段
type Segment struct {
	S         float64    // 起点弧长
	Origin    Pose       // 起点位姿
	Length    float64    // 长度，必须大于0
	Kind      ShapeKind  // 形状
	Curvature float64    // 圆弧曲率（左转为正）
	Lanes     *LaneRange // 关联车道区间，nil表示不限制
}

// End 线段终点弧长
func (g Segment) End() float64 {
	return g.S + g.Length
}

// PoseAt 计算距线段起点ds处的位姿
// 功能：按形状积分得到参考线上的位置与切向
// 算法说明：
// 1. 直线或曲率为0：沿起点朝向前进
// 2. 圆弧：绕圆心旋转，x = x0 + (sin(h0+κds) - sin h0)/κ，y = y0 - (cos(h0+κds) - cos h0)/κ
func (g Segment) PoseAt(ds float64) Pose {
	if g.Kind == Line || g.Curvature == 0 {
		return g.Origin.Advance(ds)
	}
	k := g.Curvature
	h0 := g.Origin.Heading
	h := h0 + k*ds
	p := g.Origin
	p.X = g.Origin.X + (math.Sin(h)-math.Sin(h0))/k
	p.Y = g.Origin.Y - (math.Cos(h)-math.Cos(h0))/k
	p.Heading = h
	return p
}

// Center 圆弧圆心，直线返回false
func (g Segment) Center() (x, y float64, ok bool) {
	if g.Kind != Arc || g.Curvature == 0 {
		return 0, 0, false
	}
	r := 1 / g.Curvature
	return g.Origin.X - r*math.Sin(g.Origin.Heading), g.Origin.Y + r*math.Cos(g.Origin.Heading), true
}

// ContiguityError 相邻参考线段不连续
type ContiguityError struct {
	Index    int     // 后一段的索引
	Expected float64 // 前一段终点弧长
	Actual   float64 // 后一段起点弧长
}

func (e *ContiguityError) Error() string {
	return fmt.Sprintf("geometry %d starts at s=%.6f, previous ends at s=%.6f", e.Index, e.Actual, e.Expected)
}

// CheckContiguous 检查参考线段序列的连续性
// 功能：要求segs[i].S + segs[i].Length == segs[i+1].S（容差tol内）
// 返回：全部违例；序列连续时返回nil
func CheckContiguous(segs []Segment, tol float64) []*ContiguityError {
	var errs []*ContiguityError
	for i := 1; i < len(segs); i++ {
		expected := segs[i-1].End()
		if math.Abs(segs[i].S-expected) > tol {
			errs = append(errs, &ContiguityError{Index: i, Expected: expected, Actual: segs[i].S})
		}
	}
	return errs
}
