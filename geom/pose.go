// 几何基础类型：位姿、三次多项式、参考线段
package geom

import (
	"fmt"
	"math"

	"git.fiblab.net/general/common/v2/geometry"
)

// Pose 平面位姿
// 功能：描述参考线上一点的位置与朝向
// 说明：位置沿用geometry.Point，Heading为弧度（x轴正向为0，逆时针为正）
type Pose struct {
	geometry.Point
	Heading float64
}

// NewPose 根据坐标与朝向创建位姿
func NewPose(x, y, heading float64) Pose {
	return Pose{Point: geometry.Point{X: x, Y: y}, Heading: heading}
}

// Advance 沿当前朝向直线前进ds
func (p Pose) Advance(ds float64) Pose {
	return Pose{
		Point: geometry.Point{
			X: p.X + ds*math.Cos(p.Heading),
			Y: p.Y + ds*math.Sin(p.Heading),
			Z: p.Z,
		},
		Heading: p.Heading,
	}
}

// Lateral 沿朝向左法向偏移offset（右侧为负）
func (p Pose) Lateral(offset float64) Pose {
	return Pose{
		Point: geometry.Point{
			X: p.X - offset*math.Sin(p.Heading),
			Y: p.Y + offset*math.Cos(p.Heading),
			Z: p.Z,
		},
		Heading: p.Heading,
	}
}

func (p Pose) String() string {
	return fmt.Sprintf("Pose{x=%.3f, y=%.3f, z=%.3f, hdg=%.4f}", p.X, p.Y, p.Z, p.Heading)
}
