// Package timeline 根据经过时间推导实体位姿
package timeline

import (
	"fmt"

	"github.com/samber/lo"
	"github.com/tsinghua-fib-lab/roadscene-sim/entity/scenario"
	"github.com/tsinghua-fib-lab/roadscene-sim/geom"
)

// Motion 匀速直线运动规则
// 功能：实体沿x轴负方向匀速移动，位置饱和在[MinX, MaxX]内
type Motion struct {
	Speed float64 // 速度（m/s）
	MinX  float64 // x下界
	MaxX  float64 // x上界
}

// DefaultMotion 默认运动规则：速度1，边界±100
var DefaultMotion = Motion{Speed: 1, MinX: -100, MaxX: 100}

// Pose 计算经过elapsed秒后的位姿
// 功能：纯函数，相同输入总是得到逐位相同的结果
// 参数：initial-初始位姿，elapsed-经过时间（秒，负数按0处理）
// 返回：x = clamp(x0 - speed*elapsed, MinX, MaxX)，y、z、朝向保持不变
func (m Motion) Pose(initial geom.Pose, elapsed float64) geom.Pose {
	if elapsed < 0 {
		elapsed = 0
	}
	minX, maxX := m.MinX, m.MaxX
	if minX > maxX {
		minX, maxX = maxX, minX
	}
	p := initial
	p.X = lo.Clamp(initial.X-m.Speed*elapsed, minX, maxX)
	return p
}

// EntityPose 实体在某一时刻的位姿
type EntityPose struct {
	Name string
	Pose geom.Pose
}

func (p EntityPose) String() string {
	return fmt.Sprintf("%s@%v", p.Name, p.Pose)
}

// Driver 时间线驱动器
// 功能：持有场景中有初始位姿的实体，按经过时间批量计算位姿
// 说明：不保存任何随时间累积的状态，可以任意回放、跳转
type Driver struct {
	motion   Motion
	names    []string
	initials []geom.Pose
}

// NewDriver 创建时间线驱动器
// 说明：只有拥有初始位姿的实体参与播放，顺序与场景文档一致
func NewDriver(s *scenario.Scenario, motion Motion) *Driver {
	placed := s.Placed()
	return &Driver{
		motion:   motion,
		names:    lo.Map(placed, func(e *scenario.Entity, _ int) string { return e.Name }),
		initials: lo.Map(placed, func(e *scenario.Entity, _ int) geom.Pose { return e.InitialPose() }),
	}
}

// Len 参与播放的实体数
func (d *Driver) Len() int {
	return len(d.names)
}

// Poses 计算全部实体在elapsed时刻的位姿
func (d *Driver) Poses(elapsed float64) []EntityPose {
	out := make([]EntityPose, len(d.names))
	for i, name := range d.names {
		out[i] = EntityPose{Name: name, Pose: d.motion.Pose(d.initials[i], elapsed)}
	}
	return out
}
