package scenario

import (
	"fmt"

	"github.com/samber/lo"
	"github.com/tsinghua-fib-lab/roadscene-sim/geom"
)

// CatalogReference 目录引用（catalogName + entryName），对几何不透明，只用于查找可视模型
type CatalogReference struct {
	CatalogName string
	EntryName   string
}

func (c CatalogReference) String() string {
	return c.CatalogName + "/" + c.EntryName
}

// LanePosition 车道相对位置
type LanePosition struct {
	RoadID string
	LaneID string
	S      float64
	Offset float64 // 横向偏移，缺省为0
}

// Entity 交通参与者
type Entity struct {
	Name    string
	Catalog *CatalogReference // 没有目录引用时为nil，表示没有可视模型
	Start   *LanePosition     // 初始化阶段第一个TeleportAction给出的车道位置
}

// HasPose 是否有可用的初始位姿
func (e *Entity) HasPose() bool {
	return e.Start != nil
}

// InitialPose 由车道相对位置推出初始位姿
// 说明：x取沿车道的弧长s，y取横向偏移，z为0，朝向为0
func (e *Entity) InitialPose() geom.Pose {
	if e.Start == nil {
		return geom.Pose{}
	}
	return geom.NewPose(e.Start.S, e.Start.Offset, 0)
}

func (e *Entity) String() string {
	return fmt.Sprintf("Entity %s", e.Name)
}

// Scenario 场景
// 功能：保存实体、初始化动作、故事板结构与停止条件
// 说明：解析完成后只读
type Scenario struct {
	Description string
	Entities    []*Entity
	Init        []PrivateAction
	Stories     []Story
	StopTrigger Trigger
}

// Entity 按名称查找实体
func (s *Scenario) Entity(name string) (*Entity, bool) {
	return lo.Find(s.Entities, func(e *Entity) bool { return e.Name == name })
}

// EntityNames 按文档顺序返回实体名
func (s *Scenario) EntityNames() []string {
	return lo.Map(s.Entities, func(e *Entity, _ int) string { return e.Name })
}

// Placed 返回有初始位姿的实体
func (s *Scenario) Placed() []*Entity {
	return lo.Filter(s.Entities, func(e *Entity, _ int) bool { return e.HasPose() })
}

// CatalogReferences 返回需要加载可视模型的目录引用（去重，保持顺序）
func (s *Scenario) CatalogReferences() []CatalogReference {
	refs := lo.FilterMap(s.Entities, func(e *Entity, _ int) (CatalogReference, bool) {
		if e.Catalog == nil {
			return CatalogReference{}, false
		}
		return *e.Catalog, true
	})
	return lo.Uniq(refs)
}

// Actors 返回所有机动组中引用的实体名（去重，保持顺序）
func (s *Scenario) Actors() []string {
	var names []string
	for _, story := range s.Stories {
		for _, act := range story.Acts {
			for _, mg := range act.ManeuverGroups {
				names = append(names, mg.Actors...)
			}
		}
	}
	return lo.Uniq(names)
}
