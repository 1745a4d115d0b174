package scenario

// 故事板结构：只保留结构，除默认运动外不执行任何动作效果

// PrivateAction 初始化阶段针对某个实体的动作
type PrivateAction struct {
	EntityRef string
	Kind      string        // 动作元素名，如TeleportAction、SpeedAction
	Position  string        // TeleportAction的位置类型，如LanePosition、WorldPosition
	Lane      *LanePosition // Position为LanePosition时有效
}

// Story 故事
type Story struct {
	Name string
	Acts []Act
}

// Act 幕
type Act struct {
	Name           string
	ManeuverGroups []ManeuverGroup
	StartTrigger   Trigger
}

// ManeuverGroup 机动组，将一组行为绑定到若干实体
type ManeuverGroup struct {
	Name                  string
	MaximumExecutionCount int
	Actors                []string
	Maneuvers             []Maneuver
}

// Maneuver 机动
type Maneuver struct {
	Name   string
	Events []Event
}

// Event 事件
type Event struct {
	Name     string
	Priority string
	Actions  []Action
}

// Action 动作，只记录名称与类型
type Action struct {
	Name string
	Kind string
}

// Condition 触发条件，只记录结构，不求值
type Condition struct {
	Name          string
	Delay         float64
	ConditionEdge string
	Kind          string
}

// Trigger 触发器：条件组之间为或，组内条件为与
type Trigger struct {
	ConditionGroups [][]Condition
}

// Conditions 展平后的全部条件
func (t Trigger) Conditions() []Condition {
	var out []Condition
	for _, g := range t.ConditionGroups {
		out = append(out, g...)
	}
	return out
}

// Empty 是否没有任何条件
func (t Trigger) Empty() bool {
	return len(t.Conditions()) == 0
}
