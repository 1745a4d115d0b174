package openscenario

import (
	"strings"

	"github.com/beevik/etree"
)

const rootTag = "OpenSCENARIO"

const (
	pathHeader         = "FileHeader"
	pathParameters     = "ParameterDeclarations/ParameterDeclaration"
	pathObjects        = "Entities/ScenarioObject"
	pathPrivates       = "Storyboard/Init/Actions/Private"
	pathStories        = "Storyboard/Story"
	pathStopGroups     = "Storyboard/StopTrigger/ConditionGroup"
	pathStartGroups    = "StartTrigger/ConditionGroup"
	pathActors         = "Actors/EntityRef"
	pathLanePosition   = "TeleportAction/Position/LanePosition"
	pathTeleportTarget = "TeleportAction/Position"
)

// kindOf 沿第一个子元素向下取最多depth层元素名，如PrivateAction/LongitudinalAction/SpeedAction
func kindOf(e *etree.Element, depth int) string {
	var parts []string
	for e != nil && len(parts) < depth {
		children := e.ChildElements()
		if len(children) == 0 {
			break
		}
		e = children[0]
		parts = append(parts, e.Tag)
	}
	return strings.Join(parts, "/")
}
