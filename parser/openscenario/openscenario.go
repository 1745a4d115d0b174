// Package openscenario 将OpenSCENARIO场景文本解析为场景模型
package openscenario

import (
	"errors"
	"fmt"
	"strings"

	"github.com/beevik/etree"
	"github.com/tsinghua-fib-lab/roadscene-sim/entity/scenario"
	"github.com/tsinghua-fib-lab/roadscene-sim/parser"
)

// ErrNotScenario 根元素不是OpenSCENARIO，调用方可改走其他处理
var ErrNotScenario = parser.ErrMalformedDocument

// Parse 解析OpenSCENARIO文本
// 功能：读取实体、初始位置、故事板结构与停止条件
// 参数：text-原始XML文本
// 返回：场景（出错时为空场景，不会为nil）、非致命告警、致命错误
// 算法说明：
// 1. 检查根元素，不是OpenSCENARIO时返回MalformedDocument
// 2. 读取参数声明，属性中的$name引用按声明替换
// 3. 读取实体与目录引用，没有目录引用的实体也会被记录
// 4. 在Init中为每个实体找第一个TeleportAction的LanePosition作为初始位置
// 5. 按结构读取Story/Act/ManeuverGroup/Actors与StopTrigger
// 6. 没有任何实体时报告EmptyModel
func Parse(text []byte) (*scenario.Scenario, parser.Warnings, error) {
	sc := &scenario.Scenario{}
	var warnings parser.Warnings

	root, err := parser.ReadRoot(text, rootTag)
	if err != nil {
		return sc, nil, err
	}
	if header := root.SelectElement(pathHeader); header != nil {
		sc.Description = parser.Attr(header, "description")
	}
	params := newParameters(root.FindElements(pathParameters))

	seen := make(map[string]struct{})
	for i, obj := range root.FindElements(pathObjects) {
		a := parser.NewAttrs(fmt.Sprintf("Entities/ScenarioObject[%d]", i))
		name := a.String("name", params.resolve(parser.Attr(obj, "name")))
		if err := a.Err(); err != nil {
			warnings.Add(err)
			continue
		}
		if _, ok := seen[name]; ok {
			warnings.Add(fmt.Errorf("Entities/ScenarioObject[%d]: duplicated entity name %s", i, name))
			continue
		}
		seen[name] = struct{}{}
		e := &scenario.Entity{Name: name}
		if ref := obj.SelectElement("CatalogReference"); ref != nil {
			e.Catalog = &scenario.CatalogReference{
				CatalogName: params.resolve(parser.Attr(ref, "catalogName")),
				EntryName:   params.resolve(parser.Attr(ref, "entryName")),
			}
		} else {
			log.Infof("entity %s has no catalog reference, no visual model", name)
		}
		sc.Entities = append(sc.Entities, e)
	}

	for i, p := range root.FindElements(pathPrivates) {
		path := fmt.Sprintf("Storyboard/Init/Actions/Private[%d]", i)
		ref := params.resolve(parser.Attr(p, "entityRef"))
		if ref == "" {
			warnings.Add(&parser.Error{Kind: parser.MissingRequiredAttribute, Element: path, Attr: "entityRef", Err: errors.New("attribute is absent")})
			continue
		}
		e, ok := sc.Entity(ref)
		if !ok {
			warnings.Add(fmt.Errorf("%s: unknown entity %s", path, ref))
		}
		for j, pa := range p.SelectElements("PrivateAction") {
			action, err := parsePrivateAction(fmt.Sprintf("%s/PrivateAction[%d]", path, j), ref, pa, params)
			if err != nil {
				warnings.Add(err)
			}
			sc.Init = append(sc.Init, action)
			if ok && e.Start == nil && action.Lane != nil {
				e.Start = action.Lane
			}
		}
	}

	for i, xs := range root.FindElements(pathStories) {
		story, ws := parseStory(fmt.Sprintf("Storyboard/Story[%d]", i), xs, sc, params)
		for _, w := range ws {
			warnings.Add(w)
		}
		sc.Stories = append(sc.Stories, story)
	}

	stop, ws := parseTrigger("Storyboard/StopTrigger", root.FindElements(pathStopGroups), params)
	for _, w := range ws {
		warnings.Add(w)
	}
	sc.StopTrigger = stop

	if len(sc.Entities) == 0 {
		warnings.Add(&parser.Error{Kind: parser.EmptyModel, Element: rootTag, Err: errors.New("no entity")})
	}
	for _, w := range warnings {
		log.Warn(w)
	}
	log.Infof("parsed %d entities, %d stories with %d warnings", len(sc.Entities), len(sc.Stories), len(warnings))
	return sc, warnings, nil
}

// parsePrivateAction 解析初始化动作
// 说明：只有TeleportAction的LanePosition会被解释为位姿，其他位置类型只保留名称
func parsePrivateAction(path, ref string, pa *etree.Element, params parameters) (scenario.PrivateAction, error) {
	action := scenario.PrivateAction{EntityRef: ref}
	if pa.SelectElement("TeleportAction") == nil {
		action.Kind = kindOf(pa, 1)
		return action, nil
	}
	action.Kind = "TeleportAction"
	pos := pa.FindElement(pathLanePosition)
	if pos == nil {
		action.Position = kindOf(pa.FindElement(pathTeleportTarget), 1)
		return action, nil
	}
	action.Position = "LanePosition"
	a := parser.NewAttrs(path + "/" + pathLanePosition)
	lp := &scenario.LanePosition{
		RoadID: params.resolve(parser.Attr(pos, "roadId")),
		LaneID: params.resolve(parser.Attr(pos, "laneId")),
		S:      a.Float("s", params.resolve(parser.Attr(pos, "s"))),
		Offset: a.FloatOr("offset", params.resolve(parser.Attr(pos, "offset")), 0),
	}
	if err := a.Err(); err != nil {
		return action, err
	}
	action.Lane = lp
	return action, nil
}

func parseStory(path string, xs *etree.Element, sc *scenario.Scenario, params parameters) (scenario.Story, parser.Warnings) {
	var warnings parser.Warnings
	story := scenario.Story{Name: params.resolve(parser.Attr(xs, "name"))}
	for i, xa := range xs.SelectElements("Act") {
		actPath := fmt.Sprintf("%s/Act[%d]", path, i)
		act := scenario.Act{Name: params.resolve(parser.Attr(xa, "name"))}
		for j, xm := range xa.SelectElements("ManeuverGroup") {
			mgPath := fmt.Sprintf("%s/ManeuverGroup[%d]", actPath, j)
			a := parser.NewAttrs(mgPath)
			mg := scenario.ManeuverGroup{
				Name:                  params.resolve(parser.Attr(xm, "name")),
				MaximumExecutionCount: int(a.FloatOr("maximumExecutionCount", params.resolve(parser.Attr(xm, "maximumExecutionCount")), 1)),
			}
			if err := a.Err(); err != nil {
				warnings.Add(err)
				mg.MaximumExecutionCount = 1
			}
			for _, ref := range xm.FindElements(pathActors) {
				name := params.resolve(parser.Attr(ref, "entityRef"))
				if _, ok := sc.Entity(name); !ok {
					warnings.Add(fmt.Errorf("%s/Actors: unknown entity %q", mgPath, name))
					continue
				}
				mg.Actors = append(mg.Actors, name)
			}
			for _, xman := range xm.SelectElements("Maneuver") {
				man := scenario.Maneuver{Name: params.resolve(parser.Attr(xman, "name"))}
				for _, xe := range xman.SelectElements("Event") {
					ev := scenario.Event{
						Name:     params.resolve(parser.Attr(xe, "name")),
						Priority: parser.Attr(xe, "priority"),
					}
					for _, xact := range xe.SelectElements("Action") {
						ev.Actions = append(ev.Actions, scenario.Action{
							Name: params.resolve(parser.Attr(xact, "name")),
							Kind: kindOf(xact, 3),
						})
					}
					man.Events = append(man.Events, ev)
				}
				mg.Maneuvers = append(mg.Maneuvers, man)
			}
			act.ManeuverGroups = append(act.ManeuverGroups, mg)
		}
		start, ws := parseTrigger(actPath+"/StartTrigger", xa.FindElements(pathStartGroups), params)
		for _, w := range ws {
			warnings.Add(w)
		}
		act.StartTrigger = start
		story.Acts = append(story.Acts, act)
	}
	return story, warnings
}

func parseTrigger(path string, groups []*etree.Element, params parameters) (scenario.Trigger, parser.Warnings) {
	var warnings parser.Warnings
	var trigger scenario.Trigger
	for i, xg := range groups {
		var group []scenario.Condition
		for j, xc := range xg.SelectElements("Condition") {
			a := parser.NewAttrs(fmt.Sprintf("%s/ConditionGroup[%d]/Condition[%d]", path, i, j))
			c := scenario.Condition{
				Name:          params.resolve(parser.Attr(xc, "name")),
				Delay:         a.FloatOr("delay", params.resolve(parser.Attr(xc, "delay")), 0),
				ConditionEdge: parser.Attr(xc, "conditionEdge"),
				Kind:          kindOf(xc, 2),
			}
			if err := a.Err(); err != nil {
				warnings.Add(err)
				continue
			}
			group = append(group, c)
		}
		if len(group) > 0 {
			trigger.ConditionGroups = append(trigger.ConditionGroups, group)
		}
	}
	return trigger, warnings
}

// parameters 参数声明表
type parameters map[string]string

func newParameters(decls []*etree.Element) parameters {
	p := make(parameters, len(decls))
	for _, d := range decls {
		p[parser.Attr(d, "name")] = parser.Attr(d, "value")
	}
	return p
}

// resolve 将"$name"形式的参数引用替换为声明值，未声明时原样返回
func (p parameters) resolve(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if !strings.HasPrefix(trimmed, "$") {
		return raw
	}
	if v, ok := p[trimmed[1:]]; ok {
		return v
	}
	return raw
}
