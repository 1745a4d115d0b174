package opendrive

import "github.com/beevik/etree"

// 文档结构（只查询参考线与车道宽度所需的元素），数值属性保留原始文本，转换失败时按元素跳过

const rootTag = "OpenDRIVE"

const (
	pathRoad        = "road"
	pathGeometry    = "planView/geometry"
	pathLaneSection = "lanes/laneSection"
	pathWidth       = "width"
)

// sectionLanes 按文档顺序返回车道段内的全部车道
// 说明：车道可以直接位于laneSection下，也可以分在left/center/right中
func sectionLanes(sec *etree.Element) []*etree.Element {
	lanes := sec.SelectElements("lane")
	for _, side := range []string{"left", "center", "right"} {
		lanes = append(lanes, sec.FindElements(side+"/lane")...)
	}
	return lanes
}
