// Package opendrive 将OpenDRIVE路网文本解析为道路模型
package opendrive

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/beevik/etree"
	"github.com/tsinghua-fib-lab/roadscene-sim/entity/lane"
	"github.com/tsinghua-fib-lab/roadscene-sim/entity/road"
	"github.com/tsinghua-fib-lab/roadscene-sim/geom"
	"github.com/tsinghua-fib-lab/roadscene-sim/parser"
)

// Options 解析选项
type Options struct {
	DefaultWidth float64 // 缺少width记录时的默认宽度，<=0表示不使用默认值（跳过该车道）
	Tolerance    float64 // 参考线连续性检查容差
}

// DefaultOptions 默认解析选项
func DefaultOptions() Options {
	return Options{
		DefaultWidth: lane.DefaultWidth,
		Tolerance:    1e-6,
	}
}

// Parse 解析OpenDRIVE文本
// 功能：读取道路、参考线段、车道段与车道宽度，构建只读路网
// 参数：text-原始XML文本，opts-解析选项
// 返回：路网（出错时为空路网，不会为nil）、非致命告警、致命错误
// 算法说明：
// 1. 检查根元素，不是OpenDRIVE时返回MalformedDocument
// 2. 逐条道路解析参考线段，数值属性错误时跳过该线段
// 3. 逐个车道段、车道解析宽度记录，没有width元素时使用默认宽度，width全部无效时跳过该车道
// 4. 检查参考线连续性，违例作为告警报告
// 5. 没有任何道路时报告EmptyModel
// 说明：除根元素外的错误都只影响所在元素，不会中断整个文档的解析
func Parse(text []byte, opts Options) (*road.Network, parser.Warnings, error) {
	net := road.NewNetwork()
	var warnings parser.Warnings

	root, err := parser.ReadRoot(text, rootTag)
	if err != nil {
		return net, nil, err
	}

	for i, xr := range root.SelectElements(pathRoad) {
		r, ws := parseRoad(i, xr, opts)
		for _, w := range ws {
			warnings.Add(w)
		}
		if r == nil {
			continue
		}
		if err := net.Add(r); err != nil {
			warnings.Add(fmt.Errorf("road[%d]: %w", i, err))
		}
	}
	if net.Len() == 0 {
		warnings.Add(&parser.Error{Kind: parser.EmptyModel, Element: rootTag, Err: errors.New("no usable road")})
	}
	for _, w := range warnings {
		log.Warn(w)
	}
	log.Infof("parsed %d roads with %d warnings", net.Len(), len(warnings))
	return net, warnings, nil
}

func parseRoad(i int, xr *etree.Element, opts Options) (*road.Road, parser.Warnings) {
	var warnings parser.Warnings
	path := fmt.Sprintf("road[%d]", i)

	attrs := parser.NewAttrs(path)
	id := attrs.String("id", parser.Attr(xr, "id"))
	length := attrs.FloatOr("length", parser.Attr(xr, "length"), 0)
	if err := attrs.Err(); err != nil {
		warnings.Add(err)
		return nil, warnings
	}
	path = fmt.Sprintf("road[%s]", id)

	geometries := xr.FindElements(pathGeometry)
	segments := make([]geom.Segment, 0, len(geometries))
	for j, xg := range geometries {
		g, err := parseGeometry(fmt.Sprintf("%s/planView/geometry[%d]", path, j), xg)
		if err != nil {
			warnings.Add(err)
			continue
		}
		segments = append(segments, g)
	}
	if len(segments) == 0 {
		warnings.Add(fmt.Errorf("%s: no usable geometry, road skipped", path))
		return nil, warnings
	}
	for _, e := range geom.CheckContiguous(segments, opts.Tolerance) {
		warnings.Add(fmt.Errorf("%s/planView: %w", path, e))
	}

	xsections := xr.FindElements(pathLaneSection)
	sections := make([]*road.LaneSection, 0, len(xsections))
	for j, xs := range xsections {
		secPath := fmt.Sprintf("%s/lanes/laneSection[%d]", path, j)
		sa := parser.NewAttrs(secPath)
		s := sa.Float("s", parser.Attr(xs, "s"))
		if err := sa.Err(); err != nil {
			warnings.Add(err)
			continue
		}
		sec := &road.LaneSection{S: s}
		for k, xl := range sectionLanes(xs) {
			l, ws := parseLane(fmt.Sprintf("%s/lane[%d]", secPath, k), xl, opts)
			for _, w := range ws {
				warnings.Add(w)
			}
			if l != nil {
				sec.Lanes = append(sec.Lanes, l)
			}
		}
		sections = append(sections, sec)
	}
	return road.New(id, parser.Attr(xr, "name"), length, segments, sections), warnings
}

func parseGeometry(path string, xg *etree.Element) (geom.Segment, error) {
	a := parser.NewAttrs(path)
	g := geom.Segment{
		S: a.Float("s", parser.Attr(xg, "s")),
		Origin: geom.NewPose(
			a.Float("x", parser.Attr(xg, "x")),
			a.Float("y", parser.Attr(xg, "y")),
			a.Float("hdg", parser.Attr(xg, "hdg")),
		),
		Length: a.Float("length", parser.Attr(xg, "length")),
	}
	if err := a.Err(); err != nil {
		return geom.Segment{}, err
	}
	if g.Length <= 0 {
		return geom.Segment{}, &parser.Error{Kind: parser.MissingRequiredAttribute, Element: path, Attr: "length", Err: fmt.Errorf("length %v must be positive", g.Length)}
	}
	shapes := xg.ChildElements()
	if len(shapes) != 1 {
		return geom.Segment{}, fmt.Errorf("%s: want exactly one shape element, got %d", path, len(shapes))
	}
	switch shape := shapes[0]; shape.Tag {
	case "line":
		g.Kind = geom.Line
	case "arc":
		g.Kind = geom.Arc
		g.Curvature = a.Float("curvature", parser.Attr(shape, "curvature"))
		if err := a.Err(); err != nil {
			return geom.Segment{}, err
		}
	default:
		return geom.Segment{}, fmt.Errorf("%s: unsupported shape <%s>", path, shape.Tag)
	}
	if raw := parser.Attr(xg, "associatedLanes"); raw != "" {
		r, err := parseLaneRange(raw)
		if err != nil {
			return geom.Segment{}, &parser.Error{Kind: parser.MissingRequiredAttribute, Element: path, Attr: "associatedLanes", Err: err}
		}
		g.Lanes = &r
	}
	return g, nil
}

// parseLaneRange 解析"from-to"形式的车道ID区间，支持负ID（如"-3--1"）与单个ID
func parseLaneRange(raw string) (geom.LaneRange, error) {
	raw = strings.TrimSpace(raw)
	sep := -1
	for i := 1; i < len(raw); i++ {
		if raw[i] == '-' && raw[i-1] >= '0' && raw[i-1] <= '9' {
			sep = i
			break
		}
	}
	if sep < 0 {
		v, err := strconv.ParseInt(raw, 10, 32)
		if err != nil {
			return geom.LaneRange{}, err
		}
		return geom.LaneRange{From: int32(v), To: int32(v)}, nil
	}
	from, err := strconv.ParseInt(strings.TrimSpace(raw[:sep]), 10, 32)
	if err != nil {
		return geom.LaneRange{}, err
	}
	to, err := strconv.ParseInt(strings.TrimSpace(raw[sep+1:]), 10, 32)
	if err != nil {
		return geom.LaneRange{}, err
	}
	return geom.LaneRange{From: int32(from), To: int32(to)}, nil
}

func parseLane(path string, xl *etree.Element, opts Options) (*lane.Lane, parser.Warnings) {
	var warnings parser.Warnings
	a := parser.NewAttrs(path)
	id := a.Int("id", parser.Attr(xl, "id"))
	if err := a.Err(); err != nil {
		warnings.Add(err)
		return nil, warnings
	}
	typ := lane.Type(parser.Attr(xl, "type"))

	declared := xl.SelectElements(pathWidth)
	widths := make([]lane.Width, 0, len(declared))
	for k, xw := range declared {
		wa := parser.NewAttrs(fmt.Sprintf("%s/width[%d]", path, k))
		w := lane.Width{
			SOffset: wa.FloatOr("sOffset", parser.Attr(xw, "sOffset"), 0),
			Poly: geom.CubicPoly{
				A: wa.Float("a", parser.Attr(xw, "a")),
				B: wa.FloatOr("b", parser.Attr(xw, "b"), 0),
				C: wa.FloatOr("c", parser.Attr(xw, "c"), 0),
				D: wa.FloatOr("d", parser.Attr(xw, "d"), 0),
			},
		}
		if err := wa.Err(); err != nil {
			warnings.Add(err)
			continue
		}
		widths = append(widths, w)
	}
	if len(widths) == 0 && id != 0 {
		if len(declared) > 0 {
			warnings.Add(fmt.Errorf("%s: lane %d has no usable width record, skipped", path, id))
			return nil, warnings
		}
		if opts.DefaultWidth <= 0 {
			warnings.Add(fmt.Errorf("%s: lane %d has no width and no default width, skipped", path, id))
			return nil, warnings
		}
		widths = append(widths, lane.Width{Poly: geom.CubicPoly{A: opts.DefaultWidth}})
	}
	return lane.New(id, typ, widths), warnings
}
