// Package mapexport 将路网导出为城市地图protobuf
package mapexport

import (
	"fmt"
	"os"

	"git.fiblab.net/general/common/v2/geometry"
	geov2 "git.fiblab.net/sim/protos/v2/go/city/geo/v2"
	mapv2 "git.fiblab.net/sim/protos/v2/go/city/map/v2"
	"github.com/samber/lo"
	"github.com/tsinghua-fib-lab/roadscene-sim/entity/road"
	"github.com/tsinghua-fib-lab/roadscene-sim/mesh"
	"google.golang.org/protobuf/proto"
)

const (
	LaneIDStart = 0           // 导出车道ID起点
	RoadIDStart = 200_000_000 // 导出道路ID起点
)

// Result 导出结果
type Result struct {
	Map *mapv2.Map
	// 原道路ID到导出道路ID
	RoadIDs map[string]int32
}

// Build 由路网生成城市地图
// 功能：每条行车道的每个车道段导出为一条mapv2.Lane，中心线按step采样
// 参数：net-路网，step-中心线采样间隔（米）
// 返回：地图与道路ID映射
// 算法说明：
// 1. 道路按路网顺序编号，车道按中心线顺序编号
// 2. 车道宽度取采样宽度的平均值
// 3. 没有任何行车道的道路仍然导出，LaneIds为空
func Build(net *road.Network, step float64) *Result {
	res := &Result{
		Map:     &mapv2.Map{},
		RoadIDs: make(map[string]int32, net.Len()),
	}
	roads := make(map[string]*mapv2.Road, net.Len())
	for i, r := range net.Roads() {
		id := int32(RoadIDStart + i)
		res.RoadIDs[r.ID()] = id
		name := r.Name()
		if name == "" {
			name = r.ID()
		}
		pb := &mapv2.Road{Id: id, Name: name}
		roads[r.ID()] = pb
		res.Map.Roads = append(res.Map.Roads, pb)
	}
	for i, c := range mesh.Centerlines(net, step) {
		id := int32(LaneIDStart + i)
		res.Map.Lanes = append(res.Map.Lanes, &mapv2.Lane{
			Id:    id,
			Type:  mapv2.LaneType_LANE_TYPE_DRIVING,
			Width: c.Width,
			CenterLine: &geov2.Polyline{
				Nodes: lo.Map(c.Points, func(p geometry.Point, _ int) *geov2.XYPosition {
					z := p.Z
					return &geov2.XYPosition{X: p.X, Y: p.Y, Z: &z}
				}),
			},
		})
		roads[c.RoadID].LaneIds = append(roads[c.RoadID].LaneIds, id)
	}
	log.Infof("export %d roads, %d lanes", len(res.Map.Roads), len(res.Map.Lanes))
	return res
}

// Write 序列化地图并写入文件
func Write(path string, m *mapv2.Map) error {
	data, err := proto.Marshal(m)
	if err != nil {
		return fmt.Errorf("mapexport: marshal: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("mapexport: write %s: %w", path, err)
	}
	return nil
}

// Read 从文件读取地图
func Read(path string) (*mapv2.Map, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("mapexport: read %s: %w", path, err)
	}
	var m mapv2.Map
	if err := proto.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("mapexport: unmarshal: %w", err)
	}
	return &m, nil
}
