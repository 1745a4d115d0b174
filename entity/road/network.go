package road

import (
	"fmt"

	"github.com/samber/lo"
)

// Network 路网
// 功能：管理所有Road实体，提供按ID查找与有序遍历
// 说明：解析完成后只读，可被多个goroutine并发读取
type Network struct {
	data  map[string]*Road
	roads []*Road
}

// NewNetwork 创建空路网
func NewNetwork() *Network {
	return &Network{
		data:  make(map[string]*Road),
		roads: make([]*Road, 0),
	}
}

// Add 按文档顺序加入道路
// 返回：ID重复时返回错误，道路不会被加入
func (n *Network) Add(r *Road) error {
	if _, ok := n.data[r.id]; ok {
		return fmt.Errorf("duplicated road id %s", r.id)
	}
	n.data[r.id] = r
	n.roads = append(n.roads, r)
	return nil
}

// Get 根据ID获取Road实例，如果不存在则panic
func (n *Network) Get(id string) *Road {
	if r, ok := n.data[id]; !ok {
		log.Panicf("no id %s in road data", id)
		return nil
	} else {
		return r
	}
}

// GetOrError 根据ID获取Road实例（带错误处理）
func (n *Network) GetOrError(id string) (*Road, error) {
	if r, ok := n.data[id]; !ok {
		return nil, fmt.Errorf("no id %s in road data", id)
	} else {
		return r, nil
	}
}

// Roads 按文档顺序返回所有道路
func (n *Network) Roads() []*Road {
	return n.roads
}

// Len 道路数量
func (n *Network) Len() int {
	return len(n.roads)
}

// IDs 按文档顺序返回所有道路ID
func (n *Network) IDs() []string {
	return lo.Map(n.roads, func(r *Road, _ int) string { return r.id })
}
