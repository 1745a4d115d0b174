package config

import "fmt"

// InputPath 指定单个输入文档来源的配置（文件系统、MongoDB）
// 功能：文件优先，否则从MongoDB集合中按名称读取一条文档
// 说明：MongoDB中的文档形如{name: <Name>, data: <文本>}，读取结果可缓存到本地
type InputPath struct {
	File      string `yaml:"file,omitempty"`       // 文件路径（优先级高于MongoDB）
	DB        string `yaml:"db,omitempty"`         // 数据库名
	Col       string `yaml:"col,omitempty"`        // 集合名
	Name      string `yaml:"name,omitempty"`       // 文档名
	Cache     string `yaml:"cache,omitempty"`      // 缓存文件名，为空则采用默认路径{db}.{col}.{name}
	OnlyCache bool   `yaml:"only_cache,omitempty"` // 只从缓存中获取
}

// GetDb 获取数据库名
func (p InputPath) GetDb() string {
	return p.DB
}

// GetColl 获取集合名
func (p InputPath) GetColl() string {
	return p.Col
}

// GetCachePath 获取缓存文件路径
// 功能：返回缓存文件名
// 算法说明：
// 1. 如果指定了缓存路径，直接返回
// 2. 否则使用默认命名规则：{数据库名}.{集合名}.{文档名}
func (p InputPath) GetCachePath() string {
	if p.Cache != "" {
		return p.Cache
	}
	return p.GetDb() + "." + p.GetColl() + "." + p.Name
}

// IsSet 是否配置了任一来源
func (p InputPath) IsSet() bool {
	return p.File != "" || (p.GetDb() != "" && p.GetColl() != "" && p.Name != "")
}

func (p InputPath) String() string {
	if p.File != "" {
		return p.File
	}
	return fmt.Sprintf("%s.%s/%s", p.GetDb(), p.GetColl(), p.Name)
}

// Input 指定所有输入文档的配置项
// 说明：路网与场景必选，可视模型资源可选
type Input struct {
	URI      string     `yaml:"uri,omitempty"`   // MongoDB连接字符串
	Road     InputPath  `yaml:"road"`            // 路网描述文档
	Scenario InputPath  `yaml:"scenario"`        // 场景描述文档
	Asset    *InputPath `yaml:"asset,omitempty"` // 可视模型资源
}

// ControlStep 指定播放时间范围和间隔的配置项
type ControlStep struct {
	Total    int32   `yaml:"total"`    // 总步数，0表示不限制
	Interval float64 `yaml:"interval"` // 每步的时间间隔（秒）
}

// Motion 实体运动规则
type Motion struct {
	Speed float64 `yaml:"speed"` // 速度（m/s）
	MinX  float64 `yaml:"min_x"` // x下界
	MaxX  float64 `yaml:"max_x"` // x上界
}

// Control 播放控制配置
type Control struct {
	Step   ControlStep `yaml:"step"`
	Motion Motion      `yaml:"motion"`
}

// Mesh 车道面片构建配置
type Mesh struct {
	ArcSegments         int     `yaml:"arc_segments"`         // 每段圆弧拆分的面片数
	DefaultWidth        float64 `yaml:"default_width"`        // 缺少宽度记录的车道使用的宽度，<=0表示跳过此类车道
	ContiguityTolerance float64 `yaml:"contiguity_tolerance"` // 参考线连续性检查容差
}

// Output 输出配置
type Output struct {
	Record string `yaml:"record,omitempty"` // 位姿记录SQLite文件，为空则不记录
	Map    string `yaml:"map,omitempty"`    // 导出的地图protobuf文件，为空则不导出
}

// Config YAML配置文件的根结构
type Config struct {
	Input   Input   `yaml:"input"`   // 输入
	Control Control `yaml:"control"` // 播放过程控制
	Mesh    Mesh    `yaml:"mesh"`    // 车道面片
	Output  Output  `yaml:"output"`  // 输出
}
