package task

import (
	"errors"
	"fmt"
	"sync"

	"git.fiblab.net/sim/syncer/v3"
	"github.com/tsinghua-fib-lab/roadscene-sim/clock"
	"github.com/tsinghua-fib-lab/roadscene-sim/entity/road"
	"github.com/tsinghua-fib-lab/roadscene-sim/entity/scenario"
	"github.com/tsinghua-fib-lab/roadscene-sim/mesh"
	"github.com/tsinghua-fib-lab/roadscene-sim/parser"
	"github.com/tsinghua-fib-lab/roadscene-sim/timeline"
	"github.com/tsinghua-fib-lab/roadscene-sim/utils/config"
	"github.com/tsinghua-fib-lab/roadscene-sim/utils/future"
	"github.com/tsinghua-fib-lab/roadscene-sim/utils/metrics"
)

const (
	SelfName = "roadscene" // 本程序在sidecar中注册的名字
)

// State 播放状态
type State int

const (
	Loading State = iota // 等待路网、场景、可视模型全部就绪
	Stopped              // 已就绪，尚未开始播放
	Playing              // 播放中，每帧推进一步
	Paused               // 暂停，时间不推进
)

func (s State) String() string {
	switch s {
	case Loading:
		return "Loading"
	case Stopped:
		return "Stopped"
	case Playing:
		return "Playing"
	case Paused:
		return "Paused"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

var (
	// ErrNotReady 仍处于Loading状态时调用了播放操作
	ErrNotReady = errors.New("task: playback is not ready")
)

// Document 一份解析完成的输入文档
type Document[T any] struct {
	Value    T
	Warnings parser.Warnings
}

// Options 控制器选项
type Options struct {
	Step        config.ControlStep
	Motion      timeline.Motion
	ArcSegments int
	Metrics     *metrics.Collector // 可为nil
}

// OptionsFromConfig 由配置文件生成控制器选项
func OptionsFromConfig(c config.Config, m *metrics.Collector) Options {
	return Options{
		Step: c.Control.Step,
		Motion: timeline.Motion{
			Speed: c.Control.Motion.Speed,
			MinX:  c.Control.Motion.MinX,
			MaxX:  c.Control.Motion.MaxX,
		},
		ArcSegments: c.Mesh.ArcSegments,
		Metrics:     m,
	}
}

// Controller 播放控制器
// 功能：汇合三路加载结果，构建车道面片与时间线，并驱动播放
// 说明：所有方法并发安全；加载结果可以按任意顺序到达，就绪只发生一次
type Controller struct {
	mu sync.Mutex

	state   State
	clock   *clock.Clock
	motion  timeline.Motion
	builder *mesh.Builder
	metrics *metrics.Collector

	// 三路加载结果
	roadDone, scenarioDone, assetDone bool
	network                           *road.Network
	scenario                          *scenario.Scenario
	errs                              []error

	// 就绪后生成
	patches []mesh.LanePatch
	driver  *timeline.Driver

	ready     chan struct{}
	failed    chan struct{}
	failOnce  sync.Once
	readyOnce sync.Once
}

// New 创建处于Loading状态的控制器
func New(opts Options) *Controller {
	c := &Controller{
		state:   Loading,
		clock:   clock.New(opts.Step),
		motion:  opts.Motion,
		builder: mesh.NewBuilder(opts.ArcSegments),
		metrics: opts.Metrics,
		ready:   make(chan struct{}),
		failed:  make(chan struct{}),
	}
	c.metrics.SetState(int(Loading))
	return c
}

// Clock 播放时钟
func (c *Controller) Clock() *clock.Clock {
	return c.clock
}

// Register 将时钟服务注册到sidecar
func (c *Controller) Register(sidecar *syncer.Sidecar) {
	c.clock.Register(sidecar)
}

// State 当前播放状态
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Ready 进入Stopped状态时关闭的通道
func (c *Controller) Ready() <-chan struct{} {
	return c.ready
}

// Failed 任一路加载失败时关闭的通道
func (c *Controller) Failed() <-chan struct{} {
	return c.failed
}

// Err 加载过程中的全部错误，无错误时为nil
func (c *Controller) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return errors.Join(c.errs...)
}

// Network 路网，未加载时为nil
func (c *Controller) Network() *road.Network {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.network
}

// Scenario 场景，未加载时为nil
func (c *Controller) Scenario() *scenario.Scenario {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.scenario
}

// Patches 车道面片，就绪前为nil
func (c *Controller) Patches() []mesh.LanePatch {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.patches
}

// MarkRoad 写入路网加载结果
// 说明：解析告警中出现EmptyModel视为失败，控制器保持Loading
func (c *Controller) MarkRoad(net *road.Network, warnings parser.Warnings, err error) {
	c.mark("road", &c.roadDone, warnings, err, func() { c.network = net })
}

// MarkScenario 写入场景加载结果
func (c *Controller) MarkScenario(s *scenario.Scenario, warnings parser.Warnings, err error) {
	c.mark("scenario", &c.scenarioDone, warnings, err, func() { c.scenario = s })
}

// MarkAsset 写入可视模型加载结果
func (c *Controller) MarkAsset(err error) {
	c.mark("asset", &c.assetDone, nil, err, func() {})
}

// mark 记录一路加载结果并尝试进入就绪状态
// 算法说明：
// 1. 同一路结果只接受一次
// 2. 错误或EmptyModel告警记入errs并关闭Failed通道
// 3. 三路都成功后构建面片与时间线，进入Stopped
func (c *Controller) mark(name string, done *bool, warnings parser.Warnings, err error, set func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if *done {
		log.Warnf("%s result already received, ignored", name)
		return
	}
	*done = true
	if err == nil {
		for _, w := range warnings {
			if parser.IsKind(w, parser.EmptyModel) {
				err = w
				break
			}
		}
	}
	if err != nil {
		log.Errorf("%s failed to load: %v", name, err)
		c.errs = append(c.errs, fmt.Errorf("%s: %w", name, err))
		c.failOnce.Do(func() { close(c.failed) })
		return
	}
	set()
	log.Infof("%s loaded", name)
	if c.roadDone && c.scenarioDone && c.assetDone && len(c.errs) == 0 {
		c.becomeReady()
	}
}

// becomeReady 构建面片与时间线，Loading -> Stopped
func (c *Controller) becomeReady() {
	c.readyOnce.Do(func() {
		c.patches = c.builder.Build(c.network)
		c.driver = timeline.NewDriver(c.scenario, c.motion)
		c.clock.Init()
		c.metrics.SetModel(len(c.patches), c.driver.Len())
		log.Infof("ready: %d roads, %d lane patches, %d entities", c.network.Len(), len(c.patches), c.driver.Len())
		c.setState(Stopped)
		close(c.ready)
	})
}

// Load 等待三路异步加载结果，可按任意顺序完成
func (c *Controller) Load(
	roadF *future.Future[Document[*road.Network]],
	scenarioF *future.Future[Document[*scenario.Scenario]],
	assetF *future.Future[struct{}],
) {
	roadF.Then(func(d Document[*road.Network], err error) {
		c.MarkRoad(d.Value, d.Warnings, err)
	})
	scenarioF.Then(func(d Document[*scenario.Scenario], err error) {
		c.MarkScenario(d.Value, d.Warnings, err)
	})
	assetF.Then(func(_ struct{}, err error) {
		c.MarkAsset(err)
	})
}

func (c *Controller) setState(s State) {
	if c.state != s {
		log.Debugf("state %v -> %v", c.state, s)
	}
	c.state = s
	c.metrics.SetState(int(s))
}
