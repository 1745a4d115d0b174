// Package metrics 播放过程的Prometheus指标
package metrics

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector 播放过程指标集合
// 说明：所有方法对nil接收者安全，未启用指标时可直接传nil
type Collector struct {
	gatherer prometheus.Gatherer

	Frames       prometheus.Counter
	Elapsed      prometheus.Gauge
	State        prometheus.Gauge
	LanePatches  prometheus.Gauge
	Entities     prometheus.Gauge
	Warnings     *prometheus.CounterVec
	LoadDuration *prometheus.HistogramVec
}

// New 在reg上注册全部指标，reg为nil时使用全局注册表
// 说明：重复注册时复用已存在的同类指标
func New(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}
	c := &Collector{gatherer: gatherer}
	var err error
	if c.Frames, err = register(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "roadscene_frames_total",
		Help: "Total number of playback frames advanced.",
	}), "roadscene_frames_total"); err != nil {
		return nil, err
	}
	if c.Elapsed, err = register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "roadscene_elapsed_seconds",
		Help: "Current playback time in seconds.",
	}), "roadscene_elapsed_seconds"); err != nil {
		return nil, err
	}
	if c.State, err = register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "roadscene_state",
		Help: "Playback state (0 loading, 1 stopped, 2 playing, 3 paused).",
	}), "roadscene_state"); err != nil {
		return nil, err
	}
	if c.LanePatches, err = register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "roadscene_lane_patches",
		Help: "Number of lane patches built from the road network.",
	}), "roadscene_lane_patches"); err != nil {
		return nil, err
	}
	if c.Entities, err = register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "roadscene_entities",
		Help: "Number of scenario entities with an initial pose.",
	}), "roadscene_entities"); err != nil {
		return nil, err
	}
	if c.Warnings, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "roadscene_parse_warnings_total",
		Help: "Parse warnings, labeled by document and error kind.",
	}, []string{"document", "kind"}), "roadscene_parse_warnings_total"); err != nil {
		return nil, err
	}
	if c.LoadDuration, err = register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "roadscene_load_duration_seconds",
		Help:    "Time spent loading and parsing input documents.",
		Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 10},
	}, []string{"document"}), "roadscene_load_duration_seconds"); err != nil {
		return nil, err
	}
	return c, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C, name string) (C, error) {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
			var zero C
			return zero, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		var zero C
		return zero, err
	}
	return c, nil
}

// Handler 暴露/metrics接口
func (c *Collector) Handler() http.Handler {
	gatherer := prometheus.DefaultGatherer
	if c != nil && c.gatherer != nil {
		gatherer = c.gatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// ObserveFrame 记录一帧
func (c *Collector) ObserveFrame(t float64) {
	if c == nil {
		return
	}
	c.Frames.Inc()
	c.Elapsed.Set(t)
}

// SetElapsed 记录跳转后的时间
func (c *Collector) SetElapsed(t float64) {
	if c == nil {
		return
	}
	c.Elapsed.Set(t)
}

// SetState 记录播放状态
func (c *Collector) SetState(state int) {
	if c == nil {
		return
	}
	c.State.Set(float64(state))
}

// SetModel 记录模型规模
func (c *Collector) SetModel(patches, entities int) {
	if c == nil {
		return
	}
	c.LanePatches.Set(float64(patches))
	c.Entities.Set(float64(entities))
}

// AddWarning 记录一条解析告警
func (c *Collector) AddWarning(document, kind string) {
	if c == nil {
		return
	}
	c.Warnings.WithLabelValues(document, kind).Inc()
}

// ObserveLoad 记录文档加载耗时
func (c *Collector) ObserveLoad(document string, d time.Duration) {
	if c == nil {
		return
	}
	c.LoadDuration.WithLabelValues(document).Observe(d.Seconds())
}
