package clock

import (
	"fmt"
	"math"
	"sync"

	"git.fiblab.net/sim/protos/v2/go/city/clock/v1/clockv1connect"
	"github.com/tsinghua-fib-lab/roadscene-sim/utils/config"
)

// Clock 播放时钟
// 功能：以整数步数记录播放进度，时间总是由步数乘以步长得到
// 说明：不对时间做浮点累加，任意步数下的时间都可精确重算；RPC与播放循环并发访问，需加锁
type Clock struct {
	clockv1connect.UnimplementedClockServiceHandler

	mu sync.RWMutex

	DT         float64 // 每步时间间隔（秒）
	START_STEP int32   // 起始步
	END_STEP   int32   // 结束步，播放区间[START, END)，0表示不限制

	T            float64 // 当前时间（秒）
	InternalStep int32   // 当前步数
}

// New 根据配置创建新的时钟实例
// 参数：stepConfig-控制步配置，包含时间间隔与总步数
// 返回：初始化完成的时钟实例
func New(stepConfig config.ControlStep) *Clock {
	c := &Clock{
		DT:         stepConfig.Interval,
		START_STEP: 0,
		END_STEP:   stepConfig.Total,
	}
	c.Init()
	return c
}

// Init 重置时钟到起始步
func (c *Clock) Init() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.set(c.START_STEP)
}

func (c *Clock) set(step int32) {
	c.InternalStep = step
	c.T = float64(step) * c.DT
}

// Advance 前进一步
// 返回：前进后的步数与时间
func (c *Clock) Advance() (int32, float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.set(c.InternalStep + 1)
	return c.InternalStep, c.T
}

// Seek 跳转到时间t
// 功能：取离t最近的整数步，并限制在[START, END]内
// 返回：跳转后的步数与时间
func (c *Clock) Seek(t float64) (int32, float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	step := c.START_STEP
	if t > 0 && c.DT > 0 {
		step = int32(math.Min(math.Round(t/c.DT), math.MaxInt32))
	}
	if step < c.START_STEP {
		step = c.START_STEP
	}
	if c.END_STEP > 0 && step > c.END_STEP {
		step = c.END_STEP
	}
	c.set(step)
	return c.InternalStep, c.T
}

// Current 当前步数与时间
func (c *Clock) Current() (int32, float64) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.InternalStep, c.T
}

// Finished 是否已到达结束步
func (c *Clock) Finished() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.END_STEP > 0 && c.InternalStep >= c.END_STEP
}

// String 获取时钟的字符串表示
// 功能：将当前时间格式化为HH:MM:SS.ss
func (c *Clock) String() string {
	hour, minute, second := c.GetHourMinuteSecond()
	return fmt.Sprintf("%02d:%02d:%05.2f", hour, minute, second)
}

// GetHourMinuteSecond 获取当前时间的小时、分钟、秒
// 返回：小时、分钟、秒（秒为浮点数，支持亚秒级精度）
func (c *Clock) GetHourMinuteSecond() (int, int, float64) {
	_, t := c.Current()
	hour := int(t) / 3600
	minute := int(t) % 3600 / 60
	second := t - float64(hour*3600+minute*60)
	return hour, minute, second
}
