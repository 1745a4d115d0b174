package task

import (
	"context"
	"flag"
	"fmt"

	"github.com/tsinghua-fib-lab/roadscene-sim/timeline"
)

var (
	heartBeatInterval = flag.Int("log.heartbeat_interval", 100, "心跳日志间隔步数")
)

// Frame 一帧播放结果
type Frame struct {
	Step  int32
	T     float64
	Poses []timeline.EntityPose
}

func (f Frame) String() string {
	return fmt.Sprintf("Frame{step=%d, t=%.2f, entities=%d}", f.Step, f.T, len(f.Poses))
}

// Play 开始或继续播放
// 说明：Stopped、Paused -> Playing；已在播放时无操作
func (c *Controller) Play() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == Loading {
		return ErrNotReady
	}
	if c.clock.Finished() {
		log.Infof("end step %d reached, seek back before playing", c.clock.END_STEP)
		return nil
	}
	c.setState(Playing)
	return nil
}

// Pause 暂停播放
// 说明：Playing -> Paused；其他已就绪状态下无操作
func (c *Controller) Pause() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == Loading {
		return ErrNotReady
	}
	if c.state == Playing {
		c.setState(Paused)
	}
	return nil
}

// Seek 跳转到时间t
// 功能：时间取整到最近的步，位姿立即按新时间重算
// 返回：跳转后的帧
// 说明：跳转到结束步时Playing转为Paused，其他情况下播放状态不变
func (c *Controller) Seek(t float64) (Frame, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == Loading {
		return Frame{}, ErrNotReady
	}
	c.clock.Seek(t)
	f := c.frame()
	c.metrics.SetElapsed(f.T)
	log.Debugf("seek to %v", c.clock)
	if c.clock.Finished() && c.state == Playing {
		log.Infof("end step %d reached by seek", f.Step)
		c.setState(Paused)
	}
	return f, nil
}

// Frame 当前帧，不推进时间
func (c *Controller) Frame() Frame {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.frame()
}

func (c *Controller) frame() Frame {
	step, t := c.clock.Current()
	f := Frame{Step: step, T: t}
	if c.driver != nil {
		f.Poses = c.driver.Poses(t)
	}
	return f
}

// Step 推进一帧
// 功能：仅在Playing状态下前进一步（dt），并重算所有实体位姿
// 返回：当前帧；是否推进了时间
// 说明：到达结束步后自动转为Paused，已在结束步时不再推进
func (c *Controller) Step() (Frame, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != Playing {
		return c.frame(), false
	}
	if c.clock.Finished() {
		c.setState(Paused)
		return c.frame(), false
	}
	c.clock.Advance()
	f := c.frame()
	c.metrics.ObserveFrame(f.T)

	if n := int32(*heartBeatInterval); n > 0 && f.Step%n == 0 {
		log.Infof("STEP: %d(%v) entities=%d", f.Step, c.clock, len(f.Poses))
	}
	if c.clock.Finished() {
		log.Infof("end step %d reached", f.Step)
		c.setState(Paused)
	}
	return f, true
}

// Finished 是否已播放到结束步
func (c *Controller) Finished() bool {
	return c.clock.Finished()
}

// Run 宿主循环
// 功能：等待就绪后，每个帧节拍调用一次Step，并把推进后的帧交给全部sink
// 参数：ctx-上下文（取消时结束循环），frames-帧节拍来源，sinks-帧消费者
// 返回：加载失败的错误、sink的错误或ctx的错误；节拍耗尽或播放到结束步时返回nil
// 说明：暂停时节拍照常到达但不产生新帧，暂停是帧推进唯一的停止手段
func (c *Controller) Run(ctx context.Context, frames FrameSource, sinks ...Sink) error {
	select {
	case <-c.ready:
	case <-c.failed:
		return c.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
	for frames.Next(ctx) {
		f, advanced := c.Step()
		if !advanced {
			if c.Finished() {
				log.Infof("playback complete at %.2fs", f.T)
				return nil
			}
			continue
		}
		for _, s := range sinks {
			if err := s.Consume(f); err != nil {
				return fmt.Errorf("task: sink at step %d: %w", f.Step, err)
			}
		}
		if c.Finished() {
			log.Infof("playback complete at %.2fs", f.T)
			return nil
		}
	}
	return ctx.Err()
}
