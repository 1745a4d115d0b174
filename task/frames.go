package task

import (
	"context"
	"time"
)

// FrameSource 帧节拍来源
type FrameSource interface {
	// Next 阻塞到下一个节拍；没有更多节拍或ctx结束时返回false
	Next(ctx context.Context) bool
}

// TickerFrames 按墙钟时间产生节拍
type TickerFrames struct {
	ticker *time.Ticker
}

// NewTickerFrames 创建间隔为interval的墙钟节拍
func NewTickerFrames(interval time.Duration) *TickerFrames {
	return &TickerFrames{ticker: time.NewTicker(interval)}
}

func (f *TickerFrames) Next(ctx context.Context) bool {
	if ctx.Err() != nil {
		return false
	}
	select {
	case <-f.ticker.C:
		return true
	case <-ctx.Done():
		return false
	}
}

// Stop 停止计时器
func (f *TickerFrames) Stop() {
	f.ticker.Stop()
}

// CountFrames 立即产生固定数量的节拍，用于无界面批量运行
type CountFrames struct {
	remaining int
}

// NewCountFrames 创建n个节拍
func NewCountFrames(n int) *CountFrames {
	return &CountFrames{remaining: n}
}

func (f *CountFrames) Next(ctx context.Context) bool {
	if ctx.Err() != nil || f.remaining <= 0 {
		return false
	}
	f.remaining--
	return true
}

// Sink 帧消费者
type Sink interface {
	Consume(f Frame) error
}

// SinkFunc 函数形式的Sink
type SinkFunc func(f Frame) error

func (fn SinkFunc) Consume(f Frame) error {
	return fn(f)
}
