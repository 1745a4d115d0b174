// Package future 异步计算结果
package future

import (
	"context"
	"sync"
)

// Future 一次性异步结果
// 功能：结果只写入一次，可被任意多个协程等待
type Future[T any] struct {
	done  chan struct{}
	once  sync.Once
	value T
	err   error
}

// New 创建未完成的Future，由调用方通过Resolve写入结果
func New[T any]() *Future[T] {
	return &Future[T]{done: make(chan struct{})}
}

// Go 在新协程中执行fn并返回其Future
func Go[T any](fn func() (T, error)) *Future[T] {
	f := New[T]()
	go func() {
		f.Resolve(fn())
	}()
	return f
}

// Resolve 写入结果，只有第一次调用生效
// 返回：本次调用是否生效
func (f *Future[T]) Resolve(value T, err error) bool {
	ok := false
	f.once.Do(func() {
		f.value, f.err = value, err
		close(f.done)
		ok = true
	})
	return ok
}

// Done 结果写入后关闭的通道
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Wait 等待结果
// 返回：结果与错误；ctx先结束时返回ctx的错误
func (f *Future[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Then 结果写入后在新协程中调用fn
func (f *Future[T]) Then(fn func(T, error)) {
	go func() {
		<-f.done
		fn(f.value, f.err)
	}()
}
