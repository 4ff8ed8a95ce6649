package server

import (
	"context"
	"time"
)

const (
	// TicksPerSecond 默认节拍（与摄像头 30fps 对齐）
	TicksPerSecond = 30
)

// DefaultTickInterval 默认 Tick 间隔
var DefaultTickInterval = time.Second / TicksPerSecond

// pace 可取消的定长等待；d<=0 时不等待
func pace(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// ticks 返回会话循环的节拍通道；interval<=0 时返回 nil，循环不限速（由视频源阻塞读取驱动）
func ticks(interval time.Duration) (<-chan time.Time, func()) {
	if interval <= 0 {
		return nil, func() {}
	}
	ticker := time.NewTicker(interval)
	return ticker.C, ticker.Stop
}
