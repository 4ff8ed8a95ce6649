package server

import (
	"context"
	"time"

	"posearena/game"
)

// Sender 出站通道：文本状态与二进制帧按调用顺序发送
type Sender interface {
	SendText(ctx context.Context, s string) error
	SendBinary(ctx context.Context, b []byte) error
}

// Dispatcher 决定本 Tick 向客户端发送什么：状态去重，庆祝帧定速连发
type Dispatcher struct {
	out     Sender
	last    game.Status
	metrics *SessionMetrics
	wait    func(ctx context.Context, d time.Duration) error
}

func NewDispatcher(out Sender, metrics *SessionMetrics) *Dispatcher {
	if metrics == nil {
		metrics = &SessionMetrics{}
	}
	return &Dispatcher{out: out, metrics: metrics, wait: pace}
}

// LastStatus 最近一次成功发送的状态
func (d *Dispatcher) LastStatus() game.Status { return d.last }

// SendStatusIfChanged 仅当状态与上次发送的不同才发送；返回是否发送
func (d *Dispatcher) SendStatusIfChanged(ctx context.Context, s game.Status) (bool, error) {
	if s == game.StatusNone {
		return false, nil
	}
	if s == d.last {
		d.metrics.IncStatusSuppressed()
		return false, nil
	}
	if err := d.out.SendText(ctx, string(s)); err != nil {
		return false, err
	}
	d.last = s
	d.metrics.IncStatusSent()
	return true, nil
}

// SendFrame 帧每次都发送，不做去重
func (d *Dispatcher) SendFrame(ctx context.Context, b []byte) error {
	if err := d.out.SendBinary(ctx, b); err != nil {
		return err
	}
	d.metrics.IncFramesSent()
	return nil
}

// Burst 以固定间隔连续发送 n 次同一帧
func (d *Dispatcher) Burst(ctx context.Context, b []byte, n int, interval time.Duration) error {
	for i := 0; i < n; i++ {
		if err := d.SendFrame(ctx, b); err != nil {
			return err
		}
		if err := d.wait(ctx, interval); err != nil {
			return err
		}
	}
	return nil
}
