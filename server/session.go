package server

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"posearena/feed"
	"posearena/game"
)

// celebrationCaption 庆祝帧上叠加的文字
const celebrationCaption = "Congratulazioni!"

// Conn 会话使用的客户端连接
type Conn interface {
	Sender
	Done() <-chan struct{}
	Err() error
}

// SessionOptions 会话可选参数，零值可用
type SessionOptions struct {
	Rules        func() game.Rules // 每个 Tick 读取一次，支持热更新
	TickInterval time.Duration     // <=0 时不限速
	Now          func() time.Time
	Wait         func(ctx context.Context, d time.Duration) error // 庆祝帧间隔等待
	Log          *zap.SugaredLogger
}

// Session 一个连接对应一个会话：状态机、去重状态与视频源都归本会话独占
type Session struct {
	ID        string
	StartedAt time.Time

	conn     Conn
	source   feed.Source
	machine  *game.Machine
	dispatch *Dispatcher
	metrics  *SessionMetrics

	rules    func() game.Rules
	interval time.Duration
	now      func() time.Time
	log      *zap.SugaredLogger

	phase atomic.Int32 // 供监控接口并发读取
}

// NewSession 创建会话；source 的所有权转移给会话，Run 退出时关闭
func NewSession(id string, conn Conn, source feed.Source, opts SessionOptions) *Session {
	if opts.Rules == nil {
		rules := game.DefaultRules()
		opts.Rules = func() game.Rules { return rules }
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Log == nil {
		opts.Log = Log
	}

	metrics := &SessionMetrics{}
	dispatch := NewDispatcher(conn, metrics)
	if opts.Wait != nil {
		dispatch.wait = opts.Wait
	}

	return &Session{
		ID:        id,
		StartedAt: opts.Now(),
		conn:      conn,
		source:    source,
		machine:   game.NewMachine(opts.Rules()),
		dispatch:  dispatch,
		metrics:   metrics,
		rules:     opts.Rules,
		interval:  opts.TickInterval,
		now:       opts.Now,
		log:       opts.Log.With("session", id),
	}
}

// Phase 当前游戏阶段（并发安全）
func (s *Session) Phase() game.Phase { return game.Phase(s.phase.Load()) }

// Metrics 会话指标
func (s *Session) Metrics() *SessionMetrics { return s.metrics }

// Run 会话主循环：逐帧拉取 → 状态机 → 下发，直到视频源耗尽、连接断开或 ctx 取消
// 视频源耗尽与 ctx 取消返回 nil；连接失效返回包装了 ErrTransportClosed 的错误
func (s *Session) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		select {
		case <-s.conn.Done():
			cancel()
		case <-ctx.Done():
		}
	}()

	defer func() {
		if cerr := s.source.Close(); cerr != nil {
			s.log.Warnw("release source", "err", cerr)
		}
	}()
	defer func() {
		if r := recover(); r != nil {
			s.log.Errorw("session panic", "panic", r)
			err = fmt.Errorf("session %s: panic: %v", s.ID, r)
		}
	}()

	tick, stop := ticks(s.interval)
	defer stop()

	s.log.Infow("session started", "phase", s.machine.Phase())
	for {
		if tick != nil {
			select {
			case <-ctx.Done():
				return s.exitErr()
			case <-tick:
			}
		} else if ctx.Err() != nil {
			return s.exitErr()
		}

		finished, err := s.Tick(ctx)
		if err != nil {
			if errors.Is(err, ErrTransportClosed) || errors.Is(err, context.Canceled) {
				return s.exitErr()
			}
			return fmt.Errorf("session %s: %w", s.ID, err)
		}
		if finished {
			s.log.Infow("session finished", "reason", "source exhausted")
			return nil
		}
	}
}

// exitErr 区分连接失效与正常取消
func (s *Session) exitErr() error {
	select {
	case <-s.conn.Done():
		err := s.conn.Err()
		s.log.Infow("session finished", "reason", "transport closed", "err", err)
		return fmt.Errorf("session %s: %w", s.ID, err)
	default:
		s.log.Infow("session finished", "reason", "canceled")
		return nil
	}
}

// Tick 处理一帧；视频源耗尽时发送终止状态并返回 finished=true
func (s *Session) Tick(ctx context.Context) (finished bool, err error) {
	start := time.Now()
	defer func() { s.metrics.AddTick(time.Since(start).Nanoseconds()) }()

	s.machine.SetRules(s.rules())

	frame, err := s.source.Next(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		if !errors.Is(err, feed.ErrExhausted) {
			s.log.Warnw("frame source failed", "err", err)
		}
		step := s.machine.Terminate()
		s.observe(step)
		_, err := s.dispatch.SendStatusIfChanged(ctx, step.Status)
		return true, err
	}
	defer frame.Close()

	w, h := frame.Size()
	step := s.machine.Advance(game.Observation{
		Landmarks: frame.Landmarks(),
		Width:     w,
		Height:    h,
		Now:       s.now(),
	})
	s.observe(step)

	// 同一 Tick 内先发状态再发帧
	if _, err := s.dispatch.SendStatusIfChanged(ctx, step.Status); err != nil {
		return false, err
	}

	switch step.Frame {
	case game.FrameStream:
		b, err := frame.Render(step.Target, "")
		if err != nil {
			s.log.Warnw("render frame", "err", err)
			return false, nil
		}
		return false, s.dispatch.SendFrame(ctx, b)

	case game.FrameCelebrate:
		defer s.finishCelebration()
		b, err := frame.Render(step.Target, celebrationCaption)
		if err != nil {
			s.log.Warnw("render celebration frame", "err", err)
			return false, nil
		}
		rules := s.machine.Rules()
		return false, s.dispatch.Burst(ctx, b, rules.BurstFrames, rules.BurstInterval)
	}
	return false, nil
}

func (s *Session) finishCelebration() {
	s.machine.FinishCelebration()
	s.phase.Store(int32(s.machine.Phase()))
	s.log.Infow("round over", "phase", s.machine.Phase())
}

// observe 记录阶段变化与指标
func (s *Session) observe(step game.Step) {
	s.phase.Store(int32(step.To))
	switch step.Status {
	case game.StatusNoPerson:
		s.metrics.IncNoPerson()
	case game.StatusGameStarted:
		s.metrics.IncRoundsStarted()
	case game.StatusCongratulations:
		s.metrics.IncRoundsWon()
	}
	if step.Transitioned() {
		s.log.Infow("phase changed", "from", step.From, "to", step.To, "status", step.Status)
	} else {
		s.log.Debugw("tick", "phase", step.To, "status", step.Status, "frame", step.Frame)
	}
}
