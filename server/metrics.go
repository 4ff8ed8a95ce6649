package server

import (
	"sync/atomic"
)

// SessionMetrics 记录会话运行期的关键指标（用于监控与调试）
type SessionMetrics struct {
	TickCount        int64 // 统计的 Tick 次数
	FramesSent       int64 // 已发送的二进制帧
	StatusSent       int64 // 已发送的文本状态
	StatusSuppressed int64 // 因与上次相同而未发送的状态
	RoundsStarted    int64 // 开局次数
	RoundsWon        int64 // 命中目标次数
	NoPersonTicks    int64 // 未检测到人的 Tick 数
	TotalTickNs      int64 // Tick 累计耗时（纳秒）
}

func (m *SessionMetrics) IncFramesSent()       { atomic.AddInt64(&m.FramesSent, 1) }
func (m *SessionMetrics) IncStatusSent()       { atomic.AddInt64(&m.StatusSent, 1) }
func (m *SessionMetrics) IncStatusSuppressed() { atomic.AddInt64(&m.StatusSuppressed, 1) }
func (m *SessionMetrics) IncRoundsStarted()    { atomic.AddInt64(&m.RoundsStarted, 1) }
func (m *SessionMetrics) IncRoundsWon()        { atomic.AddInt64(&m.RoundsWon, 1) }
func (m *SessionMetrics) IncNoPerson()         { atomic.AddInt64(&m.NoPersonTicks, 1) }
func (m *SessionMetrics) AddTick(ns int64) {
	atomic.AddInt64(&m.TickCount, 1)
	atomic.AddInt64(&m.TotalTickNs, ns)
}

// Snapshot 返回只读副本，便于 HTTP 输出
func (m *SessionMetrics) Snapshot() map[string]any {
	tick := atomic.LoadInt64(&m.TickCount)
	total := atomic.LoadInt64(&m.TotalTickNs)
	var avgMs float64
	if tick > 0 {
		avgMs = float64(total) / float64(tick) / 1e6
	}
	return map[string]any{
		"tick_count":        tick,
		"frames_sent":       atomic.LoadInt64(&m.FramesSent),
		"status_sent":       atomic.LoadInt64(&m.StatusSent),
		"status_suppressed": atomic.LoadInt64(&m.StatusSuppressed),
		"rounds_started":    atomic.LoadInt64(&m.RoundsStarted),
		"rounds_won":        atomic.LoadInt64(&m.RoundsWon),
		"no_person_ticks":   atomic.LoadInt64(&m.NoPersonTicks),
		"avg_tick_ms":       avgMs,
	}
}
