package server

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"posearena/feed"
	"posearena/game"
)

// ErrSessionLimit 会话数已达上限（摄像头为独占设备）
var ErrSessionLimit = errors.New("session limit reached")

// ManagerConfig 会话管理器配置
type ManagerConfig struct {
	MaxSessions  int
	Rules        game.Rules
	TickInterval time.Duration
	WriteTimeout time.Duration
	Open         feed.Opener
	// SessionOptions 供测试注入时钟与等待函数；Rules 字段会被管理器覆盖
	SessionOptions SessionOptions
}

// SessionManager 管理所有在线会话的生命周期与共享的游戏规则
type SessionManager struct {
	cfg ManagerConfig

	mu       sync.RWMutex
	sessions map[string]*Session
	reserved int

	rulesMu sync.RWMutex
	rules   game.Rules

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewSessionManager 创建会话管理器
func NewSessionManager(cfg ManagerConfig) *SessionManager {
	if cfg.MaxSessions < 1 {
		cfg.MaxSessions = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &SessionManager{
		cfg:      cfg,
		sessions: make(map[string]*Session),
		rules:    cfg.Rules,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Rules 当前规则快照
func (m *SessionManager) Rules() game.Rules {
	m.rulesMu.RLock()
	defer m.rulesMu.RUnlock()
	return m.rules
}

// SetRules 校验并更新规则，所有会话在下一个 Tick 生效
func (m *SessionManager) SetRules(r game.Rules) error {
	if err := r.Validate(); err != nil {
		return err
	}
	m.rulesMu.Lock()
	m.rules = r
	m.rulesMu.Unlock()
	return nil
}

// reserve 预占一个会话名额（升级连接前调用，避免超额）
func (m *SessionManager) reserve() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ctx.Err() != nil {
		return errors.New("server shutting down")
	}
	if m.reserved >= m.cfg.MaxSessions {
		return ErrSessionLimit
	}
	m.reserved++
	return nil
}

func (m *SessionManager) release() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.reserved > 0 {
		m.reserved--
	}
}

// remove 注销会话并归还名额
func (m *SessionManager) remove(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	if m.reserved > 0 {
		m.reserved--
	}
}

// start 为已升级的连接获取视频源并启动会话协程；调用前需已 reserve
func (m *SessionManager) start(client *ClientConn, remote string) {
	id := uuid.NewString()
	log := Log.With("session", id, "remote", remote)

	src, err := m.cfg.Open(m.ctx)
	if err != nil {
		log.Warnw("open frame source", "err", err)
		_ = client.SendText(m.ctx, string(game.StatusNoCameraFeed))
		client.Close()
		m.release()
		return
	}

	opts := m.cfg.SessionOptions
	opts.Rules = m.Rules
	opts.TickInterval = m.cfg.TickInterval
	opts.Log = Log.With("remote", remote)
	s := NewSession(id, client, src, opts)

	m.mu.Lock()
	m.sessions[id] = s
	m.mu.Unlock()

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		defer m.remove(id)

		err := s.Run(m.ctx)
		client.Close()
		if err != nil && !errors.Is(err, ErrTransportClosed) {
			log.Errorw("session ended with error", "err", err)
		}
		log.Infow("session closed", "metrics", s.Metrics().Snapshot())
	}()
}

// Get 按 id 查找会话
func (m *SessionManager) Get(id string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	return s, ok
}

// Len 在线会话数
func (m *SessionManager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// SessionInfo 监控接口中的会话信息
type SessionInfo struct {
	ID        string         `json:"id"`
	Phase     string         `json:"phase"`
	StartedAt time.Time      `json:"startedAt"`
	Metrics   map[string]any `json:"metrics"`
}

// Snapshot 所有在线会话的只读快照
func (m *SessionManager) Snapshot() []SessionInfo {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]SessionInfo, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, SessionInfo{
			ID:        s.ID,
			Phase:     s.Phase().String(),
			StartedAt: s.StartedAt,
			Metrics:   s.Metrics().Snapshot(),
		})
	}
	return out
}

// Shutdown 取消所有会话并等待其释放资源
func (m *SessionManager) Shutdown(ctx context.Context) error {
	m.cancel()
	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
