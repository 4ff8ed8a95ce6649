package server

import (
	"context"
	"errors"
	"sync"
	"time"

	"posearena/feed"
	"posearena/game"
)

type sent struct {
	text   bool
	data   string
	binary int // 二进制帧长度
}

// recordingConn 记录发送顺序；failAfter>0 时第 failAfter+1 次发送失败
type recordingConn struct {
	mu        sync.Mutex
	msgs      []sent
	failAfter int
	done      chan struct{}
	once      sync.Once
}

func newRecordingConn() *recordingConn {
	return &recordingConn{done: make(chan struct{})}
}

func (c *recordingConn) SendText(ctx context.Context, s string) error {
	return c.record(sent{text: true, data: s})
}

func (c *recordingConn) SendBinary(ctx context.Context, b []byte) error {
	return c.record(sent{binary: len(b), data: string(b)})
}

func (c *recordingConn) record(m sent) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	select {
	case <-c.done:
		return ErrTransportClosed
	default:
	}
	if c.failAfter > 0 && len(c.msgs) >= c.failAfter {
		c.once.Do(func() { close(c.done) })
		return ErrTransportClosed
	}
	c.msgs = append(c.msgs, m)
	return nil
}

func (c *recordingConn) Done() <-chan struct{} { return c.done }

func (c *recordingConn) Err() error {
	select {
	case <-c.done:
		return ErrTransportClosed
	default:
		return nil
	}
}

func (c *recordingConn) texts() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []string
	for _, m := range c.msgs {
		if m.text {
			out = append(out, m.data)
		}
	}
	return out
}

func (c *recordingConn) binaries() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, m := range c.msgs {
		if !m.text {
			n++
		}
	}
	return n
}

func (c *recordingConn) all() []sent {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]sent(nil), c.msgs...)
}

type fakeFrame struct {
	w, h      int
	landmarks game.LandmarkSet
	panics    bool
	renderErr error

	mu       sync.Mutex
	closed   bool
	captions []string
}

func (f *fakeFrame) Size() (int, int) {
	if f.panics {
		panic("broken frame")
	}
	return f.w, f.h
}

func (f *fakeFrame) Landmarks() game.LandmarkSet { return f.landmarks }

func (f *fakeFrame) Render(target *game.Target, caption string) ([]byte, error) {
	if f.renderErr != nil {
		return nil, f.renderErr
	}
	f.mu.Lock()
	f.captions = append(f.captions, caption)
	f.mu.Unlock()
	if target == nil {
		return []byte("frame"), nil
	}
	return []byte("frame+target"), nil
}

func (f *fakeFrame) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

// scriptedSource 按顺序返回预设帧，之后返回 feed.ErrExhausted
type scriptedSource struct {
	mu     sync.Mutex
	frames []*fakeFrame
	next   int
	closed bool
	err    error // 非空时所有帧之后返回该错误而不是 ErrExhausted
}

func (s *scriptedSource) Next(ctx context.Context) (feed.Frame, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.next >= len(s.frames) {
		if s.err != nil {
			return nil, s.err
		}
		return nil, feed.ErrExhausted
	}
	f := s.frames[s.next]
	s.next++
	return f, nil
}

func (s *scriptedSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *scriptedSource) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// blockingSource 一直阻塞到 ctx 取消
type blockingSource struct {
	closed chan struct{}
	once   sync.Once
}

func newBlockingSource() *blockingSource {
	return &blockingSource{closed: make(chan struct{})}
}

func (s *blockingSource) Next(ctx context.Context) (feed.Frame, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func (s *blockingSource) Close() error {
	s.once.Do(func() { close(s.closed) })
	return nil
}

const (
	frameW = 640
	frameH = 480
)

func framesOf(n int, landmarks func() game.LandmarkSet) []*fakeFrame {
	out := make([]*fakeFrame, n)
	for i := range out {
		out[i] = &fakeFrame{w: frameW, h: frameH, landmarks: landmarks()}
	}
	return out
}

func noPerson() game.LandmarkSet { return nil }

func raised() game.LandmarkSet {
	s := make(game.LandmarkSet, game.NumLandmarks)
	for i := range s {
		s[i] = game.Landmark{X: 0.2, Y: 0.8, Visibility: 0.9}
	}
	s[game.LeftShoulder] = game.Landmark{X: 0.6, Y: 0.5, Visibility: 0.9}
	s[game.LeftElbow] = game.Landmark{X: 0.6, Y: 0.35, Visibility: 0.9}
	s[game.LeftWrist] = game.Landmark{X: 0.6, Y: 0.2, Visibility: 0.9}
	s[game.RightShoulder] = game.Landmark{X: 0.4, Y: 0.5, Visibility: 0.9}
	s[game.RightElbow] = game.Landmark{X: 0.4, Y: 0.35, Visibility: 0.9}
	s[game.RightWrist] = game.Landmark{X: 0.4, Y: 0.2, Visibility: 0.9}
	return s
}

func lowered() game.LandmarkSet {
	s := raised()
	s[game.LeftElbow].Y, s[game.LeftWrist].Y = 0.65, 0.8
	s[game.RightElbow].Y, s[game.RightWrist].Y = 0.65, 0.8
	return s
}

// touching 右手腕位于目标圆心（默认规则下 640x480 的 (590,50)）
func touching() game.LandmarkSet {
	s := lowered()
	s[game.RightWrist] = game.Landmark{X: 590.0 / frameW, Y: 50.0 / frameH, Visibility: 0.9}
	return s
}

// frameClock 每次调用前进 1/30 秒
func frameClock() func() time.Time {
	var mu sync.Mutex
	t := time.Unix(1700000000, 0)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t = t.Add(time.Second / 30)
		return t
	}
}

// waitRecorder 记录庆祝帧之间的等待而不真正 sleep
type waitRecorder struct {
	mu    sync.Mutex
	waits []time.Duration
}

func (w *waitRecorder) wait(ctx context.Context, d time.Duration) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.waits = append(w.waits, d)
	return ctx.Err()
}

var errBoom = errors.New("boom")
