package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	sendQueue  = 64
)

// ErrTransportClosed 客户端断开或写失败，会话需要结束
var ErrTransportClosed = errors.New("transport closed")

type outbound struct {
	kind int // websocket.TextMessage / websocket.BinaryMessage
	data []byte
}

// ClientConn 负责发送（写）数据到客户端的轻量包装
// 文本状态与二进制帧共用一个有序队列，由唯一的写协程写出
type ClientConn struct {
	ws        *websocket.Conn
	send      chan outbound
	writeWait time.Duration

	done      chan struct{} // 读或写任一侧失败时关闭
	flushed   chan struct{} // 写协程退出时关闭
	failOnce  sync.Once
	closeOnce sync.Once
	err       error
}

func NewClientConn(ws *websocket.Conn, writeWait time.Duration) *ClientConn {
	if writeWait <= 0 {
		writeWait = 5 * time.Second
	}
	return &ClientConn{
		ws:        ws,
		send:      make(chan outbound, sendQueue),
		writeWait: writeWait,
		done:      make(chan struct{}),
		flushed:   make(chan struct{}),
	}
}

// Start 启动读写协程
func (c *ClientConn) Start() {
	go c.writePump()
	go c.readPump()
}

// SendText 发送文本状态
func (c *ClientConn) SendText(ctx context.Context, s string) error {
	return c.enqueue(ctx, outbound{kind: websocket.TextMessage, data: []byte(s)})
}

// SendBinary 发送二进制帧
func (c *ClientConn) SendBinary(ctx context.Context, b []byte) error {
	return c.enqueue(ctx, outbound{kind: websocket.BinaryMessage, data: b})
}

// enqueue 阻塞入队（不丢弃：顺序与庆祝帧数量都必须保证）
func (c *ClientConn) enqueue(ctx context.Context, m outbound) error {
	select {
	case <-c.done:
		return c.Err()
	default:
	}
	select {
	case c.send <- m:
		return nil
	case <-c.done:
		return c.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Done 连接失效时关闭
func (c *ClientConn) Done() <-chan struct{} { return c.done }

// Err 连接失效原因，包装 ErrTransportClosed；连接仍可用时为 nil
func (c *ClientConn) Err() error {
	select {
	case <-c.done:
	default:
		return nil
	}
	if c.err == nil {
		return ErrTransportClosed
	}
	return fmt.Errorf("%w: %v", ErrTransportClosed, c.err)
}

func (c *ClientConn) fail(err error) {
	c.failOnce.Do(func() {
		c.err = err
		close(c.done)
	})
}

// Close 关闭发送队列，等待写协程把已入队的消息写完后关闭连接
// 只能由唯一的发送方在最后一次 Send 之后调用
func (c *ClientConn) Close() {
	c.closeOnce.Do(func() {
		close(c.send)
	})
	select {
	case <-c.flushed:
	case <-time.After(c.writeWait + time.Second):
		_ = c.ws.Close()
	}
}

// writePump 独立协程，负责从 send 队列写出到 WS，并定时发送 ping
func (c *ClientConn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.ws.Close()
		close(c.flushed)
	}()
	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				_ = c.ws.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
					time.Now().Add(c.writeWait))
				c.fail(nil)
				return
			}
			_ = c.ws.SetWriteDeadline(time.Now().Add(c.writeWait))
			if err := c.ws.WriteMessage(msg.kind, msg.data); err != nil {
				c.fail(err)
				return
			}
		case <-ticker.C:
			if err := c.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(c.writeWait)); err != nil {
				c.fail(err)
				return
			}
		case <-c.done:
			return
		}
	}
}

// readPump 客户端不发送业务消息，这里只用于检测断开与处理 pong
func (c *ClientConn) readPump() {
	c.ws.SetReadLimit(1 << 20) // 1MB
	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error { return c.ws.SetReadDeadline(time.Now().Add(pongWait)) })

	for {
		if _, _, err := c.ws.ReadMessage(); err != nil {
			c.fail(err)
			return
		}
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 64 * 1024, // JPEG 帧较大
	CheckOrigin: func(r *http.Request) bool {
		// 演示环境：允许所有来源（生产环境需严格限制）
		return true
	},
}

// HandleWS WebSocket 接入：每个连接一个游戏会话
func (m *SessionManager) HandleWS(w http.ResponseWriter, r *http.Request) {
	if err := m.reserve(); err != nil {
		Log.Warnw("reject connection", "remote", r.RemoteAddr, "err", err)
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		m.release()
		Log.Warnw("upgrade error", "remote", r.RemoteAddr, "err", err)
		return
	}

	client := NewClientConn(ws, m.cfg.WriteTimeout)
	client.Start()
	m.start(client, r.RemoteAddr)
}

// HandleRoot 根路径：WebSocket 升级请求进入会话，其余请求交给静态文件
func (m *SessionManager) HandleRoot(static http.Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if websocket.IsWebSocketUpgrade(r) {
			m.HandleWS(w, r)
			return
		}
		static.ServeHTTP(w, r)
	}
}
