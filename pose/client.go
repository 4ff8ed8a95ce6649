// Package pose 通过 HTTP 调用姿态估计服务（sidecar），输入 JPEG，输出 33 点关键点与可选的分割掩码。
package pose

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"posearena/game"
)

// ErrBadLandmarks 关键点数量既不是 0 也不是完整的 33 个
var ErrBadLandmarks = errors.New("pose: unexpected landmark count")

// Result 一次推理的结果
type Result struct {
	Landmarks game.LandmarkSet // 未检测到人时为 nil
	Mask      []byte           // PNG 灰度掩码（0..255 对应置信度 0..1），可为空
}

// APIError 姿态服务返回的非 2xx 响应
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("pose: API error %d: %s", e.StatusCode, e.Message)
}

type estimateResponse struct {
	Landmarks []game.Landmark `json:"landmarks"`
	Mask      []byte          `json:"mask,omitempty"`
}

// Client 姿态估计服务客户端
type Client struct {
	url  string
	http *http.Client
	log  *zap.SugaredLogger
}

// NewClient 创建客户端；timeout 为单次请求上限
func NewClient(url string, timeout time.Duration, log *zap.SugaredLogger) *Client {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Client{
		url: strings.TrimSuffix(url, "/"),
		http: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				DialContext:         (&net.Dialer{Timeout: timeout, KeepAlive: 30 * time.Second}).DialContext,
				MaxIdleConnsPerHost: 4,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		log: log.With("component", "pose.client"),
	}
}

// Estimate 上传一帧 JPEG 并返回关键点
func (c *Client) Estimate(ctx context.Context, jpeg []byte) (Result, error) {
	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(jpeg))
	if err != nil {
		return Result{}, fmt.Errorf("pose: build request: %w", err)
	}
	req.Header.Set("Content-Type", "image/jpeg")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("pose: request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return Result{}, &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(body))}
	}

	var out estimateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Result{}, fmt.Errorf("pose: decode response: %w", err)
	}

	switch n := len(out.Landmarks); {
	case n == 0:
		c.log.Debugw("no person", "latency", time.Since(start))
		return Result{Mask: out.Mask}, nil
	case n != game.NumLandmarks:
		return Result{}, fmt.Errorf("%w: %d", ErrBadLandmarks, n)
	}

	c.log.Debugw("pose estimated", "latency", time.Since(start), "mask", len(out.Mask) > 0)
	return Result{Landmarks: game.LandmarkSet(out.Landmarks), Mask: out.Mask}, nil
}

// Close 释放空闲连接
func (c *Client) Close() error {
	c.http.CloseIdleConnections()
	return nil
}
