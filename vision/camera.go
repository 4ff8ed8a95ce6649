// Package vision 负责摄像头采集与画面合成（分割背景、目标圆、文字、JPEG 编码），基于 gocv。
package vision

import (
	"fmt"
	"strconv"
	"sync"

	"gocv.io/x/gocv"
)

// CameraConfig 采集参数；Width/Height 为 0 时使用设备默认值
type CameraConfig struct {
	Device string // 数字为设备号，否则为文件路径或流地址
	Width  int
	Height int
}

// Camera gocv.VideoCapture 的线程安全包装
type Camera struct {
	mu     sync.Mutex
	cap    *gocv.VideoCapture
	closed bool
}

// OpenCamera 打开摄像头或视频文件
func OpenCamera(cfg CameraConfig) (*Camera, error) {
	var src interface{} = cfg.Device
	if id, err := strconv.Atoi(cfg.Device); err == nil {
		src = id
	}
	vc, err := gocv.OpenVideoCapture(src)
	if err != nil {
		return nil, fmt.Errorf("open camera %q: %w", cfg.Device, err)
	}
	if !vc.IsOpened() {
		vc.Close()
		return nil, fmt.Errorf("open camera %q: device not opened", cfg.Device)
	}
	if cfg.Width > 0 && cfg.Height > 0 {
		vc.Set(gocv.VideoCaptureFrameWidth, float64(cfg.Width))
		vc.Set(gocv.VideoCaptureFrameHeight, float64(cfg.Height))
	}
	return &Camera{cap: vc}, nil
}

// Read 读取下一帧到 dst；返回 false 表示没有更多帧
func (c *Camera) Read(dst *gocv.Mat) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	if !c.cap.Read(dst) {
		return false
	}
	return !dst.Empty()
}

// Close 释放设备，可重复调用
func (c *Camera) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	return c.cap.Close()
}
