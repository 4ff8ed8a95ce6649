// Package feed 定义视频采集与姿态推理协作方的边界：会话循环只依赖这里的接口，
// 不直接依赖摄像头或模型实现。
package feed

import (
	"context"
	"errors"

	"posearena/game"
)

// ErrExhausted 视频源已无更多帧（摄像头断开或文件读完）
var ErrExhausted = errors.New("feed: source exhausted")

// Frame 一帧原始画面及其推理结果，由当前 Tick 独占，用完须 Close
type Frame interface {
	// Size 帧的像素宽高
	Size() (width, height int)
	// Landmarks 本帧关键点；未检测到人时为 nil
	Landmarks() game.LandmarkSet
	// Render 合成（分割背景、绘制目标与文字）并编码为 JPEG；target 为 nil 时不画目标
	Render(target *game.Target, caption string) ([]byte, error)
	Close() error
}

// Source 逐帧拉取的视频源
type Source interface {
	// Next 阻塞直到下一帧就绪；无更多帧时返回 ErrExhausted
	Next(ctx context.Context) (Frame, error)
	Close() error
}

// Opener 为单个会话获取视频源（作用域内独占，会话结束时关闭）
type Opener func(ctx context.Context) (Source, error)
