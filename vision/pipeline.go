package vision

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gocv.io/x/gocv"

	"posearena/feed"
	"posearena/pose"
)

// Estimator 姿态估计接口（pose.Client 实现）
type Estimator interface {
	Estimate(ctx context.Context, jpeg []byte) (pose.Result, error)
	Close() error
}

// Pipeline 摄像头采集 → 姿态推理，实现 feed.Source；拥有摄像头与推理客户端，Close 时一并释放
type Pipeline struct {
	cam       *Camera
	estimator Estimator
	cfg       RenderConfig
	log       *zap.SugaredLogger
}

var _ feed.Source = (*Pipeline)(nil)

// NewPipeline 组装采集管线
func NewPipeline(cam *Camera, estimator Estimator, cfg RenderConfig, log *zap.SugaredLogger) *Pipeline {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Pipeline{cam: cam, estimator: estimator, cfg: cfg, log: log}
}

// Next 读取一帧并推理；推理失败不视为错误，只是本帧没有关键点
func (p *Pipeline) Next(ctx context.Context) (feed.Frame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	img := gocv.NewMat()
	if !p.cam.Read(&img) {
		img.Close()
		return nil, feed.ErrExhausted
	}

	f := &Frame{img: img, cfg: p.cfg}

	buf, err := gocv.IMEncode(gocv.JPEGFileExt, img)
	if err != nil {
		p.log.Warnw("encode frame for inference", "err", err)
		return f, nil
	}
	jpeg := append([]byte(nil), buf.GetBytes()...)
	buf.Close()

	res, err := p.estimator.Estimate(ctx, jpeg)
	switch {
	case err == nil:
		f.landmarks = res.Landmarks
		f.mask = res.Mask
	case errors.Is(err, context.Canceled):
		f.Close()
		return nil, err
	default:
		p.log.Warnw("pose estimation failed", "err", err)
	}
	return f, nil
}

// Close 释放摄像头与推理客户端
func (p *Pipeline) Close() error {
	return errors.Join(p.cam.Close(), p.estimator.Close())
}

// Open 返回一个 feed.Opener：每个会话独立打开摄像头与推理客户端
func Open(camCfg CameraConfig, renderCfg RenderConfig, newEstimator func() Estimator, log *zap.SugaredLogger) feed.Opener {
	return func(ctx context.Context) (feed.Source, error) {
		cam, err := OpenCamera(camCfg)
		if err != nil {
			return nil, fmt.Errorf("vision: %w", err)
		}
		return NewPipeline(cam, newEstimator(), renderCfg, log), nil
	}
}
