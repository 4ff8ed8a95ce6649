package vision

import (
	"errors"
	"fmt"
	"image"
	"image/color"

	"gocv.io/x/gocv"

	"posearena/game"
)

var (
	targetColor  = color.RGBA{R: 255, A: 255} // 红色目标
	captionColor = color.RGBA{G: 255, A: 255} // 绿色文字
)

// RenderConfig 合成参数
type RenderConfig struct {
	JPEGQuality   int     // 1..100
	MaskThreshold float64 // 掩码置信度阈值，高于该值的像素保留前景
}

// Frame 一帧画面：原始 Mat + 推理结果
type Frame struct {
	img       gocv.Mat
	landmarks game.LandmarkSet
	mask      []byte // PNG 灰度掩码
	cfg       RenderConfig
}

func (f *Frame) Size() (int, int) { return f.img.Cols(), f.img.Rows() }

func (f *Frame) Landmarks() game.LandmarkSet { return f.landmarks }

// Render 合成并编码：有掩码时背景置黑，再叠加目标圆与文字
func (f *Frame) Render(target *game.Target, caption string) ([]byte, error) {
	if f.img.Empty() {
		return nil, errors.New("vision: render empty frame")
	}

	out := f.segment()
	defer out.Close()

	if target != nil {
		gocv.Circle(&out, image.Pt(target.X, target.Y), target.Radius, targetColor, -1)
	}
	if caption != "" {
		gocv.PutText(&out, caption, image.Pt(50, 100), gocv.FontHersheySimplex, 2, captionColor, 3)
	}

	buf, err := gocv.IMEncodeWithParams(gocv.JPEGFileExt, out, []int{gocv.IMWriteJpegQuality, f.cfg.JPEGQuality})
	if err != nil {
		return nil, fmt.Errorf("vision: encode jpeg: %w", err)
	}
	defer buf.Close()
	return append([]byte(nil), buf.GetBytes()...), nil
}

// segment 返回一份新 Mat：掩码外的像素为黑色；掩码缺失或无法解码时原样拷贝
func (f *Frame) segment() gocv.Mat {
	if len(f.mask) == 0 {
		return f.img.Clone()
	}

	mask, err := gocv.IMDecode(f.mask, gocv.IMReadGrayScale)
	if err != nil {
		return f.img.Clone()
	}
	defer mask.Close()
	if mask.Empty() {
		return f.img.Clone()
	}

	if mask.Cols() != f.img.Cols() || mask.Rows() != f.img.Rows() {
		gocv.Resize(mask, &mask, image.Pt(f.img.Cols(), f.img.Rows()), 0, 0, gocv.InterpolationLinear)
	}
	gocv.Threshold(mask, &mask, float32(f.cfg.MaskThreshold*255), 255, gocv.ThresholdBinary)

	out := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), f.img.Rows(), f.img.Cols(), f.img.Type())
	f.img.CopyToWithMask(&out, mask)
	return out
}

// Close 释放底层 Mat
func (f *Frame) Close() error {
	return f.img.Close()
}
