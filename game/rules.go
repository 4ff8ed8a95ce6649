package game

import (
	"errors"
	"fmt"
	"time"
)

// Rules 小游戏的可调参数（可通过管理接口热更新）
type Rules struct {
	HoldDuration  time.Duration // 双臂需持续上举的时长
	AngleMargin   float64       // 手臂伸直判定的角度容差（度）
	MinVisibility float64       // 手腕可见度下限
	TargetRadius  int           // 目标圆半径（像素）
	TargetInset   int           // 目标圆心距右边/上边的距离（像素）
	BurstFrames   int           // 庆祝阶段发送的帧数
	BurstInterval time.Duration // 庆祝帧之间的间隔
}

// DefaultRules 默认规则：举臂 3 秒开局，庆祝 30 帧 @30fps
func DefaultRules() Rules {
	return Rules{
		HoldDuration:  3 * time.Second,
		AngleMargin:   40,
		MinVisibility: 0.5,
		TargetRadius:  20,
		TargetInset:   50,
		BurstFrames:   30,
		BurstInterval: time.Second / 30,
	}
}

// Validate 校验参数范围
func (r Rules) Validate() error {
	var errs []error
	if r.HoldDuration < 0 {
		errs = append(errs, fmt.Errorf("hold duration must not be negative: %s", r.HoldDuration))
	}
	if r.AngleMargin < 0 || r.AngleMargin > 180 {
		errs = append(errs, fmt.Errorf("angle margin out of range [0,180]: %v", r.AngleMargin))
	}
	if r.MinVisibility < 0 || r.MinVisibility > 1 {
		errs = append(errs, fmt.Errorf("min visibility out of range [0,1]: %v", r.MinVisibility))
	}
	if r.TargetRadius <= 0 {
		errs = append(errs, fmt.Errorf("target radius must be positive: %d", r.TargetRadius))
	}
	if r.TargetInset < 0 {
		errs = append(errs, fmt.Errorf("target inset must not be negative: %d", r.TargetInset))
	}
	if r.BurstFrames < 0 {
		errs = append(errs, fmt.Errorf("burst frames must not be negative: %d", r.BurstFrames))
	}
	if r.BurstInterval < 0 {
		errs = append(errs, fmt.Errorf("burst interval must not be negative: %s", r.BurstInterval))
	}
	return errors.Join(errs...)
}
