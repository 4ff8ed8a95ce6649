// Package config 从环境变量（POSEARENA_ 前缀）加载服务配置，命令行参数可覆盖监听地址与摄像头。
package config

import (
	"errors"
	"flag"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"

	"posearena/game"
)

// Config 服务配置
type Config struct {
	Addr      string `env:"ADDR" envDefault:"localhost:6789"`
	StaticDir string `env:"STATIC_DIR" envDefault:"web"`

	LogFile   string `env:"LOG_FILE" envDefault:"posearena.log"`
	LogLevel  string `env:"LOG_LEVEL" envDefault:"debug"`
	LogStderr bool   `env:"LOG_STDERR" envDefault:"false"`

	CameraDevice  string  `env:"CAMERA" envDefault:"0"`
	FrameWidth    int     `env:"FRAME_WIDTH" envDefault:"0"`
	FrameHeight   int     `env:"FRAME_HEIGHT" envDefault:"0"`
	JPEGQuality   int     `env:"JPEG_QUALITY" envDefault:"80"`
	MaskThreshold float64 `env:"MASK_THRESHOLD" envDefault:"0.1"`

	PoseURL     string        `env:"POSE_URL" envDefault:"http://localhost:8500/pose"`
	PoseTimeout time.Duration `env:"POSE_TIMEOUT" envDefault:"2s"`

	TickRate     int           `env:"TICK_RATE" envDefault:"30"`
	MaxSessions  int           `env:"MAX_SESSIONS" envDefault:"1"`
	WriteTimeout time.Duration `env:"WRITE_TIMEOUT" envDefault:"5s"`

	// 游戏规则默认值
	HoldDuration  time.Duration `env:"HOLD_DURATION" envDefault:"3s"`
	AngleMargin   float64       `env:"ANGLE_MARGIN" envDefault:"40"`
	MinVisibility float64       `env:"MIN_VISIBILITY" envDefault:"0.5"`
	TargetRadius  int           `env:"TARGET_RADIUS" envDefault:"20"`
	TargetInset   int           `env:"TARGET_INSET" envDefault:"50"`
	BurstFrames   int           `env:"BURST_FRAMES" envDefault:"30"`
	BurstFPS      int           `env:"BURST_FPS" envDefault:"30"`
}

// Load 解析环境变量，再用命令行参数覆盖
func Load(args []string) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: "POSEARENA_"}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	fs := flag.NewFlagSet("posearena", flag.ContinueOnError)
	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "server listen address, e.g. localhost:6789")
	fs.StringVar(&cfg.CameraDevice, "camera", cfg.CameraDevice, "camera device id or video file path")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Rules 由配置生成游戏规则
func (c Config) Rules() game.Rules {
	r := game.Rules{
		HoldDuration:  c.HoldDuration,
		AngleMargin:   c.AngleMargin,
		MinVisibility: c.MinVisibility,
		TargetRadius:  c.TargetRadius,
		TargetInset:   c.TargetInset,
		BurstFrames:   c.BurstFrames,
	}
	if c.BurstFPS > 0 {
		r.BurstInterval = time.Second / time.Duration(c.BurstFPS)
	}
	return r
}

// TickInterval 会话循环的节拍；TickRate 为 0 时不限速，由摄像头出帧节奏驱动
func (c Config) TickInterval() time.Duration {
	if c.TickRate <= 0 {
		return 0
	}
	return time.Second / time.Duration(c.TickRate)
}

// Validate 校验取值范围
func (c Config) Validate() error {
	var errs []error
	if c.Addr == "" {
		errs = append(errs, errors.New("addr must not be empty"))
	}
	if c.JPEGQuality < 1 || c.JPEGQuality > 100 {
		errs = append(errs, fmt.Errorf("jpeg quality out of range [1,100]: %d", c.JPEGQuality))
	}
	if c.MaskThreshold < 0 || c.MaskThreshold > 1 {
		errs = append(errs, fmt.Errorf("mask threshold out of range [0,1]: %v", c.MaskThreshold))
	}
	if c.PoseTimeout <= 0 {
		errs = append(errs, fmt.Errorf("pose timeout must be positive: %s", c.PoseTimeout))
	}
	if c.TickRate < 0 {
		errs = append(errs, fmt.Errorf("tick rate must not be negative: %d", c.TickRate))
	}
	if c.MaxSessions < 1 {
		errs = append(errs, fmt.Errorf("max sessions must be at least 1: %d", c.MaxSessions))
	}
	if c.BurstFPS < 0 {
		errs = append(errs, fmt.Errorf("burst fps must not be negative: %d", c.BurstFPS))
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("unknown log level %q", c.LogLevel))
	}
	errs = append(errs, c.Rules().Validate())
	return errors.Join(errs...)
}
