package game

import "time"

// Phase 会话的游戏阶段
type Phase int

const (
	PhaseIdle        Phase = iota // 等待举臂
	PhaseArmed                    // 双臂已上举，计时未满
	PhaseActive                   // 游戏进行中
	PhaseCelebrating              // 命中目标后的庆祝帧发送中
	PhaseTerminal                 // 视频源耗尽，会话结束
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseArmed:
		return "armed"
	case PhaseActive:
		return "active"
	case PhaseCelebrating:
		return "celebrating"
	case PhaseTerminal:
		return "terminal"
	default:
		return "unknown"
	}
}

// Status 下发给客户端的文本状态
type Status string

const (
	StatusNone            Status = ""
	StatusNoCameraFeed    Status = "No camera feed."
	StatusNoPerson        Status = "No person detected"
	StatusArmsNotRaised   Status = "Person detected but arms not raised"
	StatusGameStarted     Status = "Game Started"
	StatusCongratulations Status = "Congratulations"
)

// FrameAction 本 Tick 对视频帧的处理方式
type FrameAction int

const (
	FrameNone      FrameAction = iota // 不发送帧
	FrameStream                       // 发送当前合成帧
	FrameCelebrate                    // 发送庆祝帧序列
)

// Observation 单个 Tick 的输入：关键点（可为空）、帧尺寸与时间
type Observation struct {
	Landmarks LandmarkSet
	Width     int
	Height    int
	Now       time.Time
}

// Step 单个 Tick 的输出
type Step struct {
	From   Phase
	To     Phase
	Status Status
	Frame  FrameAction
	Target *Target // Frame 非 FrameNone 时给出需绘制的目标
}

// Transitioned 本步是否发生阶段切换
func (s Step) Transitioned() bool { return s.From != s.To }

// Machine 会话状态机：只保存本会话的阶段与举臂计时，不做任何 I/O
type Machine struct {
	rules    Rules
	phase    Phase
	debounce Debounce
}

// NewMachine 创建状态机，初始阶段为 Idle
func NewMachine(rules Rules) *Machine {
	return &Machine{rules: rules, phase: PhaseIdle}
}

func (m *Machine) Phase() Phase { return m.phase }

func (m *Machine) Rules() Rules { return m.rules }

// SetRules 更新规则，下一次 Advance 生效
func (m *Machine) SetRules(r Rules) { m.rules = r }

// ArmsRaisedSince 当前举臂计时的起点
func (m *Machine) ArmsRaisedSince() (time.Time, bool) { return m.debounce.Since() }

// Advance 根据本帧观测推进状态机
func (m *Machine) Advance(obs Observation) Step {
	step := Step{From: m.phase}
	switch m.phase {
	case PhaseIdle, PhaseArmed:
		m.advanceIdle(obs, &step)
	case PhaseActive:
		m.advanceActive(obs, &step)
	}
	step.To = m.phase
	return step
}

func (m *Machine) advanceIdle(obs Observation, step *Step) {
	if !obs.Landmarks.Present() {
		// 单帧丢失不清除举臂计时，推理噪声常见
		step.Status = StatusNoPerson
		return
	}

	raised := BothArmsRaised(obs.Landmarks, m.rules.AngleMargin, m.rules.MinVisibility)
	held := m.debounce.Observe(raised, obs.Now)
	switch {
	case !raised:
		m.phase = PhaseIdle
		step.Status = StatusArmsNotRaised
	case held >= m.rules.HoldDuration:
		m.phase = PhaseActive
		m.debounce.Reset()
		step.Status = StatusGameStarted
	default:
		m.phase = PhaseArmed
	}
}

func (m *Machine) advanceActive(obs Observation, step *Step) {
	target := TargetFor(obs.Width, obs.Height, m.rules.TargetInset, m.rules.TargetRadius)
	step.Target = &target
	step.Frame = FrameStream

	// 活跃阶段丢失人物：继续推流，本帧不做碰撞判定
	if !obs.Landmarks.Present() {
		return
	}
	if CollidesWithTarget(obs.Landmarks, target, obs.Width, obs.Height) {
		m.phase = PhaseCelebrating
		step.Status = StatusCongratulations
		step.Frame = FrameCelebrate
	}
}

// FinishCelebration 庆祝帧发送完毕，回到 Idle 并清除举臂计时
func (m *Machine) FinishCelebration() {
	if m.phase != PhaseCelebrating {
		return
	}
	m.phase = PhaseIdle
	m.debounce.Reset()
}

// Terminate 视频源耗尽，进入终止阶段
func (m *Machine) Terminate() Step {
	step := Step{From: m.phase, Status: StatusNoCameraFeed}
	m.phase = PhaseTerminal
	m.debounce.Reset()
	step.To = m.phase
	return step
}
