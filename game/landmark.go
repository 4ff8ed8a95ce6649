package game

// 人体姿态关键点索引（MediaPipe Pose 33 点拓扑）
const (
	Nose          = 0
	LeftShoulder  = 11
	RightShoulder = 12
	LeftElbow     = 13
	RightElbow    = 14
	LeftWrist     = 15
	RightWrist    = 16
	LeftHip       = 23
	RightHip      = 24
	NumLandmarks  = 33
)

// Landmark 归一化图像坐标下的关键点，x/y 与 visibility 均在 [0,1]
type Landmark struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Visibility float64 `json:"visibility"`
}

// LandmarkSet 单帧的完整关键点序列，按索引对应身体部位；nil 表示本帧未检测到人
type LandmarkSet []Landmark

// Present 是否检测到人（关键点集合非空）
func (s LandmarkSet) Present() bool { return len(s) > 0 }

// Complete 是否包含完整的 33 个关键点
func (s LandmarkSet) Complete() bool { return len(s) >= NumLandmarks }

// Pixel 将归一化坐标换算为像素坐标（截断取整，与绘制坐标一致）
func (l Landmark) Pixel(width, height int) (int, int) {
	return int(l.X * float64(width)), int(l.Y * float64(height))
}
