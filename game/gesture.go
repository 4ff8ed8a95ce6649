package game

import "math"

// JointAngle 计算以 b 为顶点、a-b-c 三点构成的夹角（度），结果折算到 [0,180]
func JointAngle(a, b, c Landmark) float64 {
	radians := math.Atan2(c.Y-b.Y, c.X-b.X) - math.Atan2(a.Y-b.Y, a.X-b.X)
	angle := math.Abs(radians * 180 / math.Pi)
	if angle > 180 {
		angle = 360 - angle
	}
	return angle
}

// BothArmsRaised 判断双臂是否伸直上举
// 两侧手腕可见度需大于 minVisibility 且高于同侧肩膀（图像坐标 y 更小），
// 任一侧不满足直接返回 false；随后要求肩-肘-腕夹角都落在 [180-margin, 180+margin]。
func BothArmsRaised(s LandmarkSet, margin, minVisibility float64) bool {
	if !s.Complete() {
		return false
	}
	ls, rs := s[LeftShoulder], s[RightShoulder]
	le, re := s[LeftElbow], s[RightElbow]
	lw, rw := s[LeftWrist], s[RightWrist]

	leftUp := lw.Visibility > minVisibility && lw.Y < ls.Y
	rightUp := rw.Visibility > minVisibility && rw.Y < rs.Y
	if !(leftUp && rightUp) {
		return false
	}

	return armExtended(JointAngle(ls, le, lw), margin) && armExtended(JointAngle(rs, re, rw), margin)
}

func armExtended(angle, margin float64) bool {
	return angle >= 180-margin && angle <= 180+margin
}

// Target 本轮的目标圆（像素坐标）
type Target struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Radius int `json:"radius"`
}

// TargetFor 根据当前帧尺寸放置目标：右上角，距右边与上边各 inset 像素
func TargetFor(width, height, inset, radius int) Target {
	return Target{X: width - inset, Y: inset, Radius: radius}
}

// CollidesWithTarget 任一关键点（不限部位）落入目标圆内即判定碰撞
func CollidesWithTarget(s LandmarkSet, t Target, width, height int) bool {
	r := float64(t.Radius)
	for _, l := range s {
		x, y := l.Pixel(width, height)
		dx := float64(x - t.X)
		dy := float64(y - t.Y)
		if math.Sqrt(dx*dx+dy*dy) <= r {
			return true
		}
	}
	return false
}
