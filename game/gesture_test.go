package game

import (
	"math"
	"math/rand"
	"testing"
)

const (
	testWidth  = 640
	testHeight = 480
)

// raisedPose 双臂竖直上举：肩、肘、腕共线，夹角 180°
func raisedPose() LandmarkSet {
	s := make(LandmarkSet, NumLandmarks)
	for i := range s {
		s[i] = Landmark{X: 0.2, Y: 0.8, Visibility: 0.9}
	}
	s[LeftShoulder] = Landmark{X: 0.6, Y: 0.5, Visibility: 0.9}
	s[LeftElbow] = Landmark{X: 0.6, Y: 0.35, Visibility: 0.9}
	s[LeftWrist] = Landmark{X: 0.6, Y: 0.2, Visibility: 0.9}
	s[RightShoulder] = Landmark{X: 0.4, Y: 0.5, Visibility: 0.9}
	s[RightElbow] = Landmark{X: 0.4, Y: 0.35, Visibility: 0.9}
	s[RightWrist] = Landmark{X: 0.4, Y: 0.2, Visibility: 0.9}
	return s
}

// loweredPose 双臂下垂，手腕低于肩膀
func loweredPose() LandmarkSet {
	s := raisedPose()
	s[LeftElbow].Y = 0.65
	s[LeftWrist].Y = 0.8
	s[RightElbow].Y = 0.65
	s[RightWrist].Y = 0.8
	return s
}

func TestJointAngle(t *testing.T) {
	tests := []struct {
		name    string
		a, b, c Landmark
		expect  float64
	}{
		{
			name:   "straight line",
			a:      Landmark{X: 0, Y: 1},
			b:      Landmark{X: 0, Y: 0.5},
			c:      Landmark{X: 0, Y: 0},
			expect: 180,
		},
		{
			name:   "right angle",
			a:      Landmark{X: 0, Y: 1},
			b:      Landmark{X: 0, Y: 0},
			c:      Landmark{X: 1, Y: 0},
			expect: 90,
		},
		{
			name:   "reflex angle folds back under 180",
			a:      Landmark{X: -1, Y: -1},
			b:      Landmark{X: 0, Y: 0},
			c:      Landmark{X: -1, Y: 1},
			expect: 90,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := JointAngle(tc.a, tc.b, tc.c)
			if math.Abs(got-tc.expect) > 1e-9 {
				t.Errorf("JointAngle: got %.4f, want %.4f", got, tc.expect)
			}
			if got < 0 || got > 180 {
				t.Errorf("JointAngle out of [0,180]: %.4f", got)
			}
		})
	}
}

func TestBothArmsRaised(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(LandmarkSet)
		expect bool
	}{
		{
			name:   "both arms straight up",
			mutate: func(LandmarkSet) {},
			expect: true,
		},
		{
			name: "slight bend within margin",
			mutate: func(s LandmarkSet) {
				s[LeftElbow].X = 0.64
			},
			expect: true,
		},
		{
			name: "left elbow bent at right angle",
			mutate: func(s LandmarkSet) {
				s[LeftWrist] = Landmark{X: 0.75, Y: 0.35, Visibility: 0.9}
			},
			expect: false,
		},
		{
			name: "right elbow bent at right angle",
			mutate: func(s LandmarkSet) {
				s[RightWrist] = Landmark{X: 0.25, Y: 0.35, Visibility: 0.9}
			},
			expect: false,
		},
		{
			name: "left wrist below shoulder",
			mutate: func(s LandmarkSet) {
				s[LeftElbow].Y = 0.65
				s[LeftWrist].Y = 0.8
			},
			expect: false,
		},
		{
			name: "wrist level with shoulder is not above",
			mutate: func(s LandmarkSet) {
				s[RightWrist].Y = s[RightShoulder].Y
			},
			expect: false,
		},
		{
			name: "right wrist visibility at threshold",
			mutate: func(s LandmarkSet) {
				s[RightWrist].Visibility = 0.5
			},
			expect: false,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := raisedPose()
			tc.mutate(s)
			if got := BothArmsRaised(s, 40, 0.5); got != tc.expect {
				t.Errorf("BothArmsRaised: got %v, want %v", got, tc.expect)
			}
		})
	}
}

func TestBothArmsRaised_LowVisibilityNeverRaised(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 500; i++ {
		s := raisedPose()
		low := rng.Float64() * 0.5
		other := rng.Float64()
		if rng.Intn(2) == 0 {
			s[LeftWrist].Visibility = low
			s[RightWrist].Visibility = other
		} else {
			s[RightWrist].Visibility = low
			s[LeftWrist].Visibility = other
		}
		if BothArmsRaised(s, 40, 0.5) {
			t.Fatalf("iteration %d: raised with wrist visibility %.3f", i, low)
		}
	}
}

func TestBothArmsRaised_IncompleteSet(t *testing.T) {
	if BothArmsRaised(nil, 40, 0.5) {
		t.Error("nil set should not be raised")
	}
	if BothArmsRaised(raisedPose()[:RightWrist], 40, 0.5) {
		t.Error("truncated set should not be raised")
	}
}

func TestTargetFor(t *testing.T) {
	got := TargetFor(testWidth, testHeight, 50, 20)
	want := Target{X: 590, Y: 50, Radius: 20}
	if got != want {
		t.Errorf("TargetFor: got %+v, want %+v", got, want)
	}
}

func TestCollidesWithTarget(t *testing.T) {
	// 尺寸取 2 的幂，归一化坐标可精确表示
	const w, h = 1024, 512
	target := TargetFor(w, h, 64, 20)

	tests := []struct {
		name   string
		point  Landmark
		index  int
		expect bool
	}{
		{
			name:   "wrist exactly at center",
			point:  Landmark{X: 960.0 / w, Y: 64.0 / h},
			index:  RightWrist,
			expect: true,
		},
		{
			name:   "any landmark counts",
			point:  Landmark{X: 960.0 / w, Y: 64.0 / h},
			index:  LeftHip,
			expect: true,
		},
		{
			name:   "on the rim",
			point:  Landmark{X: 980.0 / w, Y: 64.0 / h},
			index:  Nose,
			expect: true,
		},
		{
			name:   "just outside",
			point:  Landmark{X: 982.0 / w, Y: 64.0 / h},
			index:  Nose,
			expect: false,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := loweredPose()
			s[tc.index] = tc.point
			if got := CollidesWithTarget(s, target, w, h); got != tc.expect {
				t.Errorf("CollidesWithTarget: got %v, want %v", got, tc.expect)
			}
		})
	}

	if CollidesWithTarget(nil, target, w, h) {
		t.Error("empty set should never collide")
	}
}
