package game

import "time"

// Debounce 记录某个布尔条件持续为真的起始时间
type Debounce struct {
	since time.Time
	held  bool
}

// Observe 输入本次观测，返回条件已连续为真的时长；一旦为假立即清零
func (d *Debounce) Observe(cond bool, now time.Time) time.Duration {
	if !cond {
		d.Reset()
		return 0
	}
	if !d.held {
		d.held = true
		d.since = now
		return 0
	}
	return now.Sub(d.since)
}

// Since 返回起始时间；未处于持续为真状态时 ok=false
func (d *Debounce) Since() (since time.Time, ok bool) {
	return d.since, d.held
}

// Reset 清除计时
func (d *Debounce) Reset() {
	d.held = false
	d.since = time.Time{}
}
