package server

import (
	"encoding/json"
	"net/http"
	"time"
)

// rulesPayload 管理接口中的规则表示，时长以毫秒计
type rulesPayload struct {
	HoldMs          *int64   `json:"holdMs,omitempty"`
	AngleMargin     *float64 `json:"angleMargin,omitempty"`
	MinVisibility   *float64 `json:"minVisibility,omitempty"`
	TargetRadius    *int     `json:"targetRadius,omitempty"`
	TargetInset     *int     `json:"targetInset,omitempty"`
	BurstFrames     *int     `json:"burstFrames,omitempty"`
	BurstIntervalMs *float64 `json:"burstIntervalMs,omitempty"`
}

// HandleAdminConfig 提供游戏规则的读取与更新（热更新，下一个 Tick 生效）
// GET /admin/config  返回当前规则
// POST /admin/config 以 JSON 载荷更新部分字段
func (m *SessionManager) HandleAdminConfig(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		cur := m.Rules()
		hold := cur.HoldDuration.Milliseconds()
		interval := float64(cur.BurstInterval) / float64(time.Millisecond)
		writeJSON(w, http.StatusOK, rulesPayload{
			HoldMs:          &hold,
			AngleMargin:     &cur.AngleMargin,
			MinVisibility:   &cur.MinVisibility,
			TargetRadius:    &cur.TargetRadius,
			TargetInset:     &cur.TargetInset,
			BurstFrames:     &cur.BurstFrames,
			BurstIntervalMs: &interval,
		})
		return
	case http.MethodPost:
		var body rulesPayload
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		next := m.Rules()
		if body.HoldMs != nil {
			next.HoldDuration = time.Duration(*body.HoldMs) * time.Millisecond
		}
		if body.AngleMargin != nil {
			next.AngleMargin = *body.AngleMargin
		}
		if body.MinVisibility != nil {
			next.MinVisibility = *body.MinVisibility
		}
		if body.TargetRadius != nil {
			next.TargetRadius = *body.TargetRadius
		}
		if body.TargetInset != nil {
			next.TargetInset = *body.TargetInset
		}
		if body.BurstFrames != nil {
			next.BurstFrames = *body.BurstFrames
		}
		if body.BurstIntervalMs != nil {
			next.BurstInterval = time.Duration(*body.BurstIntervalMs * float64(time.Millisecond))
		}
		if err := m.SetRules(next); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
		Log.Infof("rules updated: hold=%s margin=%.1f visibility=%.2f target=[r=%d inset=%d] burst=[%d @ %s]",
			next.HoldDuration, next.AngleMargin, next.MinVisibility, next.TargetRadius, next.TargetInset,
			next.BurstFrames, next.BurstInterval)
		return
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
}

// HandleMetrics 输出所有在线会话的运行指标
// GET /metrics
func (m *SessionManager) HandleMetrics(w http.ResponseWriter, r *http.Request) {
	sessions := m.Snapshot()
	writeJSON(w, http.StatusOK, map[string]any{
		"active":   len(sessions),
		"sessions": sessions,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
