package models

import "time"

// AuditEntry records one mutating operation for traceability.
// 持久化为 audit.log 里的一行：时间戳\t操作者\t动作\t目标。
type AuditEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Actor     string    `json:"actor"`
	Action    string    `json:"action"`
	Target    string    `json:"target"`
}
