package models

import "time"

// Session stores server-side login sessions (for logout, invalidation, audit).
// 有效期从创建时间起固定，不随访问滑动。
type Session struct {
	ID        string    `gorm:"primaryKey;size:64"` // UUID
	Username  string    `gorm:"size:64;index;not null"`
	Role      string    `gorm:"size:16;not null"`
	ExpiresAt time.Time `gorm:"index;not null"`
	CreatedAt time.Time
}

// Expired reports whether the session is past its fixed lifetime.
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// Identity 返回会话绑定的身份。
func (s *Session) Identity() *Identity {
	return &Identity{Username: s.Username, Role: s.Role}
}
