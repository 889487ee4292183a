// Package session owns the server-side session records. The gate only
// reads/writes through the opaque session id carried in the cookie.
package session

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"filepanel/internal/models"
)

// ErrNotFound 表示会话不存在、已注销或已过期。
var ErrNotFound = errors.New("session not found")

// Store 管理会话记录的创建、查找和销毁。
type Store struct {
	db  *gorm.DB
	ttl time.Duration
}

// NewStore 创建会话存储。ttl 是从创建时间起算的固定有效期。
func NewStore(db *gorm.DB, ttl time.Duration) *Store {
	return &Store{db: db, ttl: ttl}
}

// Create 为一次成功登录生成新会话。
func (s *Store) Create(username, role string) (*models.Session, error) {
	now := time.Now()
	sess := &models.Session{
		ID:        uuid.NewString(),
		Username:  username,
		Role:      role,
		ExpiresAt: now.Add(s.ttl),
		CreatedAt: now,
	}
	if err := s.db.Create(sess).Error; err != nil {
		return nil, err
	}
	return sess, nil
}

// Get 按 id 查找存活的会话。过期的会话当场删掉并按不存在处理。
func (s *Store) Get(id string) (*models.Session, error) {
	if id == "" {
		return nil, ErrNotFound
	}
	var sess models.Session
	if err := s.db.First(&sess, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if sess.Expired(time.Now()) {
		_ = s.db.Delete(&models.Session{}, "id = ?", id).Error
		return nil, ErrNotFound
	}
	return &sess, nil
}

// Revoke 服务端销毁会话（不只是清 cookie）。删不存在的会话不算错。
func (s *Store) Revoke(id string) error {
	if id == "" {
		return nil
	}
	return s.db.Delete(&models.Session{}, "id = ?", id).Error
}

// PurgeExpired 清掉所有已过期的会话，返回删除数量。
func (s *Store) PurgeExpired() (int64, error) {
	res := s.db.Delete(&models.Session{}, "expires_at <= ?", time.Now())
	return res.RowsAffected, res.Error
}
