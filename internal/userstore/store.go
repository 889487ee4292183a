// Package userstore persists the user records as a single JSON
// document with atomic replace semantics.
package userstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"filepanel/internal/models"
)

// ErrUserNotFound 表示文档里没有这个用户名。
var ErrUserNotFound = errors.New("user not found")

const bcryptCost = 10

// Store 独占管理用户文档。所有读-改-写都在同一把锁下串行，
// 落盘用临时文件 + rename，进程中途被杀也不会留下半截文档。
type Store struct {
	mu   sync.Mutex
	path string
}

// New 创建一个以 path 为后备文档的 Store。
func New(path string) *Store {
	return &Store{path: path}
}

// Load 读取整个用户文档。文件不存在或无法解析时返回 (nil, nil)，
// 交给 Bootstrap 处理。
func (s *Store) Load() (*models.UserFile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked()
}

func (s *Store) loadLocked() (*models.UserFile, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return nil, nil
	}
	var f models.UserFile
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, nil
	}
	return &f, nil
}

func (s *Store) saveLocked(f *models.UserFile) error {
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal users: %w", err)
	}
	return writeFileAtomic(s.path, data, 0o600)
}

// Bootstrap 在文档缺失、不可读或没有任何用户时，创建唯一的一个
// 管理员记录并立即落盘。只要已经存在用户就什么都不做。
// 返回是否创建了新记录。
func (s *Store) Bootstrap(username, password string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.loadLocked()
	if err != nil {
		return false, err
	}
	if existing != nil && len(existing.Users) > 0 {
		return false, nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return false, fmt.Errorf("hash bootstrap password: %w", err)
	}
	f := &models.UserFile{
		Users: []models.User{{
			Username:     username,
			PasswordHash: string(hash),
			Role:         models.RoleAdmin,
			CreatedAt:    time.Now().UTC(),
		}},
	}
	if err := s.saveLocked(f); err != nil {
		return false, err
	}
	return true, nil
}

// Find 按用户名精确匹配，返回记录的副本。
func (s *Store) Find(username string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := s.loadLocked()
	if err != nil {
		return nil, err
	}
	if f == nil {
		return nil, ErrUserNotFound
	}
	u := f.Find(username)
	if u == nil {
		return nil, ErrUserNotFound
	}
	copied := *u
	return &copied, nil
}

// UpdatePassword 整体读-改-写地替换某个用户的密码哈希。
func (s *Store) UpdatePassword(username, newHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := s.loadLocked()
	if err != nil {
		return err
	}
	if f == nil {
		return ErrUserNotFound
	}
	u := f.Find(username)
	if u == nil {
		return ErrUserNotFound
	}
	u.PasswordHash = newHash
	return s.saveLocked(f)
}

// writeFileAtomic writes data to path atomically (best effort).
// It creates a temp file in the same directory and renames it over the target.
func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".users-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	ok := false
	defer func() {
		_ = tmp.Close()
		if !ok {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return err
	}
	if err := tmp.Sync(); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	_ = os.Chmod(tmpName, perm)

	if err := os.Rename(tmpName, path); err != nil {
		return err
	}
	ok = true
	return nil
}
