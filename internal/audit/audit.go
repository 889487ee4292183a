// Package audit appends one line per mutating action to a tab-separated
// log file. Entries are never rewritten.
package audit

import (
	"bufio"
	"os"
	"strings"
	"sync"
	"time"

	"filepanel/internal/models"
)

// Sink 是追加式审计日志。每条记录一行：
// 时间戳\t操作者\t动作\t目标。一条记录一次 write，写入加锁，
// 并发写不会把两行搅在一起。
type Sink struct {
	mu   sync.Mutex
	path string
}

// New 创建写入 path 的审计日志。
func New(path string) *Sink {
	return &Sink{path: path}
}

// Log 追加一条审计记录。审计是副作用，失败只影响这一行，
// 不影响业务操作本身，错误交给调用方决定是否记日志。
func (s *Sink) Log(actor, action, target string) error {
	line := time.Now().UTC().Format(time.RFC3339) + "\t" +
		sanitize(actor) + "\t" + sanitize(action) + "\t" + sanitize(target) + "\n"

	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.WriteString(line)
	return err
}

// Entries 读取全部审计记录，按文件顺序（即时间顺序）返回。
// 解析不了的行跳过。
func (s *Sink) Entries() ([]models.AuditEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	var entries []models.AuditEntry
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		parts := strings.SplitN(sc.Text(), "\t", 4)
		if len(parts) != 4 {
			continue
		}
		ts, err := time.Parse(time.RFC3339, parts[0])
		if err != nil {
			continue
		}
		entries = append(entries, models.AuditEntry{
			Timestamp: ts,
			Actor:     parts[1],
			Action:    parts[2],
			Target:    parts[3],
		})
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

// 字段里不允许出现分隔符和换行，否则一行会被撕裂
func sanitize(v string) string {
	v = strings.ReplaceAll(v, "\t", " ")
	v = strings.ReplaceAll(v, "\n", " ")
	v = strings.ReplaceAll(v, "\r", " ")
	if v == "" {
		return "-"
	}
	return v
}
