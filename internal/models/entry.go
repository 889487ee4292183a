package models

import "time"

// 目录项类型
const (
	EntryTypeFile = "file"
	EntryTypeDir  = "dir"
)

// FileEntry 是目录列表里的一项。目录不报告大小，Size 为 nil。
type FileEntry struct {
	Name  string    `json:"name"`
	Size  *int64    `json:"size,omitempty"`
	Mtime time.Time `json:"mtime"`
	Type  string    `json:"type"`
}
