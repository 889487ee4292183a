// Package sandbox confines user-supplied relative paths to a fixed
// root directory. Every filesystem touch in this application goes
// through a Resolved produced here; no other component builds paths.
package sandbox

import (
	"errors"
	"path/filepath"
	"strings"
)

// ErrEscape 表示解析结果会越出沙箱根目录。
// 对外统一报告为"路径不合法"，绝不回显绝对路径。
var ErrEscape = errors.New("path escapes root")

// Resolved 是一个已经通过沙箱检查的路径。
// Abs 用于实际的文件系统调用，Rel 是规范化的斜杠分隔相对路径，
// 用于展示、审计和 API 回显（根目录为 ""）。
type Resolved struct {
	Abs string
	Rel string
}

// Resolver maps raw relative paths onto absolute paths under Root.
type Resolver struct {
	root string
}

// New 创建一个以 rootAbs（必须是绝对路径）为边界的 Resolver。
func New(rootAbs string) *Resolver {
	return &Resolver{root: filepath.Clean(rootAbs)}
}

// Root returns the absolute sandbox root.
func (r *Resolver) Root() string {
	return r.root
}

// Resolve 把用户输入的相对路径解析成沙箱内的绝对路径。
// 规则：
//   - 先去掉 NUL 字节（防截断类花招），纯词法解析，不碰文件系统；
//   - 空输入解析为根目录本身；
//   - 结果相对根目录若以 ".." 段开头、或根本无法表示为"根 + 子路径"
//     （比如无关的绝对路径输入），返回 ErrEscape；
//   - "foo..bar" 这类把 ".." 夹在段名里的输入是合法的。
//
// 对同一个已规范化的相对路径重复解析，得到相同的绝对路径。
func (r *Resolver) Resolve(raw string) (*Resolved, error) {
	clean := strings.ReplaceAll(raw, "\x00", "")

	var target string
	if filepath.IsAbs(clean) {
		// 绝对路径输入不做拼接，直接走下面的相对性检查，
		// 只有恰好落在根目录内时才能通过
		target = filepath.Clean(clean)
	} else {
		target = filepath.Join(r.root, filepath.FromSlash(clean))
	}

	rel, err := filepath.Rel(r.root, target)
	if err != nil {
		return nil, ErrEscape
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) || filepath.IsAbs(rel) {
		return nil, ErrEscape
	}
	if rel == "." {
		rel = ""
	}

	return &Resolved{Abs: target, Rel: filepath.ToSlash(rel)}, nil
}

// Join 把父路径和名字拼起来一起解析，供 create/rename 使用，
// 这样名字里夹带的跳转段也会被同一套检查拦住。
func (r *Resolver) Join(parent, name string) (*Resolved, error) {
	return r.Resolve(filepath.ToSlash(filepath.Join(filepath.FromSlash(parent), name)))
}
