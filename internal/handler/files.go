package handler

import (
	"log"
	"net/http"
	"os"
	stdpath "path"

	"github.com/gin-gonic/gin"

	"filepanel/internal/audit"
	"filepanel/internal/middleware"
	"filepanel/internal/models"
	"filepanel/internal/sandbox"
	"filepanel/internal/util"
)

// FileHandler 负责沙箱内的文件操作接口。
// 每个接口都是同一个流程：鉴权 → 解析路径 → 文件系统操作 → 审计 → 应答。
// 文件系统错误只给客户端通用描述，细节进服务端日志。
type FileHandler struct {
	Resolver *sandbox.Resolver
	Audit    *audit.Sink
	MaxText  int64
}

func NewFileHandler(resolver *sandbox.Resolver, sink *audit.Sink, maxText int64) *FileHandler {
	if maxText <= 0 {
		maxText = 2 * 1024 * 1024
	}
	return &FileHandler{
		Resolver: resolver,
		Audit:    sink,
		MaxText:  maxText,
	}
}

func (h *FileHandler) actor(c *gin.Context) string {
	if id := middleware.IdentityFrom(c); id != nil {
		return id.Username
	}
	return "-"
}

// ---------- 列目录 ----------

// List 枚举目录的直接子项。目录不报告大小。
func (h *FileHandler) List(c *gin.Context) {
	res, err := h.Resolver.Resolve(c.Query("path"))
	if err != nil {
		util.Fail(c, http.StatusBadRequest, "路径不合法")
		return
	}

	dirents, err := os.ReadDir(res.Abs)
	if err != nil {
		log.Printf("list %s: %v", res.Rel, err)
		util.Fail(c, http.StatusInternalServerError, "读取目录失败")
		return
	}

	entries := make([]models.FileEntry, 0, len(dirents))
	for _, d := range dirents {
		info, err := d.Info()
		if err != nil {
			// 列目录和 stat 之间被并发删掉了，跳过
			continue
		}
		e := models.FileEntry{
			Name:  d.Name(),
			Mtime: info.ModTime(),
			Type:  models.EntryTypeFile,
		}
		if d.IsDir() {
			e.Type = models.EntryTypeDir
		} else {
			size := info.Size()
			e.Size = &size
		}
		entries = append(entries, e)
	}

	util.OK(c, util.Response{
		"path":    res.Rel,
		"entries": entries,
	})
}

// ---------- 新建 ----------

type createReq struct {
	Path string `json:"path"`
	Name string `json:"name" binding:"required"`
}

// CreateFolder 在 path 下新建文件夹。父路径和名字一起过沙箱检查，
// 名字里夹带跳转段同样会被拦。目标已存在时明确报冲突，不覆盖。
func (h *FileHandler) CreateFolder(c *gin.Context) {
	var req createReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Fail(c, http.StatusBadRequest, "缺少必要字段")
		return
	}

	res, err := h.Resolver.Join(req.Path, req.Name)
	if err != nil {
		util.Fail(c, http.StatusBadRequest, "路径不合法")
		return
	}

	if err := os.Mkdir(res.Abs, 0o755); err != nil {
		if os.IsExist(err) {
			util.Fail(c, http.StatusConflict, "目标已存在")
			return
		}
		log.Printf("create folder %s: %v", res.Rel, err)
		util.Fail(c, http.StatusInternalServerError, "创建文件夹失败")
		return
	}

	_ = h.Audit.Log(h.actor(c), "create_folder", res.Rel)
	util.OK(c, util.Response{"ok": true})
}

// CreateFile 在 path 下新建空文件。已存在时报冲突，绝不截断原文件。
func (h *FileHandler) CreateFile(c *gin.Context) {
	var req createReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Fail(c, http.StatusBadRequest, "缺少必要字段")
		return
	}

	res, err := h.Resolver.Join(req.Path, req.Name)
	if err != nil {
		util.Fail(c, http.StatusBadRequest, "路径不合法")
		return
	}

	f, err := os.OpenFile(res.Abs, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		if os.IsExist(err) {
			util.Fail(c, http.StatusConflict, "目标已存在")
			return
		}
		log.Printf("create file %s: %v", res.Rel, err)
		util.Fail(c, http.StatusInternalServerError, "创建文件失败")
		return
	}
	_ = f.Close()

	_ = h.Audit.Log(h.actor(c), "create_file", res.Rel)
	util.OK(c, util.Response{"ok": true})
}

// ---------- 重命名 ----------

type renameReq struct {
	Path    string `json:"path" binding:"required"`
	NewName string `json:"newName" binding:"required"`
}

// Rename 把 path 改名为同级目录下的 newName。os.Rename 本身是原子的，
// 失败时原文件原样保留。
func (h *FileHandler) Rename(c *gin.Context) {
	var req renameReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Fail(c, http.StatusBadRequest, "缺少必要字段")
		return
	}

	current, err := h.Resolver.Resolve(req.Path)
	if err != nil || current.Rel == "" {
		util.Fail(c, http.StatusBadRequest, "路径不合法")
		return
	}

	renamed, err := h.Resolver.Join(stdpath.Dir(current.Rel), req.NewName)
	if err != nil {
		util.Fail(c, http.StatusBadRequest, "新路径不合法")
		return
	}

	if err := os.Rename(current.Abs, renamed.Abs); err != nil {
		log.Printf("rename %s -> %s: %v", current.Rel, renamed.Rel, err)
		util.Fail(c, http.StatusInternalServerError, "重命名失败")
		return
	}

	_ = h.Audit.Log(h.actor(c), "rename", current.Rel+" -> "+renamed.Rel)
	util.OK(c, util.Response{"ok": true})
}

// ---------- 删除 ----------

type deleteReq struct {
	Path string `json:"path" binding:"required"`
}

// Delete 递归删除。目标本来就不存在也算成功（幂等），
// 这是本 API 的约定，与新建的"已存在即失败"是两套策略。
func (h *FileHandler) Delete(c *gin.Context) {
	var req deleteReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Fail(c, http.StatusBadRequest, "缺少必要字段")
		return
	}

	res, err := h.Resolver.Resolve(req.Path)
	if err != nil || res.Rel == "" {
		// 沙箱根目录本身不允许删
		util.Fail(c, http.StatusBadRequest, "路径不合法")
		return
	}

	if err := os.RemoveAll(res.Abs); err != nil {
		log.Printf("delete %s: %v", res.Rel, err)
		util.Fail(c, http.StatusInternalServerError, "删除失败")
		return
	}

	_ = h.Audit.Log(h.actor(c), "delete", res.Rel)
	util.OK(c, util.Response{"ok": true})
}

// ---------- 读文件 ----------

// GetFile 返回文本文件内容。超过大小上限的文件直接拒绝，不读。
func (h *FileHandler) GetFile(c *gin.Context) {
	res, err := h.Resolver.Resolve(c.Query("path"))
	if err != nil {
		util.Fail(c, http.StatusBadRequest, "路径不合法")
		return
	}

	info, err := os.Stat(res.Abs)
	if err != nil {
		util.Fail(c, http.StatusNotFound, "文件不存在")
		return
	}
	if info.IsDir() {
		util.Fail(c, http.StatusBadRequest, "目标不是文件")
		return
	}
	if info.Size() > h.MaxText {
		util.Fail(c, http.StatusBadRequest, "文件过大，无法在线编辑")
		return
	}

	content, err := os.ReadFile(res.Abs)
	if err != nil {
		log.Printf("read %s: %v", res.Rel, err)
		util.Fail(c, http.StatusInternalServerError, "读取文件失败")
		return
	}

	util.OK(c, util.Response{"content": string(content)})
}

// ---------- 写文件 ----------

type saveReq struct {
	Path string `json:"path" binding:"required"`
	// 指针区分"缺字段"和"空内容"：空串是合法的全量覆盖
	Content *string `json:"content" binding:"required"`
}

// SaveFile 全量覆盖文件内容（非追加、非补丁），审计动作记为 edit。
func (h *FileHandler) SaveFile(c *gin.Context) {
	var req saveReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Fail(c, http.StatusBadRequest, "缺少必要字段")
		return
	}

	if int64(len(*req.Content)) > h.MaxText {
		util.Fail(c, http.StatusBadRequest, "内容过大")
		return
	}

	res, err := h.Resolver.Resolve(req.Path)
	if err != nil || res.Rel == "" {
		util.Fail(c, http.StatusBadRequest, "路径不合法")
		return
	}

	if err := os.WriteFile(res.Abs, []byte(*req.Content), 0o644); err != nil {
		log.Printf("save %s: %v", res.Rel, err)
		util.Fail(c, http.StatusInternalServerError, "保存失败")
		return
	}

	_ = h.Audit.Log(h.actor(c), "edit", res.Rel)
	util.OK(c, util.Response{"ok": true})
}
