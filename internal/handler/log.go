package handler

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"

	"filepanel/internal/audit"
	"filepanel/internal/models"
	"filepanel/internal/util"
)

// LogHandler 负责审计日志查询和导出接口
type LogHandler struct {
	Audit *audit.Sink
}

func NewLogHandler(sink *audit.Sink) *LogHandler {
	return &LogHandler{Audit: sink}
}

// load 读取全部记录并倒序（最新的在前），可按关键字过滤。
func (h *LogHandler) load(q string) ([]models.AuditEntry, error) {
	entries, err := h.Audit.Entries()
	if err != nil {
		return nil, err
	}

	if q != "" {
		filtered := entries[:0]
		for _, e := range entries {
			if strings.Contains(e.Actor, q) || strings.Contains(e.Action, q) || strings.Contains(e.Target, q) {
				filtered = append(filtered, e)
			}
		}
		entries = filtered
	}

	// 倒序
	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
	return entries, nil
}

// ListAudit 列出审计记录（分页 + 关键字）
func (h *LogHandler) ListAudit(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page <= 0 {
		page = 1
	}
	size, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if size <= 0 || size > 100 {
		size = 20
	}
	q := strings.TrimSpace(c.Query("q"))

	entries, err := h.load(q)
	if err != nil {
		util.Fail(c, http.StatusInternalServerError, "读取审计日志失败")
		return
	}

	total := len(entries)
	start := (page - 1) * size
	if start > total {
		start = total
	}
	end := start + size
	if end > total {
		end = total
	}

	util.OK(c, util.Response{
		"total":     total,
		"page":      page,
		"page_size": size,
		"entries":   entries[start:end],
	})
}

// ExportCSV 导出审计日志为 CSV
func (h *LogHandler) ExportCSV(c *gin.Context) {
	entries, err := h.load("")
	if err != nil {
		util.Fail(c, http.StatusInternalServerError, "读取审计日志失败")
		return
	}

	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"audit_%s.csv\"",
		time.Now().Format("20060102")))

	writer := csv.NewWriter(c.Writer)
	defer writer.Flush()

	// UTF-8 BOM（让 Excel 正确识别中文）
	c.Writer.Write([]byte{0xEF, 0xBB, 0xBF})

	writer.Write([]string{"时间", "操作者", "动作", "目标"})
	for _, e := range entries {
		writer.Write([]string{
			e.Timestamp.Format(time.RFC3339),
			e.Actor,
			e.Action,
			e.Target,
		})
	}
}

// ExportXLSX 导出审计日志为 XLSX
func (h *LogHandler) ExportXLSX(c *gin.Context) {
	entries, err := h.load("")
	if err != nil {
		util.Fail(c, http.StatusInternalServerError, "读取审计日志失败")
		return
	}

	f := excelize.NewFile()
	sheetName := "审计日志"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		util.Fail(c, http.StatusInternalServerError, "创建工作表失败")
		return
	}
	f.SetActiveSheet(index)

	// 设置表头
	headers := []string{"时间", "操作者", "动作", "目标"}
	for i, name := range headers {
		cell := fmt.Sprintf("%c1", 'A'+i)
		f.SetCellValue(sheetName, cell, name)
	}

	// 写入数据
	for idx, e := range entries {
		row := idx + 2
		f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), e.Timestamp.Format("2006-01-02 15:04:05"))
		f.SetCellValue(sheetName, fmt.Sprintf("B%d", row), e.Actor)
		f.SetCellValue(sheetName, fmt.Sprintf("C%d", row), e.Action)
		f.SetCellValue(sheetName, fmt.Sprintf("D%d", row), e.Target)
	}

	f.SetColWidth(sheetName, "A", "A", 20)
	f.SetColWidth(sheetName, "B", "B", 14)
	f.SetColWidth(sheetName, "C", "C", 16)
	f.SetColWidth(sheetName, "D", "D", 40)

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"audit_%s.xlsx\"",
		time.Now().Format("20060102")))

	if err := f.Write(c.Writer); err != nil {
		util.Fail(c, http.StatusInternalServerError, "导出失败")
	}
}
