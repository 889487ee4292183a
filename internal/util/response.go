package util

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// 通用返回结构里的 data 使用 map
type Response map[string]interface{}

// OK 统一成功返回，直接输出给定字段。
func OK(c *gin.Context, data Response) {
	c.JSON(http.StatusOK, data)
}

// Fail 统一错误返回：{"error": msg}。
// 给客户端的 msg 必须是通用描述，文件系统细节和绝对路径只进服务端日志。
func Fail(c *gin.Context, httpStatus int, msg string) {
	c.JSON(httpStatus, gin.H{"error": msg})
}
