package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"umap/backend/pkg/response"
)

// BodyLimit 请求体大小限制中间件
// 声明长度超限时直接拒绝；否则由 http.MaxBytesReader 截断，处理器读取时得到 *http.MaxBytesError
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if maxBytes <= 0 {
			c.Next()
			return
		}
		if c.Request.ContentLength > maxBytes {
			response.Error(c, http.StatusRequestEntityTooLarge, 10005, "请求体过大")
			c.Abort()
			return
		}
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}
		c.Next()
	}
}
