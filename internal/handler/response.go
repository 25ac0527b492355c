// Package handler 包含了处理 HTTP 请求的控制器逻辑。
package handler

import (
	"errors"
	"net/http"

	"rebuilder-go/internal/service"
	"rebuilder-go/pkg/rebrickable"

	"github.com/gin-gonic/gin"
)

// respondError 将业务错误映射为对应的 HTTP 状态码和响应体。
// 表单/清单错误是客户端错误，目录不可用映射为 502，其余按服务端错误处理。
func respondError(c *gin.Context, err error) {
	var validationErr *service.ValidationError
	var parseErr *service.ParseError

	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    http.StatusBadRequest,
			"message": validationErr.Message,
		})
	case errors.As(err, &parseErr):
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    http.StatusBadRequest,
			"message": parseErr.Message,
		})
	case errors.Is(err, service.ErrSubmissionNotFound):
		c.JSON(http.StatusNotFound, gin.H{
			"code":    http.StatusNotFound,
			"message": err.Error(),
		})
	case errors.Is(err, service.ErrUnauthorized):
		c.JSON(http.StatusForbidden, gin.H{
			"code":    http.StatusForbidden,
			"message": err.Error(),
		})
	case errors.Is(err, rebrickable.ErrCatalogUnavailable):
		c.JSON(http.StatusBadGateway, gin.H{
			"code":    http.StatusBadGateway,
			"message": "零件目录服务暂时不可用",
		})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    http.StatusInternalServerError,
			"message": "服务器内部错误",
		})
	}
}
