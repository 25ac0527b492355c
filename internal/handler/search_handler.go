// Package handler 包含了处理 HTTP 请求的控制器逻辑。
package handler

import (
	"net/http"
	"strconv"

	"rebuilder-go/internal/service"
	"rebuilder-go/pkg/log"

	"github.com/gin-gonic/gin"
)

// SearchHandler 负责处理投稿搜索相关的 API 请求。
type SearchHandler struct {
	searchService service.SearchService
}

// NewSearchHandler 创建一个新的 SearchHandler 实例。
func NewSearchHandler(searchService service.SearchService) *SearchHandler {
	return &SearchHandler{searchService: searchService}
}

// Search 处理投稿全文搜索请求。
func (h *SearchHandler) Search(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    http.StatusBadRequest,
			"message": "搜索关键词不能为空",
		})
		return
	}
	topK, _ := strconv.Atoi(c.DefaultQuery("topK", "10"))

	hits, err := h.searchService.SearchSubmissions(c.Request.Context(), query, topK)
	if err != nil {
		log.Errorf("Search: query '%s' failed, error: %v", query, err)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "success",
		"data":    hits,
	})
}

// Reindex 从数据库全量重建搜索索引（管理员操作）。
func (h *SearchHandler) Reindex(c *gin.Context) {
	indexed, err := h.searchService.ReindexAll(c.Request.Context())
	if err != nil {
		log.Errorf("Reindex: error: %v", err)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "索引重建完成",
		"data":    gin.H{"indexed": indexed},
	})
}
