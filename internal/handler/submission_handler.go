// Package handler 包含了处理 HTTP 请求的控制器逻辑。
package handler

import (
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"rebuilder-go/internal/model"
	"rebuilder-go/internal/service"
	"rebuilder-go/pkg/log"

	"github.com/gin-gonic/gin"
)

// SubmissionHandler 负责处理作品投稿相关的 API 请求。
type SubmissionHandler struct {
	submissionService service.SubmissionService
	sourceSetService  service.SourceSetService
}

// NewSubmissionHandler 创建一个新的 SubmissionHandler 实例。
func NewSubmissionHandler(submissionService service.SubmissionService, sourceSetService service.SourceSetService) *SubmissionHandler {
	return &SubmissionHandler{
		submissionService: submissionService,
		sourceSetService:  sourceSetService,
	}
}

// Create 处理投稿创建请求（multipart/form-data）。
// 文本字段：title、category、description、sourceSets（可重复或逗号分隔）；
// 文件字段：images、instructions、partsLists、threeModels。
func (h *SubmissionHandler) Create(c *gin.Context) {
	currentUser, ok := userFromContext(c)
	if !ok {
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		log.Warnf("CreateSubmission: invalid multipart form, error: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    http.StatusBadRequest,
			"message": "无效的表单数据",
		})
		return
	}

	input := &service.SubmissionInput{
		Title:       strings.TrimSpace(c.PostForm("title")),
		Category:    strings.TrimSpace(c.PostForm("category")),
		Description: strings.TrimSpace(c.PostForm("description")),
		SourceSets:  parseSourceSets(c.PostFormArray("sourceSets")),
	}

	groups := []struct {
		field string
		dst   *[]service.AssetFile
	}{
		{"images", &input.Images},
		{"instructions", &input.Instructions},
		{"partsLists", &input.PartsLists},
		{"threeModels", &input.ThreeModels},
	}
	for _, group := range groups {
		files, err := readFormFiles(form.File[group.field])
		if err != nil {
			log.Errorf("CreateSubmission: failed to read %s files, error: %v", group.field, err)
			c.JSON(http.StatusBadRequest, gin.H{
				"code":    http.StatusBadRequest,
				"message": "读取上传文件失败",
			})
			return
		}
		*group.dst = files
	}

	record, err := h.submissionService.Create(c.Request.Context(), currentUser, input)
	if err != nil {
		log.Warnf("CreateSubmission: failed for user '%s', error: %v", currentUser.Username, err)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "投稿创建成功",
		"data":    record,
	})
}

// List 返回所有投稿（按创建时间倒序）。
func (h *SubmissionHandler) List(c *gin.Context) {
	records, err := h.submissionService.List(c.Request.Context())
	if err != nil {
		log.Errorf("ListSubmissions: error: %v", err)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "success",
		"data":    records,
	})
}

// Get 返回单条投稿详情。
func (h *SubmissionHandler) Get(c *gin.Context) {
	record, err := h.submissionService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "success",
		"data":    record,
	})
}

// Delete 处理投稿删除请求，级联删除全部资源文件。
func (h *SubmissionHandler) Delete(c *gin.Context) {
	currentUser, ok := userFromContext(c)
	if !ok {
		return
	}

	if err := h.submissionService.Delete(c.Request.Context(), currentUser, c.Param("id")); err != nil {
		log.Warnf("DeleteSubmission: failed for user '%s', id: %s, error: %v",
			currentUser.Username, c.Param("id"), err)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "投稿删除成功",
	})
}

// GetPartList 返回投稿的零件清单解析结果。
func (h *SubmissionHandler) GetPartList(c *gin.Context) {
	partList, sourcePartCount, err := h.submissionService.GetPartList(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "success",
		"data": gin.H{
			"parts":           partList.Parts,
			"modelPartCount":  partList.ModelPartCount,
			"sourcePartCount": sourcePartCount,
		},
	})
}

// ValidateSetsRequest 定义了来源套装校验 API 的请求体结构。
type ValidateSetsRequest struct {
	SetNumbers []string `json:"setNumbers" binding:"required"`
}

// ValidateSets 校验一批来源套装编号并返回零件数汇总。
func (h *SubmissionHandler) ValidateSets(c *gin.Context) {
	var req ValidateSetsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    http.StatusBadRequest,
			"message": "无效的请求负载：setNumbers 不能为空",
		})
		return
	}

	report := h.sourceSetService.ValidateSets(c.Request.Context(), req.SetNumbers)
	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "success",
		"data":    report,
	})
}

// userFromContext 从上下文中取出 AuthMiddleware 存入的用户对象。
func userFromContext(c *gin.Context) (*model.User, bool) {
	user, exists := c.Get("user")
	if !exists {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "无法获取用户信息"})
		return nil, false
	}
	currentUser, ok := user.(*model.User)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "用户数据类型错误"})
		return nil, false
	}
	return currentUser, true
}

// parseSourceSets 兼容重复字段和单字段逗号分隔两种提交方式。
func parseSourceSets(values []string) []string {
	sets := make([]string, 0, len(values))
	for _, value := range values {
		for _, part := range strings.Split(value, ",") {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				sets = append(sets, trimmed)
			}
		}
	}
	return sets
}

// readFormFiles 将一组上传文件读入内存。
func readFormFiles(headers []*multipart.FileHeader) ([]service.AssetFile, error) {
	files := make([]service.AssetFile, 0, len(headers))
	for _, header := range headers {
		src, err := header.Open()
		if err != nil {
			return nil, err
		}
		data, err := io.ReadAll(src)
		src.Close()
		if err != nil {
			return nil, err
		}
		files = append(files, service.AssetFile{
			Filename:    header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Data:        data,
		})
	}
	return files, nil
}
