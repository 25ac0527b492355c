// Package service 包含了应用的业务逻辑层。
package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"rebuilder-go/internal/config"
	"rebuilder-go/internal/model"
	"rebuilder-go/internal/repository"
	"rebuilder-go/pkg/log"
	"rebuilder-go/pkg/storage"
	"rebuilder-go/pkg/tasks"

	"gorm.io/gorm"
)

// 对象存储中的资源类别目录名，路径形如 {username}/{kind}/{filename}。
const (
	AssetKindImage       = "image"
	AssetKindInstruction = "instruction"
	AssetKindPartsList   = "partslist"
	AssetKindThreeModel  = "threemodel"
)

// AssetFile 是一个待上传的资源文件，内容已读入内存（受单文件大小上限约束）。
type AssetFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

// SubmissionInput 是创建投稿的完整表单输入。
type SubmissionInput struct {
	Title       string
	Category    string
	Description string
	SourceSets  []string

	Images       []AssetFile
	Instructions []AssetFile
	PartsLists   []AssetFile
	ThreeModels  []AssetFile
}

// EventPublisher 定义了投稿生命周期事件的发布接口。
type EventPublisher interface {
	PublishSubmissionEvent(task tasks.SubmissionEventTask) error
}

// SubmissionService 定义了作品投稿的业务操作接口。
type SubmissionService interface {
	// Create 校验表单与来源套装、解析零件清单并完成资源上传和记录落库。
	Create(ctx context.Context, user *model.User, input *SubmissionInput) (*model.Submission, error)
	// List 按创建时间倒序返回所有投稿。
	List(ctx context.Context) ([]model.Submission, error)
	Get(ctx context.Context, submissionID string) (*model.Submission, error)
	// Delete 删除投稿的全部资源文件和数据库记录，仅投稿人本人或管理员可操作。
	Delete(ctx context.Context, user *model.User, submissionID string) error
	// GetPartList 返回投稿的零件清单解析结果和来源套装零件总数。
	GetPartList(ctx context.Context, submissionID string) (*model.PartList, int, error)
}

type submissionService struct {
	submissionRepo repository.SubmissionRepository
	partListCache  repository.PartListCacheRepository
	inventory      InventoryService
	sourceSets     SourceSetService
	store          storage.ObjectStorage
	publisher      EventPublisher
	cfg            config.SubmissionConfig
}

// NewSubmissionService 创建一个新的 SubmissionService 实例。
func NewSubmissionService(
	submissionRepo repository.SubmissionRepository,
	partListCache repository.PartListCacheRepository,
	inventory InventoryService,
	sourceSets SourceSetService,
	store storage.ObjectStorage,
	publisher EventPublisher,
	cfg config.SubmissionConfig,
) SubmissionService {
	return &submissionService{
		submissionRepo: submissionRepo,
		partListCache:  partListCache,
		inventory:      inventory,
		sourceSets:     sourceSets,
		store:          store,
		publisher:      publisher,
		cfg:            cfg,
	}
}

// Create 完成一次投稿：表单守卫 -> 来源套装校验 -> 零件清单解析 ->
// 零件数核对 -> 并发上传资源 -> 落库 -> 发布事件并缓存清单。
// 任何校验失败都发生在上传之前，不留下任何副作用。
func (s *submissionService) Create(ctx context.Context, user *model.User, input *SubmissionInput) (*model.Submission, error) {
	if err := s.validateInput(input); err != nil {
		return nil, err
	}

	report := s.sourceSets.ValidateSets(ctx, input.SourceSets)
	if report.InvalidCount > 0 {
		return nil, NewValidationError("来源套装编号校验未通过, 无效编号数量: %d", report.InvalidCount)
	}

	var partList *model.PartList
	if len(input.PartsLists) > 0 {
		parsed, err := s.inventory.ParseInventory(ctx, string(input.PartsLists[0].Data))
		if err != nil {
			return nil, err
		}
		partList = parsed

		// 核心约束：模型用到的零件不能超过来源套装能提供的零件
		if partList.ModelPartCount > report.TotalPartCount {
			return nil, NewValidationError("模型使用 %d 个零件, 但来源套装仅提供 %d 个零件",
				partList.ModelPartCount, report.TotalPartCount)
		}
	}

	urls, err := s.uploadAssets(ctx, user.Username, input)
	if err != nil {
		return nil, err
	}

	record := &model.Submission{
		Username:        user.Username,
		Title:           input.Title,
		Category:        input.Category,
		Description:     input.Description,
		SourceSets:      model.StringList(input.SourceSets),
		SourcePartCount: report.TotalPartCount,
		ImageURLs:       urls[AssetKindImage],
		InstructionURLs: urls[AssetKindInstruction],
		PartsListURLs:   urls[AssetKindPartsList],
		ThreeModelURLs:  urls[AssetKindThreeModel],
	}
	if partList != nil {
		record.ModelPartCount = partList.ModelPartCount
	}

	if err := s.submissionRepo.Create(record); err != nil {
		log.Errorf("[CreateSubmission] 创建投稿记录失败: %v", err)
		return nil, fmt.Errorf("创建投稿记录失败: %w", err)
	}

	s.publishEvent(tasks.ActionCreated, record)

	if partList != nil {
		if err := s.partListCache.Set(ctx, record.SubmissionID, partList); err != nil {
			log.Warnf("[CreateSubmission] 写入零件清单缓存失败: %v", err)
		}
	}

	log.Infof("[CreateSubmission] 投稿创建成功, ID: %s, 用户: %s, 标题: %s",
		record.SubmissionID, user.Username, record.Title)
	return record, nil
}

// validateInput 执行表单守卫，任何一项不满足都在产生副作用之前拒绝。
func (s *submissionService) validateInput(input *SubmissionInput) error {
	if input.Title == "" {
		return NewValidationError("标题不能为空")
	}
	if input.Category == "" {
		return NewValidationError("分类不能为空")
	}
	if input.Description == "" {
		return NewValidationError("描述不能为空")
	}
	if len(input.SourceSets) == 0 {
		return NewValidationError("至少需要填写一个来源套装编号")
	}
	if len(input.Images) == 0 {
		return NewValidationError("至少需要上传一张作品图片")
	}
	if len(input.Instructions) == 0 {
		return NewValidationError("至少需要上传一份搭建说明")
	}
	if s.cfg.RequirePartsList && len(input.PartsLists) == 0 {
		return NewValidationError("至少需要上传一份零件清单")
	}

	limits := []struct {
		name  string
		files []AssetFile
		max   int
	}{
		{"作品图片", input.Images, s.cfg.MaxImages},
		{"搭建说明", input.Instructions, s.cfg.MaxInstructions},
		{"零件清单", input.PartsLists, s.cfg.MaxPartsLists},
		{"3D 模型", input.ThreeModels, s.cfg.MaxThreeModels},
	}
	maxBytes := s.cfg.MaxFileSizeMB * 1024 * 1024
	for _, group := range limits {
		if len(group.files) > group.max {
			return NewValidationError("%s数量超过上限 %d", group.name, group.max)
		}
		for _, f := range group.files {
			if f.Filename == "" {
				return NewValidationError("%s文件名不能为空", group.name)
			}
			if int64(len(f.Data)) > maxBytes {
				return NewValidationError("%s文件 %s 超过大小上限 %dMB", group.name, f.Filename, s.cfg.MaxFileSizeMB)
			}
		}
	}
	return nil
}

// uploadAssets 将四组资源文件并发上传到对象存储。
// 任一文件失败则整体失败，已上传成功的文件保留在存储中并记录日志。
func (s *submissionService) uploadAssets(ctx context.Context, username string, input *SubmissionInput) (map[string]model.StringList, error) {
	groups := []struct {
		kind  string
		files []AssetFile
	}{
		{AssetKindImage, input.Images},
		{AssetKindInstruction, input.Instructions},
		{AssetKindPartsList, input.PartsLists},
		{AssetKindThreeModel, input.ThreeModels},
	}

	// 先为每组预分配结果槽位，goroutine 只写入自己的下标
	results := make(map[string][]string, len(groups))
	for _, group := range groups {
		results[group.kind] = make([]string, len(group.files))
	}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		uploadErr error
	)
	for _, group := range groups {
		dst := results[group.kind]
		for i := range group.files {
			wg.Add(1)
			go func(kind string, dst []string, i int, f AssetFile) {
				defer wg.Done()
				objectName := fmt.Sprintf("%s/%s/%s", username, kind, f.Filename)
				url, err := s.store.Upload(ctx, objectName, bytes.NewReader(f.Data), int64(len(f.Data)), f.ContentType)

				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					log.Errorf("[CreateSubmission] 上传文件 %s 失败: %v", objectName, err)
					if uploadErr == nil {
						uploadErr = err
					}
					return
				}
				dst[i] = url
			}(group.kind, dst, i, group.files[i])
		}
	}
	wg.Wait()

	urls := make(map[string]model.StringList, len(groups))

	if uploadErr != nil {
		return nil, fmt.Errorf("上传资源文件失败: %w", uploadErr)
	}
	for kind, list := range results {
		urls[kind] = model.StringList(list)
	}
	return urls, nil
}

// List 按创建时间倒序返回所有投稿记录。
func (s *submissionService) List(ctx context.Context) ([]model.Submission, error) {
	records, err := s.submissionRepo.FindAll()
	if err != nil {
		return nil, fmt.Errorf("查询投稿列表失败: %w", err)
	}
	return records, nil
}

// Get 返回单条投稿记录。
func (s *submissionService) Get(ctx context.Context, submissionID string) (*model.Submission, error) {
	record, err := s.submissionRepo.FindBySubmissionID(submissionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSubmissionNotFound
		}
		return nil, fmt.Errorf("查询投稿记录失败: %w", err)
	}
	return record, nil
}

// Delete 级联删除一条投稿：先逐个删除对象存储中的资源文件，再删除数据库记录。
// 单个资源删除失败只记录日志不中断，保证记录最终被删除。
func (s *submissionService) Delete(ctx context.Context, user *model.User, submissionID string) error {
	record, err := s.Get(ctx, submissionID)
	if err != nil {
		return err
	}
	if record.Username != user.Username && user.Role != model.RoleAdmin {
		log.Warnf("[DeleteSubmission] 用户 %s 尝试删除用户 %s 的投稿 %s",
			user.Username, record.Username, submissionID)
		return ErrUnauthorized
	}

	for _, url := range record.AllAssetURLs() {
		objectName, err := s.store.ObjectNameFromURL(url)
		if err != nil {
			log.Warnf("[DeleteSubmission] 无法从 URL 解析对象名: %s, %v", url, err)
			continue
		}
		if err := s.store.Remove(ctx, objectName); err != nil {
			log.Warnf("[DeleteSubmission] 删除资源文件 %s 失败: %v", objectName, err)
		}
	}

	if err := s.submissionRepo.Delete(record); err != nil {
		return fmt.Errorf("删除投稿记录失败: %w", err)
	}

	if err := s.partListCache.Delete(ctx, submissionID); err != nil {
		log.Warnf("[DeleteSubmission] 删除零件清单缓存失败: %v", err)
	}
	s.publishEvent(tasks.ActionDeleted, record)

	log.Infof("[DeleteSubmission] 投稿删除成功, ID: %s, 操作用户: %s", submissionID, user.Username)
	return nil
}

// GetPartList 返回投稿的零件清单解析结果。
// 优先读缓存，未命中时从对象存储取回 CSV 重新解析并回填缓存。
func (s *submissionService) GetPartList(ctx context.Context, submissionID string) (*model.PartList, int, error) {
	record, err := s.Get(ctx, submissionID)
	if err != nil {
		return nil, 0, err
	}

	cached, err := s.partListCache.Get(ctx, submissionID)
	if err != nil {
		log.Warnf("[GetPartList] 读取零件清单缓存失败: %v", err)
	}
	if cached != nil {
		return cached, record.SourcePartCount, nil
	}

	if len(record.PartsListURLs) == 0 {
		return nil, 0, &ParseError{Message: "该投稿没有零件清单"}
	}

	objectName, err := s.store.ObjectNameFromURL(record.PartsListURLs[0])
	if err != nil {
		return nil, 0, &ParseError{Message: "零件清单地址无效", Err: err}
	}
	reader, err := s.store.Fetch(ctx, objectName)
	if err != nil {
		return nil, 0, &ParseError{Message: "获取零件清单数据失败", Err: err}
	}
	defer reader.Close()

	csvData, err := io.ReadAll(reader)
	if err != nil {
		return nil, 0, &ParseError{Message: "读取零件清单数据失败", Err: err}
	}

	partList, err := s.inventory.ParseInventory(ctx, string(csvData))
	if err != nil {
		return nil, 0, err
	}

	if err := s.partListCache.Set(ctx, submissionID, partList); err != nil {
		log.Warnf("[GetPartList] 写入零件清单缓存失败: %v", err)
	}
	return partList, record.SourcePartCount, nil
}

// publishEvent 发布投稿生命周期事件，失败只记录日志（搜索索引最终一致）。
func (s *submissionService) publishEvent(action string, record *model.Submission) {
	if s.publisher == nil {
		return
	}
	task := tasks.SubmissionEventTask{
		Action:          action,
		SubmissionID:    record.SubmissionID,
		Username:        record.Username,
		Title:           record.Title,
		Category:        record.Category,
		Description:     record.Description,
		SourcePartCount: record.SourcePartCount,
		ModelPartCount:  record.ModelPartCount,
		CreatedAt:       record.CreatedAt.UnixMilli(),
	}
	if err := s.publisher.PublishSubmissionEvent(task); err != nil {
		log.Errorf("[PublishSubmissionEvent] 发布投稿事件失败, action: %s, ID: %s, err: %v",
			action, record.SubmissionID, err)
	}
}
