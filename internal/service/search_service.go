// Package service 包含了应用的业务逻辑层。
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"rebuilder-go/internal/config"
	"rebuilder-go/internal/model"
	"rebuilder-go/internal/repository"
	"rebuilder-go/pkg/es"
	"rebuilder-go/pkg/log"
)

// SearchService 定义了投稿全文搜索的操作接口。
type SearchService interface {
	// SearchSubmissions 在标题、描述和分类上做全文检索。
	SearchSubmissions(ctx context.Context, query string, topK int) ([]model.SubmissionSearchHit, error)
	// ReindexAll 从数据库全量重建搜索索引，返回重建的文档数。
	ReindexAll(ctx context.Context) (int, error)
}

type searchService struct {
	submissionRepo repository.SubmissionRepository
	esCfg          config.ElasticsearchConfig
}

// NewSearchService 创建一个新的 SearchService 实例。
func NewSearchService(submissionRepo repository.SubmissionRepository, esCfg config.ElasticsearchConfig) SearchService {
	return &searchService{submissionRepo: submissionRepo, esCfg: esCfg}
}

// esSearchResponse 是 Elasticsearch 搜索响应中本服务关心的部分。
type esSearchResponse struct {
	Hits struct {
		Hits []struct {
			Score  float64                  `json:"_score"`
			Source model.SubmissionDocument `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

// SearchSubmissions 执行 multi_match 查询，标题权重高于描述和分类。
func (s *searchService) SearchSubmissions(ctx context.Context, query string, topK int) ([]model.SubmissionSearchHit, error) {
	if topK <= 0 {
		topK = 10
	}

	searchBody := map[string]interface{}{
		"size": topK,
		"query": map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":  query,
				"fields": []string{"title^2", "description", "category"},
			},
		},
	}
	body, err := json.Marshal(searchBody)
	if err != nil {
		return nil, fmt.Errorf("构造搜索请求失败: %w", err)
	}

	res, err := es.ESClient.Search(
		es.ESClient.Search.WithContext(ctx),
		es.ESClient.Search.WithIndex(s.esCfg.IndexName),
		es.ESClient.Search.WithBody(strings.NewReader(string(body))),
	)
	if err != nil {
		return nil, fmt.Errorf("搜索投稿失败: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, fmt.Errorf("搜索投稿失败: %s", res.String())
	}

	var parsed esSearchResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("解析搜索结果失败: %w", err)
	}

	hits := make([]model.SubmissionSearchHit, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		hits = append(hits, model.SubmissionSearchHit{
			SubmissionID: h.Source.SubmissionID,
			Username:     h.Source.Username,
			Title:        h.Source.Title,
			Category:     h.Source.Category,
			Description:  h.Source.Description,
			Score:        h.Score,
		})
	}

	log.Infof("[SearchSubmissions] 搜索完成, 关键词: %s, 命中: %d", query, len(hits))
	return hits, nil
}

// ReindexAll 逐条将数据库中的投稿写入搜索索引。
// 单条失败记录日志并继续，保证尽可能多的文档被重建。
func (s *searchService) ReindexAll(ctx context.Context) (int, error) {
	records, err := s.submissionRepo.FindAll()
	if err != nil {
		return 0, fmt.Errorf("查询投稿列表失败: %w", err)
	}

	indexed := 0
	for i := range records {
		record := &records[i]
		doc := model.SubmissionDocument{
			SubmissionID:    record.SubmissionID,
			Username:        record.Username,
			Title:           record.Title,
			Category:        record.Category,
			Description:     record.Description,
			SourcePartCount: record.SourcePartCount,
			ModelPartCount:  record.ModelPartCount,
			CreatedAt:       record.CreatedAt.UnixMilli(),
		}
		if err := es.IndexSubmission(ctx, s.esCfg.IndexName, doc); err != nil {
			log.Errorf("[ReindexAll] 重建投稿 %s 索引失败: %v", record.SubmissionID, err)
			continue
		}
		indexed++
	}

	log.Infof("[ReindexAll] 索引重建完成, 总数: %d, 成功: %d", len(records), indexed)
	return indexed, nil
}
