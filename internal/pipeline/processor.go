// Package pipeline 实现了投稿事件的异步处理器，消费 Kafka 事件并维护搜索索引。
package pipeline

import (
	"context"

	"rebuilder-go/internal/config"
	"rebuilder-go/internal/model"
	"rebuilder-go/pkg/es"
	"rebuilder-go/pkg/log"
	"rebuilder-go/pkg/tasks"
)

// Processor 将投稿生命周期事件应用到 Elasticsearch 搜索索引。
type Processor struct {
	esCfg config.ElasticsearchConfig
}

// NewProcessor 创建一个新的 Processor 实例。
func NewProcessor(esCfg config.ElasticsearchConfig) *Processor {
	return &Processor{esCfg: esCfg}
}

// Process 按事件动作更新搜索索引。索引写入以 submission_id 为文档 ID，
// 重复消费同一事件是幂等的。
func (p *Processor) Process(ctx context.Context, task tasks.SubmissionEventTask) error {
	switch task.Action {
	case tasks.ActionCreated:
		doc := model.SubmissionDocument{
			SubmissionID:    task.SubmissionID,
			Username:        task.Username,
			Title:           task.Title,
			Category:        task.Category,
			Description:     task.Description,
			SourcePartCount: task.SourcePartCount,
			ModelPartCount:  task.ModelPartCount,
			CreatedAt:       task.CreatedAt,
		}
		if err := es.IndexSubmission(ctx, p.esCfg.IndexName, doc); err != nil {
			return err
		}
		log.Infof("[Process] 投稿 %s 已写入搜索索引", task.SubmissionID)
		return nil

	case tasks.ActionDeleted:
		if err := es.DeleteSubmission(ctx, p.esCfg.IndexName, task.SubmissionID); err != nil {
			return err
		}
		log.Infof("[Process] 投稿 %s 已从搜索索引删除", task.SubmissionID)
		return nil

	default:
		log.Warnf("[Process] 未知的事件动作: %s, 投稿 ID: %s", task.Action, task.SubmissionID)
		return nil
	}
}
