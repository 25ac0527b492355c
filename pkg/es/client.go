// Package es 提供了与 Elasticsearch 交互的客户端功能。
package es

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"rebuilder-go/internal/config"
	"rebuilder-go/internal/model"
	"rebuilder-go/pkg/log"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

var ESClient *elasticsearch.Client

// InitES 初始化 Elasticsearch 客户端。
func InitES(esCfg config.ElasticsearchConfig) error {
	cfg := elasticsearch.Config{
		Addresses: []string{esCfg.Addresses},
		Username:  esCfg.Username,
		Password:  esCfg.Password,
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		},
	}
	client, err := elasticsearch.NewClient(cfg)
	if err != nil {
		return err
	}
	ESClient = client
	return createIndexIfNotExists(esCfg.IndexName)
}

// createIndexIfNotExists 检查投稿索引是否存在，如果不存在则创建它。
func createIndexIfNotExists(indexName string) error {
	res, err := ESClient.Indices.Exists([]string{indexName})
	if err != nil {
		log.Errorf("检查索引是否存在时出错: %v", err)
		return err
	}
	if !res.IsError() && res.StatusCode == http.StatusOK {
		log.Infof("索引 '%s' 已存在", indexName)
		return nil
	}
	if res.StatusCode != http.StatusNotFound {
		log.Errorf("检查索引 '%s' 是否存在时收到意外的状态码: %d", indexName, res.StatusCode)
		return fmt.Errorf("检查索引是否存在时收到意外的状态码: %d", res.StatusCode)
	}

	// 投稿文档的索引结构：标题与描述参与全文检索，其余为过滤/展示字段
	mapping := `{
		"mappings": {
			"properties": {
				"submission_id": { "type": "keyword" },
				"username": { "type": "keyword" },
				"title": { "type": "text" },
				"category": { "type": "keyword" },
				"description": { "type": "text" },
				"source_part_count": { "type": "integer" },
				"model_part_count": { "type": "integer" },
				"created_at": { "type": "date", "format": "epoch_millis" }
			}
		}
	}`

	res, err = ESClient.Indices.Create(
		indexName,
		ESClient.Indices.Create.WithBody(strings.NewReader(mapping)),
	)
	if err != nil {
		log.Errorf("创建索引 '%s' 失败: %v", indexName, err)
		return err
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("创建索引失败: %s", res.String())
	}

	log.Infof("索引 '%s' 创建成功", indexName)
	return nil
}

// IndexSubmission 将投稿文档写入索引（以 submission_id 作为文档 ID，可幂等重放）。
func IndexSubmission(ctx context.Context, indexName string, doc model.SubmissionDocument) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("序列化投稿文档失败: %w", err)
	}

	req := esapi.IndexRequest{
		Index:      indexName,
		DocumentID: doc.SubmissionID,
		Body:       strings.NewReader(string(body)),
		Refresh:    "false",
	}
	res, err := req.Do(ctx, ESClient)
	if err != nil {
		return fmt.Errorf("写入投稿索引失败: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("写入投稿索引失败: %s", res.String())
	}
	return nil
}

// DeleteSubmission 从索引中删除投稿文档。文档不存在时视为成功。
func DeleteSubmission(ctx context.Context, indexName, submissionID string) error {
	req := esapi.DeleteRequest{
		Index:      indexName,
		DocumentID: submissionID,
	}
	res, err := req.Do(ctx, ESClient)
	if err != nil {
		return fmt.Errorf("删除投稿索引文档失败: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return fmt.Errorf("删除投稿索引文档失败: %s", res.String())
	}
	return nil
}
