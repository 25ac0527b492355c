// Package rebrickable provides a client for the Rebrickable parts/sets catalog API.
package rebrickable

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"rebuilder-go/internal/config"
	"rebuilder-go/pkg/log"
)

// ErrNotFound 表示目录中不存在请求的套装或零件。
// 这是一个正常的否定结果，调用方据此走回退逻辑，不应视为故障。
var ErrNotFound = errors.New("rebrickable: not found")

// ErrCatalogUnavailable 表示目录 API 返回了非 404 的异常状态。
// 这是硬错误，应中止当前步骤并向上传播。
var ErrCatalogUnavailable = errors.New("rebrickable: catalog unavailable")

// SetInfo 描述一个官方套装的目录信息。
type SetInfo struct {
	SetNumber string
	NumParts  int
	SetURL    string
}

// Part 描述目录中的一个零件条目。
type Part struct {
	PartNum    string `json:"part_num"`
	PartImgURL string `json:"part_img_url"`
}

// Client defines the interface for the parts/sets catalog API.
type Client interface {
	// GetSet 查询套装信息。套装不存在时返回 ErrNotFound。
	GetSet(ctx context.Context, setNumber string) (*SetInfo, error)
	// GetPartsByIDs 按 Rebrickable 零件号批量查询，返回 零件号 -> 图片URL 映射。
	// 未命中的零件号不会出现在结果中。
	GetPartsByIDs(ctx context.Context, ids []string) (map[string]string, error)
	// GetPartByBricklinkID 按 Bricklink 零件号查询，取第一个匹配结果。
	// 无匹配时返回 ErrNotFound。
	GetPartByBricklinkID(ctx context.Context, bricklinkID string) (*Part, error)
}

type httpClient struct {
	cfg    config.RebrickableConfig
	client *http.Client
}

// NewClient creates a new catalog client from the given config.
func NewClient(cfg config.RebrickableConfig) Client {
	return &httpClient{
		cfg:    cfg,
		client: &http.Client{},
	}
}

// setResponse 对应 GET /sets/{number}-1/ 的响应体。
type setResponse struct {
	NumParts int    `json:"num_parts"`
	SetURL   string `json:"set_url"`
}

// partsResponse 对应 GET /parts/ 的响应体。
type partsResponse struct {
	Results []Part `json:"results"`
}

// GetSet 查询套装的官方零件数与链接。
func (c *httpClient) GetSet(ctx context.Context, setNumber string) (*SetInfo, error) {
	// 目录约定：套装号后附加 "-1" 版本后缀
	endpoint := fmt.Sprintf("%s/sets/%s-1/", c.cfg.BaseURL, url.PathEscape(setNumber))

	var resp setResponse
	if err := c.getJSON(ctx, endpoint, &resp); err != nil {
		return nil, err
	}

	return &SetInfo{
		SetNumber: setNumber,
		NumParts:  resp.NumParts,
		SetURL:    resp.SetURL,
	}, nil
}

// GetPartsByIDs 批量查询零件图片。
func (c *httpClient) GetPartsByIDs(ctx context.Context, ids []string) (map[string]string, error) {
	images := make(map[string]string, len(ids))
	if len(ids) == 0 {
		return images, nil
	}

	endpoint := fmt.Sprintf("%s/parts/?part_nums=%s", c.cfg.BaseURL, url.QueryEscape(strings.Join(ids, ",")))

	var resp partsResponse
	if err := c.getJSON(ctx, endpoint, &resp); err != nil {
		// 批量查询对 404 同样按"全部未命中"处理
		if errors.Is(err, ErrNotFound) {
			return images, nil
		}
		return nil, err
	}

	for _, part := range resp.Results {
		images[part.PartNum] = part.PartImgURL
	}
	return images, nil
}

// GetPartByBricklinkID 按 Bricklink 零件号查询单个零件。
func (c *httpClient) GetPartByBricklinkID(ctx context.Context, bricklinkID string) (*Part, error) {
	endpoint := fmt.Sprintf("%s/parts/?bricklink_id=%s", c.cfg.BaseURL, url.QueryEscape(bricklinkID))

	var resp partsResponse
	if err := c.getJSON(ctx, endpoint, &resp); err != nil {
		return nil, err
	}
	if len(resp.Results) == 0 {
		return nil, ErrNotFound
	}
	return &resp.Results[0], nil
}

// getJSON 执行一次带认证头的 GET 请求并解析 JSON 响应。
// 404 返回 ErrNotFound；其它非 2xx 状态包装为 ErrCatalogUnavailable。
func (c *httpClient) getJSON(ctx context.Context, endpoint string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create catalog request: %w", err)
	}
	// Rebrickable 使用 "key" 而不是 "Bearer" 作为认证方案
	req.Header.Set("Authorization", "key "+c.cfg.APIKey)

	resp, err := c.client.Do(req)
	if err != nil {
		log.Errorf("[RebrickableClient] 调用目录 API 失败, endpoint: %s, error: %v", endpoint, err)
		return fmt.Errorf("%w: %v", ErrCatalogUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		log.Errorf("[RebrickableClient] 目录 API 返回异常状态码: %s, endpoint: %s", resp.Status, endpoint)
		return fmt.Errorf("%w: status %s", ErrCatalogUnavailable, resp.Status)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode catalog response: %w", err)
	}
	return nil
}
