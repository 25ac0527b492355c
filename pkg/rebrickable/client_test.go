package rebrickable

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"rebuilder-go/internal/config"
)

func newTestClient(handler http.HandlerFunc) (Client, *httptest.Server) {
	srv := httptest.NewServer(handler)
	client := NewClient(config.RebrickableConfig{
		BaseURL: srv.URL,
		APIKey:  "test-key",
	})
	return client, srv
}

func TestGetSet(t *testing.T) {
	var gotPath, gotAuth string
	client, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`{"num_parts": 3096, "set_url": "https://rebrickable.com/sets/10030-1/"}`))
	})
	defer srv.Close()

	info, err := client.GetSet(context.Background(), "10030")
	if err != nil {
		t.Fatalf("GetSet 返回错误: %v", err)
	}
	// 套装号后附加 "-1" 版本后缀
	if gotPath != "/sets/10030-1/" {
		t.Errorf("请求路径 = %q, 期望 %q", gotPath, "/sets/10030-1/")
	}
	// Rebrickable 使用 "key" 认证方案
	if gotAuth != "key test-key" {
		t.Errorf("Authorization = %q, 期望 %q", gotAuth, "key test-key")
	}
	if info.NumParts != 3096 || info.SetNumber != "10030" {
		t.Errorf("GetSet 结果错误: %+v", info)
	}
}

func TestGetSetNotFound(t *testing.T) {
	client, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	defer srv.Close()

	_, err := client.GetSet(context.Background(), "99999")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("404 应映射为 ErrNotFound, 实际: %v", err)
	}
}

func TestGetSetServerError(t *testing.T) {
	client, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	defer srv.Close()

	_, err := client.GetSet(context.Background(), "10030")
	if !errors.Is(err, ErrCatalogUnavailable) {
		t.Fatalf("非 404 异常应映射为 ErrCatalogUnavailable, 实际: %v", err)
	}
}

func TestGetPartsByIDs(t *testing.T) {
	var gotQuery string
	client, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Write([]byte(`{"results": [
			{"part_num": "3001", "part_img_url": "http://img/3001.png"},
			{"part_num": "3002", "part_img_url": "http://img/3002.png"}
		]}`))
	})
	defer srv.Close()

	images, err := client.GetPartsByIDs(context.Background(), []string{"3001", "3002"})
	if err != nil {
		t.Fatalf("GetPartsByIDs 返回错误: %v", err)
	}
	if gotQuery != "part_nums=3001%2C3002" {
		t.Errorf("查询参数 = %q, 期望逗号分隔的零件号列表", gotQuery)
	}
	if images["3001"] != "http://img/3001.png" || images["3002"] != "http://img/3002.png" {
		t.Errorf("批量查询结果错误: %v", images)
	}
}

func TestGetPartsByIDsNotFoundMeansEmpty(t *testing.T) {
	client, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	defer srv.Close()

	// 批量查询的 404 按"全部未命中"处理，不是错误
	images, err := client.GetPartsByIDs(context.Background(), []string{"3001"})
	if err != nil {
		t.Fatalf("批量查询 404 不应返回错误, 实际: %v", err)
	}
	if len(images) != 0 {
		t.Errorf("结果应为空, 实际: %v", images)
	}
}

func TestGetPartsByIDsEmptyInput(t *testing.T) {
	called := false
	client, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		called = true
	})
	defer srv.Close()

	images, err := client.GetPartsByIDs(context.Background(), nil)
	if err != nil {
		t.Fatalf("空输入不应返回错误: %v", err)
	}
	if len(images) != 0 || called {
		t.Error("空输入不应发起网络请求")
	}
}

func TestGetPartByBricklinkID(t *testing.T) {
	var gotQuery string
	client, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Write([]byte(`{"results": [
			{"part_num": "973pb0001", "part_img_url": "http://img/973.png"},
			{"part_num": "973pb0002", "part_img_url": "http://img/other.png"}
		]}`))
	})
	defer srv.Close()

	part, err := client.GetPartByBricklinkID(context.Background(), "973pb1")
	if err != nil {
		t.Fatalf("GetPartByBricklinkID 返回错误: %v", err)
	}
	if gotQuery != "bricklink_id=973pb1" {
		t.Errorf("查询参数 = %q", gotQuery)
	}
	// 取第一个匹配结果
	if part.PartNum != "973pb0001" {
		t.Errorf("PartNum = %q, 期望第一个结果", part.PartNum)
	}
}

func TestGetPartByBricklinkIDNoResults(t *testing.T) {
	client, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results": []}`))
	})
	defer srv.Close()

	_, err := client.GetPartByBricklinkID(context.Background(), "nonexistent")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("空结果应映射为 ErrNotFound, 实际: %v", err)
	}
}
