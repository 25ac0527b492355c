package service

import (
	"context"
	"sync"

	"rebuilder-go/pkg/rebrickable"
)

// fakeCatalog 是 rebrickable.Client 的内存实现，记录所有调用。
type fakeCatalog struct {
	mu sync.Mutex

	sets      map[string]rebrickable.SetInfo
	batch     map[string]string
	bricklink map[string]rebrickable.Part

	setErr       map[string]error
	batchErr     error
	bricklinkErr map[string]error

	setCalls       []string
	batchCalls     int
	bricklinkCalls []string
}

func testPart(partNum, imgURL string) rebrickable.Part {
	return rebrickable.Part{PartNum: partNum, PartImgURL: imgURL}
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{
		sets:         make(map[string]rebrickable.SetInfo),
		batch:        make(map[string]string),
		bricklink:    make(map[string]rebrickable.Part),
		setErr:       make(map[string]error),
		bricklinkErr: make(map[string]error),
	}
}

func (f *fakeCatalog) GetSet(ctx context.Context, setNumber string) (*rebrickable.SetInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.setCalls = append(f.setCalls, setNumber)

	if err, ok := f.setErr[setNumber]; ok {
		return nil, err
	}
	if info, ok := f.sets[setNumber]; ok {
		return &info, nil
	}
	return nil, rebrickable.ErrNotFound
}

func (f *fakeCatalog) GetPartsByIDs(ctx context.Context, ids []string) (map[string]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.batchCalls++

	if f.batchErr != nil {
		return nil, f.batchErr
	}
	images := make(map[string]string)
	for _, id := range ids {
		if url, ok := f.batch[id]; ok {
			images[id] = url
		}
	}
	return images, nil
}

func (f *fakeCatalog) GetPartByBricklinkID(ctx context.Context, bricklinkID string) (*rebrickable.Part, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bricklinkCalls = append(f.bricklinkCalls, bricklinkID)

	if err, ok := f.bricklinkErr[bricklinkID]; ok {
		return nil, err
	}
	if part, ok := f.bricklink[bricklinkID]; ok {
		return &part, nil
	}
	return nil, rebrickable.ErrNotFound
}
