// Package repository 定义了与数据库进行数据交换的接口和实现。
package repository

import (
	"strconv"

	"rebuilder-go/internal/model"

	"gorm.io/gorm"
)

// SubmissionRepository 接口定义了投稿记录的持久化操作。
type SubmissionRepository interface {
	// Create 创建投稿记录并回填生成的 SubmissionID（两次写入）。
	Create(record *model.Submission) error
	FindBySubmissionID(submissionID string) (*model.Submission, error)
	// FindAll 按创建时间倒序返回所有投稿记录。
	FindAll() ([]model.Submission, error)
	Delete(record *model.Submission) error
}

// submissionRepository 是 SubmissionRepository 接口的 GORM 实现。
type submissionRepository struct {
	db *gorm.DB
}

// NewSubmissionRepository 创建一个新的 SubmissionRepository 实例。
func NewSubmissionRepository(db *gorm.DB) SubmissionRepository {
	return &submissionRepository{db: db}
}

// Create 先插入记录，再将生成的主键以字符串形式回填到 SubmissionID 字段。
// 与文档库"先建文档再写回文档 ID"的约定一致，因此是两次网络写入而非单次原子写。
func (r *submissionRepository) Create(record *model.Submission) error {
	if err := r.db.Create(record).Error; err != nil {
		return err
	}

	record.SubmissionID = strconv.FormatUint(uint64(record.ID), 10)
	return r.db.Model(record).Update("submission_id", record.SubmissionID).Error
}

// FindBySubmissionID 根据回填的记录标识查找投稿。
func (r *submissionRepository) FindBySubmissionID(submissionID string) (*model.Submission, error) {
	var record model.Submission
	if err := r.db.Where("submission_id = ?", submissionID).First(&record).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

// FindAll 按创建时间倒序返回所有投稿记录。
func (r *submissionRepository) FindAll() ([]model.Submission, error) {
	var records []model.Submission
	err := r.db.Order("created_at desc").Find(&records).Error
	return records, err
}

// Delete 删除一条投稿记录。
func (r *submissionRepository) Delete(record *model.Submission) error {
	return r.db.Delete(record).Error
}
