// Package tasks defines the structure for tasks that are sent to Kafka.
package tasks

// 投稿生命周期事件动作。
const (
	ActionCreated = "created"
	ActionDeleted = "deleted"
)

// SubmissionEventTask represents a submission lifecycle event consumed by the
// search index pipeline.
type SubmissionEventTask struct {
	Action          string `json:"action"`
	SubmissionID    string `json:"submission_id"`
	Username        string `json:"username"`
	Title           string `json:"title"`
	Category        string `json:"category"`
	Description     string `json:"description"`
	SourcePartCount int    `json:"source_part_count"`
	ModelPartCount  int    `json:"model_part_count"`
	CreatedAt       int64  `json:"created_at"`
}
