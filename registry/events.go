package registry

import "time"

// EventType 注册表生命周期事件类型
type EventType string

const (
	EventModelCreated EventType = "model_created"
	EventModelUpdated EventType = "model_updated"
	EventModelFitted  EventType = "model_fitted"
	EventModelScored  EventType = "model_scored"
	EventModelDeleted EventType = "model_deleted"
)

// Event 注册表生命周期事件
type Event struct {
	Type      EventType `json:"type"`
	ModelID   int       `json:"model_id"`
	ModelName string    `json:"model_name"`
	TaskType  TaskType  `json:"task_type"`
	Timestamp time.Time `json:"timestamp"`
}

// Publisher receives lifecycle events. Delivery is best-effort and must
// not block registry operations.
type Publisher interface {
	Publish(Event)
}
