package queue

import (
	"encoding/json"

	"github.com/dujiao-next/storefront/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskWishlistToggle 收藏切换同步任务
	TaskWishlistToggle = constants.TaskWishlistToggle
)

// WishlistTogglePayload 收藏切换任务载荷
type WishlistTogglePayload struct {
	Token     string `json:"token"`
	ProductID uint   `json:"product_id"`
}

// NewWishlistToggleTask 创建收藏切换任务
func NewWishlistToggleTask(payload WishlistTogglePayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskWishlistToggle, body), nil
}

// ParseWishlistTogglePayload 解析收藏切换任务载荷
func ParseWishlistTogglePayload(task *asynq.Task) (WishlistTogglePayload, error) {
	var payload WishlistTogglePayload
	if task == nil {
		return payload, nil
	}
	err := json.Unmarshal(task.Payload(), &payload)
	return payload, err
}
