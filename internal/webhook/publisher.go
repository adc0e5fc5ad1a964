package webhook

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/trafficwatch/incident_geo_system/internal/models"
)

const (
	webhookQueueKey = "webhook_events"
)

// Типы событий, доставляемых внешним интеграциям
const (
	EventIncidentCreated  = "incident.created"
	EventIncidentVerified = "incident.verified"
)

// WebhookEvent - структура для данных вебхука
type WebhookEvent struct {
	Event     string           `json:"event"`
	Timestamp time.Time        `json:"timestamp"`
	Incident  *models.Incident `json:"incident"`
}

// NewIncidentEvent собирает событие вебхука по инциденту
func NewIncidentEvent(event string, incident *models.Incident) WebhookEvent {
	return WebhookEvent{
		Event:     event,
		Timestamp: time.Now().UTC(),
		Incident:  incident,
	}
}

// WebhookPublisher - интерфейс для публикации вебхуков
type WebhookPublisher interface {
	Publish(ctx context.Context, event WebhookEvent) error
}

// RedisWebhookPublisher - реализация WebhookPublisher, использующая Redis
type RedisWebhookPublisher struct {
	redisClient *redis.Client
}

// NewRedisWebhookPublisher создает новый RedisWebhookPublisher
func NewRedisWebhookPublisher(client *redis.Client) *RedisWebhookPublisher {
	return &RedisWebhookPublisher{
		redisClient: client,
	}
}

// Publish публикует событие вебхука в очередь Redis
func (p *RedisWebhookPublisher) Publish(ctx context.Context, event WebhookEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal webhook event: %w", err)
	}

	// Используем LPUSH для добавления события в левую часть списка (очереди)
	if err := p.redisClient.LPush(ctx, webhookQueueKey, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish webhook event to Redis: %w", err)
	}
	return nil
}
