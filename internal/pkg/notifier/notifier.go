package notifier

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Notification kinds the billing engine emits.
const (
	KindTrialEnding     = "trial_ending"
	KindInvoiceUpcoming = "invoice_upcoming"
)

const (
	queueKey      = "notify_queue"
	messageTTLKey = "notify_msg:"
	messageTTL    = 24 * time.Hour
)

// Notifier delivers best-effort user notifications. Callers treat failures
// as log-and-drop; a notification must never block billing correctness.
type Notifier interface {
	Notify(ctx context.Context, kind string, userID uint, payload map[string]interface{}) error
}

// Message is the wire shape pushed onto the notification queue. The worker
// consuming the queue owns rendering and delivery.
type Message struct {
	ID        string                 `json:"id"`
	Kind      string                 `json:"kind"`
	UserID    uint                   `json:"user_id"`
	Payload   map[string]interface{} `json:"payload,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
}

// QueueNotifier enqueues messages onto a redis list for the notification
// worker.
type QueueNotifier struct {
	client *redis.Client
}

func NewQueueNotifier(client *redis.Client) *QueueNotifier {
	return &QueueNotifier{client: client}
}

func (n *QueueNotifier) Notify(ctx context.Context, kind string, userID uint, payload map[string]interface{}) error {
	msg := Message{
		ID:        uuid.NewString(),
		Kind:      kind,
		UserID:    userID,
		Payload:   payload,
		CreatedAt: time.Now(),
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	pipe := n.client.TxPipeline()
	pipe.Set(ctx, messageTTLKey+msg.ID, data, messageTTL)
	pipe.LPush(ctx, queueKey, msg.ID)
	if _, err := pipe.Exec(ctx); err != nil {
		return err
	}
	log.Infof("[Notifier] Enqueued %s notification %s for user %d", kind, msg.ID, userID)
	return nil
}

// LogNotifier only logs the intent. Used in tests and when no queue is
// configured.
type LogNotifier struct{}

func (LogNotifier) Notify(_ context.Context, kind string, userID uint, _ map[string]interface{}) error {
	log.Infof("[Notifier] %s notification for user %d (log only)", kind, userID)
	return nil
}
