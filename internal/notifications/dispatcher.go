// Package notifications persists notification rows and pushes them to the
// recipient's real-time channel from a bounded worker pool, off the request path.
package notifications

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/carecircle/backend/internal/logger"
	"github.com/carecircle/backend/internal/metrics"
	"github.com/carecircle/backend/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// EventNewNotification is the real-time event name pushed to recipients
const EventNewNotification = "new_notification"

// Emitter pushes a named event to every connection of one user
type Emitter interface {
	EmitToUser(userID, event string, payload interface{}) error
}

// Notifier accepts fanout requests. Implementations never report failure to
// the caller.
type Notifier interface {
	Notify(req Request) bool
}

// SenderInfo is pre-populated sender data so the push skips a user lookup
type SenderInfo struct {
	ID             string `json:"id"`
	Username       string `json:"username"`
	FirstName      string `json:"firstName"`
	LastName       string `json:"lastName"`
	ProfilePicture string `json:"profilePicture"`
}

// Request describes one notification to fan out
type Request struct {
	RecipientID string
	SenderID    string
	Type        models.NotificationType
	PostID      *string
	CommentID   *string
	SenderInfo  *SenderInfo
}

// Payload is the body of a new_notification event
type Payload struct {
	ID        string                  `json:"id"`
	Type      models.NotificationType `json:"type"`
	Post      *string                 `json:"post,omitempty"`
	Comment   *string                 `json:"comment,omitempty"`
	Sender    interface{}             `json:"sender"`
	IsRead    bool                    `json:"isRead"`
	CreatedAt time.Time               `json:"createdAt"`
}

// Dispatcher is a fire-and-forget notification queue
type Dispatcher struct {
	db      *gorm.DB
	emitter Emitter
	jobs    chan Request
	workers int

	mu      sync.RWMutex
	closed  bool
	started bool
	wg      sync.WaitGroup

	// inflight counts accepted requests not yet delivered or dropped
	inflightMu sync.Mutex
	inflight   int
	drained    *sync.Cond

	ctx    context.Context
	cancel context.CancelFunc
}

// NewDispatcher creates a dispatcher; emitter may be nil to persist only
func NewDispatcher(db *gorm.DB, emitter Emitter, workers, buffer int) *Dispatcher {
	if workers <= 0 {
		workers = 4
	}
	if buffer <= 0 {
		buffer = 256
	}
	ctx, cancel := context.WithCancel(context.Background())
	d := &Dispatcher{
		db:      db,
		emitter: emitter,
		jobs:    make(chan Request, buffer),
		workers: workers,
		ctx:     ctx,
		cancel:  cancel,
	}
	d.drained = sync.NewCond(&d.inflightMu)
	return d
}

// Start launches the worker goroutines
func (d *Dispatcher) Start() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.started || d.closed {
		return
	}
	d.started = true

	logger.Log.Info("Starting notification dispatcher", zap.Int("workers", d.workers))
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.worker(i)
	}
}

// Stop stops accepting requests, drains the queue, and waits for the workers
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.jobs)
	started := d.started
	d.mu.Unlock()

	if started {
		d.wg.Wait()
	} else {
		for req := range d.jobs {
			d.deliver(req)
		}
	}
	d.cancel()
	logger.Log.Info("Notification dispatcher stopped")
}

// Flush blocks until every request accepted so far has been delivered or
// dropped. It may run concurrently with Notify.
func (d *Dispatcher) Flush() {
	d.inflightMu.Lock()
	defer d.inflightMu.Unlock()
	for d.inflight > 0 {
		d.drained.Wait()
	}
}

func (d *Dispatcher) track(delta int) {
	d.inflightMu.Lock()
	defer d.inflightMu.Unlock()
	d.inflight += delta
	if d.inflight == 0 {
		d.drained.Broadcast()
	}
}

// Notify enqueues req. Self-notifications and requests arriving while the
// queue is full or stopped are dropped and Notify returns false.
func (d *Dispatcher) Notify(req Request) bool {
	if req.RecipientID == "" || req.RecipientID == req.SenderID {
		return false
	}

	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		metrics.RecordNotification(string(req.Type), "dropped")
		return false
	}

	d.track(1)
	select {
	case d.jobs <- req:
		metrics.SetNotificationQueueDepth(len(d.jobs))
		return true
	default:
		d.track(-1)
		metrics.RecordNotification(string(req.Type), "dropped")
		logger.Log.Warn("Notification queue full, dropping notification",
			zap.String("type", string(req.Type)),
			logger.WithUserID(req.RecipientID),
		)
		return false
	}
}

func (d *Dispatcher) worker(id int) {
	defer d.wg.Done()
	for req := range d.jobs {
		metrics.SetNotificationQueueDepth(len(d.jobs))
		d.deliver(req)
	}
	logger.Log.Debug("Notification worker exiting", zap.Int("worker_id", id))
}

// deliver persists and emits one notification. Failures are logged only.
func (d *Dispatcher) deliver(req Request) {
	defer d.track(-1)
	defer func() {
		if r := recover(); r != nil {
			metrics.RecordNotification(string(req.Type), "failed")
			logger.Log.Error("Notification delivery panicked", zap.Any("panic", r))
		}
	}()

	notification, err := d.persist(req)
	if err != nil {
		metrics.RecordNotification(string(req.Type), "failed")
		logger.Log.Error("Failed to persist notification",
			zap.Error(err),
			zap.String("type", string(req.Type)),
			logger.WithUserID(req.RecipientID),
		)
		return
	}

	if d.emitter == nil {
		metrics.RecordNotification(string(req.Type), "persisted")
		return
	}

	if err := d.emitter.EmitToUser(req.RecipientID, EventNewNotification, buildPayload(notification, req)); err != nil {
		metrics.RecordNotification(string(req.Type), "emit_failed")
		logger.Log.Warn("Failed to emit notification",
			zap.Error(err),
			logger.WithUserID(req.RecipientID),
		)
		return
	}
	metrics.RecordNotification(string(req.Type), "delivered")
}

func (d *Dispatcher) persist(req Request) (*models.Notification, error) {
	ctx, cancel := context.WithTimeout(d.ctx, 5*time.Second)
	defer cancel()

	notification := &models.Notification{
		RecipientID: req.RecipientID,
		SenderID:    req.SenderID,
		Type:        req.Type,
		PostID:      req.PostID,
		CommentID:   req.CommentID,
	}
	if err := d.db.WithContext(ctx).Create(notification).Error; err != nil {
		return nil, fmt.Errorf("create notification: %w", err)
	}
	return notification, nil
}

func buildPayload(n *models.Notification, req Request) Payload {
	var sender interface{} = n.SenderID
	if req.SenderInfo != nil {
		sender = req.SenderInfo
	}
	return Payload{
		ID:        n.ID,
		Type:      n.Type,
		Post:      n.PostID,
		Comment:   n.CommentID,
		Sender:    sender,
		IsRead:    n.IsRead,
		CreatedAt: n.CreatedAt,
	}
}

// SenderInfoFor builds SenderInfo from a loaded user
func SenderInfoFor(u *models.User) *SenderInfo {
	if u == nil {
		return nil
	}
	return &SenderInfo{
		ID:             u.ID,
		Username:       u.Username,
		FirstName:      u.FirstName,
		LastName:       u.LastName,
		ProfilePicture: u.ProfilePicture,
	}
}
