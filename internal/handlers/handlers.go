package handlers

import (
	"github.com/carecircle/backend/internal/auth"
	"github.com/carecircle/backend/internal/cache"
	"github.com/carecircle/backend/internal/comments"
	"github.com/carecircle/backend/internal/events"
	"github.com/carecircle/backend/internal/messaging"
	"github.com/carecircle/backend/internal/moderation"
	"github.com/carecircle/backend/internal/notifications"
	"github.com/carecircle/backend/internal/storage"
	"gorm.io/gorm"
)

// Handlers contains all HTTP handlers for the API
type Handlers struct {
	db            *gorm.DB
	auth          auth.AuthServiceInterface
	moderation    *moderation.Service
	comments      *comments.Service
	events        *events.Service
	notifications *notifications.Service
	notifier      notifications.Notifier
	messaging     *messaging.Service
	uploader      storage.ImageUploader
	cache         cache.Store
}

// Deps are the collaborators the handlers need. Notifier, Uploader and
// Cache are optional.
type Deps struct {
	DB       *gorm.DB
	Auth     auth.AuthServiceInterface
	Notifier notifications.Notifier
	Emitter  notifications.Emitter
	Uploader storage.ImageUploader
	Cache    cache.Store
}

// NewHandlers builds the domain services over deps.DB
func NewHandlers(deps Deps) *Handlers {
	notifier := deps.Notifier
	return &Handlers{
		db:            deps.DB,
		auth:          deps.Auth,
		moderation:    moderation.NewService(deps.DB, notifier),
		comments:      comments.NewService(deps.DB, notifier),
		events:        events.NewService(deps.DB),
		notifications: notifications.NewService(deps.DB),
		notifier:      notifier,
		messaging:     messaging.NewService(deps.DB, deps.Emitter),
		uploader:      deps.Uploader,
		cache:         deps.Cache,
	}
}

// Messaging exposes the messaging service so the websocket chat handler
// shares it with the REST endpoints
func (h *Handlers) Messaging() *messaging.Service {
	return h.messaging
}
