// Package backend provides the CareCircle API server.

// This package contains the main application entry point. The actual API
// documentation is organized into subpackages:

// - internal/handlers: HTTP request handlers for all API endpoints
// - internal/models: Data models and database schemas
// - internal/auth: Authentication and authorization services
// - internal/comments: Threaded comments and reactions
// - internal/events: Event registration and approval
// - internal/moderation: Reports, content approval and doctor approval
// - internal/messaging: Direct conversations
// - internal/notifications: Notification fanout workers
// - internal/websocket: WebSocket server for real-time updates
// - internal/storage: Image storage (S3)
// - internal/database: Database connection and migrations
// - internal/middleware: HTTP middleware (auth, rate limiting, metrics, tracing)
// - internal/seed: Development data
// See the individual package documentation for detailed API reference.
package backend
