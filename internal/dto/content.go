package dto

import "github.com/carecircle/backend/internal/models"

// Reactions carries the caller's own reaction on an item
type Reactions struct {
	IsLiked    bool `json:"isLiked"`
	IsDisliked bool `json:"isDisliked"`
}

// ReactionsFor reads the caller's reaction kind from a States lookup
func ReactionsFor(states map[string]models.ReactionKind, id string) Reactions {
	kind := states[id]
	return Reactions{IsLiked: kind == models.ReactionLike, IsDisliked: kind == models.ReactionDislike}
}

type PostResponse struct {
	*models.Post
	Author *AuthorSummary `json:"author,omitempty"`
	Reactions
}

func ToPostResponse(p *models.Post, viewer *models.User, r Reactions) *PostResponse {
	return &PostResponse{Post: p, Author: ToAuthor(p.Author, p.IsAnonymous, viewer), Reactions: r}
}

type BlogResponse struct {
	*models.Blog
	Author *AuthorSummary `json:"author,omitempty"`
	Reactions
}

func ToBlogResponse(b *models.Blog, viewer *models.User, r Reactions) *BlogResponse {
	return &BlogResponse{Blog: b, Author: ToAuthor(b.Author, false, viewer), Reactions: r}
}

type EventPostResponse struct {
	*models.EventPost
	Author *AuthorSummary `json:"author,omitempty"`
	Reactions
}

func ToEventPostResponse(p *models.EventPost, viewer *models.User, r Reactions) *EventPostResponse {
	return &EventPostResponse{EventPost: p, Author: ToAuthor(p.Author, false, viewer), Reactions: r}
}

type CommentResponse struct {
	*models.Comment
	Author  *AuthorSummary     `json:"author,omitempty"`
	Replies []*CommentResponse `json:"replies,omitempty"`
	Reactions
}

// ToCommentResponse masks the comment and each of its replies independently
func ToCommentResponse(c *models.Comment, viewer *models.User, states map[string]models.ReactionKind) *CommentResponse {
	resp := &CommentResponse{
		Comment:   c,
		Author:    ToAuthor(c.Author, c.IsAnonymous, viewer),
		Reactions: ReactionsFor(states, c.ID),
	}
	for i := range c.Replies {
		resp.Replies = append(resp.Replies, ToCommentResponse(&c.Replies[i], viewer, states))
	}
	return resp
}

// EventResponse exposes the derived isFull flag
type EventResponse struct {
	*models.Event
	Author       *AuthorSummary `json:"author,omitempty"`
	IsFull       bool           `json:"isFull"`
	IsRegistered *bool          `json:"isRegistered,omitempty"`
}

func ToEventResponse(e *models.Event, viewer *models.User) *EventResponse {
	return &EventResponse{Event: e, Author: ToAuthor(e.Author, false, viewer), IsFull: e.IsFull()}
}

type MessageResponse struct {
	*models.Message
	Sender *AuthorSummary `json:"sender,omitempty"`
}

func ToMessageResponse(m *models.Message) *MessageResponse {
	return &MessageResponse{Message: m, Sender: ToAuthor(m.Sender, false, nil)}
}

type NotificationResponse struct {
	*models.Notification
	Sender *AuthorSummary `json:"sender,omitempty"`
}

func ToNotificationResponse(n *models.Notification) *NotificationResponse {
	return &NotificationResponse{Notification: n, Sender: ToAuthor(n.Sender, false, nil)}
}
