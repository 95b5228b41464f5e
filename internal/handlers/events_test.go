package handlers

import (
	"net/http"
	"time"

	"github.com/carecircle/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (suite *HandlersTestSuite) eventBody(capacity int) map[string]interface{} {
	return map[string]interface{}{
		"title":           "Morning yoga",
		"description":     "Gentle flow for beginners",
		"category":        "yoga",
		"instructor":      "Dr. House",
		"date":            time.Now().Add(72 * time.Hour).UTC().Format(time.RFC3339),
		"location":        "Community hall",
		"maxParticipants": capacity,
		"organizer":       "City clinic",
		"organizerType":   "hospital",
	}
}

func (suite *HandlersTestSuite) TestEventApprovalAndRegistration() {
	t := suite.T()

	w := suite.do(http.MethodPost, "/api/v1/events", suite.eventBody(1), suite.patient)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = suite.do(http.MethodPost, "/api/v1/events", suite.eventBody(2), suite.doctor)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	event := object(t, decode(t, w), "event")
	eventID := event["id"].(string)
	assert.Equal(t, "pending", event["status"])

	// pending events are hidden from the public listing and closed for registration
	w = suite.do(http.MethodGet, "/api/v1/events", nil, suite.patient)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, list(t, decode(t, w), "events"))

	w = suite.do(http.MethodGet, "/api/v1/events/"+eventID, nil, suite.patient)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = suite.do(http.MethodPost, "/api/v1/events/"+eventID+"/register", nil, suite.patient)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = suite.do(http.MethodPut, "/api/v1/events/"+eventID+"/approve", map[string]string{"action": "approve"}, suite.doctor)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = suite.do(http.MethodPut, "/api/v1/events/"+eventID+"/approve", map[string]string{"action": "approve"}, suite.admin)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "active", object(t, decode(t, w), "event")["status"])

	w = suite.do(http.MethodPost, "/api/v1/events/"+eventID+"/register", map[string]string{"notes": "first time"}, suite.patient)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	event = object(t, decode(t, w), "event")
	assert.Equal(t, float64(1), event["currentParticipants"])
	assert.Equal(t, false, event["isFull"])

	w = suite.do(http.MethodPost, "/api/v1/events/"+eventID+"/register", nil, suite.patient)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "ALREADY_REGISTERED", decode(t, w)["code"])

	w = suite.do(http.MethodPost, "/api/v1/events/"+eventID+"/register", nil, suite.other)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	event = object(t, decode(t, w), "event")
	assert.Equal(t, float64(2), event["currentParticipants"])
	assert.Equal(t, true, event["isFull"])

	// capacity is checked before the duplicate check
	w = suite.do(http.MethodPost, "/api/v1/events/"+eventID+"/register", nil, suite.patient)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "EVENT_FULL", decode(t, w)["code"])

	w = suite.do(http.MethodPost, "/api/v1/events/"+eventID+"/register", nil, suite.admin)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "EVENT_FULL", decode(t, w)["code"])

	w = suite.do(http.MethodGet, "/api/v1/events/"+eventID, nil, suite.patient)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, object(t, decode(t, w), "event")["isRegistered"])

	w = suite.do(http.MethodGet, "/api/v1/events/"+eventID+"/participants", nil, suite.patient)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = suite.do(http.MethodGet, "/api/v1/events/"+eventID+"/participants", nil, suite.doctor)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, list(t, decode(t, w), "participants"), 2)

	w = suite.do(http.MethodDelete, "/api/v1/events/"+eventID+"/register", nil, suite.patient)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, float64(1), object(t, decode(t, w), "event")["currentParticipants"])

	w = suite.do(http.MethodPost, "/api/v1/events/"+eventID+"/register", nil, suite.admin)
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func (suite *HandlersTestSuite) TestAdminEventIsActiveImmediately() {
	t := suite.T()

	w := suite.do(http.MethodPost, "/api/v1/events", suite.eventBody(10), suite.admin)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "active", object(t, decode(t, w), "event")["status"])

	w = suite.do(http.MethodGet, "/api/v1/events?upcoming=true", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, list(t, decode(t, w), "events"), 1)

	w = suite.do(http.MethodGet, "/api/v1/events/search?q=YOGA", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, list(t, decode(t, w), "events"), 1)
}

func (suite *HandlersTestSuite) TestDeleteEventRemovesDiscussion() {
	t := suite.T()

	w := suite.do(http.MethodPost, "/api/v1/events", suite.eventBody(5), suite.admin)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	eventID := object(t, decode(t, w), "event")["id"].(string)

	w = suite.do(http.MethodPost, "/api/v1/event-posts", map[string]string{
		"eventId": eventID, "title": "Mats?", "content": "Should we bring our own?",
	}, suite.patient)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	postID := object(t, decode(t, w), "post")["id"].(string)

	w = suite.do(http.MethodPost, "/api/v1/event-posts/"+postID+"/like", nil, suite.other)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = suite.do(http.MethodGet, "/api/v1/event-posts/event/"+eventID, nil, suite.other)
	require.Equal(t, http.StatusOK, w.Code)
	posts := list(t, decode(t, w), "posts")
	require.Len(t, posts, 1)
	assert.Equal(t, true, posts[0].(map[string]interface{})["isLiked"])

	w = suite.do(http.MethodPost, "/api/v1/event-posts", map[string]string{
		"eventId": "missing", "title": "x", "content": "y",
	}, suite.patient)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = suite.do(http.MethodDelete, "/api/v1/events/"+eventID, nil, suite.admin)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var posts64, reactions int64
	require.NoError(t, suite.db.Model(&models.EventPost{}).Count(&posts64).Error)
	require.NoError(t, suite.db.Model(&models.Reaction{}).Count(&reactions).Error)
	assert.Zero(t, posts64)
	assert.Zero(t, reactions)
}
