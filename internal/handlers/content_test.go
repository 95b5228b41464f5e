package handlers

import (
	"net/http"

	"github.com/carecircle/backend/internal/dto"
	"github.com/carecircle/backend/internal/models"
	"github.com/carecircle/backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (suite *HandlersTestSuite) TestRegisterThenLogin() {
	t := suite.T()

	w := suite.do(http.MethodPost, "/api/v1/auth/register", map[string]interface{}{
		"username":  "newcomer",
		"email":     "Newcomer@Example.com",
		"password":  "secret123",
		"firstName": "New",
		"lastName":  "Comer",
		"role":      "doctor",
	}, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	body := decode(t, w)
	assert.NotEmpty(t, body["token"])
	assert.NotEmpty(t, body["refreshToken"])
	user := object(t, body, "user")
	assert.Equal(t, "newcomer@example.com", user["email"])
	assert.Equal(t, "pending", object(t, user, "doctorInfo")["approvalStatus"])

	w = suite.do(http.MethodPost, "/api/v1/auth/login", map[string]string{
		"email": "newcomer@example.com", "password": "secret123",
	}, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = suite.do(http.MethodPost, "/api/v1/auth/login", map[string]string{
		"email": "newcomer@example.com", "password": "wrong-password",
	}, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func (suite *HandlersTestSuite) TestCreatePostRequiresAuthentication() {
	w := suite.do(http.MethodPost, "/api/v1/posts", map[string]string{"title": "x"}, nil)
	assert.Equal(suite.T(), http.StatusUnauthorized, w.Code)
}

func (suite *HandlersTestSuite) TestAnonymousPostMasksAuthorForNonAdmins() {
	t := suite.T()

	w := suite.do(http.MethodPost, "/api/v1/posts", map[string]interface{}{
		"title":       "Living with type 2",
		"content":     "What worked for me",
		"category":    "diabetes",
		"isAnonymous": true,
	}, suite.patient)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	postID := object(t, decode(t, w), "post")["id"].(string)

	w = suite.do(http.MethodGet, "/api/v1/posts/"+postID, nil, suite.other)
	require.Equal(t, http.StatusOK, w.Code)
	author := object(t, object(t, decode(t, w), "post"), "author")
	assert.Equal(t, dto.AnonymousName, author["username"])
	assert.Nil(t, author["id"])

	w = suite.do(http.MethodGet, "/api/v1/posts/"+postID, nil, suite.admin)
	require.Equal(t, http.StatusOK, w.Code)
	author = object(t, object(t, decode(t, w), "post"), "author")
	assert.Equal(t, "patient", author["username"])

	// anonymous posts stay out of the public per-user listing
	w = suite.do(http.MethodGet, "/api/v1/posts/user/"+suite.patient.ID, nil, suite.other)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, list(t, decode(t, w), "posts"))
}

func (suite *HandlersTestSuite) TestMedicalAdviceRequiresApprovedDoctor() {
	t := suite.T()
	req := map[string]interface{}{
		"title":         "Dosage notes",
		"content":       "Talk to your pharmacist",
		"category":      "other",
		"medicalAdvice": true,
	}

	w := suite.do(http.MethodPost, "/api/v1/posts", req, suite.patient)
	assert.Equal(t, http.StatusForbidden, w.Code)

	pending := testutil.CreateUser(t, suite.db, "pendingdoc", models.RoleDoctor)
	w = suite.do(http.MethodPost, "/api/v1/posts", req, pending)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "APPROVAL_REQUIRED", decode(t, w)["code"])

	w = suite.do(http.MethodPost, "/api/v1/posts", req, suite.doctor)
	assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())
}

func (suite *HandlersTestSuite) TestLikeAndDislikeAreExclusive() {
	t := suite.T()
	post := testutil.CreatePost(t, suite.db, suite.patient, "Reactions")

	w := suite.do(http.MethodPost, "/api/v1/posts/"+post.ID+"/like", nil, suite.other)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode(t, w)
	assert.Equal(t, true, body["isLiked"])
	assert.Equal(t, float64(1), body["likeCount"])

	w = suite.do(http.MethodPost, "/api/v1/posts/"+post.ID+"/dislike", nil, suite.other)
	require.Equal(t, http.StatusOK, w.Code)
	body = decode(t, w)
	assert.Equal(t, false, body["isLiked"])
	assert.Equal(t, true, body["isDisliked"])
	assert.Equal(t, float64(0), body["likeCount"])
	assert.Equal(t, float64(1), body["dislikeCount"])

	w = suite.do(http.MethodGet, "/api/v1/posts/"+post.ID, nil, suite.other)
	require.Equal(t, http.StatusOK, w.Code)
	got := object(t, decode(t, w), "post")
	assert.Equal(t, true, got["isDisliked"])
	assert.Equal(t, float64(1), got["views"])
}

func (suite *HandlersTestSuite) TestReportTwiceConflicts() {
	t := suite.T()
	post := testutil.CreatePost(t, suite.db, suite.patient, "Reported")
	body := map[string]string{"reason": "spam"}

	w := suite.do(http.MethodPost, "/api/v1/posts/"+post.ID+"/report", body, suite.other)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = suite.do(http.MethodPost, "/api/v1/posts/"+post.ID+"/report", body, suite.other)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = suite.do(http.MethodGet, "/api/v1/admin/reported", nil, suite.admin)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, list(t, decode(t, w), "posts"), 1)
}

func (suite *HandlersTestSuite) TestDeletePostRemovesCommentThread() {
	t := suite.T()
	post := testutil.CreatePost(t, suite.db, suite.patient, "Short lived")

	w := suite.do(http.MethodPost, "/api/v1/comments/"+post.ID, map[string]interface{}{
		"content": "Thanks for sharing", "postType": "Post",
	}, suite.other)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	commentID := object(t, decode(t, w), "comment")["id"].(string)

	w = suite.do(http.MethodPost, "/api/v1/comments/"+commentID+"/reply", map[string]string{"content": "Anytime"}, suite.patient)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = suite.do(http.MethodGet, "/api/v1/comments/"+post.ID+"?postType=Post", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	roots := list(t, decode(t, w), "comments")
	require.Len(t, roots, 1)
	assert.Len(t, roots[0].(map[string]interface{})["replies"], 1)

	w = suite.do(http.MethodDelete, "/api/v1/posts/"+post.ID, nil, suite.other)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = suite.do(http.MethodDelete, "/api/v1/posts/"+post.ID, nil, suite.patient)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var remaining int64
	require.NoError(t, suite.db.Model(&models.Comment{}).Count(&remaining).Error)
	assert.Zero(t, remaining)
}

func (suite *HandlersTestSuite) TestBlogCreateAndSlugLookup() {
	t := suite.T()
	req := map[string]interface{}{
		"title":    "Managing Asthma",
		"content":  "Keep an inhaler close.",
		"category": "health-tips",
	}

	w := suite.do(http.MethodPost, "/api/v1/blogs", req, suite.patient)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = suite.do(http.MethodPost, "/api/v1/blogs", req, suite.doctor)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "managing-asthma", object(t, decode(t, w), "blog")["slug"])

	w = suite.do(http.MethodPost, "/api/v1/blogs", req, suite.doctor)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "managing-asthma-1", object(t, decode(t, w), "blog")["slug"])

	w = suite.do(http.MethodGet, "/api/v1/blogs/slug/managing-asthma", nil, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Managing Asthma", object(t, decode(t, w), "blog")["title"])
}
