package handlers

import (
	"net/http"

	"github.com/carecircle/backend/internal/models"
	"github.com/carecircle/backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (suite *HandlersTestSuite) TestFollowToggle() {
	t := suite.T()
	path := "/api/v1/users/" + suite.doctor.ID + "/follow"

	w := suite.do(http.MethodPost, path, nil, suite.patient)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode(t, w)
	assert.Equal(t, true, body["isFollowing"])
	assert.Equal(t, float64(1), body["followerCount"])

	w = suite.do(http.MethodGet, "/api/v1/users/"+suite.doctor.ID, nil, suite.patient)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decode(t, w)["isFollowing"])

	w = suite.do(http.MethodPost, path, nil, suite.patient)
	require.Equal(t, http.StatusOK, w.Code)
	body = decode(t, w)
	assert.Equal(t, false, body["isFollowing"])
	assert.Equal(t, float64(0), body["followerCount"])

	var follower models.User
	require.NoError(t, suite.db.First(&follower, "id = ?", suite.patient.ID).Error)
	assert.Zero(t, follower.FollowingCount)

	w = suite.do(http.MethodPost, "/api/v1/users/"+suite.patient.ID+"/follow", nil, suite.patient)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func (suite *HandlersTestSuite) TestDeleteUserKeepsAuthoredContent() {
	t := suite.T()
	post := testutil.CreatePost(t, suite.db, suite.patient, "Still here")

	w := suite.do(http.MethodPost, "/api/v1/messages/send", map[string]string{"receiverId": suite.other.ID, "content": "hi"}, suite.patient)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = suite.do(http.MethodDelete, "/api/v1/users/"+suite.patient.ID, nil, suite.admin)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var users int64
	require.NoError(t, suite.db.Model(&models.User{}).Where("id = ?", suite.patient.ID).Count(&users).Error)
	assert.Zero(t, users)

	w = suite.do(http.MethodGet, "/api/v1/posts/"+post.ID, nil, suite.other)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Still here", object(t, decode(t, w), "post")["title"])

	var messages int64
	require.NoError(t, suite.db.Model(&models.Message{}).Where("sender_id = ?", suite.patient.ID).Count(&messages).Error)
	assert.Equal(t, int64(1), messages)
}

func (suite *HandlersTestSuite) TestProfileHidesPrivateFieldsFromOthers() {
	t := suite.T()

	w := suite.do(http.MethodGet, "/api/v1/users/"+suite.patient.ID, nil, suite.other)
	require.Equal(t, http.StatusOK, w.Code)
	_, hasEmail := object(t, decode(t, w), "user")["email"]
	assert.False(t, hasEmail)

	w = suite.do(http.MethodGet, "/api/v1/users/"+suite.patient.ID, nil, suite.patient)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, suite.patient.Email, object(t, decode(t, w), "user")["email"])
}

func (suite *HandlersTestSuite) TestUpdateUserSelfOrAdminOnly() {
	t := suite.T()
	path := "/api/v1/users/" + suite.patient.ID

	w := suite.do(http.MethodPut, path, map[string]string{"bio": "hello"}, suite.other)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = suite.do(http.MethodPut, path, map[string]string{"bio": "hello", "firstName": "Pat"}, suite.patient)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	user := object(t, decode(t, w), "user")
	assert.Equal(t, "hello", user["bio"])
	assert.Equal(t, "Pat", user["firstName"])
	assert.Equal(t, "patient", user["role"])
}

func (suite *HandlersTestSuite) TestExpertsListOnlyApprovedDoctors() {
	t := suite.T()
	testutil.CreateUser(t, suite.db, "waitingdoc", models.RoleDoctor)

	w := suite.do(http.MethodGet, "/api/v1/users/experts", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	users := list(t, decode(t, w), "users")
	require.Len(t, users, 1)
	assert.Equal(t, "drhouse", users[0].(map[string]interface{})["username"])

	w = suite.do(http.MethodGet, "/api/v1/users/experts/waitingdoc", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func (suite *HandlersTestSuite) TestDoctorApprovalFlow() {
	t := suite.T()
	doc := testutil.CreateUser(t, suite.db, "newdoc", models.RoleDoctor)

	w := suite.do(http.MethodGet, "/api/v1/users/doctor-status", nil, doc)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pending", decode(t, w)["approvalStatus"])

	w = suite.do(http.MethodGet, "/api/v1/admin/doctors/pending", nil, suite.patient)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = suite.do(http.MethodGet, "/api/v1/admin/doctors/pending", nil, suite.admin)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), decode(t, w)["count"])

	w = suite.do(http.MethodPut, "/api/v1/admin/doctors/"+doc.ID+"/approve", nil, suite.admin)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = suite.do(http.MethodGet, "/api/v1/users/doctor-status", nil, doc)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "approved", body["approvalStatus"])
	assert.Equal(t, true, body["canPublish"])
}

func (suite *HandlersTestSuite) TestAdminRoleChangeResetsDoctorInfo() {
	t := suite.T()

	w := suite.do(http.MethodPut, "/api/v1/admin/users/"+suite.patient.ID, map[string]string{"role": "doctor"}, suite.admin)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	user := object(t, decode(t, w), "user")
	assert.Equal(t, "doctor", user["role"])
	assert.Equal(t, "pending", object(t, user, "doctorInfo")["approvalStatus"])

	w = suite.do(http.MethodPut, "/api/v1/admin/users/"+suite.admin.ID, map[string]bool{"isActive": false}, suite.admin)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func (suite *HandlersTestSuite) TestAdminDashboardCounts() {
	t := suite.T()
	testutil.CreatePost(t, suite.db, suite.patient, "Counted")

	w := suite.do(http.MethodGet, "/api/v1/admin/dashboard", nil, suite.admin)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode(t, w)
	totals := object(t, body, "totals")
	assert.Equal(t, float64(4), totals["users"])
	assert.Equal(t, float64(1), totals["doctors"])
	assert.Equal(t, float64(2), totals["patients"])
	assert.Equal(t, float64(1), totals["posts"])
	assert.Equal(t, float64(1), object(t, body, "last7Days")["posts"])
}

func (suite *HandlersTestSuite) TestAdminApprovalClearsReportedFlag() {
	t := suite.T()
	post := testutil.CreatePost(t, suite.db, suite.patient, "Flagged")

	w := suite.do(http.MethodPost, "/api/v1/posts/"+post.ID+"/report", map[string]string{"reason": "other"}, suite.other)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = suite.do(http.MethodPut, "/api/v1/admin/posts/"+post.ID+"/approve", map[string]bool{"isApproved": false}, suite.admin)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = suite.do(http.MethodGet, "/api/v1/posts/"+post.ID, nil, suite.other)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = suite.do(http.MethodPut, "/api/v1/admin/posts/"+post.ID+"/approve", map[string]bool{"isApproved": true}, suite.admin)
	require.Equal(t, http.StatusOK, w.Code)

	var stored models.Post
	require.NoError(t, suite.db.First(&stored, "id = ?", post.ID).Error)
	assert.True(t, stored.IsApproved)
	assert.False(t, stored.IsReported)
	assert.Equal(t, 1, stored.ReportCount)
}
