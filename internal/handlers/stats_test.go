package handlers

import (
	"net/http"

	"github.com/carecircle/backend/internal/models"
	"github.com/carecircle/backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (suite *HandlersTestSuite) TestPublicStatsAreCached() {
	t := suite.T()
	testutil.CreatePost(t, suite.db, suite.patient, "Visible")

	w := suite.do(http.MethodGet, "/api/v1/stats/public", nil, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	stats := object(t, decode(t, w), "stats")
	assert.Equal(t, float64(4), stats["users"])
	assert.Equal(t, float64(1), stats["doctors"])
	assert.Equal(t, float64(1), stats["posts"])

	testutil.CreateUser(t, suite.db, "latecomer", models.RolePatient)

	w = suite.do(http.MethodGet, "/api/v1/stats/public", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(4), object(t, decode(t, w), "stats")["users"])
}

func (suite *HandlersTestSuite) TestAdminRoutesRequireAdmin() {
	t := suite.T()
	for _, path := range []string{
		"/api/v1/admin/dashboard",
		"/api/v1/admin/reported",
		"/api/v1/admin/pending",
		"/api/v1/admin/stats/categories",
		"/api/v1/users",
	} {
		w := suite.do(http.MethodGet, path, nil, suite.doctor)
		assert.Equal(t, http.StatusForbidden, w.Code, path)

		w = suite.do(http.MethodGet, path, nil, suite.admin)
		assert.Equal(t, http.StatusOK, w.Code, path)
	}
}
