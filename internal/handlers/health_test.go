package handlers

import (
	"net/http"
	"testing"
	"time"

	"github.com/carecircle/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLongestStreak(t *testing.T) {
	day := func(s string) models.DietCompletion {
		ts, err := time.Parse(time.RFC3339, s)
		require.NoError(t, err)
		return models.DietCompletion{CompletedAt: ts}
	}

	assert.Equal(t, 0, longestStreak(nil))
	assert.Equal(t, 1, longestStreak([]models.DietCompletion{day("2026-01-01T10:00:00Z")}))

	history := []models.DietCompletion{
		day("2026-01-05T07:00:00Z"),
		day("2026-01-01T23:00:00Z"),
		day("2026-01-02T01:00:00Z"),
		day("2026-01-02T20:00:00Z"),
		day("2026-01-03T12:00:00Z"),
		day("2026-01-06T12:00:00Z"),
	}
	assert.Equal(t, 3, longestStreak(history))
}

func (suite *HandlersTestSuite) TestDietCompletionOncePerDay() {
	t := suite.T()

	w := suite.do(http.MethodPost, "/api/v1/diets", map[string]interface{}{
		"name": "Low sodium", "duration": 30, "period": "daily",
	}, suite.patient)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	dietID := object(t, decode(t, w), "diet")["id"].(string)

	w = suite.do(http.MethodPost, "/api/v1/diets/"+dietID+"/complete", nil, suite.other)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = suite.do(http.MethodPost, "/api/v1/diets/"+dietID+"/complete", map[string]string{"notes": "easy"}, suite.patient)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, float64(1), object(t, decode(t, w), "diet")["completedCount"])

	w = suite.do(http.MethodPost, "/api/v1/diets/"+dietID+"/complete", nil, suite.patient)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = suite.do(http.MethodPatch, "/api/v1/diets/"+dietID+"/toggle", nil, suite.patient)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, object(t, decode(t, w), "diet")["isActive"])

	w = suite.do(http.MethodGet, "/api/v1/diets/stats", nil, suite.patient)
	require.Equal(t, http.StatusOK, w.Code)
	stats := decode(t, w)
	assert.Equal(t, float64(1), stats["totalDiets"])
	assert.Equal(t, float64(0), stats["activeDiets"])
	assert.Equal(t, float64(1), stats["totalCompletions"])
	assert.Equal(t, float64(1), stats["longestStreak"])
}

func (suite *HandlersTestSuite) TestCustomDietNeedsPeriodLength() {
	w := suite.do(http.MethodPost, "/api/v1/diets", map[string]interface{}{
		"name": "Fasting", "duration": 10, "period": "custom",
	}, suite.patient)
	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)
}

func (suite *HandlersTestSuite) TestExerciseSummaryAndCalendar() {
	t := suite.T()
	entries := []map[string]interface{}{
		{"title": "Breakfast", "type": "income", "calories": 500, "date": "2026-03-10T08:00:00Z", "time": "08:00"},
		{"title": "Run", "type": "expense", "calories": 300, "duration": 30, "date": "2026-03-10T18:00:00Z"},
		{"title": "Swim", "type": "expense", "calories": 200, "date": "2026-03-12T09:00:00Z"},
		{"title": "Walk", "type": "expense", "calories": 100, "date": "2026-04-01T09:00:00Z"},
	}
	for _, e := range entries {
		w := suite.do(http.MethodPost, "/api/v1/exercises", e, suite.patient)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	}

	w := suite.do(http.MethodPost, "/api/v1/exercises", map[string]interface{}{
		"title": "Bad", "type": "income", "calories": 1, "time": "25:00",
	}, suite.patient)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = suite.do(http.MethodGet, "/api/v1/exercises?date=2026-03-10", nil, suite.patient)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode(t, w)
	assert.Len(t, list(t, body, "exercises"), 2)
	summary := object(t, body, "summary")
	assert.Equal(t, float64(500), summary["totalIncome"])
	assert.Equal(t, float64(300), summary["totalExpense"])
	assert.Equal(t, float64(200), summary["net"])

	w = suite.do(http.MethodGet, "/api/v1/exercises?startDate=2026-03-10&endDate=2026-03-12", nil, suite.patient)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, list(t, decode(t, w), "exercises"), 3)

	w = suite.do(http.MethodGet, "/api/v1/exercises/calendar?year=2026&month=3", nil, suite.patient)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	days := list(t, decode(t, w), "days")
	require.Len(t, days, 2)
	first := days[0].(map[string]interface{})
	assert.Equal(t, "2026-03-10", first["date"])
	assert.Equal(t, float64(200), first["net"])
	assert.Equal(t, true, first["hasActivity"])

	w = suite.do(http.MethodGet, "/api/v1/exercises?date=2026-03-10", nil, suite.other)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, list(t, decode(t, w), "exercises"))

	w = suite.do(http.MethodGet, "/api/v1/exercises/calendar?year=2026&month=13", nil, suite.patient)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func (suite *HandlersTestSuite) TestDiseaseLibraryPermissions() {
	t := suite.T()
	body := map[string]interface{}{
		"name":        "Type 2 Diabetes",
		"description": "A chronic condition affecting blood sugar regulation.",
		"category":    "diabetes",
		"severity":    "high",
		"symptoms":    []string{"thirst", " fatigue "},
		"tags":        []string{"metabolic"},
	}

	w := suite.do(http.MethodPost, "/api/v1/diseases", body, suite.patient)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = suite.do(http.MethodPost, "/api/v1/diseases", body, suite.doctor)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	disease := object(t, decode(t, w), "disease")
	assert.Equal(t, []interface{}{"thirst", "fatigue"}, disease["symptoms"])

	w = suite.do(http.MethodPost, "/api/v1/diseases", body, suite.admin)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = suite.do(http.MethodGet, "/api/v1/diseases/search?q=metabolic", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), decode(t, w)["count"])

	w = suite.do(http.MethodGet, "/api/v1/diseases/stats", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	stats := decode(t, w)
	assert.Equal(t, float64(1), stats["totalDiseases"])
	category := list(t, stats, "categoryStats")[0].(map[string]interface{})
	assert.Equal(t, "diabetes", category["category"])
	assert.Equal(t, float64(1), category["highSeverity"])
}
