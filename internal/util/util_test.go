package util

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	apperrors "github.com/carecircle/backend/internal/errors"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "living-with-type-2-diabetes", Slugify("Living with Type 2 Diabetes!"))
	assert.Equal(t, "untitled", Slugify("!!!"))
	assert.Equal(t, "a-b", Slugify("  a -- b  "))
}

func TestExcerptAndReadingTime(t *testing.T) {
	assert.Equal(t, "short", Excerpt("short", 10))
	assert.Equal(t, "abcdefg...", Excerpt("abcdefghijklmnop", 10))

	assert.Equal(t, 1, ReadingTime(""))
	words := make([]byte, 0, 401*2)
	for i := 0; i < 401; i++ {
		words = append(words, 'w', ' ')
	}
	assert.Equal(t, 3, ReadingTime(string(words)))
}

func TestImageValidation(t *testing.T) {
	assert.True(t, IsAllowedImage("photo.JPG", "image/jpeg"))
	assert.True(t, IsAllowedImage("photo.webp", ""))
	assert.False(t, IsAllowedImage("photo.png", "image/jpeg"))
	assert.False(t, IsAllowedImage("doc.pdf", "application/pdf"))

	assert.Error(t, ValidateFilename("../etc/passwd"))
	assert.NoError(t, ValidateFilename("abc.png"))
}

func TestParseHelpers(t *testing.T) {
	assert.Equal(t, 5, ParseInt("5", 1))
	assert.Equal(t, 1, ParseInt("x", 1))
	require.NotNil(t, ParseBool("true"))
	assert.True(t, *ParseBool("1"))
	assert.Nil(t, ParseBool("maybe"))
	assert.Equal(t, []string{"a", "b"}, SplitCSV("a, ,b"))
}

func TestPageFromQuery(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/?page=3&limit=500", nil)

	p := PageFromQuery(c)
	assert.Equal(t, 3, p.Page)
	assert.Equal(t, MaxPageSize, p.Limit)
	assert.Equal(t, 200, p.Offset())

	pg := Page{Page: 2, Limit: 10}.Paginate(25)
	assert.Equal(t, 3, pg.TotalPages)
	assert.True(t, pg.HasNext)
	assert.True(t, pg.HasPrev)
}

func TestRespondWithError(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{apperrors.EventFull(), http.StatusConflict, "EVENT_FULL"},
		{apperrors.ApprovalRequired("pending"), http.StatusForbidden, "APPROVAL_REQUIRED"},
		{gorm.ErrRecordNotFound, http.StatusNotFound, "NOT_FOUND"},
		{errors.New("boom"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}
	for _, tc := range cases {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

		RespondWithError(c, tc.err)
		assert.Equal(t, tc.status, w.Code)
		assert.Contains(t, w.Body.String(), tc.code)
	}
}
