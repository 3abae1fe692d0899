package router

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"devlink/internal/db"
	"devlink/internal/models"
	"devlink/internal/ratelimit"
	"devlink/internal/services"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestServer(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	g, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := g.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.Migrate(g))
	db.DB = g

	r := gin.New()
	r.Use(sessions.Sessions("test_session", cookie.NewStore([]byte("test-secret"))))

	// 测试专用的登录后门，生产路由里没有
	r.GET("/__login/:id", func(c *gin.Context) {
		s := sessions.Default(c)
		s.Set("user_id", c.Param("id"))
		require.NoError(t, s.Save())
		c.Status(http.StatusOK)
	})

	ranking := services.NewRankingService(g)
	RegisterRoutes(r, ratelimit.NewLocalLimiter(100, 100), ranking, nil)
	return r
}

func seedData(t *testing.T) {
	t.Helper()
	users := []models.User{
		{ID: "u1", Handle: "alice", Name: "Alice"},
		{ID: "u2", Handle: "bob", Name: "Bob"},
	}
	for _, u := range users {
		require.NoError(t, db.DB.Create(&u).Error)
	}
	base := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	for i, id := range []string{"p1", "p2", "p3"} {
		p := models.Post{
			ID: id, AuthorID: "u1", Type: models.PostTypeNote,
			Content:   "note " + id,
			CreatedAt: base.Add(time.Duration(i) * time.Hour),
		}
		require.NoError(t, db.DB.Create(&p).Error)
	}
}

func login(t *testing.T, r *gin.Engine, userID string) []*http.Cookie {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/__login/"+userID, nil)
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	return w.Result().Cookies()
}

func doJSON(r *gin.Engine, method, path, body string, cookies []*http.Cookie) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestFeedEndpointShape(t *testing.T) {
	r := setupTestServer(t)
	seedData(t)

	w := doJSON(r, http.MethodGet, "/feed?sort=new&limit=2", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Items []struct {
			ID     string `json:"id"`
			Author struct {
				Handle string `json:"handle"`
			} `json:"author"`
		} `json:"items"`
		NextCursor *string `json:"nextCursor"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Items, 2)
	assert.Equal(t, "p3", resp.Items[0].ID)
	assert.Equal(t, "alice", resp.Items[0].Author.Handle)
	require.NotNil(t, resp.NextCursor)

	// 用 nextCursor 翻到最后一页
	w = doJSON(r, http.MethodGet, "/feed?sort=new&limit=2&cursor="+*resp.NextCursor, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Items, 1)
	assert.Equal(t, "p1", resp.Items[0].ID)
	assert.Nil(t, resp.NextCursor)
}

func TestFeedInvalidLimit(t *testing.T) {
	r := setupTestServer(t)
	w := doJSON(r, http.MethodGet, "/feed?limit=0", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLikeRequiresAuth(t *testing.T) {
	r := setupTestServer(t)
	seedData(t)

	w := doJSON(r, http.MethodPost, "/posts/p1/like", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLikeToggleFlow(t *testing.T) {
	r := setupTestServer(t)
	seedData(t)
	cookies := login(t, r, "u2")

	w := doJSON(r, http.MethodPost, "/posts/p1/like", "", cookies)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Action string `json:"action"`
		Counts struct {
			Like int64 `json:"LIKE"`
		} `json:"counts"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "added", resp.Action)
	assert.Equal(t, int64(1), resp.Counts.Like)

	w = doJSON(r, http.MethodPost, "/posts/p1/like", "", cookies)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "removed", resp.Action)
	assert.Zero(t, resp.Counts.Like)
}

func TestCommentEndpoint(t *testing.T) {
	r := setupTestServer(t)
	seedData(t)
	cookies := login(t, r, "u2")

	w := doJSON(r, http.MethodPost, "/posts/p1/comments", `{"content":"nice work"}`, cookies)
	require.Equal(t, http.StatusCreated, w.Code)

	var comment models.Interaction
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &comment))
	assert.Equal(t, "nice work", comment.Content)
	assert.Equal(t, models.KindComment, comment.Kind)

	w = doJSON(r, http.MethodPost, "/posts/p1/comments", `{"content":"   "}`, cookies)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// 粉丝列表翻页和 feed 一样要满足分片性质：
// 所有页合起来恰好是全集，无重复、无遗漏、顺序稳定
func TestFollowerPaginationPartition(t *testing.T) {
	r := setupTestServer(t)

	target := models.User{ID: "target", Handle: "target", Name: "Target"}
	require.NoError(t, db.DB.Create(&target).Error)

	base := time.Date(2026, 8, 26, 9, 0, 0, 0, time.UTC)
	var want []string // 关注时间倒序
	for i := 1; i <= 5; i++ {
		id := fmt.Sprintf("f%d", i)
		u := models.User{ID: id, Handle: "h-" + id, Name: "F " + id}
		require.NoError(t, db.DB.Create(&u).Error)
		f := models.Follow{
			ID:          "fl-" + id,
			FollowerID:  id,
			FollowingID: "target",
			CreatedAt:   base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, db.DB.Create(&f).Error)
		want = append([]string{id}, want...)
	}

	var got []string
	seen := map[string]bool{}
	cursor := ""
	for page := 0; page < 10; page++ {
		path := "/users/target/followers?limit=2"
		if cursor != "" {
			path += "&cursor=" + cursor
		}
		w := doJSON(r, http.MethodGet, path, "", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Items []struct {
				ID string `json:"id"`
			} `json:"items"`
			NextCursor *string `json:"nextCursor"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

		for _, it := range resp.Items {
			require.False(t, seen[it.ID], "follower %s appeared twice", it.ID)
			seen[it.ID] = true
			got = append(got, it.ID)
		}
		if resp.NextCursor == nil {
			break
		}
		cursor = *resp.NextCursor
	}

	assert.Equal(t, want, got)

	// following 方向用同一套谓词
	w := doJSON(r, http.MethodGet, "/users/f1/following?limit=10", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Items []struct {
			ID string `json:"id"`
		} `json:"items"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Items, 1)
	assert.Equal(t, "target", resp.Items[0].ID)
}

func TestPostNotFound(t *testing.T) {
	r := setupTestServer(t)
	seedData(t)

	w := doJSON(r, http.MethodGet, "/posts/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHealthEndpoint(t *testing.T) {
	r := setupTestServer(t)
	w := doJSON(r, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"database":"ok"`)
}
