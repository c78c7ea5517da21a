package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"path/filepath"
	"strings"
	"testing"
	"time"

	gws "github.com/gorilla/websocket"
	"github.com/isdelr/uniwork-be/internal/auth"
	"github.com/isdelr/uniwork-be/internal/database"
	"github.com/isdelr/uniwork-be/internal/services"
	"github.com/isdelr/uniwork-be/internal/store"
	"github.com/isdelr/uniwork-be/internal/uploads"
	"github.com/isdelr/uniwork-be/internal/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "router-test-secret-of-32-bytes!!"

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	dir := t.TempDir()

	db, err := database.New(filepath.Join(dir, "test.db"))
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	st := store.NewSQLiteStore(db)

	creds, err := auth.NewCredentials([]byte(testSecret), time.Hour, 4)
	require.NoError(t, err)

	images, err := uploads.New(filepath.Join(dir, "images"), 1024)
	require.NoError(t, err)

	hub := websocket.NewHub()
	go hub.Run()

	router := NewRouter(Dependencies{
		Hub:             hub,
		Verifier:        creds,
		UserService:     services.NewUserService(st, creds),
		PostService:     services.NewPostService(st, images, hub),
		CalendarService: services.NewCalendarService(st, hub),
		TodoService:     services.NewTodoService(st, hub),
		UploadDir:       images.Dir(),
		MaxUploadBytes:  images.MaxBytes(),
		AllowedOrigins:  []string{"*"},
	})

	srv := httptest.NewServer(router)
	t.Cleanup(func() {
		srv.Close()
		hub.Stop()
		st.Close()
	})
	return srv
}

type response struct {
	status int
	body   map[string]interface{}
	raw    []byte
}

func do(t *testing.T, srv *httptest.Server, method, path, token string, body interface{}) response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, srv.URL+path, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return send(t, req, token)
}

func send(t *testing.T, req *http.Request, token string) response {
	t.Helper()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	out := response{status: resp.StatusCode, raw: raw}
	if strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(raw, &out.body), string(raw))
	}
	return out
}

func signup(t *testing.T, srv *httptest.Server, username string) (id, token string) {
	t.Helper()
	resp := do(t, srv, http.MethodPost, "/api/users/signup", "", map[string]string{
		"username": username,
		"email":    username + "@example.com",
		"password": "secret",
	})
	require.Equal(t, http.StatusCreated, resp.status, string(resp.raw))
	return resp.body["userId"].(string), resp.body["token"].(string)
}

func TestTodoFlow(t *testing.T) {
	srv := newTestServer(t)
	amyID, amyToken := signup(t, srv, "amy")
	_, bobToken := signup(t, srv, "bob")

	created := do(t, srv, http.MethodPost, "/api/todolist", amyToken, map[string]string{
		"description": "buy milk",
		"creator":     amyID,
	})
	require.Equal(t, http.StatusCreated, created.status, string(created.raw))
	itemID := created.body["todoItem"].(map[string]interface{})["id"].(string)

	listed := do(t, srv, http.MethodGet, "/api/todolist/user/"+amyID, "", nil)
	require.Equal(t, http.StatusOK, listed.status)
	items := listed.body["userTodoItems"].([]interface{})
	require.Len(t, items, 1)
	assert.Equal(t, "buy milk", items[0].(map[string]interface{})["description"])

	foreign := do(t, srv, http.MethodDelete, "/api/todolist/"+itemID, bobToken, nil)
	assert.Equal(t, http.StatusUnauthorized, foreign.status)
	assert.NotEmpty(t, foreign.body["message"])

	listed = do(t, srv, http.MethodGet, "/api/todolist/user/"+amyID, "", nil)
	require.Equal(t, http.StatusOK, listed.status)
	assert.Len(t, listed.body["userTodoItems"].([]interface{}), 1)

	deleted := do(t, srv, http.MethodDelete, "/api/todolist/"+itemID, amyToken, nil)
	require.Equal(t, http.StatusOK, deleted.status)
	assert.Equal(t, "Deleted item", deleted.body["message"])

	listed = do(t, srv, http.MethodGet, "/api/todolist/user/"+amyID, "", nil)
	assert.Equal(t, http.StatusNotFound, listed.status)
}

func TestSignupLogin(t *testing.T) {
	srv := newTestServer(t)
	amyID, _ := signup(t, srv, "amy")

	dup := do(t, srv, http.MethodPost, "/api/users/signup", "", map[string]string{
		"username": "amy", "email": "other@example.com", "password": "x",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, dup.status)
	assert.Equal(t, "Signing up failed, username already exists", dup.body["message"])

	login := do(t, srv, http.MethodPost, "/api/users/login", "", map[string]string{"username": "amy", "password": "secret"})
	require.Equal(t, http.StatusOK, login.status)
	assert.Equal(t, amyID, login.body["userId"])
	assert.Equal(t, "amy", login.body["username"])
	assert.NotEmpty(t, login.body["token"])

	bad := do(t, srv, http.MethodPost, "/api/users/login", "", map[string]string{"username": "amy", "password": "nope"})
	assert.Equal(t, http.StatusUnauthorized, bad.status)
	assert.Equal(t, "Could not log in, invalid credentials", bad.body["message"])
}

func TestCalendarFlow(t *testing.T) {
	srv := newTestServer(t)
	amyID, amyToken := signup(t, srv, "amy")

	invalid := do(t, srv, http.MethodPost, "/api/calendar", amyToken, map[string]string{"title": "Dentist"})
	assert.Equal(t, http.StatusUnprocessableEntity, invalid.status)
	assert.Equal(t, "Invalid inputs provided", invalid.body["message"])

	created := do(t, srv, http.MethodPost, "/api/calendar", amyToken, map[string]string{
		"title": "Dentist", "description": "Checkup", "date": "2024-05-01", "time": "09:30",
	})
	require.Equal(t, http.StatusCreated, created.status, string(created.raw))
	item := created.body["calendarItem"].(map[string]interface{})
	assert.Equal(t, amyID, item["creator"])

	listed := do(t, srv, http.MethodGet, "/api/calendar/user/"+amyID, "", nil)
	require.Equal(t, http.StatusOK, listed.status)
	assert.Len(t, listed.body["userCalendarItems"].([]interface{}), 1)

	deleted := do(t, srv, http.MethodDelete, "/api/calendar/"+item["id"].(string), amyToken, nil)
	require.Equal(t, http.StatusOK, deleted.status)
	assert.Equal(t, "Deleted calendar item", deleted.body["message"])
}

func postImage(t *testing.T, srv *httptest.Server, token, contentType string, image []byte) response {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("title", "Beach"))
	require.NoError(t, mw.WriteField("description", "Sunny day"))

	h := textproto.MIMEHeader{}
	h.Set("Content-Disposition", `form-data; name="image"; filename="beach.png"`)
	h.Set("Content-Type", contentType)
	part, err := mw.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write(image)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req, err := http.NewRequest(http.MethodPost, srv.URL+"/api/posts", &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return send(t, req, token)
}

func TestPostFlow(t *testing.T) {
	srv := newTestServer(t)
	amyID, amyToken := signup(t, srv, "amy")
	_, bobToken := signup(t, srv, "bob")

	rejected := postImage(t, srv, amyToken, "image/gif", pngHeader)
	assert.Equal(t, http.StatusUnprocessableEntity, rejected.status)

	created := postImage(t, srv, amyToken, "image/png", pngHeader)
	require.Equal(t, http.StatusCreated, created.status, string(created.raw))
	post := created.body["post"].(map[string]interface{})
	postID := post["id"].(string)
	image := post["image"].(string)
	assert.Equal(t, amyID, post["creator"])

	served := do(t, srv, http.MethodGet, "/"+image, "", nil)
	require.Equal(t, http.StatusOK, served.status)
	assert.Equal(t, pngHeader, served.raw)

	got := do(t, srv, http.MethodGet, "/api/posts/"+postID, "", nil)
	require.Equal(t, http.StatusOK, got.status)
	assert.Equal(t, "Beach", got.body["post"].(map[string]interface{})["title"])

	byUser := do(t, srv, http.MethodGet, "/api/posts/user/"+amyID, "", nil)
	require.Equal(t, http.StatusOK, byUser.status)
	assert.Len(t, byUser.body["userPosts"].([]interface{}), 1)

	edit := map[string]string{"title": "Lake", "description": "Cloudy"}
	assert.Equal(t, http.StatusUnauthorized, do(t, srv, http.MethodPatch, "/api/posts/"+postID, bobToken, edit).status)
	updated := do(t, srv, http.MethodPatch, "/api/posts/"+postID, amyToken, edit)
	require.Equal(t, http.StatusOK, updated.status)
	assert.Equal(t, "Lake", updated.body["post"].(map[string]interface{})["title"])

	assert.Equal(t, http.StatusUnauthorized, do(t, srv, http.MethodDelete, "/api/posts/"+postID, bobToken, nil).status)
	deleted := do(t, srv, http.MethodDelete, "/api/posts/"+postID, amyToken, nil)
	require.Equal(t, http.StatusOK, deleted.status)
	assert.Equal(t, "Deleted post", deleted.body["message"])

	assert.Equal(t, http.StatusNotFound, do(t, srv, http.MethodGet, "/api/posts/"+postID, "", nil).status)
	assert.Equal(t, http.StatusNotFound, do(t, srv, http.MethodGet, "/"+image, "", nil).status)
}

func TestAuthRequired(t *testing.T) {
	srv := newTestServer(t)

	resp := do(t, srv, http.MethodPost, "/api/todolist", "", map[string]string{"description": "x"})
	assert.Equal(t, http.StatusUnauthorized, resp.status)
	assert.Equal(t, "Authentication failed, missing token", resp.body["message"])

	resp = do(t, srv, http.MethodDelete, "/api/calendar/some-id", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.status)
}

func TestRouteNotFound(t *testing.T) {
	srv := newTestServer(t)

	for _, path := range []string{"/api/nothing", "/nowhere", "/" + uploads.PublicPrefix + "/"} {
		resp := do(t, srv, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusNotFound, resp.status, path)
		assert.Equal(t, "Route not found", resp.body["message"], path)
	}
}

func TestWebSocketFeed(t *testing.T) {
	srv := newTestServer(t)
	amyID, amyToken := signup(t, srv, "amy")

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/ws?token=" + amyToken
	conn, _, err := gws.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	// A pong proves the client is registered with the hub.
	require.NoError(t, conn.WriteJSON(websocket.Message{Action: websocket.ActionPing}))
	var msg websocket.Message
	require.NoError(t, conn.ReadJSON(&msg))
	require.Equal(t, websocket.ActionPong, msg.Action)

	created := do(t, srv, http.MethodPost, "/api/todolist", amyToken, map[string]string{"description": "buy milk"})
	require.Equal(t, http.StatusCreated, created.status)

	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, websocket.ActionTodoCreated, msg.Action)
	payload := msg.Payload.(map[string]interface{})
	assert.Equal(t, amyID, payload["creator"])
	assert.Equal(t, "buy milk", payload["description"])
}

func TestWebSocket_RejectsMissingToken(t *testing.T) {
	srv := newTestServer(t)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/ws"
	_, resp, err := gws.DefaultDialer.Dial(wsURL, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, fmt.Sprint(err))
}
