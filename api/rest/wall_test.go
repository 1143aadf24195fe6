package rest_test

import (
	"net/http"
	"strconv"
	"testing"
	"time"

	"github.com/glauncher/glauncher-api/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWall_PostListDelete(t *testing.T) {
	e := newTestEnv(t)
	u := testutil.CreateUser(t, e.db)
	admin := testutil.CreateUser(t, e.db, testutil.Admin)
	tok, adminTok := e.login(t, u), e.login(t, admin)

	assert.Equal(t, http.StatusUnauthorized, e.postJSON("/api/launch_messages/create", "", map[string]string{"content": "anon"}).Code)

	w := e.postJSON("/api/launch_messages/create", tok, map[string]string{"content": "first!"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	data := decode(t, w)["data"].(map[string]interface{})
	assert.Equal(t, u.Username, data["username"])

	w = e.postJSON("/api/launch_messages/create", tok, map[string]string{"content": "second"})
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "30", w.Header().Get("Retry-After"))

	e.clk.Advance(30 * time.Second)
	require.Equal(t, http.StatusCreated, e.postJSON("/api/launch_messages/create", tok, map[string]string{"content": "second"}).Code)

	w = e.get("/api/launch_messages?page=1&limit=1", "")
	require.Equal(t, http.StatusOK, w.Code)
	page := decode(t, w)
	msgs := page["messages"].([]interface{})
	require.Len(t, msgs, 1)
	assert.Equal(t, "second", msgs[0].(map[string]interface{})["content"])
	assert.Equal(t, true, page["has_more"])

	page = decode(t, e.get("/api/launch_messages?page=bogus", ""))
	assert.Len(t, page["messages"], 2)
	assert.Equal(t, false, page["has_more"])

	id := strconv.FormatInt(int64(data["id"].(float64)), 10)
	assert.Equal(t, http.StatusForbidden, e.do(http.MethodDelete, "/api/launch_messages/"+id, tok, nil).Code)
	assert.Equal(t, http.StatusOK, e.do(http.MethodDelete, "/api/launch_messages/"+id, adminTok, nil).Code)
	assert.Equal(t, http.StatusNotFound, e.do(http.MethodDelete, "/api/launch_messages/"+id, adminTok, nil).Code)
}
