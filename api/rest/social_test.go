package rest_test

import (
	"net/http"
	"testing"

	"github.com/glauncher/glauncher-api/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func friendNames(t *testing.T, list interface{}) []string {
	t.Helper()
	var names []string
	for _, f := range list.([]interface{}) {
		names = append(names, f.(map[string]interface{})["username"].(string))
	}
	return names
}

func TestFriendship_RoundTrip(t *testing.T) {
	e := newTestEnv(t)
	alice := testutil.CreateUser(t, e.db)
	bob := testutil.CreateUser(t, e.db)
	aTok, bTok := e.login(t, alice), e.login(t, bob)

	w := e.postJSON("/api/friends/add", aTok, map[string]string{"username": bob.Username})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "friend request sent to "+bob.Username, decode(t, w)["message"])

	// Either direction of an existing pair conflicts.
	assert.Equal(t, http.StatusConflict, e.postJSON("/api/friends/add", aTok, map[string]string{"username": bob.Username}).Code)
	assert.Equal(t, http.StatusConflict, e.postJSON("/api/friends/add", bTok, map[string]string{"username": alice.Username}).Code)

	view := decode(t, e.get("/api/friends", bTok))
	assert.Equal(t, []string{alice.Username}, friendNames(t, view["pending"]))
	view = decode(t, e.get("/api/friends", aTok))
	assert.Equal(t, []string{bob.Username}, friendNames(t, view["sent"]))

	// Only the addressee can accept.
	assert.Equal(t, http.StatusNotFound, e.postJSON("/api/friends/accept", aTok, map[string]int64{"friend_id": bob.ID}).Code)
	assert.Equal(t, http.StatusOK, e.postJSON("/api/friends/accept", bTok, map[string]int64{"friend_id": alice.ID}).Code)

	for _, tok := range []string{aTok, bTok} {
		view = decode(t, e.get("/api/friends", tok))
		assert.Len(t, view["friends"], 1)
		assert.Empty(t, view["pending"])
		assert.Empty(t, view["sent"])
	}

	assert.Equal(t, http.StatusOK, e.postJSON("/api/friends/remove", bTok, map[string]int64{"friend_id": alice.ID}).Code)
	assert.Equal(t, http.StatusNotFound, e.postJSON("/api/friends/remove", aTok, map[string]int64{"friend_id": bob.ID}).Code)
	assert.Empty(t, decode(t, e.get("/api/friends", aTok))["friends"])

	// The pair can start over.
	assert.Equal(t, http.StatusCreated, e.postJSON("/api/friends/add", bTok, map[string]string{"username": alice.Username}).Code)
}

func TestFriendship_Errors(t *testing.T) {
	e := newTestEnv(t)
	alice := testutil.CreateUser(t, e.db)
	tok := e.login(t, alice)

	assert.Equal(t, http.StatusBadRequest, e.postJSON("/api/friends/add", tok, map[string]string{"username": alice.Username}).Code)
	assert.Equal(t, http.StatusNotFound, e.postJSON("/api/friends/add", tok, map[string]string{"username": "ghost"}).Code)
	assert.Equal(t, http.StatusBadRequest, e.postJSON("/api/friends/add", tok, map[string]string{}).Code)
	assert.Equal(t, http.StatusUnauthorized, e.get("/api/friends", "").Code)
}
