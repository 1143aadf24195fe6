package rest_test

import (
	"net/http"
	"strconv"
	"testing"

	"github.com/glauncher/glauncher-api/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAchievements_GrantAndReact(t *testing.T) {
	e := newTestEnv(t)
	admin := testutil.CreateUser(t, e.db, testutil.Admin)
	owner := testutil.CreateUser(t, e.db)
	fan := testutil.CreateUser(t, e.db)
	adminTok, fanTok := e.login(t, admin), e.login(t, fan)

	body := map[string]string{"name": "Explorer", "description": "Visit every biome", "icon": "map.png"}
	assert.Equal(t, http.StatusForbidden, e.postJSON("/api/admin/achievements/create", fanTok, body).Code)
	w := e.postJSON("/api/admin/achievements/create", adminTok, body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	achID := int64(decode(t, w)["achievement"].(map[string]interface{})["id"].(float64))
	assert.Equal(t, http.StatusConflict, e.postJSON("/api/admin/achievements/create", adminTok, body).Code)

	grant := map[string]int64{"user_id": owner.ID, "achievement_id": achID}
	w = e.postJSON("/api/admin/achievements/grant", adminTok, grant)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	uaID := int64(decode(t, w)["user_achievement"].(map[string]interface{})["id"].(float64))
	assert.Equal(t, http.StatusConflict, e.postJSON("/api/admin/achievements/grant", adminTok, grant).Code)

	assert.Len(t, decode(t, e.get("/api/achievements", fanTok))["achievements"], 1)

	w = e.postJSON("/api/achievements/react", fanTok, map[string]int64{"user_achievement_id": uaID})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decode(t, w)
	assert.Equal(t, true, resp["reacted"])
	assert.Equal(t, float64(1), resp["new_count"])

	list := decode(t, e.get("/api/achievements/user/"+strconv.FormatInt(owner.ID, 10), fanTok))["achievements"].([]interface{})
	require.Len(t, list, 1)
	assert.Equal(t, "Explorer", list[0].(map[string]interface{})["name"])
	assert.Equal(t, float64(1), list[0].(map[string]interface{})["reactions"])

	resp = decode(t, e.postJSON("/api/achievements/react", fanTok, map[string]int64{"user_achievement_id": uaID}))
	assert.Equal(t, false, resp["reacted"])
	assert.Equal(t, float64(0), resp["new_count"])

	assert.Equal(t, http.StatusNotFound, e.postJSON("/api/achievements/react", fanTok, map[string]int64{"user_achievement_id": 9999}).Code)
}
