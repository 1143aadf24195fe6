package rest_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/glauncher/glauncher-api/model"
	"github.com/glauncher/glauncher-api/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDailyReward(t *testing.T) {
	e := newTestEnv(t)
	tok := e.login(t, testutil.CreateUser(t, e.db))

	w := e.postJSON("/api/shop/claim_daily_reward", tok, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decode(t, w)
	assert.Equal(t, float64(50), resp["reward"])
	assert.Equal(t, float64(50), resp["gcoins"])

	e.clk.Advance(23 * time.Hour)
	w = e.postJSON("/api/shop/claim_daily_reward", tok, nil)
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "3600", w.Header().Get("Retry-After"))

	e.clk.Advance(time.Hour)
	w = e.postJSON("/api/shop/claim_daily_reward", tok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(100), decode(t, w)["gcoins"])
}

func TestShop_ListAndPurchase(t *testing.T) {
	e := newTestEnv(t)
	tok := e.login(t, testutil.CreateUser(t, e.db, testutil.WithCoins(120)))

	cape := model.CosmeticItem{Name: "Cape", Price: 100, Category: "cape", IsActive: true}
	crown := model.CosmeticItem{Name: "Crown", Price: 100, Category: "hat", IsActive: true}
	retired := model.CosmeticItem{Name: "Old hat", Price: 1, Category: "hat"}
	require.NoError(t, e.db.Create(&cape).Error)
	require.NoError(t, e.db.Create(&crown).Error)
	require.NoError(t, e.db.Create(&retired).Error)

	items := decode(t, e.get("/api/shop/items", tok))["items"].([]interface{})
	assert.Len(t, items, 2)

	w := e.postJSON("/api/shop/purchase", tok, map[string]int64{"item_id": cape.ID})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, float64(20), decode(t, w)["gcoins"])

	assert.Equal(t, http.StatusConflict, e.postJSON("/api/shop/purchase", tok, map[string]int64{"item_id": cape.ID}).Code)
	assert.Equal(t, http.StatusPaymentRequired, e.postJSON("/api/shop/purchase", tok, map[string]int64{"item_id": crown.ID}).Code)
	assert.Equal(t, http.StatusNotFound, e.postJSON("/api/shop/purchase", tok, map[string]int64{"item_id": retired.ID}).Code)
}

func TestAdmin_CreateCosmetic(t *testing.T) {
	e := newTestEnv(t)
	admin := testutil.CreateUser(t, e.db, testutil.Admin)
	u := testutil.CreateUser(t, e.db)
	adminTok, tok := e.login(t, admin), e.login(t, u)

	body := map[string]interface{}{
		"name":        "Capa Ender",
		"description": "purple",
		"price":       75,
		"rarity":      "epic",
		"category":    "cape",
		"image_path":  "/images/shop/ender.png",
		"model_path":  "/models/cape/ender.glb",
	}
	assert.Equal(t, http.StatusForbidden, e.postJSON("/api/admin/cosmetics/create", tok, body).Code)
	w := e.postJSON("/api/admin/cosmetics/create", adminTok, body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	items := decode(t, e.get("/api/shop/items", tok))["items"].([]interface{})
	require.Len(t, items, 1)
	assert.Equal(t, "Capa Ender", items[0].(map[string]interface{})["name"])

	delete(body, "model_path")
	assert.Equal(t, http.StatusBadRequest, e.postJSON("/api/admin/cosmetics/create", adminTok, body).Code)
}
