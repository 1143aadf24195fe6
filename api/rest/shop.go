package rest

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glauncher/glauncher-api/audit"
	"github.com/glauncher/glauncher-api/launcher/clock"
	"github.com/glauncher/glauncher-api/launcher/shop"
	mw "github.com/glauncher/glauncher-api/middleware"
	"github.com/glauncher/glauncher-api/model"
	"go.uber.org/zap"
)

// ShopHandler handles the cosmetic shop and the daily reward.
type ShopHandler struct {
	svc   *shop.Service
	audit *audit.Service
	clock clock.Clock
	log   *zap.Logger
}

// NewShopHandler creates a ShopHandler. auditSvc may be nil.
func NewShopHandler(svc *shop.Service, auditSvc *audit.Service, clk clock.Clock, log *zap.Logger) *ShopHandler {
	return &ShopHandler{svc: svc, audit: auditSvc, clock: clk, log: log}
}

// Items handles GET /api/shop/items.
func (h *ShopHandler) Items(c *gin.Context) {
	items, err := h.svc.ListItems(c.Request.Context())
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

// Purchase handles POST /api/shop/purchase.
func (h *ShopHandler) Purchase(c *gin.Context) {
	var req struct {
		ItemID int64 `json:"item_id" binding:"required,gt=0"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	item, balance, err := h.svc.Purchase(c.Request.Context(), mw.GetUserID(c), req.ItemID)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"item": item, "gcoins": balance})
}

// ClaimDailyReward handles POST /api/shop/claim_daily_reward.
func (h *ShopHandler) ClaimDailyReward(c *gin.Context) {
	balance, err := h.svc.ClaimDailyReward(c.Request.Context(), mw.GetUserID(c), h.clock.Now())
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reward": h.svc.RewardAmount(), "gcoins": balance})
}

type createItemRequest struct {
	Name        string `json:"name" binding:"required,max=100"`
	Description string `json:"description" binding:"required,max=255"`
	Price       int64  `json:"price" binding:"gte=0"`
	Rarity      string `json:"rarity" binding:"max=50"`
	Category    string `json:"category" binding:"required,max=50"`
	ImagePath   string `json:"image_path" binding:"required,max=255"`
	ModelPath   string `json:"model_path" binding:"required,max=255"`
}

// CreateItem handles POST /api/admin/cosmetics/create. Asset files are
// uploaded out of band; the request carries their paths.
func (h *ShopHandler) CreateItem(c *gin.Context) {
	start := time.Now()
	var req createItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	item, err := h.svc.CreateItem(c.Request.Context(), model.CosmeticItem{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Rarity:      req.Rarity,
		Category:    req.Category,
		ImagePath:   req.ImagePath,
		ModelPath:   req.ModelPath,
	})
	recordAdmin(h.audit, c, audit.ActionCosmeticCreate, nil, req, item, err, start)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "cosmetic created", "item": item})
}
