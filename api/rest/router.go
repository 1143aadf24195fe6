package rest

import (
	"github.com/gin-gonic/gin"
	"github.com/glauncher/glauncher-api/cache"
	"github.com/glauncher/glauncher-api/config"
	"github.com/glauncher/glauncher-api/launcher/account"
	mw "github.com/glauncher/glauncher-api/middleware"
	"github.com/glauncher/glauncher-api/model"
	"golang.org/x/time/rate"
)

// Handlers groups the REST handlers mounted under /api.
type Handlers struct {
	Auth         *AuthHandler
	User         *UserHandler
	Social       *SocialHandler
	Chat         *ChatHandler
	GChat        *GChatHandler
	Wall         *WallHandler
	Achievements *AchievementHandler
	Shop         *ShopHandler
	Admin        *AdminHandler
}

// Register mounts every /api route on r. Authenticated routes are rate limited
// per user when sec.RateLimitRPS is set.
func Register(r gin.IRouter, h Handlers, dir *account.Directory, c cache.Cache, sec config.SecurityConfig) {
	auth := mw.Auth(sec, c)
	userChain := []gin.HandlerFunc{auth}
	if sec.RateLimitRPS > 0 {
		userChain = append(userChain, mw.RateLimit(rate.Limit(sec.RateLimitRPS), sec.RateLimitBurst, mw.ByUser))
	}
	admin := mw.RequireAdmin(func(ctx *gin.Context, id int64) (*model.User, error) {
		return dir.Get(ctx.Request.Context(), id)
	})

	api := r.Group("/api")

	authG := api.Group("/auth")
	authG.POST("/register", h.Auth.Register)
	authG.POST("/login", h.Auth.Login)
	authG.POST("/logout", auth, h.Auth.Logout)
	authG.POST("/refresh", auth, h.Auth.Refresh)

	api.GET("/chat_messages", h.Chat.List)
	api.GET("/launch_messages", h.Wall.List)

	user := api.Group("")
	user.Use(userChain...)
	user.GET("/user_info", h.User.Info)
	user.POST("/user/status", h.User.UpdateStatus)
	user.POST("/user/update_profile", h.User.UpdateProfile)

	user.GET("/friends", h.Social.ListFriends)
	user.POST("/friends/add", h.Social.AddFriend)
	user.POST("/friends/accept", h.Social.AcceptFriend)
	user.POST("/friends/remove", h.Social.RemoveFriend)

	user.POST("/chat_messages/create", h.Chat.Create)

	user.GET("/gchat/history/:friend_id", h.GChat.History)
	user.GET("/gchat/unread", h.GChat.Unread)
	user.POST("/gchat/send/:recipient_id", h.GChat.Send)
	user.POST("/gchat/read/:friend_id", h.GChat.MarkRead)
	user.POST("/gchat/typing/:recipient_id", h.GChat.Typing)

	user.POST("/launch_messages/create", h.Wall.Create)

	user.GET("/achievements", h.Achievements.Catalogue)
	user.GET("/achievements/user/:id", h.Achievements.ForUser)
	user.POST("/achievements/react", h.Achievements.React)

	user.GET("/shop/items", h.Shop.Items)
	user.POST("/shop/purchase", h.Shop.Purchase)
	user.POST("/shop/claim_daily_reward", h.Shop.ClaimDailyReward)

	user.DELETE("/chat_messages/:id", admin, h.Chat.Delete)
	user.DELETE("/chat_messages", admin, h.Chat.Clear)
	user.DELETE("/launch_messages/:id", admin, h.Wall.Delete)

	adminG := user.Group("/admin")
	adminG.Use(admin)
	adminG.GET("/users", h.Admin.ListUsers)
	adminG.POST("/users/ban", h.Admin.BanUser)
	adminG.POST("/users/:id", h.Admin.UpdateUser)
	adminG.POST("/wipe_all_data", h.Admin.WipeAllData)
	adminG.GET("/scheduler", h.Admin.ListSchedulerTasks)
	adminG.POST("/cosmetics/create", h.Shop.CreateItem)
	adminG.POST("/achievements/create", h.Achievements.Create)
	adminG.POST("/achievements/grant", h.Achievements.Grant)
}
