package router

import (
	"net/http"

	"github.com/fanpulse/internal/handler"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
)

// SetupRouter 配置 Gin 引擎和路由
func SetupRouter(api *handler.API, sessionSecret string) *gin.Engine {
	r := gin.Default()

	// 配置会话中间件。
	// 不覆盖 Options 时 gorilla/sessions 会给 Cookie 带上 Secure + SameSite=None，
	// 纯 HTTP 部署下浏览器不会回传，整个登录态失效。
	store := cookie.NewStore([]byte(sessionSecret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   7 * 24 * 60 * 60,
		HttpOnly: true,
		Secure:   false,
		SameSite: http.SameSiteLaxMode,
	})
	r.Use(sessions.Sessions("fanpulse_session", store))

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
		})
	})

	// 账号入口
	r.POST("/register", api.Register)
	r.POST("/login", api.Login)
	r.GET("/logout", api.Logout)

	// 需要登录的用户侧接口
	authed := r.Group("/api")
	authed.Use(handler.AuthRequired())
	{
		authed.GET("/posts", api.ListPosts)
		authed.POST("/posts", api.CreatePost)
		authed.GET("/posts/:id", api.GetPost)
		authed.POST("/posts/:id/love", api.GiveLove)
		authed.DELETE("/posts/:id/love", api.RemoveLove)

		authed.GET("/balance", api.GetBalance)
		authed.GET("/balance/history", api.GetHistory)

		authed.GET("/tasks", api.ListTasks)
		authed.POST("/tasks/:slug/complete", api.CompleteTask)

		authed.GET("/referral", api.MyReferral)
		authed.GET("/badges", api.MyBadges)
	}

	// 后台管理接口
	admin := r.Group("/admin/api")
	admin.Use(handler.AuthRequired(), handler.AdminRequired())
	{
		admin.GET("/tasks", api.AdminListTasks)
		admin.POST("/tasks", api.AdminCreateTask)
		admin.PUT("/tasks/:id", api.AdminUpdateTask)
		admin.DELETE("/tasks/:id", api.AdminDeleteTask)

		admin.POST("/ledger/adjust", api.AdminAdjustBalance)
		admin.GET("/ledger/:id/reconcile", api.AdminReconcile)

		admin.POST("/referrals/:id/complete", api.AdminCompleteReferral)
		admin.POST("/badges/icon", api.UploadBadgeIcon)
	}

	return r
}
