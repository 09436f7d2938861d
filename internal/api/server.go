package api

import (
	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tnhan0211/serverzola/internal/auth"
	"github.com/tnhan0211/serverzola/internal/ws"
)

// Deps collects everything the HTTP surface needs.
type Deps struct {
	Tokens   *auth.TokenManager
	Gateway  *ws.Gateway
	Auth     *AuthHandler
	Chat     *ChatHandler
	Privacy  *PrivacyHandler
	Notify   *NotifyHandler
	Activity *ActivityHandler
}

// NewServer builds the fiber app with every route mounted. The caller
// owns Listen and Shutdown.
func NewServer(d Deps) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:   "serverzola",
		BodyLimit: 25 * 1024 * 1024,
	})
	app.Use(recover.New())
	app.Use(fiberlogger.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// websocket endpoint; token auth happens inside the gateway so a
	// bad token is refused before any event is processed
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws", websocket.New(d.Gateway.Handler()))

	api := app.Group("/api")

	authGrp := api.Group("/auth")
	authGrp.Post("/register", d.Auth.Register)
	authGrp.Post("/login", d.Auth.Login)

	protected := api.Group("", auth.Middleware(d.Tokens))

	chat := protected.Group("/chat")
	chat.Post("/private", d.Chat.SendPrivate)
	chat.Get("/private/:user_id", d.Chat.PrivateHistory)
	chat.Post("/group", d.Chat.CreateGroup)
	chat.Post("/group/message", d.Chat.SendGroup)
	chat.Get("/group/:group_id/messages", d.Chat.GroupHistory)
	chat.Post("/group/:group_id/leave", d.Chat.LeaveGroup)
	chat.Post("/typing", d.Chat.Typing)
	chat.Get("/groups", d.Chat.JoinedGroups)
	chat.Get("/recent/direct", d.Chat.RecentDirect)
	chat.Get("/recent/groups", d.Chat.RecentGroups)
	chat.Delete("/message/:message_id", d.Chat.DeleteMessage)

	priv := protected.Group("/privacy")
	priv.Get("/", d.Privacy.GetSettings)
	priv.Patch("/", d.Privacy.UpdateSettings)
	priv.Get("/blocked", d.Privacy.BlockedUsers)
	priv.Post("/block/:user_id", d.Privacy.Block)
	priv.Delete("/block/:user_id", d.Privacy.Unblock)

	notif := protected.Group("/notifications")
	notif.Get("/", d.Notify.List)
	notif.Post("/read", d.Notify.MarkRead)
	notif.Delete("/:id", d.Notify.Delete)

	activity := protected.Group("/activity")
	activity.Post("/heartbeat", d.Activity.Heartbeat)
	activity.Post("/batch", d.Activity.StatusBatch)
	activity.Get("/:user_id", d.Activity.Status)

	return app
}
