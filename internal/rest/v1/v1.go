package v1

import (
	"errors"
	"fmt"

	jwtware "github.com/gofiber/contrib/jwt"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"

	"github.com/veyronhq/reqforge/internal/global"
	"github.com/veyronhq/reqforge/internal/integrations"
	jobmanager "github.com/veyronhq/reqforge/internal/jobs"
	"github.com/veyronhq/reqforge/internal/rest/v1/middleware"
	"github.com/veyronhq/reqforge/internal/rest/v1/respond"
	"github.com/veyronhq/reqforge/internal/rest/v1/routes"
	jobRoutes "github.com/veyronhq/reqforge/internal/rest/v1/routes/jobs"
	"github.com/veyronhq/reqforge/internal/rest/v1/routes/requests"
	"github.com/veyronhq/reqforge/internal/rest/v1/routes/settings"
	"github.com/veyronhq/reqforge/internal/rest/v1/routes/webhooks"
	"github.com/veyronhq/reqforge/internal/services/auth"
	"github.com/veyronhq/reqforge/internal/websocket"
	apiErrors "github.com/veyronhq/reqforge/pkg/api_errors"
	permissionConstants "github.com/veyronhq/reqforge/pkg/permissions"
)

func ctx(fn func(*respond.Ctx) error) fiber.Handler {
	return func(c *fiber.Ctx) error {
		newCtx := &respond.Ctx{Ctx: c}
		return fn(newCtx)
	}
}

// New registers the core API: request lifecycle, scheduler control, and the
// settings surface. Identity is a signed session token; the login flows to
// the media-server identity provider live outside this service.
func New(gctx global.Context, integrations *integrations.Integration, jobManager *jobmanager.Manager, router fiber.Router) {
	indexRoute := routes.NewRouteGroup(gctx)
	router.Get("/", ctx(indexRoute.Index))

	// WebSocket routes - register before JWT middleware
	// WebSocket handles its own authentication via cookies
	websocket.RegisterRoutes(gctx, router)

	// Legacy webhook receiver: registered, disabled by design. The polling
	// reconciler owns status transitions.
	webhookRoutes := webhooks.NewRouteGroup(gctx)
	router.Post("/webhooks/:source", ctx(webhookRoutes.Receive))

	// JWT middleware for protected routes
	router.Use(jwtware.New(jwtware.Config{
		ContextKey:  "_reqforgeuser",
		TokenLookup: "cookie:reqforge_token",
		SigningKey:  jwtware.SigningKey{Key: []byte(gctx.Bootstrap().Credentials.JwtSecret)},
		Claims:      &auth.JWTClaimUser{},
		KeyFunc: func(t *jwt.Token) (interface{}, error) {
			if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
				return nil, fmt.Errorf("unexpected jwt signing method=%v", t.Header["alg"])
			}

			issuer, err := t.Claims.GetIssuer()
			if err != nil || issuer != "reqforge-dashboard" {
				return nil, fmt.Errorf("unexpected jwt issuer=%v", issuer)
			}

			return []byte(gctx.Bootstrap().Credentials.JwtSecret), nil
		},
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if err != nil {
				if errors.Is(err, jwt.ErrTokenExpired) {
					return apiErrors.ErrTokenExpired().SetDetail("Your session has expired. Please refresh your token.")
				} else if errors.Is(err, jwt.ErrTokenNotValidYet) {
					return apiErrors.ErrInvalidToken().SetDetail("Token is not valid yet.")
				} else if errors.Is(err, jwt.ErrTokenMalformed) {
					return apiErrors.ErrInvalidToken().SetDetail("Malformed token.")
				} else {
					return apiErrors.ErrInvalidToken().SetDetail("Invalid token.")
				}
			}
			// Default unauthorized response
			return apiErrors.ErrUnauthorized()
		},
	}))

	router.Get("/ws/status", ctx(indexRoute.WebSocketStatus))

	settingsRoutes := settings.NewRouteGroup(gctx)
	router.Get("/settings", ctx(settingsRoutes.GetSettings))
	router.Put("/settings", middleware.RequirePermission(gctx.Crate().Sqlite.Query(), permissionConstants.AdminSystem), ctx(settingsRoutes.UpdateSettings))

	// Request routes - users can view/create requests, admins can manage them
	requestsRoutes := requests.NewRouteGroup(gctx, integrations)
	// Create request - requires appropriate permission based on media type
	router.Post("/requests", ctx(requestsRoutes.CreateRequest))
	// Get user's own requests - all authenticated users
	router.Get("/requests/me", ctx(requestsRoutes.GetUserRequests))
	// Get all requests - admin only
	router.Get("/requests", middleware.RequirePermission(gctx.Crate().Sqlite.Query(), permissionConstants.RequestsView), ctx(requestsRoutes.GetAllRequests))
	// Get pending requests - admin only
	router.Get("/requests/pending", middleware.RequirePermission(gctx.Crate().Sqlite.Query(), permissionConstants.RequestsView), ctx(requestsRoutes.GetPendingRequests))
	// Get request statistics - admin only
	router.Get("/requests/statistics", middleware.RequirePermission(gctx.Crate().Sqlite.Query(), permissionConstants.RequestsView), ctx(requestsRoutes.GetRequestStatistics))

	// Get/Update/Delete specific request by ID
	router.Get("/requests/:id", ctx(requestsRoutes.GetRequestByID))
	router.Put("/requests/:id", ctx(requestsRoutes.UpdateRequest))
	router.Delete("/requests/:id", ctx(requestsRoutes.DeleteRequest))

	// Lifecycle endpoints - admin only
	router.Post("/requests/:id/approve", middleware.RequirePermission(gctx.Crate().Sqlite.Query(), permissionConstants.RequestsApprove), ctx(requestsRoutes.ApproveRequest))
	router.Post("/requests/:id/reject", middleware.RequirePermission(gctx.Crate().Sqlite.Query(), permissionConstants.RequestsApprove), ctx(requestsRoutes.RejectRequest))
	router.Post("/requests/:id/available", middleware.RequirePermission(gctx.Crate().Sqlite.Query(), permissionConstants.RequestsManage), ctx(requestsRoutes.MarkRequestAvailable))

	// Job scheduler routes - admin only
	jobsRoutes := jobRoutes.NewRouteGroup(gctx, jobManager)
	router.Get("/jobs", middleware.RequirePermission(gctx.Crate().Sqlite.Query(), permissionConstants.AdminSystem), ctx(jobsRoutes.ListJobs))
	router.Post("/jobs/:name/trigger", middleware.RequirePermission(gctx.Crate().Sqlite.Query(), permissionConstants.AdminSystem), ctx(jobsRoutes.TriggerJob))
	router.Put("/jobs/:name/schedule", middleware.RequirePermission(gctx.Crate().Sqlite.Query(), permissionConstants.AdminSystem), ctx(jobsRoutes.UpdateSchedule))
	router.Get("/jobs/history", middleware.RequirePermission(gctx.Crate().Sqlite.Query(), permissionConstants.AdminSystem), ctx(jobsRoutes.GetHistory))
}
