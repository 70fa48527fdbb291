package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing

	"github.com/cristianml/tomevault/internal/handler"    // import the handlers that implement business logic
	"github.com/cristianml/tomevault/internal/middleware" // import middleware for identity and authority enforcement
	"github.com/cristianml/tomevault/internal/model"      // import model for the role name constants
)

// RegisterRoutes registers routes that do not require authentication on the
// provided Echo instance.  Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	// Map GET and HEAD at path "/health" to the HealthCheck handler.
	// Load balancers and monitoring systems use it to verify the service
	// is up without touching the database.
	e.GET("/health", handler.HealthCheck)
	e.HEAD("/health", handler.HealthCheck)
}

// RegisterAuth registers the login and sign-up endpoints under /auth.  Both
// are anonymous by definition; the rate limiter in front of them slows
// credential stuffing.  A nil rateLimit disables throttling (tests, or a
// deployment without Redis).
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, rateLimit echo.MiddlewareFunc) {
	g := e.Group("/auth")
	if rateLimit != nil {
		g.Use(rateLimit)
	}
	// POST /auth/login verifies credentials and returns a signed token.
	g.POST("/login", a.Login)
	// POST /auth/sign-up creates a new account with the default USER role.
	g.POST("/sign-up", a.SignUp)
}

// RegisterCatalog registers the public catalog proxy routes.  They carry no
// identity requirement so anonymous visitors can browse the external
// catalog; the Redis response cache in front of them absorbs repeat
// lookups.  A nil cache registers them uncached.
func RegisterCatalog(e *echo.Echo, b *handler.BookHandler, cache echo.MiddlewareFunc) {
	mw := []echo.MiddlewareFunc{}
	if cache != nil {
		mw = append(mw, cache)
	}
	// GET /books/search-google?q= performs a free-text catalog search.
	e.GET("/books/search-google", b.SearchGoogle, mw...)
	// GET /books/google-api/:googleBookId fetches a single catalog volume.
	e.GET("/books/google-api/:googleBookId", b.GetFromGoogle, mw...)
}

// RegisterBooks registers the personal collection routes under /books.
// Every route requires an authenticated principal carrying the specific
// book permission for the verb: reading needs READ_BOOK, creating
// ADD_BOOK, updating EDIT_BOOK and removing DELETE_BOOK.  The identity
// middleware installed globally has already resolved the principal by the
// time these run.
func RegisterBooks(e *echo.Echo, b *handler.BookHandler) {
	g := e.Group("/books")

	g.GET("", b.List, middleware.RequireAuthority(model.PermReadBook))
	g.GET("/status/:googleBookId", b.Status, middleware.RequireAuthority(model.PermReadBook))
	g.GET("/:googleBookId", b.Get, middleware.RequireAuthority(model.PermReadBook))

	g.POST("", b.Create, middleware.RequireAuthority(model.PermAddBook))
	g.POST("/from-google/:googleBookId", b.CreateFromGoogle, middleware.RequireAuthority(model.PermAddBook))

	g.PUT("/:id", b.Update, middleware.RequireAuthority(model.PermEditBook))
	g.POST("/activate/:googleBookId", b.Activate, middleware.RequireAuthority(model.PermEditBook))
	g.POST("/increment-read/:id", b.AdjustReadCount(+1), middleware.RequireAuthority(model.PermEditBook))
	g.POST("/decrement-read/:id", b.AdjustReadCount(-1), middleware.RequireAuthority(model.PermEditBook))

	g.DELETE("/:id", b.Delete, middleware.RequireAuthority(model.PermDeleteBook))
}

// RegisterWishlist registers the want-to-read routes under /wishlist-books.
// Any authenticated user may manage their own wishlist; no book permission
// is involved until the entry moves into the collection.
func RegisterWishlist(e *echo.Echo, w *handler.WishlistHandler) {
	g := e.Group("/wishlist-books")
	g.Use(middleware.RequireAuthenticated())

	g.GET("", w.List)
	g.POST("", w.Create)
	g.POST("/from-google/:googleBookId", w.CreateFromGoogle)
	g.POST("/move-to-books/:wishlistId", w.MoveToBooks)
	g.PUT("/:id", w.Update)
	g.DELETE("/:id", w.Delete)
}

// RegisterUser registers the self-service profile routes under /user.
func RegisterUser(e *echo.Echo, u *handler.UserHandler) {
	g := e.Group("/user")
	g.Use(middleware.RequireAuthenticated())

	g.GET("", u.Profile)
	g.PUT("/update", u.UpdateProfile)
	g.PUT("/change-password", u.ChangePassword)
}

// RegisterAdmin registers user management under /admin/users.  The static
// policy here requires the ADMIN or SUPER_ADMIN role; the per-target
// ownership rule runs inside the handlers because it depends on the row
// being acted on.
func RegisterAdmin(e *echo.Echo, a *handler.AdminUserHandler) {
	g := e.Group("/admin/users")
	g.Use(middleware.RequireRole(model.RoleAdmin, model.RoleSuperAdmin))

	g.GET("", a.List)
	g.GET("/search", a.Search)
	g.GET("/:id", a.Get)
	g.POST("", a.Create)
	g.PUT("/toggle-status/:id", a.ToggleStatus)
	g.PUT("/:id", a.Update)
	g.PUT("/:id/roles", a.ReplaceRoles)
	g.PUT("/:id/reset-password", a.ResetPassword)
	g.DELETE("/:id", a.SoftDelete)
	g.DELETE("/:id/permanent", a.HardDelete)
}
