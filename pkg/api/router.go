package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/telimanlogistique/telimanshare/internal/logger"
	"github.com/telimanlogistique/telimanshare/pkg/accounts"
	"github.com/telimanlogistique/telimanshare/pkg/api/auth"
	"github.com/telimanlogistique/telimanshare/pkg/api/handlers"
	apiMiddleware "github.com/telimanlogistique/telimanshare/pkg/api/middleware"
	"github.com/telimanlogistique/telimanshare/pkg/share"
)

// Dependencies bundles everything the router needs to serve requests.
type Dependencies struct {
	Share    *share.Service
	Accounts accounts.Store
	JWT      *auth.JWTService

	// Notifier sends signup and approval emails. May be nil; handlers
	// treat a nil notifier as disabled.
	Notifier handlers.Notifier

	// HealthCheckers feed the readiness probe. May be empty.
	HealthCheckers []handlers.HealthChecker

	// MaxUploadBytes caps multipart upload request bodies.
	MaxUploadBytes int64

	// ProxyAllowedHosts are the hosts the office-viewer proxy may fetch
	// from, usually the storage endpoint. Entries starting with "."
	// match subdomains. Empty disables the proxy.
	ProxyAllowedHosts []string
}

// NewRouter creates and configures the chi router with all middleware and routes.
//
// The router is configured with:
//   - Request ID middleware for request tracking
//   - Real IP extraction for proper client identification
//   - Custom request logging using the internal logger
//   - Panic recovery to prevent server crashes
//   - Request timeout to prevent hung requests
//
// Routes:
//   - GET /health - Liveness probe
//   - GET /health/ready - Readiness probe
//   - POST /api/v1/auth/login - User authentication
//   - POST /api/v1/auth/refresh - Token refresh
//   - POST /api/v1/auth/signup - Account request (pending approval)
//   - GET /api/v1/auth/me - Current user info
//   - POST /api/v1/auth/password - Self-service password change
//   - GET /api/v1/browse - Permission-filtered folder listing
//   - GET /api/v1/shared - Paths shared with the caller
//   - POST /api/v1/files - Multipart upload
//   - GET /api/v1/files/url - Signed download URL
//   - DELETE /api/v1/files - Soft delete a file
//   - POST /api/v1/folders - Create a folder
//   - DELETE /api/v1/folders - Soft delete a folder tree
//   - GET|PUT /api/v1/access - Sharing inspection and updates
//   - POST|GET /api/v1/preview - Office preview conversion and URL
//   - GET /api/v1/proxy - Streaming proxy for office viewers
//   - GET|POST /api/v1/comments, DELETE /api/v1/comments/{id} - Comment threads
//   - /api/v1/trash/* - Trash management (admin only)
//   - /api/v1/users/* - User management (admin only)
//   - GET /api/v1/activity - Audit log (admin only)
func NewRouter(deps Dependencies) http.Handler {
	r := chi.NewRouter()

	// Middleware stack - order matters
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	// Health routes - unauthenticated
	healthHandler := handlers.NewHealthHandler(deps.HealthCheckers...)
	r.Route("/health", func(r chi.Router) {
		r.Get("/", healthHandler.Liveness)
		r.Get("/ready", healthHandler.Readiness)
	})

	// Root redirect to health for convenience
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/health", http.StatusTemporaryRedirect)
	})

	authHandler := handlers.NewAuthHandler(deps.Accounts, deps.JWT, deps.Notifier)
	usersHandler := handlers.NewUsersHandler(deps.Accounts, deps.Notifier)
	browseHandler := handlers.NewBrowseHandler(deps.Share)
	filesHandler := handlers.NewFilesHandler(deps.Share, deps.MaxUploadBytes)
	accessHandler := handlers.NewAccessHandler(deps.Share)
	previewHandler := handlers.NewPreviewHandler(deps.Share, deps.ProxyAllowedHosts)
	trashHandler := handlers.NewTrashHandler(deps.Share)
	activityHandler := handlers.NewActivityHandler(deps.Accounts)
	commentsHandler := handlers.NewCommentsHandler(deps.Accounts, deps.Share)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		// Auth routes - mostly unauthenticated
		r.Route("/auth", func(r chi.Router) {
			// Public endpoints
			r.Post("/login", authHandler.Login)
			r.Post("/refresh", authHandler.Refresh)
			r.Post("/signup", authHandler.Signup)

			// Authenticated endpoint. Pending users can check their own
			// approval status here, so no RequireApproved.
			r.Group(func(r chi.Router) {
				r.Use(apiMiddleware.JWTAuth(deps.JWT))
				r.Get("/me", authHandler.Me)
				r.Post("/password", authHandler.ChangePassword)
			})
		})

		// Protected routes - require authentication and an approved account
		r.Group(func(r chi.Router) {
			r.Use(apiMiddleware.JWTAuth(deps.JWT))
			r.Use(apiMiddleware.RequireApproved())

			r.Get("/browse", browseHandler.List)
			r.Get("/shared", browseHandler.SharedWithMe)

			r.Route("/files", func(r chi.Router) {
				r.Post("/", filesHandler.Upload)
				r.Delete("/", filesHandler.Delete)
				r.Get("/url", filesHandler.DownloadURL)
			})

			r.Route("/folders", func(r chi.Router) {
				r.Post("/", filesHandler.CreateFolder)
				r.Delete("/", filesHandler.DeleteFolder)
			})

			r.Route("/access", func(r chi.Router) {
				r.Get("/", accessHandler.Get)
				r.Put("/", accessHandler.Update)
			})

			r.Route("/preview", func(r chi.Router) {
				r.Post("/", previewHandler.Trigger)
				r.Get("/", previewHandler.URL)
			})

			r.Get("/proxy", previewHandler.Proxy)

			r.Route("/comments", func(r chi.Router) {
				r.Get("/", commentsHandler.List)
				r.Post("/", commentsHandler.Create)
				r.Delete("/{id}", commentsHandler.Delete)
			})

			// Admin-only operations
			r.Group(func(r chi.Router) {
				r.Use(apiMiddleware.RequireAdmin())

				r.Route("/trash", func(r chi.Router) {
					r.Get("/", trashHandler.List)
					r.Post("/restore", trashHandler.Restore)
					r.Delete("/", trashHandler.Destroy)
				})

				r.Route("/users", func(r chi.Router) {
					r.Get("/", usersHandler.List)
					r.Post("/{email}/approve", usersHandler.Approve)
					r.Delete("/{email}", usersHandler.Delete)
				})

				r.Get("/activity", activityHandler.List)
			})
		})
	})

	return r
}

// isHealthPath returns true if the request path is a healthcheck endpoint.
func isHealthPath(path string) bool {
	return path == "/health" || strings.HasPrefix(path, "/health/")
}

// requestLogger is a custom middleware that logs requests using the internal logger.
//
// It logs:
//   - Request start (DEBUG level): method, path, remote addr
//   - Request completion (INFO level): method, path, status, duration
//   - Healthcheck requests are logged at DEBUG level to reduce noise
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := middleware.GetReqID(r.Context())

		logger.Debug("API request started",
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"remote_addr", r.RemoteAddr,
		)

		// Wrap response writer to capture status code
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		duration := time.Since(start)

		logArgs := []any{
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", duration.String(),
		}

		// Log healthcheck requests at DEBUG to avoid polluting logs in k8s
		if isHealthPath(r.URL.Path) {
			logger.Debug("API request completed", logArgs...)
		} else {
			logger.Info("API request completed", logArgs...)
		}
	})
}
