package handlers

import (
	"net/http"

	"github.com/Mel4sa/WORKNEST-sub000/metrics"
	"github.com/Mel4sa/WORKNEST-sub000/middleware"

	"github.com/gorilla/mux"
)

type Handlers struct {
	Auth          *AuthHandler
	Users         *UserHandler
	Projects      *ProjectHandler
	Invites       *InviteHandler
	Notifications *NotificationHandler
	Chats         *ChatHandler
	Health        *HealthHandler
}

// RouterOptions configures auth and the auth-route limiter. X-Forwarded-For
// is only honoured when the peer is listed in TrustedProxies.
type RouterOptions struct {
	Authenticator  middleware.Authenticator
	AuthLimiter    middleware.Limiter
	CORSOrigin     string
	TrustedProxies []string
}

// NewRouter registers every route. Literal segments such as /mine and
// /unread-count are registered before their {id} siblings.
func NewRouter(h Handlers, opts RouterOptions) *mux.Router {
	r := mux.NewRouter()
	r.Use(middleware.RequestLogger, middleware.CORS(opts.CORSOrigin), metrics.Middleware)
	// Preflight requests must reach the CORS middleware even without a matching method.
	r.Methods(http.MethodOptions).HandlerFunc(func(http.ResponseWriter, *http.Request) {})

	r.HandleFunc("/health", h.Health.Health).Methods(http.MethodGet)
	r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	requireAuth := middleware.RequireAuth(opts.Authenticator)
	optionalAuth := middleware.OptionalAuth(opts.Authenticator)
	protect := func(f http.HandlerFunc) http.Handler { return requireAuth(f) }
	optional := func(f http.HandlerFunc) http.Handler { return optionalAuth(f) }

	authRoutes := api.PathPrefix("/auth").Subrouter()
	limited := func(f http.HandlerFunc) http.Handler { return f }
	if opts.AuthLimiter != nil {
		limit := middleware.RateLimit(opts.AuthLimiter, "auth", opts.TrustedProxies)
		limited = func(f http.HandlerFunc) http.Handler { return limit(f) }
	}
	authRoutes.Handle("/register", limited(h.Auth.Register)).Methods(http.MethodPost)
	authRoutes.Handle("/login", limited(h.Auth.Login)).Methods(http.MethodPost)
	authRoutes.Handle("/forgot-password", limited(h.Auth.ForgotPassword)).Methods(http.MethodPost)
	authRoutes.Handle("/reset-password", limited(h.Auth.ResetPassword)).Methods(http.MethodPost)
	authRoutes.Handle("/me", protect(h.Auth.Me)).Methods(http.MethodGet)
	authRoutes.Handle("/logout", protect(h.Auth.Logout)).Methods(http.MethodPost)

	api.Handle("/users/search", protect(h.Users.Search)).Methods(http.MethodGet)
	api.Handle("/users/profile", protect(h.Users.UpdateProfile)).Methods(http.MethodPut)
	api.Handle("/users/change-password", protect(h.Users.ChangePassword)).Methods(http.MethodPut)
	api.Handle("/users/avatar", protect(h.Users.UploadAvatar)).Methods(http.MethodPost)
	api.Handle("/users/account", protect(h.Users.DeleteAccount)).Methods(http.MethodDelete)
	api.Handle("/users/{id}", protect(h.Users.GetUser)).Methods(http.MethodGet)

	api.HandleFunc("/projects", h.Projects.List).Methods(http.MethodGet)
	api.Handle("/projects", protect(h.Projects.Create)).Methods(http.MethodPost)
	api.Handle("/projects/mine", protect(h.Projects.Mine)).Methods(http.MethodGet)
	api.Handle("/projects/{id}", optional(h.Projects.Get)).Methods(http.MethodGet)
	api.Handle("/projects/{id}", protect(h.Projects.Update)).Methods(http.MethodPut)
	api.Handle("/projects/{id}", protect(h.Projects.Delete)).Methods(http.MethodDelete)
	api.Handle("/projects/{id}/members", optional(h.Projects.Members)).Methods(http.MethodGet)
	api.Handle("/projects/{id}/join", protect(h.Projects.Join)).Methods(http.MethodPost)
	api.Handle("/projects/{id}/leave", protect(h.Projects.Leave)).Methods(http.MethodPost)
	api.Handle("/projects/{id}/members/{userId}", protect(h.Projects.RemoveMember)).Methods(http.MethodDelete)

	api.Handle("/invites/send", protect(h.Invites.Send)).Methods(http.MethodPost)
	api.Handle("/invites/received", protect(h.Invites.Received)).Methods(http.MethodGet)
	api.Handle("/invites/sent", protect(h.Invites.Sent)).Methods(http.MethodGet)
	api.Handle("/invites/respond/{inviteId}", protect(h.Invites.Respond)).Methods(http.MethodPatch)

	api.Handle("/notifications", protect(h.Notifications.List)).Methods(http.MethodGet)
	api.Handle("/notifications/unread-count", protect(h.Notifications.UnreadCount)).Methods(http.MethodGet)
	api.Handle("/notifications/mark-all-read", protect(h.Notifications.MarkAllRead)).Methods(http.MethodPatch)
	api.Handle("/notifications/{id}/read", protect(h.Notifications.MarkRead)).Methods(http.MethodPatch)
	api.Handle("/notifications/{id}", protect(h.Notifications.Delete)).Methods(http.MethodDelete)

	api.Handle("/chats", protect(h.Chats.List)).Methods(http.MethodGet)
	api.Handle("/chats", protect(h.Chats.GetOrCreate)).Methods(http.MethodPost)
	api.Handle("/chats/unread-count", protect(h.Chats.UnreadCount)).Methods(http.MethodGet)
	api.Handle("/chats/{chatId}/messages", protect(h.Chats.History)).Methods(http.MethodGet)
	api.Handle("/chats/{chatId}/messages", protect(h.Chats.Send)).Methods(http.MethodPost)
	api.Handle("/chats/{chatId}/read", protect(h.Chats.MarkRead)).Methods(http.MethodPatch)
	api.Handle("/messages/{messageId}", protect(h.Chats.Edit)).Methods(http.MethodPut)
	api.Handle("/messages/{messageId}", protect(h.Chats.Delete)).Methods(http.MethodDelete)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeMessage(w, http.StatusNotFound, "Route not found")
	})
	return r
}
