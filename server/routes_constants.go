package server

// Route path constants
// All application routes are defined here to ensure consistency and prevent typos
const (
	RouteRoot = "/"

	// Auth Routes - Login & Logout
	RouteLogin  = "/login"
	RouteLogout = "/logout"

	// Console Routes
	RouteDashboard      = "/dashboard"
	RouteMentions       = "/mentions"
	RouteMentionsStatus = "/mentions/status"
	RouteMentionsManual = "/mentions/manual"
	RouteAccounts       = "/accounts"
	RouteAccount        = "/accounts/{id}"
	RouteAccountDelete  = "/accounts/{id}/delete"

	// Static Asset Routes (patterns)
	RouteStaticCSS = "/css/{file}"
)

// Notices shown after redirects
const (
	msgSessionExpired = "Session expired. Please login again."
	msgLoggedOut      = "You have been logged out."
	msgNetworkError   = "An error occurred"
)
