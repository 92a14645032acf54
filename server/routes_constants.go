package server

// Route path constants
const (
	// Browser shim and OAuth redirect target
	RouteNavigationEvents = "/events/navigation"
	RouteCallback         = "/callback"

	// Popup API
	RouteAPIStatus    = "/api/status"
	RouteAPISync      = "/api/sync"
	RouteAPIToken     = "/api/{provider}/token"
	RouteAPILogin     = "/api/{provider}/login"
	RouteAPIResources = "/api/{provider}/{entity}"
	RouteAPILive      = "/api/{provider}/{entity}/live"
)
