package server

func (s *Server) initRoutes() {
	// Browser shim and OAuth redirect
	s.RegisterRouteHandler("POST "+RouteNavigationEvents, ChainMiddleware(s.NavigationEventHandler(), s.EventMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteCallback, ChainMiddleware(s.CallbackHandler(), s.EventMiddleware()...))

	// Popup API
	s.RegisterRouteHandler("GET "+RouteAPIStatus, ChainMiddleware(s.StatusHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteAPISync, ChainMiddleware(s.SyncHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteAPIToken, ChainMiddleware(s.TokenHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteAPILogin, ChainMiddleware(s.LoginHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteAPIResources, ChainMiddleware(s.ResourcesHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteAPILive, ChainMiddleware(s.LiveResourcesHandler(), s.APIMiddleware()...))

	// CORS preflight for the extension origin
	s.RegisterRouteHandler("OPTIONS /", ChainMiddleware(s.PreflightHandler(), s.APIMiddleware()...))
}
