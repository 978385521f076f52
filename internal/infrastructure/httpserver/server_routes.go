package httpserver

func (s *Server) setupRoutes() {
	s.echo.GET("/health", s.healthCheck)
	s.echo.GET("/metrics", s.metricsEndpoint)

	api := s.echo.Group("/api/v1")

	// Every document route runs through the operation guard: identity
	// resolution, rate limiting, permission check, tenant-scoped handler,
	// audit. There is no unguarded data path.
	docs := api.Group("/documents/:kind")
	docs.GET("", s.listDocuments)
	docs.POST("", s.createDocument)
	docs.GET("/:id", s.getDocument)
	docs.PATCH("/:id", s.updateDocument)
	docs.DELETE("/:id", s.deleteDocument)
	docs.POST("/export", s.exportDocuments)

	api.GET("/quota/:operation", s.quotaStatus)
	api.GET("/audit", s.listAuditRecords)
}
