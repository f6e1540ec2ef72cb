// Package handlers contains reusable pieces of the HTTP interface: health
// checking and middleware.
//
// # Health Checks
//
// Named checks run in parallel, each under its own timeout:
//
//	checker := handlers.NewCompositeHealthChecker("v1")
//	checker.AddCheck("database", handlers.NewDatabaseCheck(store))
//	checker.AddCheck("cache", handlers.NewCacheCheck(cache))
//
//	status := checker.Check(ctx)
//
// # Service Tokens
//
// Write endpoints are called by trusted services. The token is stored only
// as a bcrypt hash:
//
//	auth, err := handlers.NewServiceTokenAuth(hash)
//	r.With(auth.Middleware).Post("/task-logs", h)
package handlers
