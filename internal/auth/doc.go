// Package auth identifies callers and decides what they may do.
//
// Two modes are supported:
//   - "local" (default): users live in the database. Browsers log in with a
//     session cookie (scs, stored in SQLite); scripts send
//     "Authorization: Bearer <token>".
//   - "none": development mode, every request acts as an admin.
//
// The public catalog is readable by anyone. Importing and every other admin
// operation require CanImport, which only the admin role satisfies.
//
// # Wiring
//
//	svc := auth.NewService(users.NewRepository(db), cfg.Auth)
//	sessions, _ := auth.NewSessionManager(sqlDB, cfg.Auth)
//	mw := auth.NewMiddleware(svc, sessions, cfg.Auth)
//
//	router.Use(sessions.LoadAndSave(), mw.Identify())
//	admin := router.Group("/api/admin", mw.RequireAdmin())
package auth
