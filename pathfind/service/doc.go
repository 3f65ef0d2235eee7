// Package service provides the business logic layer for gridpath.
//
// The service package implements:
//   - Multi-session management, one search engine per session
//   - Wall editing, stepping and bulk stepping of searches
//   - Path and expansion trace retrieval
//   - Configuration listing, loading and export
//
// Core Interfaces:
//
// SearchService is the main service interface used by every transport.
// SessionManager handles session creation, retrieval, and lifecycle.
// ConfigManager manages grid configuration loading and validation.
//
// Architecture:
//
// The service layer sits between the transport layer (HTTP/WebSocket/MCP) and
// the search engine. Engines are not safe for concurrent use, so every call
// that touches an engine is serialized by the service. Each Start assigns the
// session a new run ID; Reset clears it.
//
// Usage:
//
//	sessionMgr := session.NewManager()
//	configMgr, _ := config.NewManager("configs")
//	svc := service.NewSearchService(sessionMgr, configMgr, service.WithLogger(logger))
//
//	info, err := svc.CreateSession(ctx, "maze")
//	if err != nil {
//		log.Fatal(err)
//	}
//	result, err := svc.BulkStep(ctx, info.ID, 0, true)
//
// Metrics:
//
// Steps, finished searches, path lengths and active sessions are exported
// through the default Prometheus registry.
package service
