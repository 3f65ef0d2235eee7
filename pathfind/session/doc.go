// Package session provides session management for gridpath.
//
// The session package implements:
//   - Thread-safe session storage and retrieval
//   - Short random session IDs, matched case-insensitively
//   - Expiry of inactive sessions
//   - Optional file persistence of session grids
//
// Core Types:
//
// Manager holds the active sessions, each with its own search engine.
// FilePersistence stores one JSON file per session containing the grid
// dimensions, endpoints and walls. Search progress is never stored, so a
// session loaded from disk is always idle.
//
// Usage:
//
//	manager := session.NewManager()
//
//	sess, err := manager.Create("", gridConfig)
//	if err != nil {
//		log.Fatal(err)
//	}
//	sess, err = manager.Get(sess.ID)
//
// Persistence:
//
//	persistence, err := session.NewFilePersistence("sessions", configManager)
//	manager := session.NewManagerWithPersistence(persistence)
//	err = manager.LoadPersistedSessions()
package session
