// Package websocket streams search snapshots to browser clients.
//
// A central Hub owns every connection. Clients subscribe to a single session
// by ID when they connect; each broadcast is encoded once and written to the
// subscribers of that session, one JSON document per frame:
//
//	{"session_id": "abc1", "event": "step", "snapshot": {...}}
//
// Incoming frames are read only to keep the connection alive. Commands go
// through the REST API, which pushes the resulting snapshot through the hub.
//
// Usage:
//
//	hub := websocket.NewHub(logger)
//	go hub.Run(ctx)
//
//	router.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
//		hub.ServeWS(w, r, r.URL.Query().Get("session"))
//	})
//
// Clients whose send buffer fills up are dropped rather than allowed to stall
// the hub.
package websocket
