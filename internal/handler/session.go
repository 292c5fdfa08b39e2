package handler

import (
	"net"
	"net/http"
	"strings"

	"equipment-console/internal/middleware"
	"equipment-console/internal/view"
)

// SessionHeader lets a console tab name its list session. Requests without
// it share the session of their client address.
const SessionHeader = "X-Console-Session"

type sessionLists struct {
	sessions *view.Sessions
}

// SessionLists serves each console session its own view.ListController.
func SessionLists(sessions *view.Sessions) ListSessions {
	return sessionLists{sessions: sessions}
}

func (l sessionLists) List(session string) EquipmentList {
	return l.sessions.For(session)
}

func sessionKeyFor(r *http.Request) string {
	if key := strings.TrimSpace(r.Header.Get(SessionHeader)); key != "" {
		return key
	}
	if ip := middleware.ClientIP(r.Context()); ip != "" {
		return ip
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
