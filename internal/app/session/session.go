/*
Package session defines the identity and transient collaboration state of
one live connection.

A Session exists only between a successful credential check at connect
time and the connection's teardown. It records which page room and which
workspace chat scope the connection currently occupies; a connection is in
at most one of each.
*/
package session

// Role is the caller's role as supplied by the external auth service.
type Role string

const (
	RoleOwner  Role = "owner"
	RoleAdmin  Role = "admin"
	RoleEditor Role = "editor"
	RoleViewer Role = "viewer"
)

// CanEdit reports whether the role may mutate layouts and create commits.
func (r Role) CanEdit() bool {
	return r == RoleOwner || r == RoleAdmin || r == RoleEditor
}

// CanRollback reports whether the role may roll a page back to an earlier
// version. Restricted to elevated roles.
func (r Role) CanRollback() bool {
	return r == RoleOwner || r == RoleAdmin
}

// Session is one connection's identity and collaboration state.
type Session struct {
	// ConnectionID uniquely identifies this connection; it doubles as the
	// session ID shown in presence lists.
	ConnectionID string `json:"sessionId"`

	// UserID is the authenticated user behind the connection. One user may
	// hold several sessions at once (multiple tabs or devices).
	UserID string `json:"userId"`

	// UserName is the display name shown to collaborators.
	UserName string `json:"userName"`

	// Color is the deterministic presence color for this user.
	Color string `json:"color"`

	// Role gates elevated operations. Never serialized to peers.
	Role Role `json:"-"`

	// CurrentPageID is the page room this session occupies, if any.
	CurrentPageID string `json:"-"`

	// CurrentWebsiteID is the workspace chat scope this session occupies, if any.
	CurrentWebsiteID string `json:"-"`
}
