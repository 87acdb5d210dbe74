package models

// Invite represents a single guild invite as reported by the membership
// gateway. Invites are never persisted, the ledger keeps them in memory
// for the lifetime of the process.
type Invite struct {
	Code string `json:"code"`
	URL  string `json:"url"`
	Uses int    `json:"uses"`
}
