package discord

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/upworkrevolution/membership-api/models"
)

// InviteLedger caches invite use counts per guild so a join event can be
// matched to the single-use invite it consumed. The cache lives for the
// process lifetime and is rebuilt from the gateway on demand.
type InviteLedger struct {
	mu      sync.Mutex
	guilds  map[string]map[string]int
	gateway MembershipGateway
}

// NewInviteLedger creates an empty ledger backed by the given gateway.
func NewInviteLedger(gateway MembershipGateway) *InviteLedger {
	return &InviteLedger{
		guilds:  make(map[string]map[string]int),
		gateway: gateway,
	}
}

// Refresh replaces the cached snapshot for a guild with the gateway's
// current invite list. On failure the cache is left stale, the next
// successful refresh or diff repairs it.
func (l *InviteLedger) Refresh(guildID string) error {
	observed, err := l.gateway.ListInvites(guildID)
	if err != nil {
		return fmt.Errorf("failed to refresh invites for guild %s: %w", guildID, err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.guilds[guildID] = snapshot(observed)
	return nil
}

// Record adds a freshly created invite to the snapshot so the next diff
// does not mistake its first use for an unknown invite.
func (l *InviteLedger) Record(guildID string, invite models.Invite) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.guilds[guildID]; !ok {
		l.guilds[guildID] = make(map[string]int)
	}
	l.guilds[guildID][invite.Code] = invite.Uses
}

// Diff returns the code of the invite whose use count strictly increased
// versus the cached snapshot, or "" when none did. If several invites
// increased in the same poll the first match wins and a warning is
// logged. The snapshot is unconditionally replaced afterwards, so a
// missed delta cannot be reported twice.
func (l *InviteLedger) Diff(guildID string, observed []models.Invite) string {
	l.mu.Lock()
	defer l.mu.Unlock()

	previous := l.guilds[guildID]

	used := ""
	increased := 0
	for _, invite := range observed {
		if invite.Uses > previous[invite.Code] {
			increased++
			if used == "" {
				used = invite.Code
			}
		}
	}
	if increased > 1 {
		zap.S().Warnw("ambiguous invite attribution, multiple invites increased in one poll",
			"guildId", guildID,
			"increased", increased,
			"resolvedTo", used,
		)
	}

	l.guilds[guildID] = snapshot(observed)
	return used
}

func snapshot(invites []models.Invite) map[string]int {
	m := make(map[string]int, len(invites))
	for _, invite := range invites {
		m[invite.Code] = invite.Uses
	}
	return m
}
