package discord

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/upworkrevolution/membership-api/databases"
)

// Resolver maps an anonymous guild join to the order that produced its
// single-use invite and grants the subscription accordingly. When
// attribution fails for any reason the member still gets a short
// provisional grant: revocation is cheap to retry, rejecting the join
// is not.
type Resolver struct {
	ledger          *InviteLedger
	gateway         MembershipGateway
	orders          databases.OrderDatabase
	users           databases.UserDatabase
	provisionalDays int
}

// NewResolver wires the attribution resolver.
func NewResolver(ledger *InviteLedger, gateway MembershipGateway, orders databases.OrderDatabase, users databases.UserDatabase, provisionalDays int) *Resolver {
	return &Resolver{
		ledger:          ledger,
		gateway:         gateway,
		orders:          orders,
		users:           users,
		provisionalDays: provisionalDays,
	}
}

// HandleMemberJoin resolves one join event. Safe to re-run for the same
// join: the order claim is at-most-once, a replay only refreshes the
// provisional grant.
func (r *Resolver) HandleMemberJoin(ctx context.Context, join MemberJoin) {
	code := ""
	observed, err := r.gateway.ListInvites(join.GuildID)
	if err != nil {
		zap.S().Errorw("failed to list invites on member join",
			"guildId", join.GuildID,
			"memberId", join.MemberID,
			"error", err,
		)
	} else {
		code = r.ledger.Diff(join.GuildID, observed)
	}

	if code != "" {
		if err := r.attribute(ctx, join, InviteURL(code)); err == nil {
			zap.S().Infow("join attributed to order",
				"memberId", join.MemberID,
				"inviteCode", code,
			)
			return
		} else {
			zap.S().Warnw("failed to attribute join, falling back to provisional grant",
				"memberId", join.MemberID,
				"inviteCode", code,
				"error", err,
			)
		}
	} else {
		zap.S().Warnw("no invite delta found for member join",
			"guildId", join.GuildID,
			"memberId", join.MemberID,
		)
	}

	r.provisional(ctx, join)
}

func (r *Resolver) attribute(ctx context.Context, join MemberJoin, inviteLink string) error {
	order, err := r.orders.ClaimForAttribution(ctx, inviteLink)
	if err != nil {
		return err
	}

	_, err = r.users.UpsertExtend(ctx, databases.ExtendParams{
		MemberID:    join.MemberID,
		Email:       order.Email,
		DiscordName: join.Username,
		DisplayName: join.DisplayName,
		// the single-use link is spent, keeping it would only invite reuse bugs
		InviteLinkUsed: "",
		PaymentAt:      order.CreatedAt,
		Days:           order.SubscriptionDays,
	})
	return err
}

// provisional grants a short unattributed subscription. Unless a payment
// later attaches to the same member the scheduler revokes it after the
// grace window.
func (r *Resolver) provisional(ctx context.Context, join MemberJoin) {
	_, err := r.users.UpsertExtend(ctx, databases.ExtendParams{
		MemberID:    join.MemberID,
		Email:       "",
		DiscordName: join.Username,
		DisplayName: join.DisplayName,
		PaymentAt:   time.Now().Unix(),
		Days:        r.provisionalDays,
	})
	if err != nil {
		zap.S().Errorw("failed to store provisional grant",
			"memberId", join.MemberID,
			"error", err,
		)
		return
	}
	zap.S().Infow("provisional grant stored",
		"memberId", join.MemberID,
		"days", r.provisionalDays,
	)
}
