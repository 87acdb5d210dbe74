package scheduler

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/upworkrevolution/membership-api/config"
	"github.com/upworkrevolution/membership-api/databases"
	"github.com/upworkrevolution/membership-api/discord"
	"github.com/upworkrevolution/membership-api/mailer"
	"github.com/upworkrevolution/membership-api/models"
	templates "github.com/upworkrevolution/membership-api/templates/html"
)

const revocationDM = "Your access to the Upwork Revolution community has ended because no renewal payment was received. You can rejoin any time by purchasing a new subscription."

// Scheduler handles the periodic membership jobs: warning emails, access
// revocation, the daily warned-flag reset and fulfillment of paid orders.
type Scheduler struct {
	cron       *cron.Cron
	UserDB     databases.UserDatabase
	OrderDB    databases.OrderDatabase
	LockDB     databases.SchedulerLockDatabase
	Gateway    discord.MembershipGateway
	Notifier   mailer.Notifier
	Config     *config.Config
	instanceID string
}

// NewScheduler creates a new scheduler instance
func NewScheduler(
	userDB databases.UserDatabase,
	orderDB databases.OrderDatabase,
	lockDB databases.SchedulerLockDatabase,
	gateway discord.MembershipGateway,
	notifier mailer.Notifier,
	conf *config.Config,
) *Scheduler {
	// Generate a unique instance ID for this pod
	instanceID := os.Getenv("DYNO") // Heroku sets this to "web.1", "web.2", etc.
	if instanceID == "" {
		instanceID = fmt.Sprintf("instance-%d", time.Now().UnixNano())
	}

	return &Scheduler{
		cron:       cron.New(cron.WithLocation(time.UTC), cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger))),
		UserDB:     userDB,
		OrderDB:    orderDB,
		LockDB:     lockDB,
		Gateway:    gateway,
		Notifier:   notifier,
		Config:     conf,
		instanceID: instanceID,
	}
}

// Start begins the scheduler with all registered jobs
func (s *Scheduler) Start() {
	jobs := []struct {
		spec string
		name string
		fn   func()
	}{
		{s.Config.WarningCronSpec, "warning check", s.runWarningCheck},
		{s.Config.ExpiryCronSpec, "expiry check", s.runExpiryCheck},
		{s.Config.WarnedResetCronSpec, "warned flag reset", s.resetWarnedFlags},
		{s.Config.FulfillmentCronSpec, "order fulfillment", s.processPaidOrders},
	}
	for _, j := range jobs {
		if _, err := s.cron.AddFunc(j.spec, j.fn); err != nil {
			zap.S().Errorw("failed to register scheduler job", "job", j.name, "spec", j.spec, "error", err)
		}
	}

	s.cron.Start()
	zap.S().Info("Membership scheduler started")
}

// Stop gracefully stops the scheduler
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	zap.S().Info("Membership scheduler stopped")
}

// runWarningCheck emails members approaching the payment deadline. A
// member is warned at most once per cycle, the warned flag is cleared
// daily by resetWarnedFlags.
func (s *Scheduler) runWarningCheck() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	acquired, err := s.LockDB.TryAcquireLock(ctx, "warning_check", s.instanceID, 10*time.Minute)
	if err != nil {
		zap.S().Errorw("failed to acquire lock for warning check", "error", err)
		return
	}
	if !acquired {
		zap.S().Debug("Warning check already running on another instance, skipping")
		return
	}
	defer s.LockDB.ReleaseLock(ctx, "warning_check", s.instanceID)

	now := time.Now()
	candidates, err := s.UserDB.FindWarningCandidates(ctx, now, s.Config.HardExpiry(), s.Config.WarningLead())
	if err != nil {
		zap.S().Errorw("failed to find warning candidates", "error", err)
		return
	}

	warned := 0
	for _, user := range candidates {
		daysLeft := daysUntilHardExpiry(user, now, s.Config.HardExpiry())
		if err := s.sendWarningEmail(user, daysLeft); err != nil {
			zap.S().Errorw("failed to send warning email", "error", err, "memberId", user.MemberID)
			continue
		}
		if err := s.UserDB.SetWarned(ctx, user.MemberID, true); err != nil {
			zap.S().Errorw("failed to set warned flag", "error", err, "memberId", user.MemberID)
			continue
		}
		warned++
	}

	zap.S().Infow("Warning check complete",
		"candidates", len(candidates),
		"warned", warned,
	)
}

// runExpiryCheck revokes access for members whose subscription lapsed.
// Notification is best effort, the kick is the operation that counts.
func (s *Scheduler) runExpiryCheck() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	acquired, err := s.LockDB.TryAcquireLock(ctx, "expiry_check", s.instanceID, 10*time.Minute)
	if err != nil {
		zap.S().Errorw("failed to acquire lock for expiry check", "error", err)
		return
	}
	if !acquired {
		zap.S().Debug("Expiry check already running on another instance, skipping")
		return
	}
	defer s.LockDB.ReleaseLock(ctx, "expiry_check", s.instanceID)

	now := time.Now()
	candidates, err := s.UserDB.FindExpiryCandidates(ctx, now, s.Config.HardExpiry())
	if err != nil {
		zap.S().Errorw("failed to find expiry candidates", "error", err)
		return
	}

	revoked := 0
	for _, user := range candidates {
		if !eligibleForRevocation(user, now, s.Config.GraceWindow) {
			continue
		}
		if s.revokeAccess(ctx, user) {
			revoked++
		}
	}

	zap.S().Infow("Expiry check complete",
		"candidates", len(candidates),
		"revoked", revoked,
	)
}

// eligibleForRevocation applies the grace window: a member whose first
// payment is very recent is never kicked, even if a clock skew or
// backdated record put them past the threshold.
func eligibleForRevocation(user models.User, now time.Time, grace time.Duration) bool {
	return user.FirstPaymentAt <= now.Add(-grace).Unix()
}

// revokeAccess notifies and kicks a single member. Reports whether the
// member is gone from the guild afterwards.
func (s *Scheduler) revokeAccess(ctx context.Context, user models.User) bool {
	if err := s.Gateway.DMMember(user.MemberID, revocationDM); err != nil && !errors.Is(err, discord.ErrMemberNotFound) {
		zap.S().Warnw("failed to DM member before revocation", "error", err, "memberId", user.MemberID)
	}
	if user.Email != "" {
		if err := s.sendRevocationEmail(user); err != nil {
			zap.S().Warnw("failed to send revocation email", "error", err, "memberId", user.MemberID)
		}
	}

	err := s.Gateway.KickMember(s.Config.DiscordGuildID, user.MemberID, "subscription expired")
	if err != nil && !errors.Is(err, discord.ErrMemberNotFound) {
		zap.S().Errorw("failed to kick member", "error", err, "memberId", user.MemberID)
		return false
	}

	if err := s.UserDB.SetWarned(ctx, user.MemberID, false); err != nil {
		zap.S().Warnw("failed to clear warned flag after revocation", "error", err, "memberId", user.MemberID)
	}

	zap.S().Infow("Member access revoked",
		"memberId", user.MemberID,
		"provisional", user.Provisional(),
	)
	return true
}

// resetWarnedFlags clears every warned flag so the next warning cycle
// can fire again. Runs daily, right after the expiry check window.
func (s *Scheduler) resetWarnedFlags() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	acquired, err := s.LockDB.TryAcquireLock(ctx, "warned_reset", s.instanceID, 10*time.Minute)
	if err != nil {
		zap.S().Errorw("failed to acquire lock for warned flag reset", "error", err)
		return
	}
	if !acquired {
		zap.S().Debug("Warned flag reset already running on another instance, skipping")
		return
	}
	defer s.LockDB.ReleaseLock(ctx, "warned_reset", s.instanceID)

	cleared, err := s.UserDB.ClearAllWarned(ctx)
	if err != nil {
		zap.S().Errorw("failed to clear warned flags", "error", err)
		return
	}
	zap.S().Infow("Warned flags cleared", "count", cleared)
}

// processPaidOrders delivers the access email for every order the payment
// provider confirmed. The order is flipped to finished before the email
// goes out, so a retried poll can never email the same buyer twice; an
// email failure after the flip is logged and the buyer still holds a
// working invite from the checkout redirect.
func (s *Scheduler) processPaidOrders() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	acquired, err := s.LockDB.TryAcquireLock(ctx, "order_fulfillment", s.instanceID, 5*time.Minute)
	if err != nil {
		zap.S().Errorw("failed to acquire lock for order fulfillment", "error", err)
		return
	}
	if !acquired {
		zap.S().Debug("Order fulfillment already running on another instance, skipping")
		return
	}
	defer s.LockDB.ReleaseLock(ctx, "order_fulfillment", s.instanceID)

	orders, err := s.OrderDB.FindPaid(ctx)
	if err != nil {
		zap.S().Errorw("failed to find paid orders", "error", err)
		return
	}

	for _, order := range orders {
		s.fulfillOrder(ctx, order)
	}
}

func (s *Scheduler) fulfillOrder(ctx context.Context, order models.Order) {
	if order.OrderReference == nil {
		zap.S().Warnw("paid order has no order reference, skipping", "orderId", order.OrderID)
		return
	}

	flipped, err := s.OrderDB.MarkFinished(ctx, *order.OrderReference)
	if err != nil {
		zap.S().Errorw("failed to mark order finished", "error", err, "orderReference", *order.OrderReference)
		return
	}
	if !flipped {
		// another instance got here first
		return
	}

	name := mailer.RecipientName(order.Email)
	html := templates.RenderAccessEmail(name, order.InviteLink)
	plain := "Your payment was received. Join the community here: " + order.InviteLink
	if err := s.Notifier.Send(order.Email, name, "Welcome to Upwork Revolution", html, plain); err != nil {
		zap.S().Errorw("failed to send access email", "error", err, "orderReference", *order.OrderReference)
		return
	}

	zap.S().Infow("Order fulfilled",
		"orderId", order.OrderID,
		"orderReference", *order.OrderReference,
	)
}

func (s *Scheduler) sendWarningEmail(user models.User, daysLeft int) error {
	name := user.DisplayName
	if name == "" {
		name = mailer.RecipientName(user.Email)
	}
	html := templates.RenderPaymentWarningEmail(name, daysLeft)
	plain := fmt.Sprintf("Your subscription payment is due. Access ends in %d days unless a new payment is received.", daysLeft)
	return s.Notifier.Send(user.Email, name, "Your Upwork Revolution subscription needs a renewal", html, plain)
}

func (s *Scheduler) sendRevocationEmail(user models.User) error {
	name := user.DisplayName
	if name == "" {
		name = mailer.RecipientName(user.Email)
	}
	html := templates.RenderRevocationEmail(name)
	plain := "Your access to the Upwork Revolution community has ended. Purchase a new subscription to rejoin."
	return s.Notifier.Send(user.Email, name, "Your Upwork Revolution access has ended", html, plain)
}

// daysUntilHardExpiry reports whole days until the member crosses the
// hard-expiry threshold, floored at zero.
func daysUntilHardExpiry(user models.User, now time.Time, hardExpiry time.Duration) int {
	deadline := time.Unix(user.LastPaymentAt, 0).Add(hardExpiry)
	left := int(deadline.Sub(now).Hours() / 24)
	if left < 0 {
		return 0
	}
	return left
}
