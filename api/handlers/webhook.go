package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/upworkrevolution/membership-api/config"
	"github.com/upworkrevolution/membership-api/databases"
	"github.com/upworkrevolution/membership-api/models"
)

// Webhook consumes the payment provider's callbacks and reconciles them
// against the order and user stores. Every step tolerates redelivery:
// the order transition is guarded and the user extension only fires when
// the transition actually happened.
type Webhook struct {
	OrderDB databases.OrderDatabase
	UserDB  databases.UserDatabase
}

var errMissingReference = errors.New("orderReference not found in callback")

// PaymentSuccessHandler handles POST /callback_success
func (h Webhook) PaymentSuccessHandler(w http.ResponseWriter, r *http.Request) {
	cb, err := parsePaymentCallback(r)
	if err != nil {
		config.ErrorStatus("invalid payment callback", http.StatusBadRequest, w, err)
		return
	}

	// declined notifications may lack a reference entirely, acknowledge
	// without touching any order
	if cb.TransactionStatus == models.TransactionStatusDeclined {
		writeOK(w)
		return
	}

	if cb.OrderReference == "" {
		config.ErrorStatus("orderReference not found", http.StatusBadRequest, w, errMissingReference)
		return
	}

	ctx := r.Context()
	paidAt := processingDateOrNow(cb.ProcessingDate)

	if cb.Email != "" {
		if err := h.UserDB.UpdateLastPayment(ctx, cb.Email, paidAt); err != nil {
			if !errors.Is(err, databases.ErrUserNotFound) {
				config.ErrorStatus("failed to update last payment date", http.StatusInternalServerError, w, err)
				return
			}
			// the member has not joined yet, the join attribution will set it
		}
	}

	transitioned, err := h.OrderDB.MarkPaid(ctx, cb.OrderReference)
	if err != nil {
		config.ErrorStatus("failed to mark order paid", http.StatusInternalServerError, w, err)
		return
	}

	if !transitioned {
		if _, err := h.OrderDB.FindByOrderReference(ctx, cb.OrderReference); err != nil {
			if errors.Is(err, databases.ErrOrderNotFound) {
				config.ErrorStatus("order not found", http.StatusBadRequest, w, err)
				return
			}
			config.ErrorStatus("failed to look up order", http.StatusInternalServerError, w, err)
			return
		}
		// duplicate delivery for an order already past created
		zap.S().Infow("stale payment callback ignored", "orderReference", cb.OrderReference)
		writeOK(w)
		return
	}

	if err := h.extendFromOrder(ctx, cb.OrderReference, paidAt); err != nil {
		config.ErrorStatus("failed to extend subscription", http.StatusInternalServerError, w, err)
		return
	}

	writeOK(w)
}

// extendFromOrder applies the paid order's period to the user it was
// sold to. The order's attribution claim is consumed before extending,
// so this path and the join attribution path apply an order at most
// once between them, whichever runs first.
func (h Webhook) extendFromOrder(ctx context.Context, orderReference string, paidAt int64) error {
	order, err := h.OrderDB.FindByOrderReference(ctx, orderReference)
	if err != nil {
		return err
	}

	user, err := h.UserDB.FindByEmail(ctx, order.Email)
	if err != nil {
		if errors.Is(err, databases.ErrUserNotFound) {
			// not joined yet, the attribution path grants on join
			zap.S().Infow("paid order has no user yet, extension deferred to join attribution",
				"orderReference", orderReference,
				"email", order.Email,
			)
			return nil
		}
		return err
	}

	if _, err := h.OrderDB.ClaimForAttribution(ctx, order.InviteLink); err != nil {
		if errors.Is(err, databases.ErrOrderClaimed) {
			// a join through this order's invite already applied it
			zap.S().Infow("order already attributed, extension skipped",
				"orderReference", orderReference,
			)
			return nil
		}
		return err
	}

	_, err = h.UserDB.UpsertExtend(ctx, databases.ExtendParams{
		MemberID:       user.MemberID,
		Email:          order.Email,
		DiscordName:    user.DiscordName,
		DisplayName:    user.DisplayName,
		InviteLinkUsed: user.InviteLinkUsed,
		PaymentAt:      paidAt,
		Days:           order.SubscriptionDays,
	})
	if err != nil {
		return err
	}

	zap.S().Infow("subscription extended from payment",
		"orderReference", orderReference,
		"memberId", user.MemberID,
		"days", order.SubscriptionDays,
	)
	return nil
}

// PaymentFailureHandler handles POST /callback_failure
func (h Webhook) PaymentFailureHandler(w http.ResponseWriter, r *http.Request) {
	cb, err := parsePaymentCallback(r)
	if err != nil {
		config.ErrorStatus("invalid payment callback", http.StatusBadRequest, w, err)
		return
	}

	if cb.OrderReference == "" {
		config.ErrorStatus("orderReference not found", http.StatusBadRequest, w, errMissingReference)
		return
	}

	deleted, err := h.OrderDB.DeleteByReference(r.Context(), cb.OrderReference)
	if err != nil {
		config.ErrorStatus("failed to delete declined order", http.StatusInternalServerError, w, err)
		return
	}
	if !deleted {
		// unknown reference or order already paid, the provider retries
		// aggressively so acknowledge instead of bouncing
		zap.S().Warnw("failure callback matched no created order", "orderReference", cb.OrderReference)
	} else {
		zap.S().Infow("declined order deleted", "orderReference", cb.OrderReference)
	}

	writeOK(w)
}

// parsePaymentCallback reads the provider's callback body. The contract
// is explicit: either a raw JSON body, or a form post carrying the JSON
// document in the "payload" field.
func parsePaymentCallback(r *http.Request) (*models.PaymentCallback, error) {
	var raw []byte
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
		if err != nil {
			return nil, fmt.Errorf("failed to read callback body: %w", err)
		}
		raw = body
	} else {
		if err := r.ParseForm(); err != nil {
			return nil, fmt.Errorf("failed to parse callback form: %w", err)
		}
		raw = []byte(r.PostFormValue("payload"))
	}

	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, errors.New("empty callback body")
	}

	cb := &models.PaymentCallback{}
	if err := json.Unmarshal(raw, cb); err != nil {
		return nil, fmt.Errorf("failed to decode callback json: %w", err)
	}
	return cb, nil
}

// processingDateOrNow parses the provider's processing date, falling
// back to the current time when absent or not numeric.
func processingDateOrNow(date json.Number) int64 {
	if ts, err := date.Int64(); err == nil && ts > 0 {
		return ts
	}
	return time.Now().Unix()
}

func writeOK(w http.ResponseWriter) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}
