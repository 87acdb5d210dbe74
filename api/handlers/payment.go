package handlers

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/upworkrevolution/membership-api/config"
	"github.com/upworkrevolution/membership-api/databases"
	"github.com/upworkrevolution/membership-api/discord"
	"github.com/upworkrevolution/membership-api/payments"
)

const productDescriptor = "Access to the private Upwork Revolution Discord community"

// Payment exposes the purchase-initiation flow: it turns a submitted
// payment form into a single-use invite, an order and a hosted invoice,
// then sends the buyer to the provider's checkout page.
type Payment struct {
	OrderDB         databases.OrderDatabase
	Gateway         discord.MembershipGateway
	Ledger          *discord.InviteLedger
	Issuer          payments.InvoiceIssuer
	GuildID         string
	InviteChannelID string
}

// CreatePaymentHandler handles POST /api/v1/payment
func (p Payment) CreatePaymentHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		config.ErrorStatus("failed to parse payment form", http.StatusBadRequest, w, err)
		return
	}

	email := r.PostFormValue("email")
	amount := r.PostFormValue("sub_price")
	subDays, err := strconv.Atoi(r.PostFormValue("sub_time"))
	if email == "" || amount == "" {
		config.ErrorStatus("email and sub_price are required", http.StatusBadRequest, w, errors.New("missing form values"))
		return
	}
	if err != nil || subDays <= 0 {
		config.ErrorStatus("sub_time must be a positive number of days", http.StatusBadRequest, w, err)
		return
	}

	ctx := r.Context()

	invite, err := p.Gateway.CreateSingleUseInvite(p.InviteChannelID)
	if err != nil {
		config.ErrorStatus("failed to create invite", http.StatusBadGateway, w, err)
		return
	}
	p.Ledger.Record(p.GuildID, *invite)

	order, err := p.OrderDB.Create(ctx, email, invite.URL, amount, subDays)
	if err != nil {
		config.ErrorStatus("failed to create order", http.StatusInternalServerError, w, err)
		return
	}

	invoice, err := p.Issuer.CreateInvoice(ctx, payments.InvoiceRequest{
		Amount:           amount,
		Currency:         "USD",
		SubscriptionDays: subDays,
		ProductName:      productDescriptor,
	})
	if err != nil {
		config.ErrorStatus("failed to create invoice", http.StatusBadGateway, w, err)
		return
	}

	if err := p.OrderDB.AttachOrderReference(ctx, order.OrderID, invoice.OrderReference); err != nil {
		config.ErrorStatus("failed to attach order reference", http.StatusInternalServerError, w, err)
		return
	}

	zap.S().Infow("order created",
		"orderId", order.OrderID,
		"orderReference", invoice.OrderReference,
		"subscriptionDays", subDays,
	)

	http.Redirect(w, r, invoice.InvoiceURL, http.StatusSeeOther)
}

// PaymentResponseHandler is the page the provider sends the buyer back to.
func (p Payment) PaymentResponseHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, "Payment completed. Thank you!")
}
