package payments

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCreateInvoice(t *testing.T) {
	var received createInvoiceRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		json.NewEncoder(w).Encode(createInvoiceResponse{
			ReasonCode: 1100,
			InvoiceURL: "https://secure.wayforpay.com/invoice/xyz",
		})
	}))
	defer server.Close()

	client := NewClient("merchant", "secret", "example.com")
	client.apiURL = server.URL

	invoice, err := client.CreateInvoice(context.Background(), InvoiceRequest{
		Amount:           "50",
		Currency:         "USD",
		SubscriptionDays: 90,
		ProductName:      "Community access",
	})
	assert.NoError(t, err)
	assert.Equal(t, "https://secure.wayforpay.com/invoice/xyz", invoice.InvoiceURL)
	assert.Equal(t, received.OrderReference, invoice.OrderReference)

	assert.Equal(t, "CREATE_INVOICE", received.TransactionType)
	assert.Equal(t, "merchant", received.MerchantAccount)
	assert.Equal(t, "SimpleSignature", received.MerchantAuthType)
	assert.Equal(t, []string{"Community access"}, received.ProductName)
	assert.Equal(t, []string{"50"}, received.ProductPrice)
	assert.Equal(t, []int{1}, received.ProductCount)
	assert.Equal(t, "true", received.Recurring)
	// 90 days becomes a 3 month subscription period
	assert.Equal(t, "3", received.SubscriptionPeriod)

	// the signature the server saw matches a local recomputation
	sent := received
	sent.MerchantSignature = ""
	assert.Equal(t, client.sign(sent), received.MerchantSignature)
}

func TestCreateInvoiceShortPeriodRoundsUpToOneMonth(t *testing.T) {
	var received createInvoiceRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		json.NewEncoder(w).Encode(createInvoiceResponse{ReasonCode: 1100, InvoiceURL: "https://pay.example/1"})
	}))
	defer server.Close()

	client := NewClient("merchant", "secret", "example.com")
	client.apiURL = server.URL

	_, err := client.CreateInvoice(context.Background(), InvoiceRequest{
		Amount:           "10",
		Currency:         "USD",
		SubscriptionDays: 7,
		ProductName:      "Trial",
	})
	assert.NoError(t, err)
	assert.Equal(t, "1", received.SubscriptionPeriod)
}

func TestCreateInvoiceRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(createInvoiceResponse{Reason: "bad signature", ReasonCode: 1101})
	}))
	defer server.Close()

	client := NewClient("merchant", "secret", "example.com")
	client.apiURL = server.URL

	invoice, err := client.CreateInvoice(context.Background(), InvoiceRequest{
		Amount:      "50",
		Currency:    "USD",
		ProductName: "Community access",
	})
	assert.Nil(t, invoice)
	assert.ErrorContains(t, err, "bad signature")
}

func TestSignIsDeterministic(t *testing.T) {
	client := NewClient("merchant", "secret", "example.com")

	req := createInvoiceRequest{
		MerchantAccount:    "merchant",
		MerchantDomainName: "example.com",
		OrderReference:     "WFP-1700000000-deadbeef",
		OrderDate:          1700000000,
		Amount:             "50",
		Currency:           "USD",
		ProductName:        []string{"Community access"},
		ProductPrice:       []string{"50"},
		ProductCount:       []int{1},
	}

	first := client.sign(req)
	assert.Equal(t, first, client.sign(req))
	assert.Regexp(t, regexp.MustCompile(`^[0-9a-f]{32}$`), first)

	// any signed field changing changes the signature
	req.Amount = "51"
	assert.NotEqual(t, first, client.sign(req))
}

func TestNewOrderReference(t *testing.T) {
	ref := newOrderReference(1700000000)
	assert.Regexp(t, regexp.MustCompile(`^WFP-1700000000-[0-9a-f-]{8}$`), ref)
	assert.NotEqual(t, ref, newOrderReference(1700000000))
}
