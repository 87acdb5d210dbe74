// Package payments holds the WayForPay invoice client. The provider has
// no Go SDK, the surface here covers only what the purchase flow needs:
// creating a hosted invoice and signing the request with the merchant
// secret.
package payments

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	defaultAPIURL = "https://api.wayforpay.com/api"

	// reasonCodeOK is the provider's success code for API calls.
	reasonCodeOK = 1100
)

// InvoiceRequest describes one hosted invoice to create.
type InvoiceRequest struct {
	Amount           string
	Currency         string
	SubscriptionDays int
	ProductName      string
}

// Invoice is the provider's answer: the reference that webhooks will key
// on and the checkout URL to redirect the buyer to.
type Invoice struct {
	OrderReference string
	InvoiceURL     string
}

// InvoiceIssuer creates hosted invoices with the payment provider.
type InvoiceIssuer interface {
	CreateInvoice(ctx context.Context, req InvoiceRequest) (*Invoice, error)
}

// Client is a WayForPay API client.
type Client struct {
	merchantAccount string
	merchantSecret  string
	merchantDomain  string
	apiURL          string
	httpClient      *http.Client
}

// NewClient creates a WayForPay client with a bounded request timeout.
func NewClient(merchantAccount, merchantSecret, merchantDomain string) *Client {
	return &Client{
		merchantAccount: merchantAccount,
		merchantSecret:  merchantSecret,
		merchantDomain:  merchantDomain,
		apiURL:          defaultAPIURL,
		httpClient:      &http.Client{Timeout: 10 * time.Second},
	}
}

type createInvoiceRequest struct {
	TransactionType    string   `json:"transactionType"`
	MerchantAccount    string   `json:"merchantAccount"`
	MerchantAuthType   string   `json:"merchantAuthType"`
	MerchantDomainName string   `json:"merchantDomainName"`
	MerchantSignature  string   `json:"merchantSignature"`
	APIVersion         int      `json:"apiVersion"`
	OrderReference     string   `json:"orderReference"`
	OrderDate          int64    `json:"orderDate"`
	Amount             string   `json:"amount"`
	Currency           string   `json:"currency"`
	ProductName        []string `json:"productName"`
	ProductPrice       []string `json:"productPrice"`
	ProductCount       []int    `json:"productCount"`
	Recurring          string   `json:"recurring,omitempty"`
	SubscriptionPeriod string   `json:"subscriptionPeriod,omitempty"`
}

type createInvoiceResponse struct {
	Reason     string `json:"reason"`
	ReasonCode int    `json:"reasonCode"`
	InvoiceURL string `json:"invoiceUrl"`
}

// CreateInvoice creates a hosted recurring invoice and returns the
// reference that payment callbacks will carry.
func (c *Client) CreateInvoice(ctx context.Context, req InvoiceRequest) (*Invoice, error) {
	orderDate := time.Now().Unix()
	orderReference := newOrderReference(orderDate)

	// subscription periods are expressed in months
	subscriptionMonths := req.SubscriptionDays / 30
	if subscriptionMonths < 1 {
		subscriptionMonths = 1
	}

	body := createInvoiceRequest{
		TransactionType:    "CREATE_INVOICE",
		MerchantAccount:    c.merchantAccount,
		MerchantAuthType:   "SimpleSignature",
		MerchantDomainName: c.merchantDomain,
		APIVersion:         1,
		OrderReference:     orderReference,
		OrderDate:          orderDate,
		Amount:             req.Amount,
		Currency:           req.Currency,
		ProductName:        []string{req.ProductName},
		ProductPrice:       []string{req.Amount},
		ProductCount:       []int{1},
		Recurring:          "true",
		SubscriptionPeriod: strconv.Itoa(subscriptionMonths),
	}
	body.MerchantSignature = c.sign(body)

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal invoice request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("invoice request failed: %w", err)
	}
	defer resp.Body.Close()

	var decoded createInvoiceResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("failed to decode invoice response: %w", err)
	}
	if decoded.ReasonCode != reasonCodeOK || decoded.InvoiceURL == "" {
		return nil, fmt.Errorf("invoice rejected by provider: %s (%d)", decoded.Reason, decoded.ReasonCode)
	}

	return &Invoice{
		OrderReference: orderReference,
		InvoiceURL:     decoded.InvoiceURL,
	}, nil
}

// sign computes the SimpleSignature over the provider's fixed field list:
// HMAC-MD5 of the semicolon-joined values, hex encoded.
func (c *Client) sign(req createInvoiceRequest) string {
	fields := []string{
		req.MerchantAccount,
		req.MerchantDomainName,
		req.OrderReference,
		strconv.FormatInt(req.OrderDate, 10),
		req.Amount,
		req.Currency,
	}
	fields = append(fields, req.ProductName...)
	for _, count := range req.ProductCount {
		fields = append(fields, strconv.Itoa(count))
	}
	fields = append(fields, req.ProductPrice...)

	mac := hmac.New(md5.New, []byte(c.merchantSecret))
	mac.Write([]byte(strings.Join(fields, ";")))
	return hex.EncodeToString(mac.Sum(nil))
}

func newOrderReference(orderDate int64) string {
	return fmt.Sprintf("WFP-%d-%s", orderDate, uuid.NewString()[:8])
}
