package payment

import (
	"context"
	"crypto/md5"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"spazapos/m/internal/apperr"
	"spazapos/m/internal/config"
)

// ProviderName is recorded as the payment method of notified sales.
const ProviderName = "payfast"

// Notification payment_status values sent by the provider.
const (
	StatusComplete  = "COMPLETE"
	StatusFailed    = "FAILED"
	StatusCancelled = "CANCELLED"
)

const (
	sandboxProcessURL  = "https://sandbox.payfast.co.za/eng/process"
	liveProcessURL     = "https://www.payfast.co.za/eng/process"
	sandboxValidateURL = "https://sandbox.payfast.co.za/eng/query/validate"
	liveValidateURL    = "https://www.payfast.co.za/eng/query/validate"

	// Provider-imposed floor on a single payment.
	minAmount = 5.00
)

// Client talks to the PayFast-style payment provider. The core only depends
// on its narrow contract: a signed redirect payload out, a verifiable
// notification back.
type Client struct {
	cfg        config.PayFastConfig
	httpClient *resty.Client
	logger     *zap.Logger
}

// NewClient builds a payment client from configuration.
func NewClient(cfg config.PayFastConfig, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		cfg:        cfg,
		httpClient: resty.New().SetTimeout(10 * time.Second),
		logger:     logger,
	}
}

// CheckoutRequest describes the sale a buyer is being redirected to pay for.
type CheckoutRequest struct {
	ItemName string
	Amount   float64
}

// Checkout is the signed payload the caller posts to the provider's process
// URL, plus the merchant payment id used to correlate the notification.
type Checkout struct {
	MerchantPaymentID string            `json:"merchant_payment_id"`
	ProcessURL        string            `json:"process_url"`
	Fields            map[string]string `json:"fields"`
}

// CreateCheckout builds a signed checkout payload.
func (c *Client) CreateCheckout(req CheckoutRequest) (*Checkout, error) {
	if req.Amount < minAmount {
		return nil, apperr.Payment(fmt.Sprintf("minimum payment amount is R%.2f", minAmount))
	}

	merchantPaymentID := "POS_" + uuid.NewString()
	itemName := strings.TrimSpace(req.ItemName)
	if len(itemName) > 100 {
		itemName = itemName[:100]
	}

	fields := map[string]string{
		"merchant_id":  strings.TrimSpace(c.cfg.MerchantID),
		"merchant_key": strings.TrimSpace(c.cfg.MerchantKey),
		"return_url":   c.cfg.ReturnURL,
		"cancel_url":   c.cfg.CancelURL,
		"notify_url":   c.cfg.NotifyURL,
		"m_payment_id": merchantPaymentID,
		"amount":       fmt.Sprintf("%.2f", req.Amount),
		"item_name":    itemName,
	}
	fields["signature"] = c.Sign(fields)

	return &Checkout{
		MerchantPaymentID: merchantPaymentID,
		ProcessURL:        c.processURL(),
		Fields:            fields,
	}, nil
}

// Sign computes the provider signature: md5 over the alphabetically sorted,
// url-encoded, non-empty fields, with the passphrase appended. The signature
// field itself is excluded.
func (c *Client) Sign(fields map[string]string) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		if k == "signature" || fields[k] == "" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+url.QueryEscape(fields[k]))
	}
	param := strings.Join(pairs, "&")

	if pass := strings.TrimSpace(c.cfg.Passphrase); pass != "" {
		param += "&passphrase=" + url.QueryEscape(pass)
	}

	sum := md5.Sum([]byte(param))
	return hex.EncodeToString(sum[:])
}

// VerifySignature checks a notification's signature against the shared
// passphrase.
func (c *Client) VerifySignature(fields map[string]string) bool {
	got := fields["signature"]
	if got == "" {
		return false
	}
	want := c.Sign(fields)
	return subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}

// ValidateNotification posts the notification back to the provider, which
// answers VALID only for notifications it actually sent.
func (c *Client) ValidateNotification(ctx context.Context, fields map[string]string) error {
	form := make(map[string]string, len(fields))
	for k, v := range fields {
		form[k] = v
	}

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetFormData(form).
		Post(c.validateURL())
	if err != nil {
		return apperr.Payment("unable to validate payment notification")
	}

	body := strings.TrimSpace(string(resp.Body()))
	if resp.StatusCode() != 200 || body != "VALID" {
		c.logger.Warn("payment notification rejected by provider",
			zap.Int("status", resp.StatusCode()),
			zap.String("body", body))
		return apperr.Payment("payment notification rejected by provider")
	}
	return nil
}

func (c *Client) processURL() string {
	if c.cfg.Sandbox {
		return sandboxProcessURL
	}
	return liveProcessURL
}

func (c *Client) validateURL() string {
	if c.cfg.ValidateURL != "" {
		return c.cfg.ValidateURL
	}
	if c.cfg.Sandbox {
		return sandboxValidateURL
	}
	return liveValidateURL
}
