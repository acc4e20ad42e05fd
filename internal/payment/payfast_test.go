package payment

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spazapos/m/internal/apperr"
	"spazapos/m/internal/config"
)

func testConfig() config.PayFastConfig {
	return config.PayFastConfig{
		MerchantID:  "10000100",
		MerchantKey: "46f0cd694581a",
		Passphrase:  "jt7NOE43FZPn",
		Sandbox:     true,
		ReturnURL:   "http://localhost:3000/payment-success",
		CancelURL:   "http://localhost:3000/payment-cancel",
		NotifyURL:   "http://localhost:8080/payment/notify",
	}
}

func TestSign_Deterministic(t *testing.T) {
	c := NewClient(testConfig(), nil)
	fields := map[string]string{
		"merchant_id":  "10000100",
		"m_payment_id": "POS_1",
		"amount":       "50.00",
		"item_name":    "Bread x2",
	}

	first := c.Sign(fields)
	second := c.Sign(fields)
	assert.Equal(t, first, second)
	assert.Len(t, first, 32)
	assert.Equal(t, strings.ToLower(first), first)
}

func TestSign_IgnoresEmptyAndSignatureFields(t *testing.T) {
	c := NewClient(testConfig(), nil)
	base := map[string]string{"amount": "50.00", "item_name": "Bread"}
	withNoise := map[string]string{
		"amount":    "50.00",
		"item_name": "Bread",
		"signature": "deadbeef",
		"email":     "",
	}
	assert.Equal(t, c.Sign(base), c.Sign(withNoise))
}

func TestSign_ChangesWithFieldsAndPassphrase(t *testing.T) {
	c := NewClient(testConfig(), nil)
	fields := map[string]string{"amount": "50.00", "item_name": "Bread"}
	tampered := map[string]string{"amount": "51.00", "item_name": "Bread"}
	assert.NotEqual(t, c.Sign(fields), c.Sign(tampered))

	otherCfg := testConfig()
	otherCfg.Passphrase = "different"
	other := NewClient(otherCfg, nil)
	assert.NotEqual(t, c.Sign(fields), other.Sign(fields))
}

func TestVerifySignature(t *testing.T) {
	c := NewClient(testConfig(), nil)
	fields := map[string]string{
		"m_payment_id":   "POS_1",
		"payment_status": "COMPLETE",
		"amount_gross":   "50.00",
	}
	fields["signature"] = c.Sign(fields)
	assert.True(t, c.VerifySignature(fields))

	fields["amount_gross"] = "500.00"
	assert.False(t, c.VerifySignature(fields))

	delete(fields, "signature")
	assert.False(t, c.VerifySignature(fields))
}

func TestCreateCheckout(t *testing.T) {
	c := NewClient(testConfig(), nil)

	checkout, err := c.CreateCheckout(CheckoutRequest{ItemName: "Bread x2", Amount: 30})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(checkout.MerchantPaymentID, "POS_"))
	assert.Equal(t, "https://sandbox.payfast.co.za/eng/process", checkout.ProcessURL)
	assert.Equal(t, "30.00", checkout.Fields["amount"])
	assert.Equal(t, "Bread x2", checkout.Fields["item_name"])
	assert.Equal(t, checkout.MerchantPaymentID, checkout.Fields["m_payment_id"])
	assert.True(t, c.VerifySignature(checkout.Fields))
}

func TestCreateCheckout_BelowMinimum(t *testing.T) {
	c := NewClient(testConfig(), nil)

	_, err := c.CreateCheckout(CheckoutRequest{ItemName: "Sweets", Amount: 4.99})
	assert.True(t, apperr.IsCode(err, apperr.CodePayment))
}

func TestValidateNotification(t *testing.T) {
	valid := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "POS_1", r.PostForm.Get("m_payment_id"))
		_, _ = w.Write([]byte("VALID"))
	}))
	defer valid.Close()

	cfg := testConfig()
	cfg.ValidateURL = valid.URL
	c := NewClient(cfg, nil)
	err := c.ValidateNotification(context.Background(), map[string]string{"m_payment_id": "POS_1"})
	assert.NoError(t, err)

	invalid := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("INVALID"))
	}))
	defer invalid.Close()

	cfg.ValidateURL = invalid.URL
	c = NewClient(cfg, nil)
	err = c.ValidateNotification(context.Background(), map[string]string{"m_payment_id": "POS_1"})
	assert.True(t, apperr.IsCode(err, apperr.CodePayment))
}
