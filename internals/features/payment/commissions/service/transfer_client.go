// file: internals/features/payment/commissions/service/transfer_client.go
package service

import (
	"context"
	"fmt"
	"net/http"
	"time"

	stripe "github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/transfer"
)

/* =========================================================
   Stripe Transfer Client
========================================================= */

// TransferRequest is the narrow "move money to a connected account" contract.
// IdempotencyKey lets the gateway dedup a repeated request, so overlapping
// attribution + retry runs cannot produce two real transfers.
type TransferRequest struct {
	AmountCents          int64
	Currency             string
	DestinationAccountID string
	TransferGroup        string
	IdempotencyKey       string
	Description          string
	Metadata             map[string]string
}

type TransferClient interface {
	CreateTransfer(ctx context.Context, req TransferRequest) (transferID string, err error)
}

type StripeTransferClient struct {
	transfers *transfer.Client
}

// NewStripeTransferClient builds a client with a bounded HTTP timeout: a
// timed-out transfer is treated as a failure and deferred, never assumed done.
func NewStripeTransferClient(secretKey string, timeout time.Duration) *StripeTransferClient {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	backend := stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
		HTTPClient: &http.Client{Timeout: timeout},
	})
	return &StripeTransferClient{
		transfers: &transfer.Client{B: backend, Key: secretKey},
	}
}

func (c *StripeTransferClient) CreateTransfer(ctx context.Context, req TransferRequest) (string, error) {
	if req.AmountCents <= 0 {
		return "", fmt.Errorf("invalid transfer amount: %d", req.AmountCents)
	}
	if req.DestinationAccountID == "" {
		return "", fmt.Errorf("missing destination account")
	}

	params := &stripe.TransferParams{
		Amount:      stripe.Int64(req.AmountCents),
		Currency:    stripe.String(req.Currency),
		Destination: stripe.String(req.DestinationAccountID),
		Description: stripe.String(req.Description),
	}
	if req.TransferGroup != "" {
		params.TransferGroup = stripe.String(req.TransferGroup)
	}
	if req.IdempotencyKey != "" {
		params.SetIdempotencyKey(req.IdempotencyKey)
	}
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}
	params.Context = ctx

	tr, err := c.transfers.New(params)
	if err != nil {
		return "", fmt.Errorf("stripe transfer failed: %w", err)
	}
	return tr.ID, nil
}
