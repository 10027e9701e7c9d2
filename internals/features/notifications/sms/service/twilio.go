// file: internals/features/notifications/sms/service/twilio.go
package service

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

/* =========================================================
   Twilio SMS sender
   Plain REST form POST — the Messages endpoint is a single
   call, no SDK needed.
========================================================= */

type TwilioNotifier struct {
	AccountSID string
	AuthToken  string
	FromNumber string

	BaseURL string // override in tests
	HTTP    *http.Client
}

func NewTwilioNotifier(accountSID, authToken, fromNumber string) *TwilioNotifier {
	return &TwilioNotifier{
		AccountSID: accountSID,
		AuthToken:  authToken,
		FromNumber: fromNumber,
		BaseURL:    "https://api.twilio.com",
		HTTP:       &http.Client{Timeout: 10 * time.Second},
	}
}

func (n *TwilioNotifier) Send(ctx context.Context, phone, message string) error {
	if n.AccountSID == "" || n.AuthToken == "" || n.FromNumber == "" {
		return fmt.Errorf("twilio notifier not configured")
	}

	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json", n.BaseURL, n.AccountSID)
	form := url.Values{}
	form.Set("To", phone)
	form.Set("From", n.FromNumber)
	form.Set("Body", message)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("build sms request: %w", err)
	}
	req.SetBasicAuth(n.AccountSID, n.AuthToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := n.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("send sms: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("twilio responded %d: %s", resp.StatusCode, string(body))
	}
	return nil
}
