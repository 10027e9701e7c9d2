package service

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTwilioSendPostsMessageForm(t *testing.T) {
	var gotPath, gotTo, gotFrom, gotBody string
	var gotUser, gotPass string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotUser, gotPass, _ = r.BasicAuth()
		require.NoError(t, r.ParseForm())
		gotTo = r.PostForm.Get("To")
		gotFrom = r.PostForm.Get("From")
		gotBody = r.PostForm.Get("Body")
		w.WriteHeader(http.StatusCreated)
		fmt.Fprint(w, `{"sid":"SM123"}`)
	}))
	defer srv.Close()

	n := NewTwilioNotifier("AC123", "token", "+15550001111")
	n.BaseURL = srv.URL

	err := n.Send(context.Background(), "+12125551234", "Door PIN: 123456")
	require.NoError(t, err)

	assert.Equal(t, "/2010-04-01/Accounts/AC123/Messages.json", gotPath)
	assert.Equal(t, "AC123", gotUser)
	assert.Equal(t, "token", gotPass)
	assert.Equal(t, "+12125551234", gotTo)
	assert.Equal(t, "+15550001111", gotFrom)
	assert.Equal(t, "Door PIN: 123456", gotBody)
}

func TestTwilioSendSurfacesAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"code":20003,"message":"Authenticate"}`)
	}))
	defer srv.Close()

	n := NewTwilioNotifier("AC123", "bad-token", "+15550001111")
	n.BaseURL = srv.URL

	err := n.Send(context.Background(), "+12125551234", "hi")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestTwilioSendRejectsMissingConfig(t *testing.T) {
	n := &TwilioNotifier{}
	err := n.Send(context.Background(), "+12125551234", "hi")
	assert.Error(t, err)
}
