package tools

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reflectionsmatch/logger"
)

func resendServer(t *testing.T, status int, reply string, seen *Email) *ResendMailer {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/emails", r.URL.Path)
		assert.Equal(t, "Bearer re_test", r.Header.Get("Authorization"))
		if seen != nil {
			assert.NoError(t, json.NewDecoder(r.Body).Decode(seen))
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(reply))
	}))
	t.Cleanup(srv.Close)

	m, err := NewResendMailer(logger.Nop(), "re_test", srv.URL+"/", "Radar <radar@example.com>")
	require.NoError(t, err)
	return m
}

func TestResendMailer_SendReturnsDeliveryID(t *testing.T) {
	var seen Email
	m := resendServer(t, http.StatusOK, `{"id":"49a3999c-0ce1"}`, &seen)

	id, err := m.Send(context.Background(), Email{To: []string{"ana@example.com"}, Subject: "Weekly", HTML: "<p>hi</p>"})
	require.NoError(t, err)
	assert.Equal(t, "49a3999c-0ce1", id)
	assert.Equal(t, "Radar <radar@example.com>", seen.From)
	assert.Equal(t, []string{"ana@example.com"}, seen.To)
}

func TestResendMailer_ErrorMapping(t *testing.T) {
	cases := map[string]struct {
		status int
		reply  string
		name   string
		msg    string
	}{
		"validation": {http.StatusUnprocessableEntity, `{"statusCode":422,"name":"validation_error","message":"Invalid to field"}`, "validation_error", "Invalid to field"},
		"rate limit": {http.StatusTooManyRequests, `{"statusCode":429,"name":"rate_limit_exceeded","message":"Too many requests"}`, "rate_limit_exceeded", "Too many requests"},
		"plain text": {http.StatusBadGateway, "upstream unavailable", "", "upstream unavailable"},
	}
	for label, tc := range cases {
		t.Run(label, func(t *testing.T) {
			m := resendServer(t, tc.status, tc.reply, nil)
			_, err := m.Send(context.Background(), Email{To: []string{"ana@example.com"}})

			var rerr *ResendError
			require.True(t, errors.As(err, &rerr), "got %v", err)
			assert.Equal(t, tc.status, rerr.StatusCode)
			assert.Equal(t, tc.name, rerr.Name)
			assert.Equal(t, tc.msg, rerr.Message)
		})
	}
}

func TestResendMailer_RejectsMissingRecipients(t *testing.T) {
	m := resendServer(t, http.StatusOK, `{"id":"x"}`, nil)
	_, err := m.Send(context.Background(), Email{Subject: "nobody"})
	assert.Error(t, err)
}

func TestNewResendMailer_RequiresKey(t *testing.T) {
	_, err := NewResendMailer(logger.Nop(), "", "", "")
	assert.Error(t, err)
}
