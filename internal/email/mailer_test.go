package email

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendSignupNotice(t *testing.T) {
	var got sendRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	mailer := New(Config{
		Enabled:          true,
		Endpoint:         server.URL,
		ServiceID:        "service_1",
		PublicKey:        "pub_key",
		SignupTemplateID: "template_signup",
		AdminEmail:       "admin@teliman.ml",
	})

	require.NoError(t, mailer.SendSignupNotice(context.Background(), "new@teliman.ml"))
	assert.Equal(t, "service_1", got.ServiceID)
	assert.Equal(t, "template_signup", got.TemplateID)
	assert.Equal(t, "new@teliman.ml", got.TemplateParams["user_email"])
	assert.Equal(t, "admin@teliman.ml", got.TemplateParams["to_email"])
}

func TestSendReportsServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad template", http.StatusBadRequest)
	}))
	defer server.Close()

	mailer := New(Config{
		Enabled:            true,
		Endpoint:           server.URL,
		ApprovalTemplateID: "template_approval",
	})

	err := mailer.SendApprovalNotice(context.Background(), "user@teliman.ml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "400")
}

func TestDisabledMailerIsNoop(t *testing.T) {
	mailer := New(Config{Enabled: false})
	assert.NoError(t, mailer.SendSignupNotice(context.Background(), "new@teliman.ml"))
	assert.NoError(t, mailer.SendApprovalNotice(context.Background(), "user@teliman.ml"))
}

func TestMissingTemplate(t *testing.T) {
	mailer := New(Config{Enabled: true})
	assert.Error(t, mailer.SendSignupNotice(context.Background(), "new@teliman.ml"))
}
