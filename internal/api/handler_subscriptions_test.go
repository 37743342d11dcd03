package api

import (
	"net/http"
	"testing"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"minibus-reservation-backend/internal/hktime"
	"minibus-reservation-backend/internal/model"
)

func setupSubscriptionRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	now, _ := hktime.Combine("2025-06-01", "08:00")
	_, s := setupReservationRouter(t, now)
	require.NoError(t, s.DB().Create(&model.User{
		UserID:   "user-1",
		Settings: model.UserSettings{NotificationsEnabled: true},
	}).Error)

	r := gin.New()
	handler := NewHandler(nil, s, &webpush.Options{VAPIDPublicKey: "test-public-key"})
	r.PUT("/api/users/:user_id/push-subscription", handler.PutSubscription)
	r.DELETE("/api/users/:user_id/push-subscription", handler.DeleteSubscription)
	r.GET("/api/vapid_public_key", handler.GetVAPIDPublicKey)
	return r
}

func TestPutSubscription(t *testing.T) {
	router := setupSubscriptionRouter(t)

	t.Run("missing fields", func(t *testing.T) {
		w := doJSON(router, "PUT", "/api/users/user-1/push-subscription", `{"endpoint":"https://push.example/x"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	body := `{"endpoint":"https://push.example/x","p256dh":"key","auth":"secret"}`

	t.Run("unknown user", func(t *testing.T) {
		w := doJSON(router, "PUT", "/api/users/nobody/push-subscription", body)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("ok", func(t *testing.T) {
		w := doJSON(router, "PUT", "/api/users/user-1/push-subscription", body)
		assert.Equal(t, http.StatusCreated, w.Code)
	})
}

func TestDeleteSubscription(t *testing.T) {
	router := setupSubscriptionRouter(t)

	w := doJSON(router, "DELETE", "/api/users/user-1/push-subscription", "")
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestGetVAPIDPublicKey(t *testing.T) {
	router := setupSubscriptionRouter(t)

	w := doJSON(router, "GET", "/api/vapid_public_key", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"public_key":"test-public-key"}`, w.Body.String())
}
