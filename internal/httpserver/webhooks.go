package httpserver

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"storepulse/internal/domain"
	"storepulse/internal/webhook"
)

const (
	headerTopic      = "X-Shopify-Topic"
	headerShopDomain = "X-Shopify-Shop-Domain"
	headerHmac       = "X-Shopify-Hmac-Sha256"
	headerWebhookID  = "X-Shopify-Webhook-Id"
)

// receiveWebhook accepts either the {topic, shop_domain, data} envelope or
// a bare platform record with topic and shop in headers.
func (h *handlers) receiveWebhook(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		abortWithMessage(c, http.StatusBadRequest, "invalid_request", "could not read body")
		return
	}
	if err := webhook.VerifySignature(h.deps.WebhookSecret, body, c.GetHeader(headerHmac)); err != nil {
		h.logger.Warn("webhook: rejected", zap.String("shop_domain", c.GetHeader(headerShopDomain)), zap.Error(err))
		abortWithError(c, h.logger, err)
		return
	}

	n, err := decodeNotification(body, c.Request.Header)
	if err != nil {
		abortWithError(c, h.logger, err)
		return
	}
	outcome, err := h.deps.Webhooks.Dispatch(c.Request.Context(), n)
	if err != nil {
		abortWithError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": outcome})
}

type webhookEnvelope struct {
	Topic      string          `json:"topic"`
	ShopDomain string          `json:"shop_domain"`
	Data       json.RawMessage `json:"data"`
}

func decodeNotification(body []byte, header http.Header) (webhook.Notification, error) {
	var env webhookEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return webhook.Notification{}, fmt.Errorf("%w: webhook body: %v", domain.ErrMalformedRecord, err)
	}
	n := webhook.Notification{
		ID:         header.Get(headerWebhookID),
		Topic:      env.Topic,
		ShopDomain: env.ShopDomain,
		Data:       env.Data,
	}
	if len(bytes.TrimSpace(n.Data)) == 0 {
		n.Data = json.RawMessage(body)
	}
	if n.Topic == "" {
		n.Topic = header.Get(headerTopic)
	}
	if n.ShopDomain == "" {
		n.ShopDomain = header.Get(headerShopDomain)
	}
	return n, nil
}
