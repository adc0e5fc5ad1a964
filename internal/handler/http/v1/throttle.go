package v1

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// ThrottleGate решает, укладывается ли вызывающий в лимит запросов
type ThrottleGate interface {
	Allow(ctx context.Context, callerID string) (bool, error)
}

// ThrottleMiddleware ограничивает частоту мутаций на вызывающего.
// При недоступности счетчика запрос пропускается: лимит - защита
// от шумных клиентов, а не барьер доступности
func ThrottleMiddleware(gate ThrottleGate, log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller := callerID(c)
		allowed, err := gate.Allow(c.Request.Context(), caller)
		if err != nil {
			log.WithError(err).Warn("Throttle gate unavailable, allowing request")
			c.Next()
			return
		}
		if !allowed {
			log.WithField("caller", caller).Warn("Rate limit exceeded")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, ErrorResponse{Error: "rate limit exceeded"})
			return
		}
		c.Next()
	}
}
