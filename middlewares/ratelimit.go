package middlewares

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/didip/tollbooth/v6"
	tblimiter "github.com/didip/tollbooth/v6/limiter"
	"github.com/postboard/apiv1/utils"
)

// IPRateLimit throttles each client IP to perSecond requests per second.
func IPRateLimit(perSecond float64) func(http.Handler) http.Handler {
	lmt := tollbooth.NewLimiter(perSecond, &tblimiter.ExpirableOptions{DefaultExpirationTTL: time.Hour})
	lmt.SetIPLookups([]string{"RemoteAddr", "X-Forwarded-For", "X-Real-IP"})
	body, _ := json.Marshal(utils.MessageResponse{Message: utils.TOO_MANY_REQUESTS_ERROR})
	lmt.SetMessage(string(body))
	lmt.SetMessageContentType("application/json")

	return func(next http.Handler) http.Handler {
		return tollbooth.LimitHandler(lmt, next)
	}
}
