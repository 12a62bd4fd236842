package middleware

import (
	"log"
	"time"

	"jobdash/internal/pkg/response"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
)

const headerRequestID = "X-Request-ID"

// AccessLogMiddleware assigns every request an id and logs one line per
// request once the handler chain returns.
type AccessLogMiddleware struct {
	logger *log.Logger
	now    func() time.Time
}

func NewAccessLogMiddleware(logger *log.Logger) *AccessLogMiddleware {
	if logger == nil {
		logger = log.Default()
	}
	return &AccessLogMiddleware{logger: logger, now: time.Now}
}

func (m *AccessLogMiddleware) Middleware() fiber.Handler {
	return func(c fiber.Ctx) error {
		start := m.now()

		// A caller-provided id is kept so traces line up across services.
		rid := c.Get(headerRequestID)
		if rid == "" || len(rid) > 128 {
			rid = uuid.NewString()
		}
		c.Set(headerRequestID, rid)
		c.Locals(response.LocalRequestID, rid)

		err := c.Next()

		user := UserID(c)
		if user == "" {
			user = "-"
		}
		m.logger.Printf(
			"[HTTP] rid=%s method=%s path=%s status=%d latency=%s user=%s ip=%s resp_bytes=%d",
			rid,
			c.Method(),
			c.OriginalURL(),
			c.Response().StatusCode(),
			m.now().Sub(start),
			user,
			c.IP(),
			len(c.Response().Body()),
		)
		return err
	}
}
