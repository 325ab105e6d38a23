package middleware

import (
	"smallbiznis-rewards/pkg/errutil"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Error renders the last error attached with c.Error as the JSON error
// envelope. Anything that is not an errutil.BaseError is reported as a 500
// without leaking its text.
func Error() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err
		log := zap.L().With(
			zap.String("request_id", c.GetString(RequestIDKey)),
			zap.String("path", c.FullPath()),
		)

		if be, ok := errutil.As(err); ok {
			status := be.Code.HTTPStatus()
			if status >= 500 {
				log.Error("request failed", zap.Error(err))
			}
			c.JSON(status, be)
			return
		}

		log.Error("unhandled error", zap.Error(err))
		internal := errutil.BaseError{Code: errutil.StatusInternal, Message: "Internal server error"}
		c.JSON(internal.Code.HTTPStatus(), internal)
	}
}
