package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

func init() {
	// amounts render as JSON numbers
	decimal.MarshalJSONWithoutQuotes = true
}

// OK writes the success envelope: success, message and the payload keys.
func OK(c *gin.Context, message string, payload gin.H) {
	body := gin.H{}
	for k, v := range payload {
		body[k] = v
	}
	body["success"] = true
	body["message"] = message
	c.JSON(http.StatusOK, body)
}
