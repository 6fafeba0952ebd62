package handler

import (
	"net/http"

	"carpetcare/internal/apperr"
	"carpetcare/pkg/pagination"
	"carpetcare/pkg/response"

	"github.com/gin-gonic/gin"
)

// writeError maps a service error to the standard response envelope.
// Application errors carry their own status and reason code; anything else is
// reported as an internal error without leaking detail.
func writeError(c *gin.Context, err error) {
	if e := apperr.From(err); e != nil {
		c.JSON(e.HTTPStatus(), response.ErrorWithCode(e.HTTPStatus(), e.Reason, e.Message))
		return
	}
	c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
}

func pagingParams(c *gin.Context) (int, int) {
	p := pagination.Parse(c)
	return p.Page, p.Limit
}
