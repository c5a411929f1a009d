package utils

import (
	"errors"
	"io"

	"github.com/gin-gonic/gin"
)

// BindOptionalJSON binds the request body into obj. An empty body leaves obj
// at its zero value.
func BindOptionalJSON(c *gin.Context, obj interface{}) error {
	if c.Request.Body == nil || c.Request.ContentLength == 0 {
		return nil
	}
	if err := c.ShouldBindJSON(obj); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}
