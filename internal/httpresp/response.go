package httpresp

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Envelope is the success side of the {ok, data, error} contract.
type Envelope[T any] struct {
	OK   bool `json:"ok"`
	Data T    `json:"data"`
}

func OK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, Envelope[any]{OK: true, Data: data})
}

func Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, Envelope[any]{OK: true, Data: data})
}

// List never serializes a nil slice as null.
func List[T any](c *gin.Context, data []T) {
	if data == nil {
		data = []T{}
	}
	c.JSON(http.StatusOK, Envelope[[]T]{OK: true, Data: data})
}

func Empty(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
