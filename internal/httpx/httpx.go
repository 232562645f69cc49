// Package httpx holds the small pieces every gin handler in the service shares:
// tolerant id decoding, path parameter parsing and error responses.
package httpx

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/matheusmosca/storefront/internal/apperr"
)

// ID is an int64 identifier that decodes from a JSON number or a numeric
// string. The browser frontend keeps ids in localStorage, so both shapes arrive.
type ID int64

func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*id = 0
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		if s == "" {
			*id = 0
			return nil
		}
		b = []byte(s)
	}
	v, err := strconv.ParseInt(string(b), 10, 64)
	if err != nil {
		return fmt.Errorf("invalid id %q", string(b))
	}
	*id = ID(v)
	return nil
}

func (id ID) Int64() int64 { return int64(id) }

func (id ID) Int() int { return int(id) }

// Quantity is an item count with the same tolerant decoding as ID. A value
// that is not an integer fails as InvalidQuantity rather than a bind error.
type Quantity int

func (q *Quantity) UnmarshalJSON(b []byte) error {
	var id ID
	if err := id.UnmarshalJSON(b); err != nil {
		return apperr.New(apperr.KindInvalidQuantity, "Quantity must be a positive integer.", err)
	}
	*q = Quantity(id)
	return nil
}

func (q Quantity) Int() int { return int(q) }

// ParamID parses a positive integer path parameter.
func ParamID(c *gin.Context, name string) (int64, error) {
	v, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || v <= 0 {
		return 0, apperr.InvalidInput(fmt.Sprintf("%s must be a positive integer", name))
	}
	return v, nil
}

// ErrorBody is the JSON shape of every failed request.
type ErrorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// RespondError writes err as an ErrorBody with the status its kind maps to.
// Transaction and internal failures are answered generically; the cause only
// goes to the log.
func RespondError(c *gin.Context, log *zap.Logger, err error) {
	kind := apperr.KindOf(err)
	status := apperr.HTTPStatus(kind)

	message := err.Error()
	switch kind {
	case apperr.KindInternal:
		message = "Server error."
	case apperr.KindTransactionFailure:
		message = "The transaction could not be completed and was rolled back."
	default:
		var appErr *apperr.Error
		if errors.As(err, &appErr) {
			message = appErr.Message
		}
	}

	if status >= 500 {
		log.Error("request failed",
			zap.String("path", c.FullPath()),
			zap.String("kind", string(kind)),
			zap.Error(err),
		)
	}

	c.AbortWithStatusJSON(status, ErrorBody{Error: string(kind), Message: message})
}

// BindError answers a failed ShouldBindJSON with an InvalidInput body, unless
// a field decoder already classified the failure.
func BindError(c *gin.Context, err error) {
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		c.AbortWithStatusJSON(apperr.HTTPStatus(appErr.Kind), ErrorBody{
			Error:   string(appErr.Kind),
			Message: appErr.Message,
		})
		return
	}
	c.AbortWithStatusJSON(http.StatusBadRequest, ErrorBody{
		Error:   string(apperr.KindInvalidInput),
		Message: err.Error(),
	})
}
