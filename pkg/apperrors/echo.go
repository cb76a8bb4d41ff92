package apperrors

import (
	"github.com/labstack/echo/v4"
)

// ToHTTP converts err into the echo error handlers return. Internal errors
// keep their cause for logging but expose only a generic message.
func ToHTTP(err error) *echo.HTTPError {
	he := echo.NewHTTPError(HTTPStatus(err), PublicMessage(err))
	if KindOf(err) == KindInternal {
		he = he.SetInternal(err)
	}
	return he
}
