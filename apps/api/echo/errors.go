package echoapi

import (
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/studentrecords/core"
	"github.com/trezcool/studentrecords/core/student"
)

var errHttpNotFound = echo.NewHTTPError(http.StatusNotFound, student.ErrNotFound.Error())

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that knows how to handle our errors.
// signalShutdown is called in order to gracefully shutdown the Server whenever a core.shutdown error is caught.
func newAppHTTPErrorHandler(logger core.Logger, translator ut.Translator, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		var code int
		var message interface{}

		if errors.Cause(err) == student.ErrNotFound {
			err = errors.Wrap(errHttpNotFound, err.Error())
		}

		switch origErr := errors.Cause(err).(type) {
		case *echo.HTTPError:
			if origErr.Internal != nil {
				if herr, ok := origErr.Internal.(*echo.HTTPError); ok {
					origErr = herr
				}
			}
			code = origErr.Code
			message = origErr.Message
		case validator.ValidationErrors, *core.ValidationError, *core.DuplicateError:
			code = http.StatusBadRequest
			if flds := core.FieldErrors(origErr, translator); flds != nil {
				message = flds
			} else {
				message = origErr.Error()
			}
		default: // any other error is a server error
			code = http.StatusInternalServerError
			msg := http.StatusText(http.StatusInternalServerError)
			message = msg

			logArgs := []interface{}{errors.Wrap(err, msg), ctx.Request()}
			if s, ok := ctx.Get(objectKey).(student.Student); ok {
				logArgs = append(logArgs, s)
			}
			logger.Error(msg, logArgs...)

			if ctx.Echo().Debug {
				message = err.Error()
			}

			// shutting down...
			if core.IsShutdown(err) {
				signalShutdown()
			}
		}

		if m, ok := message.(string); ok {
			message = echo.Map{"error": m}
		}

		// Send response
		if !ctx.Response().Committed {
			if ctx.Request().Method == http.MethodHead { // Issue #608
				err = ctx.NoContent(code)
			} else {
				err = ctx.JSON(code, message)
			}
			if err != nil {
				ctx.Echo().Logger.Error(err)
			}
		}
	}
}
