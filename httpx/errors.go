package httpx

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/render"
	"github.com/mbolis/hvac-survey/files"
	"github.com/mbolis/hvac-survey/log"
	"github.com/mbolis/hvac-survey/schema"
	"github.com/mbolis/hvac-survey/store"
)

// Will log an error, and send an HTTP response with status 500 and default text
func LogInternalError(w http.ResponseWriter, code string, err error) {
	log.Errorf("%s: %s", code, err)
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

// Will log a debug message, and send an HTTP response with status 404 and default text
func LogNotFound(w http.ResponseWriter, code string, id any) {
	log.Debugf("%s: not found (%v)", code, id)
	http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
}

// Will log an error code at the given level, and send
// an HTTP response with status and default text
func LogStatus(w http.ResponseWriter, status int, level log.Level, code string) {
	log.Log(level, code)
	http.Error(w, http.StatusText(status), status)
}

// Will log an error code and message at the given level,
// and send an HTTP response with the given status and formatted message
func LogStatusMsg(w http.ResponseWriter, status int, level log.Level, code string, msg string, args ...any) {
	errMsg := fmt.Sprintf(msg, args...)
	log.Log(level, code+":", errMsg)
	http.Error(w, errMsg, status)
}

// Will map an error coming from the store or the schema to its HTTP status:
// 404 for missing records, 409 for conflicts, 400 for malformed schemas or
// paths and 500 for anything else
func LogStoreError(w http.ResponseWriter, code string, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound), errors.Is(err, files.ErrNotFound):
		LogStatusMsg(w, http.StatusNotFound, log.DebugLevel, code, "%s", err)
	case errors.Is(err, store.ErrConflict):
		LogStatusMsg(w, http.StatusConflict, log.DebugLevel, code, "%s", err)
	case errors.Is(err, schema.ErrMalformed), errors.Is(err, schema.ErrPath), errors.Is(err, files.ErrBadRef):
		LogStatusMsg(w, http.StatusBadRequest, log.DebugLevel, code, "%s", err)
	default:
		LogInternalError(w, code, err)
	}
}

// Will log the violations at debug level, and send them as JSON with
// status 422
func WriteViolations(w http.ResponseWriter, r *http.Request, code string, violations []schema.Violation) {
	log.Debugf("%s: %d violations", code, len(violations))
	render.Status(r, http.StatusUnprocessableEntity)
	render.JSON(w, r, map[string]any{
		"violations": violations,
	})
}
