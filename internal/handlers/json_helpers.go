package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"reflect"
	"strconv"
	"time"

	"github.com/pwannenmacher/campus-fest/internal/middleware"
	"github.com/pwannenmacher/campus-fest/internal/service"
)

const maxBodyBytes = 1 << 20

var timeType = reflect.TypeOf(time.Time{})

// JSONResponse writes payload with the given status. Nil slices anywhere in
// the payload are encoded as [] so clients never have to handle null lists.
func JSONResponse(w http.ResponseWriter, code int, payload any) {
	body, err := json.Marshal(normalizeSlices(payload))
	if err != nil {
		slog.Error("Failed to encode response", "error", err)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"Internal server error"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(body)
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	JSONResponse(w, code, map[string]string{"error": message})
}

// normalizeSlices returns a copy of data in which every nil slice is empty
func normalizeSlices(data any) any {
	if data == nil {
		return nil
	}
	return normalizeValue(reflect.ValueOf(data)).Interface()
}

func normalizeValue(v reflect.Value) reflect.Value {
	switch v.Kind() {
	case reflect.Pointer:
		if v.IsNil() || v.Elem().Type() == timeType {
			return v
		}
		out := reflect.New(v.Elem().Type())
		out.Elem().Set(normalizeValue(v.Elem()))
		return out

	case reflect.Slice:
		if v.IsNil() {
			return reflect.MakeSlice(v.Type(), 0, 0)
		}
		if v.Type().Elem().Kind() == reflect.Uint8 {
			return v
		}
		out := reflect.MakeSlice(v.Type(), v.Len(), v.Len())
		for i := range v.Len() {
			out.Index(i).Set(normalizeValue(v.Index(i)))
		}
		return out

	case reflect.Struct:
		if v.Type() == timeType {
			return v
		}
		out := reflect.New(v.Type()).Elem()
		for i := range v.NumField() {
			if !v.Type().Field(i).IsExported() {
				continue
			}
			out.Field(i).Set(normalizeValue(v.Field(i)))
		}
		return out

	case reflect.Interface:
		if v.IsNil() {
			return v
		}
		out := reflect.New(v.Type()).Elem()
		out.Set(normalizeValue(v.Elem()))
		return out
	}
	return v
}

// decodeJSON reads a bounded JSON body into dst, rejecting unknown fields.
// It writes a 400 response and returns false when the body is unusable.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		msg := ErrMsgInvalidRequestBody
		if errors.Is(err, io.EOF) {
			msg = "Request body is empty"
		}
		respondWithError(w, http.StatusBadRequest, msg)
		return false
	}
	return true
}

// actorID returns the authenticated user's ID, or "" for anonymous requests
func actorID(r *http.Request) string {
	id, _ := middleware.GetUserID(r)
	return id
}

// errorStatus maps a service error onto an HTTP status code
func errorStatus(err error) int {
	switch {
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrDuplicateName),
		errors.Is(err, service.ErrDuplicateChestNumber),
		errors.Is(err, service.ErrAlreadyRegistered),
		errors.Is(err, service.ErrTerminalState),
		errors.Is(err, service.ErrLockedStatus):
		return http.StatusConflict
	case errors.Is(err, service.ErrInvalidParticipantSet):
		return http.StatusUnprocessableEntity
	case errors.Is(err, service.ErrProgramLocked),
		errors.Is(err, service.ErrResultsPublished):
		return http.StatusLocked
	case errors.Is(err, service.ErrInvalidInput),
		errors.Is(err, service.ErrMissingReason):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrUserInactive):
		return http.StatusForbidden
	}
	return http.StatusInternalServerError
}

// respondWithServiceError writes the mapped status for err. Domain errors
// carry a client-safe message; anything else is logged and hidden.
func respondWithServiceError(w http.ResponseWriter, r *http.Request, err error, action string) {
	code := errorStatus(err)
	if code == http.StatusInternalServerError {
		slog.Error("Failed to "+action, "error", err, "path", r.URL.Path)
		respondWithError(w, code, "Failed to "+action)
		return
	}
	respondWithError(w, code, err.Error())
}

// queryBool parses an optional boolean query parameter
func queryBool(r *http.Request, name string) (bool, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return false, nil
	}
	return strconv.ParseBool(raw)
}

// queryInt parses an optional integer query parameter, 0 when absent
func queryInt(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}
