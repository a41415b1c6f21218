package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 20

type envelope map[string]any

func (app *application) healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	heathCheck := struct {
		Status      string `json:"status"`
		Environment string `json:"environment"`
		Version     string `json:"version"`
	}{
		Status:      "available",
		Environment: app.config.env,
		Version:     version,
	}
	app.writeJSON(w, http.StatusOK, heathCheck)
}

func (app *application) createTaskHandler(w http.ResponseWriter, r *http.Request) {
	var input taskInput
	if err := readJSON(w, r, &input); err != nil {
		app.errorResponse(w, r, err)
		return
	}
	t, err := app.tasks.create(r.Context(), input)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}
	app.writeJSON(w, http.StatusCreated, t)
}

func (app *application) getTasksHandler(w http.ResponseWriter, r *http.Request) {
	tasks, err := app.tasks.list(r.Context())
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}
	app.writeJSON(w, http.StatusOK, tasks)
}

func (app *application) getTaskHandler(w http.ResponseWriter, r *http.Request) {
	t, err := app.tasks.get(r.Context(), r.PathValue("id"))
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}
	app.writeJSON(w, http.StatusOK, t)
}

func (app *application) updateTaskHandler(w http.ResponseWriter, r *http.Request) {
	var input taskInput
	if err := readJSON(w, r, &input); err != nil {
		app.errorResponse(w, r, err)
		return
	}
	t, err := app.tasks.update(r.Context(), r.PathValue("id"), input)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}
	app.writeJSON(w, http.StatusOK, t)
}

func (app *application) deleteTaskHandler(w http.ResponseWriter, r *http.Request) {
	err := app.tasks.delete(r.Context(), r.PathValue("id"))
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}
	app.writeJSON(w, http.StatusOK, envelope{"message": "Task deleted"})
}

func (app *application) sendOTPHandler(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Email string `json:"email"`
	}
	if err := readJSON(w, r, &input); err != nil {
		app.errorResponse(w, r, err)
		return
	}
	if err := app.auth.requestOTP(r.Context(), input.Email); err != nil {
		app.errorResponse(w, r, err)
		return
	}
	app.writeJSON(w, http.StatusOK, envelope{"message": "OTP sent successfully"})
}

func (app *application) signupHandler(w http.ResponseWriter, r *http.Request) {
	var input signupInput
	if err := readJSON(w, r, &input); err != nil {
		app.errorResponse(w, r, err)
		return
	}
	u, err := app.auth.signup(r.Context(), input)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}
	app.writeJSON(w, http.StatusCreated, envelope{"message": "User registered successfully", "user": u})
}

func (app *application) loginHandler(w http.ResponseWriter, r *http.Request) {
	var input loginInput
	if err := readJSON(w, r, &input); err != nil {
		app.errorResponse(w, r, err)
		return
	}
	res, err := app.auth.login(r.Context(), input)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     "token",
		Value:    res.Token,
		Path:     "/",
		Expires:  res.ExpiresAt,
		HttpOnly: true,
		Secure:   app.config.env == "production",
		SameSite: http.SameSiteLaxMode,
	})
	app.writeJSON(w, http.StatusOK, res)
}

func (app *application) currentUserHandler(w http.ResponseWriter, r *http.Request) {
	app.writeJSON(w, http.StatusOK, envelope{"user": getUserFromRequest(r)})
}

// readJSON decodes exactly one JSON value from the body. Decode failures are
// returned as validation errors.
func readJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	err := dec.Decode(dst)
	if err != nil {
		var (
			syntaxError   *json.SyntaxError
			typeError     *json.UnmarshalTypeError
			maxBytesError *http.MaxBytesError
			msg           string
		)
		switch {
		case errors.As(err, &syntaxError):
			msg = fmt.Sprintf("body contains badly-formed JSON (at character %d)", syntaxError.Offset)
		case errors.Is(err, io.ErrUnexpectedEOF):
			msg = "body contains badly-formed JSON"
		case errors.As(err, &typeError):
			msg = fmt.Sprintf("body contains incorrect JSON type for field %q", typeError.Field)
		case errors.Is(err, io.EOF):
			msg = "body must not be empty"
		case strings.HasPrefix(err.Error(), "json: unknown field "):
			msg = "body contains unknown field " + strings.TrimPrefix(err.Error(), "json: unknown field ")
		case errors.As(err, &maxBytesError):
			msg = fmt.Sprintf("body must not be larger than %d bytes", maxBytesError.Limit)
		default:
			msg = err.Error()
		}
		return newServiceError(errValidation, msg)
	}

	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return newServiceError(errValidation, "body must only contain a single JSON value")
	}
	return nil
}

func (app *application) writeJSON(w http.ResponseWriter, status int, data any) {
	js, err := json.Marshal(data)
	if err != nil {
		app.logger.Error("encode response", zap.Error(err))
		writeError(w, errors.New("internal server error"), nil, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(js)
	w.Write([]byte("\n"))
}

func (app *application) errorResponse(w http.ResponseWriter, r *http.Request, err error) {
	status := errorStatus(err)
	var se *serviceError
	if !errors.As(err, &se) {
		app.logger.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err))
	}
	writeError(w, err, errorFields(err), status)
}

func composeJSONError(err error, fields map[string]string) []byte {
	jsonError := envelope{
		"message": err.Error(),
	}
	if len(fields) > 0 {
		jsonError["errors"] = fields
	}
	result, mErr := json.Marshal(jsonError)
	if mErr != nil {
		return []byte(`{"message":"internal server error"}`)
	}
	return result
}

func writeError(w http.ResponseWriter, err error, fields map[string]string, statusCode int) {
	h := w.Header()
	h.Del("Content-Length")
	h.Set("Content-Type", "application/json")
	h.Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(statusCode)
	w.Write(composeJSONError(err, fields))
	w.Write([]byte("\n"))
}
