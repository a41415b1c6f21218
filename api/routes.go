package main

import (
	"net/http"
)

func composeRoutes(app *application) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/healthcheck", app.healthCheckHandler)

	mux.HandleFunc("POST /api/tasks", app.createTaskHandler)
	mux.HandleFunc("GET /api/tasks", app.getTasksHandler)
	mux.HandleFunc("GET /api/tasks/{id}", app.getTaskHandler)
	mux.HandleFunc("PUT /api/tasks/{id}", app.updateTaskHandler)
	mux.HandleFunc("DELETE /api/tasks/{id}", app.deleteTaskHandler)

	mux.HandleFunc("POST /api/auth/sendotp", app.sendOTPHandler)
	mux.HandleFunc("POST /api/auth/signup", app.signupHandler)
	mux.HandleFunc("POST /api/auth/login", app.loginHandler)
	mux.HandleFunc("GET /api/auth/me", app.requireAuthenticatedUser(app.currentUserHandler))

	return app.recoverPanic(app.logRequests(app.enableCORS(mux)))
}
