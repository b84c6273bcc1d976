package handler

import (
	"go-auth-api/common"
	"net/http"
)

// AppHandler is a handler that reports failures instead of writing them.
type AppHandler func(http.ResponseWriter, *http.Request) *common.AppError

func (fn AppHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if err := fn(w, r); err != nil {
		err.Send(w)
	}
}

// ErrorHandlingMiddleware renders the *common.AppError returned by next.
func ErrorHandlingMiddleware(next AppHandler) http.HandlerFunc {
	return next.ServeHTTP
}
