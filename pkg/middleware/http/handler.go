// Package http contains helpers shared by the HTTP middlewares and handlers.
package http

import (
	"encoding/json"
	"net/http"

	"github.com/ember-nexus/nexus-search/pkg/server/errors"
)

// CustomHTTPErrorHandler writes e as a JSON body {"code", "message"} with its HTTP status.
func CustomHTTPErrorHandler(w http.ResponseWriter, e *errors.EncodedError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(e.HTTPStatus())

	encoder := json.NewEncoder(w)
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(e.ActualError); err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

// WriteJSON writes v as a JSON body with the given status.
func WriteJSON(w http.ResponseWriter, statusCode int, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return err
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_, err = w.Write(body)
	return err
}
