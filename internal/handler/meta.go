package handler

import (
	"net/http"

	"github.com/watizat/connect/internal/model"
)

// HandleIndex is the API banner.
//
// HTTP: GET /api/
func HandleIndex(version string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"service": "watizat-connect",
			"version": version,
		})
	}
}

// HandleCategories lists the category enumeration in its canonical order.
//
// HTTP: GET /api/categories
func HandleCategories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, model.Categories())
}
