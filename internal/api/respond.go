package api

import (
	"encoding/json"
	"log"
	"net/http"
	"reflect"
)

type envelope map[string]any

// jsonList substitutes an empty slice for nil so list payloads always
// render as [], never null. Clients filter these arrays unconditionally.
func jsonList(data any) any {
	if v := reflect.ValueOf(data); !v.IsValid() || (v.Kind() == reflect.Slice && v.IsNil()) {
		return []any{}
	}
	return data
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

// respondData wraps a single object in the success envelope.
func respondData(w http.ResponseWriter, status int, data any) {
	respondJSON(w, status, envelope{"success": true, "data": data})
}

// respondList wraps a collection; count mirrors len(data) for clients that
// don't want to measure the array themselves.
func respondList(w http.ResponseWriter, data any, count int) {
	respondJSON(w, http.StatusOK, envelope{"success": true, "data": jsonList(data), "count": count})
}

func respondMessage(w http.ResponseWriter, status int, message string, data any) {
	body := envelope{"success": true, "message": message}
	if data != nil {
		body["data"] = data
	}
	respondJSON(w, status, body)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, envelope{"success": false, "message": message})
}

// respondServerError hides the cause in production; dev mode echoes it so
// the frontend console is useful without tailing server logs.
func respondServerError(w http.ResponseWriter, devMode bool, err error) {
	log.Printf("Error: %v", err)
	body := envelope{"success": false, "message": "Internal server error"}
	if devMode {
		body["error"] = err.Error()
	}
	respondJSON(w, http.StatusInternalServerError, body)
}
