package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/cmlabs-hris/cafeteria-payroll/internal/pkg/validator"
)

// decodeJSON reads the body into dst. An empty body leaves dst untouched.
func decodeJSON(r *http.Request, dst interface{}) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	return json.NewDecoder(r.Body).Decode(dst)
}

// getIntQueryParam gets an int query parameter with a default value
func getIntQueryParam(r *http.Request, key string, defaultVal int) int {
	val := r.URL.Query().Get(key)
	if val == "" {
		return defaultVal
	}
	intVal, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return intVal
}

// getBoolQueryParam gets a bool query parameter with a default value
func getBoolQueryParam(r *http.Request, key string, defaultVal bool) bool {
	val := r.URL.Query().Get(key)
	if val == "" {
		return defaultVal
	}
	return val == "true" || val == "1"
}

func optionalQuery(r *http.Request, key string) *string {
	if val := r.URL.Query().Get(key); val != "" {
		return &val
	}
	return nil
}

// optionalIntQuery reports a malformed value as a validation error.
func optionalIntQuery(r *http.Request, key string, errs *validator.ValidationErrors) *int {
	val := r.URL.Query().Get(key)
	if val == "" {
		return nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		*errs = append(*errs, validator.ValidationError{Field: key, Message: key + " must be a number"})
		return nil
	}
	return &n
}

// pathInt parses a numeric URL segment.
func pathInt(raw, field string, errs *validator.ValidationErrors) int {
	n, err := strconv.Atoi(raw)
	if err != nil {
		*errs = append(*errs, validator.ValidationError{Field: field, Message: field + " must be a number"})
	}
	return n
}
