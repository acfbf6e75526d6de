package validators

import (
	"net/http"
	"strconv"
	"strings"

	pkgerrors "github.com/techcreator/storefront/pkg/errors"
)

// queryValue returns the trimmed parameter and whether it was supplied.
func queryValue(r *http.Request, key string) (string, bool) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	return raw, raw != ""
}

func invalidQuery(key, msg string, extra map[string]any) error {
	details := map[string]any{"field": key}
	for k, v := range extra {
		details[k] = v
	}
	return pkgerrors.New(pkgerrors.CodeValidation, key+" "+msg).WithDetails(details)
}

// ParseQueryInt reads an optional integer bounded by [lo, hi].
func ParseQueryInt(r *http.Request, key string, defaultVal, lo, hi int) (int, error) {
	raw, ok := queryValue(r, key)
	if !ok {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, invalidQuery(key, "must be numeric", nil)
	}
	if n < lo || n > hi {
		return 0, invalidQuery(key, "out of range", map[string]any{"min": lo, "max": hi})
	}
	return n, nil
}

// ParseQueryBool accepts the forms strconv.ParseBool does.
func ParseQueryBool(r *http.Request, key string, defaultVal bool) (bool, error) {
	raw, ok := queryValue(r, key)
	if !ok {
		return defaultVal, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return false, invalidQuery(key, "must be a boolean", nil)
	}
	return b, nil
}
