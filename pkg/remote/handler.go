package remote

import (
	"context"
	"net/http"
	"net/url"
	"sort"
	"strconv"

	json "github.com/goccy/go-json"

	"github.com/goliatone/go-formguard/pkg/fieldpath"
)

// ValidateFunc validates submitted values on the server and returns the
// messages per field. Fields without errors are omitted.
type ValidateFunc func(ctx context.Context, values url.Values) (map[string][]string, error)

// Reply is the answer to a whole-form check.
type Reply struct {
	Errors map[string][]string
}

// Valid reports whether the reply carries no errors.
func (r Reply) Valid() bool {
	return len(r.Errors) == 0
}

// MarshalJSON encodes true for a valid reply and the error object otherwise.
func (r Reply) MarshalJSON() ([]byte, error) {
	if r.Valid() {
		return []byte("true"), nil
	}
	return json.Marshal(r.Errors)
}

// Check answers a whole-form check carried by values. handled is false when
// values carry no MarkerField. Unless every field was requested only the
// triggering field is reported.
func Check(ctx context.Context, validate ValidateFunc, values url.Values) (reply Reply, handled bool, err error) {
	field := values.Get(MarkerField)
	if field == "" {
		return Reply{}, false, nil
	}
	all, _ := strconv.ParseBool(values.Get(ValidateAllField))

	clean := url.Values{}
	for key, vals := range values {
		if key == MarkerField || key == ValidateAllField {
			continue
		}
		clean[key] = append([]string(nil), vals...)
	}

	errs, err := validate(ctx, clean)
	if err != nil {
		return Reply{}, true, err
	}
	if all {
		return Reply{Errors: errs}, true, nil
	}

	own := fieldpath.Canonical(field)
	keys := make([]string, 0, len(errs))
	for key := range errs {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if fieldpath.Canonical(key) == own {
			return Reply{Errors: map[string][]string{key: errs[key]}}, true, nil
		}
	}
	return Reply{}, true, nil
}

// Handler answers whole-form checks and passes every other request to next.
// A nil next answers 404 for unmarked requests.
func Handler(validate ValidateFunc, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "remote: malformed form", http.StatusBadRequest)
			return
		}
		reply, handled, err := Check(r.Context(), validate, r.Form)
		if !handled {
			if next == nil {
				http.NotFound(w, r)
				return
			}
			next.ServeHTTP(w, r)
			return
		}
		if err != nil {
			http.Error(w, "remote: validation failed", http.StatusInternalServerError)
			return
		}
		WriteReply(w, reply)
	})
}

// WriteReply encodes reply as JSON with status 200.
func WriteReply(w http.ResponseWriter, reply Reply) {
	data, err := json.Marshal(reply)
	if err != nil {
		http.Error(w, "remote: encode reply", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
