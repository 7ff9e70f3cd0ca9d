package validation

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"reflect"
	"strconv"

	"github.com/go-playground/validator/v10"
)

const maxPageSize = 100

// Bind decodes a JSON body into dst and, when dst points to a struct,
// validates it. A non-nil result holds the messages to return to the client.
func Bind(v *validator.Validate, r *http.Request, dst any) map[string]string {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return map[string]string{"body": fmt.Sprintf("invalid JSON body: %v", err)}
	}
	if reflect.Indirect(reflect.ValueOf(dst)).Kind() != reflect.Struct {
		return nil
	}
	if err := v.Struct(dst); err != nil {
		return FormatErrors(err)
	}
	return nil
}

// Pagination reads page and page_size. Both are optional; page_size 0 means
// no paging.
func Pagination(q url.Values) (page, pageSize int, fields map[string]string) {
	fields = make(map[string]string)
	page = 1
	if raw := q.Get("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			fields["page"] = "page must be a positive integer"
		}
		page = n
	}
	if raw := q.Get("page_size"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxPageSize {
			fields["page_size"] = fmt.Sprintf("page_size must be between 1 and %d", maxPageSize)
		}
		pageSize = n
	}
	if len(fields) == 0 {
		fields = nil
	}
	return page, pageSize, fields
}
