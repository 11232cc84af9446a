package handlers

import (
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/rs/zerolog"

	"lagimmo/api/internal/apperr"
	"lagimmo/api/internal/ids"
	"lagimmo/api/internal/pagination"
	"lagimmo/api/internal/validation"
)

// respondError writes {"error", "message"[, "details"]} with the status of
// the error kind. Internal and upstream failures are logged.
func respondError(c *gin.Context, err error) {
	kind := apperr.KindOf(err)
	if kind == apperr.KindInternal || kind == apperr.KindUpstream {
		zerolog.Ctx(c.Request.Context()).Error().Err(err).Str("route", c.FullPath()).Msg("request failed")
	}
	_ = c.Error(err)

	body := gin.H{
		"error":   kind.String(),
		"message": apperr.Message(err),
	}
	if details := validation.Details(err); len(details) > 0 {
		body["details"] = details
	}
	c.AbortWithStatusJSON(kind.HTTPStatus(), body)
}

func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		respondError(c, validation.FromBinding(err))
		return false
	}
	return true
}

// bindForm binds multipart or urlencoded fields.
func bindForm(c *gin.Context, dst any) bool {
	if err := c.ShouldBind(dst); err != nil {
		respondError(c, validation.FromBinding(err))
		return false
	}
	return true
}

// pathID reads a uuid path parameter.
func pathID(c *gin.Context, name string) (string, bool) {
	id := c.Param(name)
	if !ids.Valid(id) {
		respondError(c, validation.New(name, name+" must be a valid uuid"))
		return "", false
	}
	return id, true
}

// decodeField decodes a JSON-encoded multipart field and validates the result.
func decodeField(name, raw string, dst any) error {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		return validation.New(name, name+" must be valid JSON")
	}
	err := binding.Validator.ValidateStruct(dst)
	var elems binding.SliceValidationError
	if errors.As(err, &elems) && len(elems) > 0 {
		err = elems[0]
	}
	return validation.FromBinding(err)
}

// formFiles returns the uploaded files of a multipart field, if any.
func formFiles(c *gin.Context, field string) ([]*multipart.FileHeader, error) {
	if !strings.HasPrefix(c.ContentType(), "multipart/") {
		return nil, nil
	}
	form, err := c.MultipartForm()
	if err != nil {
		return nil, validation.New(field, "malformed multipart body")
	}
	return form.File[field], nil
}

func listOptions(c *gin.Context) (pagination.Options, bool) {
	opts, err := pagination.ParseOptions(c.Request.URL.Query())
	if err != nil {
		respondError(c, err)
		return pagination.Options{}, false
	}
	return opts, true
}

// query reads optional typed query parameters and keeps the first error.
type query struct {
	c   *gin.Context
	err error
}

func newQuery(c *gin.Context) *query {
	return &query{c: c}
}

func (q *query) fail(name, message string) {
	if q.err == nil {
		q.err = validation.New(name, message)
	}
}

func (q *query) str(name string) *string {
	v := strings.TrimSpace(q.c.Query(name))
	if v == "" {
		return nil
	}
	return &v
}

func (q *query) upper(name string) *string {
	v := q.str(name)
	if v != nil {
		*v = strings.ToUpper(*v)
	}
	return v
}

func (q *query) uuid(name string) *string {
	v := q.str(name)
	if v != nil && !ids.Valid(*v) {
		q.fail(name, name+" must be a valid uuid")
		return nil
	}
	return v
}

func (q *query) flag(name string) *bool {
	raw := q.str(name)
	if raw == nil {
		return nil
	}
	v, err := strconv.ParseBool(*raw)
	if err != nil {
		q.fail(name, name+" must be true or false")
		return nil
	}
	return &v
}

func (q *query) number(name string) *float64 {
	raw := q.str(name)
	if raw == nil {
		return nil
	}
	v, err := strconv.ParseFloat(*raw, 64)
	if err != nil || v < 0 {
		q.fail(name, name+" must be a non-negative number")
		return nil
	}
	return &v
}

// list accepts repeated parameters and comma separated values.
func (q *query) list(name string) []string {
	var out []string
	for _, raw := range q.c.QueryArray(name) {
		for _, v := range strings.Split(raw, ",") {
			if v = strings.TrimSpace(v); v != "" {
				out = append(out, strings.ToUpper(v))
			}
		}
	}
	return out
}

func (q *query) dates() pagination.DateRange {
	r, err := pagination.ParseDateRange(q.c.Query("fromDate"), q.c.Query("toDate"))
	if err != nil && q.err == nil {
		q.err = err
	}
	return r
}

// done responds with the first error, if any.
func (q *query) done() bool {
	if q.err != nil {
		respondError(q.c, q.err)
		return false
	}
	return true
}

func respondCreated(c *gin.Context, v any) {
	c.JSON(http.StatusCreated, v)
}

func respondOK(c *gin.Context, v any) {
	c.JSON(http.StatusOK, v)
}
