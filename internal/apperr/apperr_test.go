package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOfWrappedSentinel(t *testing.T) {
	sentinel := NotFound("property not found")
	err := fmt.Errorf("load property: %w", sentinel)

	assert.Equal(t, KindNotFound, KindOf(err))
	assert.True(t, errors.Is(err, sentinel))
	assert.Equal(t, "property not found", Message(err))
	assert.Equal(t, http.StatusNotFound, KindOf(err).HTTPStatus())
}

func TestUnclassifiedErrorIsInternal(t *testing.T) {
	err := errors.New("pq: connection reset")
	assert.Equal(t, KindInternal, KindOf(err))
	assert.Equal(t, "internal server error", Message(err))
	assert.Equal(t, http.StatusInternalServerError, KindOf(err).HTTPStatus())
}

func TestUpstreamWrapsCause(t *testing.T) {
	cause := errors.New("minio: timeout")
	err := Upstream("object storage unavailable", cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, http.StatusBadGateway, err.Kind.HTTPStatus())
	assert.Equal(t, "object storage unavailable: minio: timeout", err.Error())
}

func TestKindStatusTable(t *testing.T) {
	cases := map[Kind]int{
		KindValidation:   http.StatusBadRequest,
		KindConflict:     http.StatusConflict,
		KindUnauthorized: http.StatusUnauthorized,
		KindForbidden:    http.StatusForbidden,
	}
	for kind, status := range cases {
		assert.Equal(t, status, kind.HTTPStatus(), kind.String())
	}
}
