package httputil

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

var (
	errExpired = errors.New("expired")
	errTimeout = fmt.Errorf("upstream timeout: %w", context.DeadlineExceeded)
)

func TestErrorMapperMap(t *testing.T) {
	t.Parallel()

	mapper := NewErrorMapper().
		WithMapping(errExpired, http.StatusUnauthorized, "please re-authenticate").
		WithMapping(errTimeout, http.StatusGatewayTimeout, "narrow the range").
		WithDefault(http.StatusBadGateway, "upstream failure")

	cases := []struct {
		name string
		err  error
		want HTTPErrorInfo
	}{
		{"nil", nil, HTTPErrorInfo{Status: http.StatusOK}},
		{"wrapped mapping", fmt.Errorf("fetch: %w", errExpired), HTTPErrorInfo{http.StatusUnauthorized, "please re-authenticate"}},
		{"mapping beats context", errTimeout, HTTPErrorInfo{http.StatusGatewayTimeout, "narrow the range"}},
		{"bare deadline", context.DeadlineExceeded, HTTPErrorInfo{http.StatusGatewayTimeout, "request timeout"}},
		{"cancelled", context.Canceled, HTTPErrorInfo{http.StatusServiceUnavailable, "request cancelled"}},
		{"default", errors.New("boom"), HTTPErrorInfo{http.StatusBadGateway, "upstream failure"}},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, mapper.Map(tc.err))
		})
	}
}

func TestMapperDefaults(t *testing.T) {
	t.Parallel()

	mapper := NewErrorMapper().WithMapping(errExpired, http.StatusUnauthorized, "x")
	assert.Equal(t, http.StatusUnauthorized, mapper.Map(errExpired).Status)
	assert.Equal(t, http.StatusInternalServerError, mapper.Map(errors.New("other")).Status)
	assert.Equal(t, http.StatusOK, mapper.Map(nil).Status)
}
