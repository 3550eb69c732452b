package apierr

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/pkg/errors"
)

func TestAsMapsSentinels(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{fmt.Errorf("resident: %w", pkgerrors.ErrNotFound), http.StatusNotFound},
		{fmt.Errorf("x: %w", pkgerrors.ErrConflict), http.StatusConflict},
		{fmt.Errorf("x: %w", pkgerrors.ErrBusinessRule), http.StatusUnprocessableEntity},
		{fmt.Errorf("x: %w", pkgerrors.ErrInvalidArgument), http.StatusBadRequest},
	}
	for _, tc := range cases {
		ae, ok := As(tc.err)
		require.True(t, ok, "expected mapping for %v", tc.err)
		assert.Equal(t, tc.status, ae.Status)
	}

	_, ok := As(fmt.Errorf("boom"))
	assert.False(t, ok)
}

func TestValidationOrdersFields(t *testing.T) {
	err := Validation(map[string]string{"b": "second", "a": "first"})
	assert.Equal(t, http.StatusBadRequest, err.Status)
	assert.Equal(t, "a: first; b: second: invalid argument", err.Error())

	wrapped := fmt.Errorf("service: %w", err)
	ae, ok := As(wrapped)
	require.True(t, ok)
	assert.Equal(t, "second", ae.Fields["b"])
}
