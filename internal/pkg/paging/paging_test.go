package paging

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	assert.Equal(t, Page{Page: 1, Limit: DefaultLimit}, Page{}.Normalize())
	assert.Equal(t, Page{Page: 3, Limit: MaxLimit}, Page{Page: 3, Limit: 500}.Normalize())
	assert.Equal(t, 40, Page{Page: 3, Limit: 20}.Offset())
}

func TestMeta(t *testing.T) {
	m := Page{Page: 2, Limit: 10}.Meta(25)
	assert.Equal(t, Meta{Page: 2, Limit: 10, Total: 25, TotalPages: 3}, m)
	assert.Equal(t, 0, Page{}.Meta(0).TotalPages)
}
