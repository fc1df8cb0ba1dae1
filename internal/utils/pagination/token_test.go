package pagination_test

import (
	"testing"
	"time"

	"github.com/pesoflow/lending_backend/internal/utils/pagination"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeToken(t *testing.T) {
	rowDate := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	createdAt := time.Date(2025, 6, 1, 17, 42, 9, 123456789, time.UTC)

	token := pagination.EncodeToken(rowDate, createdAt)
	require.NotEmpty(t, token)

	gotDate, gotCreated, err := pagination.DecodeToken(token)
	require.NoError(t, err)
	assert.True(t, rowDate.Equal(gotDate))
	assert.True(t, createdAt.Equal(gotCreated))
}

func TestDecodeToken_Invalid(t *testing.T) {
	_, _, err := pagination.DecodeToken("not-base64!!!")
	assert.Error(t, err)

	_, _, err = pagination.DecodeToken("bm8gc2VwYXJhdG9y") // "no separator"
	assert.Error(t, err)
}
