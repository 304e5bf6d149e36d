package reservation

import (
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestFeature(t *testing.T) {
	db := setupTestDB(t)
	feature := NewFeature(db, zap.NewNop(), nil, nil, false)

	assert.Equal(t, "reservation", feature.Name())
	assert.True(t, feature.IsEnabled())
	require.NotNil(t, feature.Service())
	require.NotNil(t, feature.Service().Allocator())

	app := fiber.New()
	assert.NoError(t, feature.Load(app))
}
