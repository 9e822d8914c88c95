package favorites_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/airsight/airsight/internal/api/models"
	"github.com/airsight/airsight/internal/favorites"
)

func create(name string, lat, lon float64) *models.FavoriteCreateRequest {
	return &models.FavoriteCreateRequest{Name: name, Point: &models.Point{Lat: lat, Lon: lon}}
}

func TestService_Add(t *testing.T) {
	service := favorites.NewService(favorites.NewInMemoryRepository())
	ctx := context.Background()

	result, err := service.Add(ctx, "user123", create("  Home ", 33.6844, 73.0479))
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(result.ID, "fav_"))
	assert.Equal(t, "Home", result.Name)
	assert.Equal(t, models.Point{Lat: 33.6844, Lon: 73.0479}, result.Point)

	list, err := service.List(ctx, "user123")
	require.NoError(t, err)
	require.Len(t, list.Items, 1)
	assert.Equal(t, favorites.MaxPerUser, list.Limit)
}

func TestService_Add_ValidationErrors(t *testing.T) {
	service := favorites.NewService(favorites.NewInMemoryRepository())

	tests := []struct {
		name      string
		input     *models.FavoriteCreateRequest
		wantField string
	}{
		{"empty name", create("", 1, 1), "name"},
		{"blank name", create("   ", 1, 1), "name"},
		{"name too long", create(strings.Repeat("a", 81), 1, 1), "name"},
		{"missing point", &models.FavoriteCreateRequest{Name: "x"}, "point"},
		{"lat out of range", create("x", 91, 0), "point.lat"},
		{"lon out of range", create("x", 0, -181), "point.lon"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := service.Add(context.Background(), "user123", tt.input)
			require.Error(t, err)
			assert.ErrorIs(t, err, favorites.ErrInvalidFavorite)

			var verr *favorites.ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tt.wantField, verr.Errors[0].Field)
		})
	}
}

func TestService_Add_NameLengthCountsRunes(t *testing.T) {
	service := favorites.NewService(favorites.NewInMemoryRepository())
	_, err := service.Add(context.Background(), "u", create(strings.Repeat("é", 80), 1, 1))
	assert.NoError(t, err)
}

func TestService_Add_Duplicate(t *testing.T) {
	service := favorites.NewService(favorites.NewInMemoryRepository())
	ctx := context.Background()

	_, err := service.Add(ctx, "user123", create("Home", 51.5074, -0.1278))
	require.NoError(t, err)

	_, err = service.Add(ctx, "user123", create("Also home", 51.5074, -0.1278))
	assert.ErrorIs(t, err, favorites.ErrDuplicateFavorite)

	// Another user may save the same place.
	_, err = service.Add(ctx, "other", create("Home", 51.5074, -0.1278))
	assert.NoError(t, err)
}

func TestService_Add_Limit(t *testing.T) {
	service := favorites.NewService(favorites.NewInMemoryRepository())
	ctx := context.Background()

	for i := 0; i < favorites.MaxPerUser; i++ {
		_, err := service.Add(ctx, "user123", create(fmt.Sprintf("place %d", i), float64(i), 0))
		require.NoError(t, err)
	}

	_, err := service.Add(ctx, "user123", create("one too many", 50, 50))
	assert.ErrorIs(t, err, favorites.ErrFavoriteLimit)

	list, err := service.List(ctx, "user123")
	require.NoError(t, err)
	assert.Len(t, list.Items, favorites.MaxPerUser)
	assert.Equal(t, "place 0", list.Items[0].Name)
}

func TestService_Add_DuplicateAtLimit(t *testing.T) {
	service := favorites.NewService(favorites.NewInMemoryRepository())
	ctx := context.Background()

	for i := 0; i < favorites.MaxPerUser; i++ {
		_, err := service.Add(ctx, "user123", create(fmt.Sprintf("place %d", i), float64(i), 0))
		require.NoError(t, err)
	}

	_, err := service.Add(ctx, "user123", create("again", 0, 0))
	assert.ErrorIs(t, err, favorites.ErrDuplicateFavorite)
	assert.NotErrorIs(t, err, favorites.ErrFavoriteLimit)
}

func TestService_Add_ConcurrentLimit(t *testing.T) {
	service := favorites.NewService(favorites.NewInMemoryRepository())

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _ = service.Add(context.Background(), "user123", create("p", float64(i), 1))
		}(i)
	}
	wg.Wait()

	list, err := service.List(context.Background(), "user123")
	require.NoError(t, err)
	assert.Len(t, list.Items, favorites.MaxPerUser)
}

func TestService_Remove(t *testing.T) {
	service := favorites.NewService(favorites.NewInMemoryRepository())
	ctx := context.Background()

	fav, err := service.Add(ctx, "user123", create("Work", 40.7128, -74.0060))
	require.NoError(t, err)

	assert.ErrorIs(t, service.Remove(ctx, "someone-else", fav.ID), favorites.ErrFavoriteNotFound)
	require.NoError(t, service.Remove(ctx, "user123", fav.ID))
	assert.ErrorIs(t, service.Remove(ctx, "user123", fav.ID), favorites.ErrFavoriteNotFound)

	list, err := service.List(ctx, "user123")
	require.NoError(t, err)
	assert.Empty(t, list.Items)
}

func TestService_AllLocations(t *testing.T) {
	service := favorites.NewService(favorites.NewInMemoryRepository())
	ctx := context.Background()

	_, err := service.Add(ctx, "a", create("Tokyo", 35.6762, 139.6503))
	require.NoError(t, err)
	_, err = service.Add(ctx, "b", create("Tokyo too", 35.6762, 139.6503))
	require.NoError(t, err)
	_, err = service.Add(ctx, "b", create("Karachi", 24.8607, 67.0011))
	require.NoError(t, err)

	all, err := service.AllLocations(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Tokyo", all[0].Name)
	assert.Equal(t, "Karachi", all[1].Name)
}
