package realtime

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/trafficwatch/incident_geo_system/internal/models"
)

func TestRegionID_Deterministic(t *testing.T) {
	// Две точки в одной ячейке сетки дают один и тот же канал
	a := RegionID(55.7558, 37.6173, 0.1)
	b := RegionID(55.7100, 37.6400, 0.1)
	assert.Equal(t, "region:55.7000:37.6000", a)
	assert.Equal(t, a, b)

	// Соседняя ячейка - другой канал
	c := RegionID(55.8100, 37.6173, 0.1)
	assert.NotEqual(t, a, c)
}

func TestRegionID_NegativeCoordinates(t *testing.T) {
	// Усечение идет вниз, а не к нулю
	assert.Equal(t, "region:-0.1000:-0.1000", RegionID(-0.05, -0.05, 0.1))
}

func TestRegionID_ZeroGridFallsBack(t *testing.T) {
	assert.Equal(t, RegionID(55.75, 37.61, 0.1), RegionID(55.75, 37.61, 0))
}

func TestRegionsForBounds_CoversViewport(t *testing.T) {
	bounds := models.Bounds{MinLat: 0, MinLon: 0, MaxLat: 0.25, MaxLon: 0.15}

	regions := RegionsForBounds(bounds, 0.1, 0)

	// 3 ячейки по широте, 2 по долготе
	assert.Len(t, regions, 6)
	assert.Contains(t, regions, RegionID(0, 0, 0.1))
	assert.Contains(t, regions, RegionID(0.2, 0.1, 0.1))
}

func TestRegionsForBounds_CapsResult(t *testing.T) {
	bounds := models.Bounds{MinLat: 0, MinLon: 0, MaxLat: 10, MaxLon: 10}

	regions := RegionsForBounds(bounds, 0.1, 4)

	assert.Len(t, regions, 4)
}
