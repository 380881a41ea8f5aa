package kernel

import (
	"errors"
	"fmt"
	"math"

	"orderflow/internal/pkg/errs"
	"orderflow/internal/pkg/guard"
)

const (
	// EarthRadiusKm is the spherical Earth radius used for great-circle distances.
	EarthRadiusKm = 6371.0

	MinLatitude  = -90.0
	MaxLatitude  = 90.0
	MinLongitude = -180.0
	MaxLongitude = 180.0
)

// ErrLocationIsNotConstructed is returned when a zero-value Location is used.
var ErrLocationIsNotConstructed = errs.NewValueIsRequiredError(
	"location must be created via NewLocation constructor")

// Location is an immutable WGS84 coordinate (degrees). The zero value is
// invalid; build instances with NewLocation.
//
// Example:
//
//	branch, _ := kernel.NewLocation(41.311, 69.240)
//	courier, _ := kernel.NewLocation(41.313, 69.240)
//	km, _ := branch.DistanceKm(courier) // ≈ 0.22
type Location struct { //nolint:recvcheck //using for validation
	lat   float64
	lon   float64
	guard guard.ConstructorGuard
}

// NewLocation validates latitude in [-90, 90] and longitude in [-180, 180].
func NewLocation(lat, lon float64) (Location, error) {
	loc := Location{
		guard: guard.NewConstructorGuard(),
	}

	if err := errors.Join(loc.setLat(lat), loc.setLon(lon)); err != nil {
		return Location{}, err
	}

	return loc, nil
}

// Validate checks that the location was built by NewLocation.
func (l Location) Validate() error {
	return l.guard.Validate(ErrLocationIsNotConstructed)
}

// Lat returns the latitude in degrees.
func (l Location) Lat() float64 {
	return l.lat
}

// Lon returns the longitude in degrees.
func (l Location) Lon() float64 {
	return l.lon
}

// String implements fmt.Stringer.
func (l Location) String() string {
	return fmt.Sprintf("Location(%.6f,%.6f)", l.lat, l.lon)
}

// IsEqual compares coordinates of two constructed locations.
func (l Location) IsEqual(other Location) (bool, error) {
	if err := errors.Join(l.Validate(), other.Validate()); err != nil {
		return false, err
	}

	return l.lat == other.lat && l.lon == other.lon, nil
}

// DistanceKm returns the haversine great-circle distance in kilometres.
// The result is symmetric and zero for identical coordinates.
func (l Location) DistanceKm(other Location) (float64, error) {
	if err := errors.Join(l.Validate(), other.Validate()); err != nil {
		return 0, err
	}

	const degToRad = math.Pi / 180
	dLat := (other.lat - l.lat) * degToRad
	dLon := (other.lon - l.lon) * degToRad
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(l.lat*degToRad)*math.Cos(other.lat*degToRad)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return EarthRadiusKm * c, nil
}

// setLat and setLon use pointer receivers so the constructor can validate in place.
func (l *Location) setLat(lat float64) error {
	if math.IsNaN(lat) || lat < MinLatitude || lat > MaxLatitude {
		return errs.NewValueIsOutOfRangeError("lat", lat, MinLatitude, MaxLatitude)
	}

	l.lat = lat
	return nil
}

func (l *Location) setLon(lon float64) error {
	if math.IsNaN(lon) || lon < MinLongitude || lon > MaxLongitude {
		return errs.NewValueIsOutOfRangeError("lon", lon, MinLongitude, MaxLongitude)
	}

	l.lon = lon
	return nil
}
