package geo

import "math"

const earthRadiusKm = 6371.0

// HaversineKm returns the great-circle distance between two coordinates in
// kilometers.
func HaversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRadians(lat2 - lat1)
	dLon := toRadians(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(lat1))*math.Cos(toRadians(lat2))*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKm * c
}

// MetersBetween returns the great-circle distance in meters.
func MetersBetween(lat1, lon1, lat2, lon2 float64) float64 {
	return HaversineKm(lat1, lon1, lat2, lon2) * 1000
}

// InitialBearing returns the initial course in degrees [0, 360) from the
// first coordinate towards the second.
func InitialBearing(lat1, lon1, lat2, lon2 float64) float64 {
	lat1Rad := toRadians(lat1)
	lat2Rad := toRadians(lat2)
	dLon := toRadians(lon2 - lon1)

	y := math.Sin(dLon) * math.Cos(lat2Rad)
	x := math.Cos(lat1Rad)*math.Sin(lat2Rad) - math.Sin(lat1Rad)*math.Cos(lat2Rad)*math.Cos(dLon)
	bearing := toDegrees(math.Atan2(y, x))
	return math.Mod(bearing+360, 360)
}

// Destination returns the coordinate reached by travelling distanceM meters
// from the start on the given initial bearing, on a spherical earth.
func Destination(lat, lon, bearingDeg, distanceM float64) (float64, float64) {
	angular := distanceM / (earthRadiusKm * 1000)
	bearing := toRadians(bearingDeg)
	latRad := toRadians(lat)
	lonRad := toRadians(lon)

	newLat := math.Asin(math.Sin(latRad)*math.Cos(angular) +
		math.Cos(latRad)*math.Sin(angular)*math.Cos(bearing))
	newLon := lonRad + math.Atan2(
		math.Sin(bearing)*math.Sin(angular)*math.Cos(latRad),
		math.Cos(angular)-math.Sin(latRad)*math.Sin(newLat))

	lonDeg := toDegrees(newLon)
	// keep longitude in [-180, 180]
	lonDeg = math.Mod(lonDeg+540, 360) - 180
	return toDegrees(newLat), lonDeg
}

func toRadians(deg float64) float64 { return deg * math.Pi / 180 }

func toDegrees(rad float64) float64 { return rad * 180 / math.Pi }
