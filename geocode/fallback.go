package geocode

import "github.com/ITP-ICN-G05/ICN-Mobile-sub001/mapper"

type latLng struct {
	Lat float64
	Lng float64
}

// stateCapitals holds one coordinate per state code, used when the provider
// cannot resolve an address.
var stateCapitals = map[string]latLng{
	mapper.StateNSW: {Lat: -33.8688, Lng: 151.2093}, // Sydney
	mapper.StateVIC: {Lat: -37.8136, Lng: 144.9631}, // Melbourne
	mapper.StateQLD: {Lat: -27.4698, Lng: 153.0251}, // Brisbane
	mapper.StateWA:  {Lat: -31.9505, Lng: 115.8605}, // Perth
	mapper.StateSA:  {Lat: -34.9285, Lng: 138.6007}, // Adelaide
	mapper.StateTAS: {Lat: -42.8821, Lng: 147.3272}, // Hobart
	mapper.StateACT: {Lat: -35.2809, Lng: 149.1300}, // Canberra
	mapper.StateNT:  {Lat: -12.4634, Lng: 130.8456}, // Darwin
	mapper.StateNI:  {Lat: -41.2865, Lng: 174.7762}, // Wellington
	mapper.StateSI:  {Lat: -43.5321, Lng: 172.6362}, // Christchurch
}

// Fallback returns the capital coordinate for a state code, defaulting to
// Sydney for anything unknown.
func Fallback(state string) Coordinate {
	coords, ok := stateCapitals[state]
	if !ok {
		coords = stateCapitals[mapper.StateNSW]
	}
	return Coordinate{Latitude: coords.Lat, Longitude: coords.Lng}
}
