package indices

// MODIS MOD11A1 land surface temperature is stored as Kelvin scaled by 50.
const (
	LSTScale  = 0.02
	LSTOffset = -273.15
)

// LSTToCelsius converts a raw LST_Day_1km value to degrees Celsius.
func LSTToCelsius(raw float64) float64 {
	return raw*LSTScale + LSTOffset
}
