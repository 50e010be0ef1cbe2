package aqi

// openWeatherLevels maps the provider's 1-5 air quality buckets to labels.
var openWeatherLevels = map[int]string{
	1: "Good",
	2: "Fair",
	3: "Moderate",
	4: "Poor",
	5: "Very Poor",
}

// OpenWeatherScore converts the provider-native 1-5 AQI bucket into a
// Score. Returns ErrInvalidIndexInput for buckets outside 1-5; callers
// must omit the score rather than substitute one.
func OpenWeatherScore(bucket int) (Score, error) {
	level, ok := openWeatherLevels[bucket]
	if !ok {
		return Score{}, ErrInvalidIndexInput
	}
	return Score{Index: bucket, Level: level}, nil
}
