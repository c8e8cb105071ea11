package worldbank

// DefaultCountries is the 30-economy universe the default analysis runs
// over. It is a default for configuration, not pipeline state: callers pass
// whatever country list they want.
var DefaultCountries = []string{
	"USA", "CHN", "JPN", "DEU", "IND", "GBR", "FRA", "ITA", "BRA", "CAN",
	"RUS", "KOR", "ESP", "AUS", "MEX", "IDN", "NLD", "SAU", "TUR", "TWN",
	"BEL", "IRE", "ARG", "ISR", "THA", "EGY", "ZAF", "PHL", "SGP", "NOR",
}

// CountryNames maps the default universe's ISO3 codes to display names.
var CountryNames = map[string]string{
	"USA": "United States",
	"CHN": "China",
	"JPN": "Japan",
	"DEU": "Germany",
	"IND": "India",
	"GBR": "United Kingdom",
	"FRA": "France",
	"ITA": "Italy",
	"BRA": "Brazil",
	"CAN": "Canada",
	"RUS": "Russia",
	"KOR": "South Korea",
	"ESP": "Spain",
	"AUS": "Australia",
	"MEX": "Mexico",
	"IDN": "Indonesia",
	"NLD": "Netherlands",
	"SAU": "Saudi Arabia",
	"TUR": "Turkey",
	"TWN": "Taiwan",
	"BEL": "Belgium",
	"IRE": "Ireland",
	"ARG": "Argentina",
	"ISR": "Israel",
	"THA": "Thailand",
	"EGY": "Egypt",
	"ZAF": "South Africa",
	"PHL": "Philippines",
	"SGP": "Singapore",
	"NOR": "Norway",
}
