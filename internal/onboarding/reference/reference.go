// Package reference holds the static lookup tables the wizard renders from:
// countries for address and nationality selects, and currency symbols for
// monetary fields.
package reference

import (
	"slices"
	"strings"
)

// Country is an ISO 3166-1 alpha-2 code with its English short name.
type Country struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// Currency is an ISO 4217 code with its display symbol.
type Currency struct {
	Code   string `json:"code"`
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
}

var countries = []Country{
	{"AR", "Argentina"},
	{"AU", "Australia"},
	{"AT", "Austria"},
	{"BE", "Belgium"},
	{"BR", "Brazil"},
	{"BG", "Bulgaria"},
	{"CA", "Canada"},
	{"CL", "Chile"},
	{"CN", "China"},
	{"CO", "Colombia"},
	{"HR", "Croatia"},
	{"CY", "Cyprus"},
	{"CZ", "Czechia"},
	{"DK", "Denmark"},
	{"EG", "Egypt"},
	{"EE", "Estonia"},
	{"FI", "Finland"},
	{"FR", "France"},
	{"DE", "Germany"},
	{"GH", "Ghana"},
	{"GR", "Greece"},
	{"HK", "Hong Kong"},
	{"HU", "Hungary"},
	{"IS", "Iceland"},
	{"IN", "India"},
	{"ID", "Indonesia"},
	{"IE", "Ireland"},
	{"IL", "Israel"},
	{"IT", "Italy"},
	{"JP", "Japan"},
	{"KE", "Kenya"},
	{"KR", "Korea, Republic of"},
	{"LV", "Latvia"},
	{"LT", "Lithuania"},
	{"LU", "Luxembourg"},
	{"MY", "Malaysia"},
	{"MT", "Malta"},
	{"MX", "Mexico"},
	{"MA", "Morocco"},
	{"NL", "Netherlands"},
	{"NZ", "New Zealand"},
	{"NG", "Nigeria"},
	{"NO", "Norway"},
	{"PE", "Peru"},
	{"PH", "Philippines"},
	{"PL", "Poland"},
	{"PT", "Portugal"},
	{"QA", "Qatar"},
	{"RO", "Romania"},
	{"SA", "Saudi Arabia"},
	{"SG", "Singapore"},
	{"SK", "Slovakia"},
	{"SI", "Slovenia"},
	{"ZA", "South Africa"},
	{"ES", "Spain"},
	{"SE", "Sweden"},
	{"CH", "Switzerland"},
	{"TW", "Taiwan"},
	{"TH", "Thailand"},
	{"TR", "Türkiye"},
	{"UA", "Ukraine"},
	{"AE", "United Arab Emirates"},
	{"GB", "United Kingdom"},
	{"US", "United States"},
	{"UY", "Uruguay"},
	{"VN", "Viet Nam"},
}

var currencies = []Currency{
	{"AED", "د.إ", "UAE Dirham"},
	{"AUD", "A$", "Australian Dollar"},
	{"BRL", "R$", "Brazilian Real"},
	{"CAD", "C$", "Canadian Dollar"},
	{"CHF", "CHF", "Swiss Franc"},
	{"CNY", "¥", "Yuan Renminbi"},
	{"DKK", "kr", "Danish Krone"},
	{"EUR", "€", "Euro"},
	{"GBP", "£", "Pound Sterling"},
	{"HKD", "HK$", "Hong Kong Dollar"},
	{"INR", "₹", "Indian Rupee"},
	{"JPY", "¥", "Yen"},
	{"KRW", "₩", "Won"},
	{"MXN", "MX$", "Mexican Peso"},
	{"NGN", "₦", "Naira"},
	{"NOK", "kr", "Norwegian Krone"},
	{"NZD", "NZ$", "New Zealand Dollar"},
	{"PLN", "zł", "Zloty"},
	{"SEK", "kr", "Swedish Krona"},
	{"SGD", "S$", "Singapore Dollar"},
	{"TRY", "₺", "Turkish Lira"},
	{"USD", "$", "US Dollar"},
	{"ZAR", "R", "Rand"},
}

// Countries returns the country table ordered by name.
func Countries() []Country {
	return slices.Clone(countries)
}

// Currencies returns the currency table ordered by code.
func Currencies() []Currency {
	return slices.Clone(currencies)
}

// CountryByCode looks up a country by its alpha-2 code, case-insensitively.
func CountryByCode(code string) (Country, bool) {
	code = strings.ToUpper(strings.TrimSpace(code))
	for _, c := range countries {
		if c.Code == code {
			return c, true
		}
	}
	return Country{}, false
}

// CurrencySymbol returns the display symbol for code, falling back to the
// code itself when the currency is not tabled.
func CurrencySymbol(code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	for _, c := range currencies {
		if c.Code == code {
			return c.Symbol
		}
	}
	return code
}
