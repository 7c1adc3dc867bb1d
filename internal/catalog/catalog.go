// Package catalog holds the controlled vocabulary of supported destinations.
// Every slot write for `destination` must resolve against this table.
package catalog

import "strings"

// City is one supported destination.
type City struct {
	Name        string `json:"name"`
	IATA        string `json:"iata"`
	Country     string `json:"country"`
	CountryCode string `json:"country_code"`
	Region      string `json:"region"`
}

var cities = []City{
	// Malaysia
	{Name: "Kuala Lumpur", IATA: "kul", Country: "Malaysia", CountryCode: "MY", Region: "Southeast Asia"},
	{Name: "Langkawi", IATA: "lgk", Country: "Malaysia", CountryCode: "MY", Region: "Southeast Asia"},
	{Name: "Penang", IATA: "pen", Country: "Malaysia", CountryCode: "MY", Region: "Southeast Asia"},
	{Name: "Kota Kinabalu", IATA: "bki", Country: "Malaysia", CountryCode: "MY", Region: "Southeast Asia"},
	{Name: "Kuching", IATA: "kch", Country: "Malaysia", CountryCode: "MY", Region: "Southeast Asia"},
	{Name: "Ipoh", IATA: "iph", Country: "Malaysia", CountryCode: "MY", Region: "Southeast Asia"},
	{Name: "Malacca", IATA: "mkz", Country: "Malaysia", CountryCode: "MY", Region: "Southeast Asia"},
	// Thailand
	{Name: "Bangkok", IATA: "bkk", Country: "Thailand", CountryCode: "TH", Region: "Southeast Asia"},
	{Name: "Phuket", IATA: "hkt", Country: "Thailand", CountryCode: "TH", Region: "Southeast Asia"},
	{Name: "Chiang Mai", IATA: "cnx", Country: "Thailand", CountryCode: "TH", Region: "Southeast Asia"},
	{Name: "Krabi", IATA: "kbv", Country: "Thailand", CountryCode: "TH", Region: "Southeast Asia"},
	{Name: "Koh Samui", IATA: "usm", Country: "Thailand", CountryCode: "TH", Region: "Southeast Asia"},
	{Name: "Hat Yai", IATA: "hdy", Country: "Thailand", CountryCode: "TH", Region: "Southeast Asia"},
	// Indonesia
	{Name: "Jakarta", IATA: "cgk", Country: "Indonesia", CountryCode: "ID", Region: "Southeast Asia"},
	{Name: "Bali", IATA: "dps", Country: "Indonesia", CountryCode: "ID", Region: "Southeast Asia"},
	{Name: "Surabaya", IATA: "sub", Country: "Indonesia", CountryCode: "ID", Region: "Southeast Asia"},
	{Name: "Yogyakarta", IATA: "jog", Country: "Indonesia", CountryCode: "ID", Region: "Southeast Asia"},
	{Name: "Medan", IATA: "kno", Country: "Indonesia", CountryCode: "ID", Region: "Southeast Asia"},
	{Name: "Bandung", IATA: "bdg", Country: "Indonesia", CountryCode: "ID", Region: "Southeast Asia"},
	// Philippines
	{Name: "Manila", IATA: "mnl", Country: "Philippines", CountryCode: "PH", Region: "Southeast Asia"},
	{Name: "Cebu", IATA: "ceb", Country: "Philippines", CountryCode: "PH", Region: "Southeast Asia"},
	{Name: "Davao", IATA: "dvo", Country: "Philippines", CountryCode: "PH", Region: "Southeast Asia"},
	// Vietnam
	{Name: "Ho Chi Minh City", IATA: "sgn", Country: "Vietnam", CountryCode: "VN", Region: "Southeast Asia"},
	{Name: "Hanoi", IATA: "han", Country: "Vietnam", CountryCode: "VN", Region: "Southeast Asia"},
	{Name: "Da Nang", IATA: "dad", Country: "Vietnam", CountryCode: "VN", Region: "Southeast Asia"},
	{Name: "Phu Quoc", IATA: "pqc", Country: "Vietnam", CountryCode: "VN", Region: "Southeast Asia"},
	// Cambodia
	{Name: "Phnom Penh", IATA: "pnh", Country: "Cambodia", CountryCode: "KH", Region: "Southeast Asia"},
	{Name: "Siem Reap", IATA: "rep", Country: "Cambodia", CountryCode: "KH", Region: "Southeast Asia"},
	// Myanmar
	{Name: "Yangon", IATA: "rgn", Country: "Myanmar", CountryCode: "MM", Region: "Southeast Asia"},
	// Japan
	{Name: "Tokyo", IATA: "tyo", Country: "Japan", CountryCode: "JP", Region: "East Asia"},
	{Name: "Osaka", IATA: "osa", Country: "Japan", CountryCode: "JP", Region: "East Asia"},
	{Name: "Kyoto", IATA: "uky", Country: "Japan", CountryCode: "JP", Region: "East Asia"},
	// South Korea
	{Name: "Seoul", IATA: "sel", Country: "South Korea", CountryCode: "KR", Region: "East Asia"},
	{Name: "Busan", IATA: "pus", Country: "South Korea", CountryCode: "KR", Region: "East Asia"},
	// Greater China
	{Name: "Hong Kong", IATA: "hkg", Country: "Hong Kong", CountryCode: "HK", Region: "East Asia"},
	{Name: "Taipei", IATA: "tpe", Country: "Taiwan", CountryCode: "TW", Region: "East Asia"},
	{Name: "Shanghai", IATA: "sha", Country: "China", CountryCode: "CN", Region: "East Asia"},
	{Name: "Beijing", IATA: "pek", Country: "China", CountryCode: "CN", Region: "East Asia"},
	// India
	{Name: "Mumbai", IATA: "bom", Country: "India", CountryCode: "IN", Region: "South Asia"},
	{Name: "Delhi", IATA: "del", Country: "India", CountryCode: "IN", Region: "South Asia"},
	{Name: "Bangalore", IATA: "blr", Country: "India", CountryCode: "IN", Region: "South Asia"},
	// Australia
	{Name: "Sydney", IATA: "syd", Country: "Australia", CountryCode: "AU", Region: "Oceania"},
	{Name: "Melbourne", IATA: "mel", Country: "Australia", CountryCode: "AU", Region: "Oceania"},
}

var aliases = []struct{ alias, name string }{
	{"denpasar", "Bali"},
	{"saigon", "Ho Chi Minh City"},
	{"hcmc", "Ho Chi Minh City"},
}

var byLower map[string]City

func init() {
	byLower = make(map[string]City, len(cities)+len(aliases))
	for _, c := range cities {
		byLower[strings.ToLower(c.Name)] = c
	}
	for _, a := range aliases {
		byLower[a.alias] = byLower[strings.ToLower(a.name)]
	}
}

// All returns every supported city.
func All() []City {
	out := make([]City, len(cities))
	copy(out, cities)
	return out
}

// Find resolves a name (case-insensitive, alias-aware) to a supported city.
func Find(name string) (City, bool) {
	c, ok := byLower[strings.ToLower(strings.TrimSpace(name))]
	return c, ok
}

// Match scans free text for the first supported city mention. Cities are
// checked in table order so repeated calls on the same text are stable.
func Match(text string) (City, bool) {
	lower := strings.ToLower(text)
	for _, c := range cities {
		if containsWord(lower, strings.ToLower(c.Name)) {
			return c, true
		}
	}
	for _, a := range aliases {
		if containsWord(lower, a.alias) {
			return byLower[a.alias], true
		}
	}
	return City{}, false
}

// ByRegion groups supported cities for the unsupported-destination
// clarification response.
func ByRegion() map[string][]City {
	out := make(map[string][]City)
	for _, c := range cities {
		out[c.Region] = append(out[c.Region], c)
	}
	return out
}

// containsWord reports whether text contains needle on word boundaries, so
// "bali" does not match "kabalive".
func containsWord(text, needle string) bool {
	idx := 0
	for {
		i := strings.Index(text[idx:], needle)
		if i < 0 {
			return false
		}
		start := idx + i
		end := start + len(needle)
		beforeOK := start == 0 || !isAlnum(text[start-1])
		afterOK := end == len(text) || !isAlnum(text[end])
		if beforeOK && afterOK {
			return true
		}
		idx = start + 1
		if idx >= len(text) {
			return false
		}
	}
}

func isAlnum(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z' || b >= '0' && b <= '9'
}
