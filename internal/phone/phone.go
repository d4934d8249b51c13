package phone

import (
	"strings"

	"github.com/nyaruka/phonenumbers"

	"github.com/goguixter/leads-backend/internal/apperror"
)

// Normalized is the canonical form of a phone number. E164 is the key used
// for deduplication and storage: two inputs that normalize to the same E164
// are the same phone number regardless of original formatting.
type Normalized struct {
	Raw     string `json:"phone_raw"`
	E164    string `json:"phone_e164"`
	Country string `json:"phone_country"`
	Valid   bool   `json:"phone_valid"`
}

// FromCountryAndNational parses a national number using the given ISO-3166
// alpha-2 country as a hint.
func FromCountryAndNational(country, national string) (Normalized, error) {
	iso2 := strings.ToUpper(strings.TrimSpace(country))

	parsed, err := phonenumbers.Parse(national, iso2)
	if err != nil || !phonenumbers.IsValidNumber(parsed) {
		return Normalized{}, apperror.UnprocessableEntity("Telefone invalido para o pais informado")
	}

	return Normalized{
		Raw:     national,
		E164:    phonenumbers.Format(parsed, phonenumbers.E164),
		Country: iso2,
		Valid:   true,
	}, nil
}

// FromInternational parses a full international number. The input must carry
// its own country information (a leading +), otherwise it is rejected.
func FromInternational(full string) (Normalized, error) {
	parsed, err := phonenumbers.Parse(full, "")
	if err != nil || !phonenumbers.IsValidNumber(parsed) {
		return Normalized{}, apperror.UnprocessableEntity("Telefone internacional invalido")
	}

	region := phonenumbers.GetRegionCodeForNumber(parsed)
	if region == "" || region == "ZZ" {
		return Normalized{}, apperror.UnprocessableEntity("Telefone internacional invalido")
	}

	return Normalized{
		Raw:     full,
		E164:    phonenumbers.Format(parsed, phonenumbers.E164),
		Country: region,
		Valid:   true,
	}, nil
}
