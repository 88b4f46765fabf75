package valueobject

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"unicode"
)

// Address is an immutable postal address value object.
// Street, city and state are required; the state is a two-letter federative
// unit code and the zip code is an eight-digit CEP.
type Address struct {
	street       string
	number       string
	complement   string
	neighborhood string
	city         string
	state        string
	zipCode      string
	country      string
}

// DefaultCountry is applied when no country is given
const DefaultCountry = "Brasil"

// AddressOption is a functional option for configuring Address
type AddressOption func(*Address)

// WithNumber sets the street number
func WithNumber(number string) AddressOption {
	return func(a *Address) {
		a.number = strings.TrimSpace(number)
	}
}

// WithComplement sets the complement (suite, floor, block)
func WithComplement(complement string) AddressOption {
	return func(a *Address) {
		a.complement = strings.TrimSpace(complement)
	}
}

// WithNeighborhood sets the neighborhood
func WithNeighborhood(neighborhood string) AddressOption {
	return func(a *Address) {
		a.neighborhood = strings.TrimSpace(neighborhood)
	}
}

// WithZipCode sets the zip code; punctuation is stripped
func WithZipCode(zipCode string) AddressOption {
	return func(a *Address) {
		a.zipCode = digitsOnly(zipCode)
	}
}

// WithCountry sets the country
func WithCountry(country string) AddressOption {
	return func(a *Address) {
		a.country = strings.TrimSpace(country)
	}
}

// NewAddress creates a new Address with the required fields
func NewAddress(street, city, state string, opts ...AddressOption) (Address, error) {
	street = strings.TrimSpace(street)
	city = strings.TrimSpace(city)
	state = strings.ToUpper(strings.TrimSpace(state))

	if street == "" {
		return Address{}, fmt.Errorf("street cannot be empty")
	}
	if len(street) > 200 {
		return Address{}, fmt.Errorf("street cannot exceed 200 characters")
	}
	if city == "" {
		return Address{}, fmt.Errorf("city cannot be empty")
	}
	if len(city) > 100 {
		return Address{}, fmt.Errorf("city cannot exceed 100 characters")
	}
	if err := validateState(state); err != nil {
		return Address{}, err
	}

	addr := Address{
		street:  street,
		city:    city,
		state:   state,
		country: DefaultCountry,
	}
	for _, opt := range opts {
		opt(&addr)
	}

	if addr.zipCode != "" && len(addr.zipCode) != 8 {
		return Address{}, fmt.Errorf("zip code must have 8 digits")
	}
	if len(addr.complement) > 100 {
		return Address{}, fmt.Errorf("complement cannot exceed 100 characters")
	}
	if addr.country == "" {
		addr.country = DefaultCountry
	}

	return addr, nil
}

// EmptyAddress returns an empty address (for optional address fields)
func EmptyAddress() Address {
	return Address{}
}

// Street returns the street
func (a Address) Street() string { return a.street }

// Number returns the street number
func (a Address) Number() string { return a.number }

// Complement returns the complement
func (a Address) Complement() string { return a.complement }

// Neighborhood returns the neighborhood
func (a Address) Neighborhood() string { return a.neighborhood }

// City returns the city
func (a Address) City() string { return a.city }

// State returns the two-letter state code
func (a Address) State() string { return a.state }

// ZipCode returns the raw eight-digit zip code
func (a Address) ZipCode() string { return a.zipCode }

// Country returns the country
func (a Address) Country() string { return a.country }

// IsEmpty returns true if no required field is set
func (a Address) IsEmpty() bool {
	return a.street == "" && a.city == "" && a.state == ""
}

// FormattedZipCode returns the zip code as 00000-000
func (a Address) FormattedZipCode() string {
	if len(a.zipCode) != 8 {
		return a.zipCode
	}
	return a.zipCode[:5] + "-" + a.zipCode[5:]
}

// FullAddress returns the formatted single-line address.
// Format: Street, Number - Complement - Neighborhood, City/State, Zip
func (a Address) FullAddress() string {
	if a.IsEmpty() {
		return ""
	}

	var sb strings.Builder
	sb.WriteString(a.street)
	if a.number != "" {
		sb.WriteString(", ")
		sb.WriteString(a.number)
	}
	if a.complement != "" {
		sb.WriteString(" - ")
		sb.WriteString(a.complement)
	}
	if a.neighborhood != "" {
		sb.WriteString(" - ")
		sb.WriteString(a.neighborhood)
	}
	sb.WriteString(", ")
	sb.WriteString(a.city)
	sb.WriteString("/")
	sb.WriteString(a.state)
	if a.zipCode != "" {
		sb.WriteString(", ")
		sb.WriteString(a.FormattedZipCode())
	}
	return sb.String()
}

// String returns a string representation of the address
func (a Address) String() string {
	return a.FullAddress()
}

// Equals returns true if both addresses are equal
func (a Address) Equals(other Address) bool {
	return a == other
}

// SameCity returns true if both addresses are in the same city and state
func (a Address) SameCity(other Address) bool {
	return strings.EqualFold(a.city, other.city) && a.state == other.state
}

// AddressDTO is the serialized form of Address, used for JSON and JSON columns
type AddressDTO struct {
	Street       string `json:"street"`
	Number       string `json:"number,omitempty"`
	Complement   string `json:"complement,omitempty"`
	Neighborhood string `json:"neighborhood,omitempty"`
	City         string `json:"city"`
	State        string `json:"state"`
	ZipCode      string `json:"zip_code,omitempty"`
	Country      string `json:"country,omitempty"`
}

// ToDTO converts Address to AddressDTO
func (a Address) ToDTO() AddressDTO {
	return AddressDTO{
		Street:       a.street,
		Number:       a.number,
		Complement:   a.complement,
		Neighborhood: a.neighborhood,
		City:         a.city,
		State:        a.state,
		ZipCode:      a.zipCode,
		Country:      a.country,
	}
}

// ToAddress converts AddressDTO back to Address
func (dto AddressDTO) ToAddress() (Address, error) {
	if dto.Street == "" && dto.City == "" && dto.State == "" {
		return EmptyAddress(), nil
	}
	return NewAddress(dto.Street, dto.City, dto.State,
		WithNumber(dto.Number),
		WithComplement(dto.Complement),
		WithNeighborhood(dto.Neighborhood),
		WithZipCode(dto.ZipCode),
		WithCountry(dto.Country),
	)
}

// MarshalJSON implements json.Marshaler
func (a Address) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.ToDTO())
}

// UnmarshalJSON implements json.Unmarshaler, applying NewAddress validation
func (a *Address) UnmarshalJSON(data []byte) error {
	var dto AddressDTO
	if err := json.Unmarshal(data, &dto); err != nil {
		return err
	}
	addr, err := dto.ToAddress()
	if err != nil {
		return err
	}
	*a = addr
	return nil
}

// Value implements driver.Valuer; addresses are stored as JSON text
func (a Address) Value() (driver.Value, error) {
	if a.IsEmpty() {
		return nil, nil
	}
	b, err := json.Marshal(a)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner
func (a *Address) Scan(value any) error {
	if value == nil {
		*a = EmptyAddress()
		return nil
	}

	var data []byte
	switch v := value.(type) {
	case string:
		data = []byte(v)
	case []byte:
		data = v
	default:
		return fmt.Errorf("cannot scan %T into Address", value)
	}

	if len(data) == 0 || string(data) == "null" {
		*a = EmptyAddress()
		return nil
	}
	return json.Unmarshal(data, a)
}

// States lists the valid two-letter federative unit codes
var States = []string{
	"AC", "AL", "AP", "AM", "BA", "CE", "DF", "ES", "GO",
	"MA", "MT", "MS", "MG", "PA", "PB", "PR", "PE", "PI",
	"RJ", "RN", "RS", "RO", "RR", "SC", "SP", "SE", "TO",
}

// IsValidState reports whether code is a known state code
func IsValidState(code string) bool {
	code = strings.ToUpper(strings.TrimSpace(code))
	for _, s := range States {
		if s == code {
			return true
		}
	}
	return false
}

func validateState(state string) error {
	if state == "" {
		return fmt.Errorf("state cannot be empty")
	}
	if !IsValidState(state) {
		return fmt.Errorf("invalid state code: %s", state)
	}
	return nil
}

func digitsOnly(s string) string {
	var sb strings.Builder
	for _, r := range s {
		if unicode.IsDigit(r) {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}
