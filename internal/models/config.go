package models

// TicketConfig is the singleton branding + access-secret record used by
// ticket rendering and the pay gate.
type TicketConfig struct {
	Logo           *string `json:"logo"`
	PrimaryColor   string  `json:"primary_color"`
	SecondaryColor string  `json:"secondary_color"`
	CompanyName    string  `json:"company_name"`
	CompanyAddress *string `json:"company_address"`
	CompanyPhone   *string `json:"company_phone"`
	AccessPassword string  `json:"access_password"`
}

// DefaultConfig returns the hard-coded defaults served when no
// configuration row has been saved yet. Reads never persist it.
func DefaultConfig() TicketConfig {
	address := "Dirección del Local"
	phone := "+54 11 1234-5678"
	return TicketConfig{
		Logo:           nil,
		PrimaryColor:   "#06b6d4",
		SecondaryColor: "#ec4899",
		CompanyName:    "Buffa-Bikes",
		CompanyAddress: &address,
		CompanyPhone:   &phone,
		AccessPassword: "admin123",
	}
}
