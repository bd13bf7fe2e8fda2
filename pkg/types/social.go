package types

import "database/sql/driver"

// Social holds a store's optional social links.
type Social struct {
	Facebook  *string `json:"facebook,omitempty"`
	Instagram *string `json:"instagram,omitempty"`
	TikTok    *string `json:"tiktok,omitempty"`
	WhatsApp  *string `json:"whatsapp,omitempty"`
	Website   *string `json:"website,omitempty"`
}

func (s Social) Value() (driver.Value, error) {
	return jsonValue(s)
}

func (s *Social) Scan(value interface{}) error {
	if value == nil {
		*s = Social{}
		return nil
	}
	var decoded Social
	if err := scanJSON(value, &decoded); err != nil {
		return err
	}
	*s = decoded
	return nil
}
