package domain

// Token is a tradable token as listed by the token service.
type Token struct {
	Chain    string   `json:"chain" yaml:"chain"`
	Address  string   `json:"address" yaml:"address"`
	Symbol   string   `json:"symbol" yaml:"symbol"`
	Name     string   `json:"name" yaml:"name"`
	Decimals int      `json:"decimals" yaml:"decimals"`
	LogoURL  string   `json:"logoUrl,omitempty" yaml:"logo_url"`
	Tags     []string `json:"tags,omitempty" yaml:"tags"`
}
