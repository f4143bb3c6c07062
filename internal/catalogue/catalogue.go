// Package catalogue flattens the nested product catalogue into a flat,
// searchable list of purchasable bundles.
package catalogue

// Money is a price with its display form.
type Money struct {
	Value       float64 `json:"value"`
	Currency    string  `json:"currency"`
	DisplayName string  `json:"display_name,omitempty"`
}

// Size is a bundle allowance with its display form.
type Size struct {
	Value       float64 `json:"value"`
	Unit        string  `json:"unit"`
	DisplayName string  `json:"display_name,omitempty"`
}

// Bundle is one purchasable offer as served by the catalogue endpoint.
type Bundle struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	Description    string   `json:"description,omitempty"`
	Type           string   `json:"type"`
	Cost           Money    `json:"cost"`
	Size           Size     `json:"size"`
	Validity       string   `json:"validity,omitempty"`
	Unlimited      bool     `json:"unlimited,omitempty"`
	Combo          bool     `json:"combo,omitempty"`
	CanBuyForSelf  bool     `json:"can_buy_for_self"`
	CanBuyForOther bool     `json:"can_buy_for_other"`
	Freebies       []string `json:"freebies,omitempty"`

	// Provisioning identifiers forwarded verbatim to the subscription
	// service.
	NactCode               string `json:"nact_code,omitempty"`
	NactCodeForOther       string `json:"nact_code_for_other,omitempty"`
	NactCodeForMomo        string `json:"nact_code_for_momo,omitempty"`
	SubscriptionProviderID string `json:"subscription_provider_id,omitempty"`
	SubscriptionName       string `json:"subscription_name,omitempty"`
}

// Category groups bundles inside a product.
type Category struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Bundles []Bundle `json:"bundles,omitempty"`
}

// Product is a top-level catalogue entry.
type Product struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Categories []Category `json:"categories,omitempty"`
}

// Catalogue is the nested tree returned by the account service.
type Catalogue []Product

// Record is a flattened bundle annotated with its origin. Records are
// immutable once indexed; filters and workflows reference them without
// copying.
type Record struct {
	Bundle
	ProductID    string
	ProductName  string
	CategoryID   string
	CategoryName string
}

// Purchasable reports whether at least one purchase mode is available.
func (b Bundle) Purchasable() bool {
	return b.CanBuyForSelf || b.CanBuyForOther
}

// IsUnlimited reports whether the bundle advertises an unlimited
// allowance, either by flag or by display name.
func (b Bundle) IsUnlimited() bool {
	return b.Unlimited || b.Size.DisplayName == "UNLIMITED"
}

// Flatten walks the catalogue in input order and returns one record per
// bundle, each carrying its product and category names. Products or
// categories without bundles contribute nothing.
func Flatten(c Catalogue) []Record {
	var out []Record
	for _, product := range c {
		for _, category := range product.Categories {
			for _, bundle := range category.Bundles {
				out = append(out, Record{
					Bundle:       bundle,
					ProductID:    product.ID,
					ProductName:  product.Name,
					CategoryID:   category.ID,
					CategoryName: category.Name,
				})
			}
		}
	}
	return out
}
