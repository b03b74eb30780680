package fields

// IDType is the storage representation of a collection's identifier.
// The default is the store's native object identifier; collections may
// override it with a custom text or number ID field, which changes how
// identifier values are coerced during query translation.
type IDType string

const (
	IDTypeObjectID IDType = "objectID" // Store-native identifier (default)
	IDTypeText     IDType = "text"     // Custom string identifier
	IDTypeNumber   IDType = "number"   // Custom numeric identifier
)

// Collection is the declarative configuration of one document collection.
type Collection struct {
	Slug   string  `json:"slug"`
	Fields []Field `json:"fields"`

	// IDType is resolved by the config loader from a custom "id" field when
	// one is declared; zero value means IDTypeObjectID.
	IDType IDType `json:"idType,omitempty"`

	// Timestamps adds createdAt/updatedAt fields managed by the store layer.
	Timestamps bool `json:"timestamps,omitempty"`
}

// CustomIDType returns the collection's identifier representation,
// defaulting to the store-native object identifier.
func (c *Collection) CustomIDType() IDType {
	if c.IDType == "" {
		return IDTypeObjectID
	}
	return c.IDType
}

// Global is the declarative configuration of a singleton document.
type Global struct {
	Slug   string  `json:"slug"`
	Fields []Field `json:"fields"`
}

// CollectionLookup resolves collection slugs to their configuration. The
// registry satisfies it; tests supply small fixed maps.
type CollectionLookup interface {
	Collection(slug string) (*Collection, bool)
}

// Localization carries the locale configuration active for a config. An
// empty Locales list disables localization entirely.
type Localization struct {
	Locales       []string `json:"locales,omitempty"`
	DefaultLocale string   `json:"defaultLocale,omitempty"`
}

// Active reports whether localization is enabled at all.
func (l *Localization) Active() bool {
	return l != nil && len(l.Locales) > 0
}

// Supports reports whether the given locale code is configured.
func (l *Localization) Supports(code string) bool {
	if !l.Active() {
		return false
	}
	for _, c := range l.Locales {
		if c == code {
			return true
		}
	}
	return false
}
