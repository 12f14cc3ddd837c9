package extracthtml

// DefaultCurrency is assumed whenever a price is found without an explicit
// currency marker. The extractor targets Brazilian storefronts.
const DefaultCurrency = "BRL"

// Result is the outcome of one product extraction. A nil field means the
// value was not found; that is a normal outcome, not an error.
//
// NameSource and PriceSource name the strategy that produced the field.
//
// PriceValue and PriceText are either both set or both nil, and when set
// PriceValue == priceparse.ParseBRLPrice(*PriceText).
type Result struct {
	SourceURL    string   `json:"source_url"`
	Name         *string  `json:"name"`
	NameSource   *string  `json:"name_source,omitempty"`
	PriceValue   *float64 `json:"price_value"`
	PriceText    *string  `json:"price_text"`
	Currency     *string  `json:"currency"`
	StrategyHint *string  `json:"strategy_hint"`
	PriceSource  *string  `json:"price_source,omitempty"`
}

// priceMatch is what a successful price strategy yields.
type priceMatch struct {
	text     string
	value    float64
	currency string
	hint     string
}

// nameStrategy and priceStrategy are single steps of a cascade. find must not
// panic; a miss is reported through the bool.
type nameStrategy struct {
	name string
	find func(*page) (string, bool)
}

type priceStrategy struct {
	name string
	find func(*page) (priceMatch, bool)
}

// StrategyOutcome describes what one strategy produced for a document. Trace
// returns one per strategy, in cascade order.
type StrategyOutcome struct {
	Field    string `json:"field"` // "name" or "price"
	Strategy string `json:"strategy"`
	Matched  bool   `json:"matched"`
	Value    string `json:"value,omitempty"`
	Currency string `json:"currency,omitempty"`
	Hint     string `json:"hint,omitempty"`
}
