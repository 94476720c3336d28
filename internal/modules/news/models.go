package news

// Provider names, in fallback order for "auto".
const (
	ProviderAuto    = "auto"
	ProviderNewsAPI = "newsapi"
	ProviderFinnhub = "finnhub"
)

// Item is a single headline attributed to a ticker.
type Item struct {
	Ticker      string `json:"ticker"`
	Title       string `json:"title"`
	Publisher   string `json:"publisher"`
	Link        string `json:"link"`
	PublishedAt string `json:"published_at,omitempty"`
	Provider    string `json:"provider"`
}

// ValidProvider reports whether name is a known provider selector.
func ValidProvider(name string) bool {
	switch name {
	case ProviderAuto, ProviderNewsAPI, ProviderFinnhub:
		return true
	}
	return false
}
