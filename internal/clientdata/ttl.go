package clientdata

import "time"

// TTL constants per data type. Added to time.Now() when storing to
// calculate expires_at.
const (
	// Daily bars only change after the close; an hour keeps intraday
	// re-runs cheap without serving yesterday's data all day.
	TTLPriceHistory = time.Hour

	// Current price cache for batch operations
	TTLCurrentPrice = 10 * time.Minute

	// Headlines age quickly but are re-requested constantly by the
	// assistant and the news endpoint.
	TTLNews = 15 * time.Minute
)
