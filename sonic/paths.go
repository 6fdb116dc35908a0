package sonic

import "os"

// Paths holds the wav file locations for the five cues.
type Paths struct {
	Buy      string
	Sell     string
	AboveAsk string
	BelowBid string
	Between  string
}

// PathsFromEnv reads the *_SOUND_PATH variables, falling back to the
// bundled sounds directory.
func PathsFromEnv() Paths {
	return Paths{
		Buy:      envOr("BUY_SOUND_PATH", "sounds/buy.wav"),
		Sell:     envOr("SELL_SOUND_PATH", "sounds/sell.wav"),
		AboveAsk: envOr("ABOVE_ASK_SOUND_PATH", "sounds/above_ask.wav"),
		BelowBid: envOr("BELOW_BID_SOUND_PATH", "sounds/below_bid.wav"),
		Between:  envOr("BETWEEN_SOUND_PATH", "sounds/between.wav"),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
