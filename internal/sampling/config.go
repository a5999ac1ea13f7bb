package sampling

import "fmt"

// Config holds the sampling tunables. It is passed by value and never
// mutated after construction.
type Config struct {
	// Alpha is the recency decay base; a movie last asked at position p
	// gets weight 1 - Alpha^(p+1).
	Alpha float64
	// UserHistoryWindow bounds the per-user answered history considered.
	UserHistoryWindow int
	// TourHistoryWindow bounds the global tour question history considered.
	TourHistoryWindow int
	// MinIncorrectCount is the number of missed questions needed before
	// one may be resurfaced.
	MinIncorrectCount int
	// SimilarityThreshold is the partial ratio above which two names are
	// treated as near-duplicates in tours.
	SimilarityThreshold float64
}

func DefaultConfig() Config {
	return Config{
		Alpha:               0.999,
		UserHistoryWindow:   500,
		TourHistoryWindow:   1000,
		MinIncorrectCount:   20,
		SimilarityThreshold: 80,
	}
}

// TourConfig is the configuration used by offline tour generation, where
// the whole tour history matters.
func TourConfig() Config {
	config := DefaultConfig()
	config.Alpha = 0.999999
	config.TourHistoryWindow = 10000
	return config
}

func (c Config) Validate() error {
	if c.Alpha <= 0 || c.Alpha >= 1 {
		return fmt.Errorf("sampling: alpha must be in (0, 1), got %v", c.Alpha)
	}
	if c.UserHistoryWindow <= 0 || c.TourHistoryWindow <= 0 {
		return fmt.Errorf("sampling: history windows must be positive")
	}
	if c.MinIncorrectCount < 0 {
		return fmt.Errorf("sampling: min incorrect count must not be negative")
	}
	if c.SimilarityThreshold < 0 || c.SimilarityThreshold > 100 {
		return fmt.Errorf("sampling: similarity threshold must be in [0, 100], got %v", c.SimilarityThreshold)
	}
	return nil
}
