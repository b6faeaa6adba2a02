// internal/scoring/gap/config.go
package gap

// Config holds the analyzer tunables. Threshold is the material-difference
// cutoff in scale points; RankingSize is how many items land in each of the
// top and bottom lists.
type Config struct {
	Threshold   float64
	RankingSize int
}

func DefaultConfig() Config {
	return Config{
		Threshold:   0.5,
		RankingSize: 5,
	}
}
