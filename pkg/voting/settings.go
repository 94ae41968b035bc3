package voting

import (
	"fmt"
	"math/big"
	"time"
)

// Bounds for Settings.MinDuration.
const (
	MinDurationFloor   = time.Hour
	MinDurationCeiling = 365 * 24 * time.Hour
)

// Settings is the process-wide voting configuration. It is replaced wholesale
// on update; proposals copy the fields they need at creation time.
type Settings struct {
	Mode             VotingMode
	SupportThreshold Ratio
	MinParticipation Ratio
	MinDuration      time.Duration
	MinProposerPower *big.Int
}

// DefaultSettings returns the configuration used when no config file overrides it.
func DefaultSettings() Settings {
	return Settings{
		Mode:             ModeStandard,
		SupportThreshold: PercentRatio(50),
		MinParticipation: PercentRatio(20),
		MinDuration:      24 * time.Hour,
		MinProposerPower: big.NewInt(0),
	}
}

// Validate checks every bound the registry enforces. A violation rejects the
// whole settings record; there is no partial apply.
func (s Settings) Validate() error {
	if !s.SupportThreshold.Valid() {
		return fmt.Errorf("support threshold: %w",
			&RatioOutOfBoundsError{Limit: RatioBase, Actual: s.SupportThreshold})
	}
	if !s.MinParticipation.Valid() {
		return fmt.Errorf("min participation: %w",
			&RatioOutOfBoundsError{Limit: RatioBase, Actual: s.MinParticipation})
	}
	if s.MinDuration < MinDurationFloor {
		return fmt.Errorf("min duration: %w",
			&DurationOutOfBoundsError{Limit: MinDurationFloor, Actual: s.MinDuration})
	}
	if s.MinDuration > MinDurationCeiling {
		return fmt.Errorf("min duration: %w",
			&DurationOutOfBoundsError{Limit: MinDurationCeiling, Actual: s.MinDuration})
	}
	return nil
}

// minProposerPower tolerates a nil MinProposerPower, meaning the check is disabled.
func (s Settings) minProposerPower() *big.Int {
	if s.MinProposerPower == nil {
		return big.NewInt(0)
	}
	return s.MinProposerPower
}

// clone deep-copies the settings so registry reads never alias the stored big.Int.
func (s Settings) clone() Settings {
	c := s
	c.MinProposerPower = new(big.Int).Set(s.minProposerPower())
	return c
}
