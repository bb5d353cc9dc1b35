package contract

// Thresholds is the immutable record of exactly the scalars the check
// battery references. It is derived once from a Bundle and handed
// to the battery by read-only reference; nothing mutates it after
// construction.
type Thresholds struct {
	Frame             string
	MaxSpeedMPS       float64
	MaxRollRateDPS    float64
	MaxPitchRateDPS   float64
	MaxYawRateDPS     float64
	MaxClimbRateMPS   float64
	MinSOCPercent     float64
	MaxInputAgeMS     uint64
	MaxTickIntervalMS uint64
	DeadlineMS        uint64
	MinAltitudeM      float64
	MaxBankDeg        float64
}

// deriveThresholds extracts the Thresholds the check battery needs from an
// already-validated Bundle.
func deriveThresholds(b *Bundle) Thresholds {
	return Thresholds{
		Frame:             b.State.Frame,
		MaxSpeedMPS:       b.State.MaxSpeedMPS,
		MaxRollRateDPS:    b.Flow.MaxRollRateDPS,
		MaxPitchRateDPS:   b.Flow.MaxPitchRateDPS,
		MaxYawRateDPS:     b.Flow.MaxYawRateDPS,
		MaxClimbRateMPS:   b.Flow.MaxClimbRateMPS,
		MinSOCPercent:     b.Energy.MinSOCPercent,
		MaxInputAgeMS:     b.Guarantees.MaxInputAgeMS,
		MaxTickIntervalMS: b.Guarantees.MaxTickIntervalMS,
		DeadlineMS:        b.Guarantees.DeadlineMS,
		MinAltitudeM:      b.Invariants.MinAltitudeM,
		MaxBankDeg:        b.Invariants.MaxBankDeg,
	}
}
