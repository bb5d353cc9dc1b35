package contract

// The eight fragment schemas. Each corresponds to one file under
// spec/asc/ or spec/profiles/ and is decoded with unknown-field rejection.

// TupleFragment declares the schema version and the closed enumerations
// the rest of the contract may reference.
type TupleFragment struct {
	Version     string   `yaml:"version"`
	ReasonCodes []string `yaml:"reason_codes"`
	Severities  []string `yaml:"severities"`
}

// StateFragment bounds the vehicle's observable state.
type StateFragment struct {
	Frame           string `yaml:"frame"`
	PositionBoundsM struct {
		Min [3]float64 `yaml:"min"`
		Max [3]float64 `yaml:"max"`
	} `yaml:"position_bounds_m"`
	AttitudeLimitDeg float64 `yaml:"attitude_limit_deg"`
	MaxSpeedMPS      float64 `yaml:"max_speed_mps"`
}

// FlowFragment bounds commanded body-rates and climb rate.
type FlowFragment struct {
	MaxRollRateDPS  float64 `yaml:"max_roll_rate_dps"`
	MaxPitchRateDPS float64 `yaml:"max_pitch_rate_dps"`
	MaxYawRateDPS   float64 `yaml:"max_yaw_rate_dps"`
	MaxClimbRateMPS float64 `yaml:"max_climb_rate_mps"`
}

// EnergyFragment bounds state-of-charge and power draw.
type EnergyFragment struct {
	MinSOCPercent     float64 `yaml:"min_soc_percent"`
	ReserveEnduranceS float64 `yaml:"reserve_endurance_s"`
	MaxPowerW         float64 `yaml:"max_power_w"`
}

// GuaranteesFragment bounds input freshness and tick timing.
type GuaranteesFragment struct {
	MaxInputAgeMS     uint64 `yaml:"max_input_age_ms"`
	MaxTickIntervalMS uint64 `yaml:"max_tick_interval_ms"`
	DeadlineMS        uint64 `yaml:"deadline_ms"`
}

// InvariantsFragment bounds hard safety invariants.
type InvariantsFragment struct {
	MinAltitudeM    float64 `yaml:"min_altitude_m"`
	MaxBankDeg      float64 `yaml:"max_bank_deg"`
	RequireGeofence bool    `yaml:"require_geofence"`
}

// InterlockFragment declares arming/fault-latch requirements. Loaded and
// validated but not wired into the check battery.
type InterlockFragment struct {
	ArmedRequired        bool `yaml:"armed_required"`
	FaultLatchedShutdown bool `yaml:"fault_latched_shutdown"`
}

// ProfileFragment names a vehicle profile and its timing/capability facts.
type ProfileFragment struct {
	Name   string `yaml:"name"`
	Timing struct {
		ControlHz  float64 `yaml:"control_hz"`
		DeadlineMS float64 `yaml:"deadline_ms"`
	} `yaml:"timing"`
	Capabilities struct {
		VTOL         bool    `yaml:"vtol"`
		FixedWing    bool    `yaml:"fixed_wing"`
		MaxPayloadKg float64 `yaml:"max_payload_kg"`
	} `yaml:"capabilities"`
}
