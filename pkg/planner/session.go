package planner

import (
	"math"

	"github.com/wight554/velplan/pkg/errors"
	"github.com/wight554/velplan/pkg/log"
	"github.com/wight554/velplan/pkg/metrics"
	"github.com/wight554/velplan/pkg/nmath"
)

// Defaults applied by NewSession when the corresponding Config field is zero.
const (
	// DefaultMinCruiseRatio matches the firmware default.
	DefaultMinCruiseRatio = 0.5

	// DefaultMaxPlanIterations bounds the lookahead convergence loop. The
	// interacting cornering and cruise-ratio constraints settle within a few
	// iterations in practice; hitting the cap keeps the last computed result.
	DefaultMaxPlanIterations = 4

	// DefaultConvergenceTol is the speed delta (mm/s) below which another
	// lookahead iteration is not worth running.
	DefaultConvergenceTol = 1e-6

	// DefaultFlushTime is the pending-window time budget that triggers a
	// lazy flush while moves stream in.
	DefaultFlushTime = 0.250
)

// Config establishes the session-wide constraint parameters.
type Config struct {
	// MaxVelocity and MaxAccel are the session ceilings (mm/s, mm/s^2).
	MaxVelocity float64
	MaxAccel    float64

	// SquareCornerVelocity is the cornering speed constant used to derive
	// the junction deviation.
	SquareCornerVelocity float64

	// MinCruiseRatio reserves a fraction of each move's distance for the
	// cruise phase. Mutually exclusive with MaxAccelToDecel; if both are
	// zero, DefaultMinCruiseRatio applies.
	MinCruiseRatio float64

	// MaxAccelToDecel is the legacy absolute cap on the pseudo acceleration
	// used for cruise smoothing.
	MaxAccelToDecel float64

	// InstantCornerVelocity caps junction speed by extrusion rate change.
	InstantCornerVelocity float64

	// AxisLimits are optional per-axis velocity/acceleration bounds.
	AxisLimits []AxisLimit

	// ExtrudeOnlyVelocity and ExtrudeOnlyAccel bound extrude-only moves.
	ExtrudeOnlyVelocity float64
	ExtrudeOnlyAccel    float64

	// Checkers narrow each move's ceilings before it is queued (e.g. the
	// kinematics providers).
	Checkers []MoveChecker

	// MaxPlanIterations and ConvergenceTol tune the lookahead convergence
	// loop; zero selects the defaults.
	MaxPlanIterations int
	ConvergenceTol    float64

	// FlushTime is the pending-window time budget before a lazy flush.
	FlushTime float64

	// Logger receives flush traces when set. The core logs nothing without
	// one.
	Logger *log.Logger
}

// LimitUpdate changes a subset of the session limits mid-stream, the way a
// SET_VELOCITY_LIMIT/M204 command would. Nil fields keep their value.
// Updates apply only to moves pushed afterwards.
type LimitUpdate struct {
	MaxVelocity           *float64
	MaxAccel              *float64
	SquareCornerVelocity  *float64
	MinCruiseRatio        *float64
	MaxAccelToDecel       *float64
	InstantCornerVelocity *float64
}

// MoveHandle identifies a move in a session's arena.
type MoveHandle int

// Session owns one independent planning run: the move arena, the pending
// window, and the junction constraint parameters. Sessions are not safe for
// concurrent use; run one per goroutine.
type Session struct {
	cfg Config

	// Derived junction constraint parameters, recomputed on limit updates.
	junctionDeviation float64
	accelToDecel      float64
	minCruiseRatio    float64

	arena   []Move
	pending []int

	junctionFlush float64
	finalized     []MoveHandle

	logger *log.Logger
}

// NewSession validates the configuration and creates a planning session.
// An invalid configuration is rejected before any moves are accepted.
func NewSession(cfg Config) (*Session, error) {
	if cfg.MaxPlanIterations == 0 {
		cfg.MaxPlanIterations = DefaultMaxPlanIterations
	}
	if cfg.ConvergenceTol == 0.0 {
		cfg.ConvergenceTol = DefaultConvergenceTol
	}
	if cfg.FlushTime == 0.0 {
		cfg.FlushTime = DefaultFlushTime
	}
	if cfg.MinCruiseRatio == 0.0 && cfg.MaxAccelToDecel == 0.0 {
		cfg.MinCruiseRatio = DefaultMinCruiseRatio
	}
	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}
	s := &Session{
		cfg:           cfg,
		junctionFlush: cfg.FlushTime,
		logger:        cfg.Logger,
	}
	s.calcJunctionParams()
	return s, nil
}

func validateConfig(cfg *Config) error {
	if cfg.MaxAccel <= 0.0 {
		return errors.InvalidConfiguration("max_accel", "must be positive")
	}
	if cfg.MaxVelocity <= 0.0 {
		return errors.InvalidConfiguration("max_velocity", "must be positive")
	}
	if cfg.SquareCornerVelocity < 0.0 {
		return errors.InvalidConfiguration("square_corner_velocity", "must not be negative")
	}
	if cfg.InstantCornerVelocity < 0.0 {
		return errors.InvalidConfiguration("instant_corner_velocity", "must not be negative")
	}
	if cfg.MaxAccelToDecel < 0.0 {
		return errors.InvalidConfiguration("max_accel_to_decel", "must not be negative")
	}
	if cfg.MaxAccelToDecel > 0.0 && cfg.MinCruiseRatio > 0.0 {
		return errors.InvalidConfiguration("minimum_cruise_ratio",
			"mutually exclusive with max_accel_to_decel")
	}
	if cfg.MaxAccelToDecel == 0.0 && (cfg.MinCruiseRatio <= 0.0 || cfg.MinCruiseRatio > 1.0) {
		return errors.InvalidConfiguration("minimum_cruise_ratio", "must be in (0, 1]")
	}
	if cfg.ExtrudeOnlyVelocity < 0.0 || cfg.ExtrudeOnlyAccel < 0.0 {
		return errors.InvalidConfiguration("extrude_only_limits", "must not be negative")
	}
	if cfg.MaxPlanIterations < 1 {
		return errors.InvalidConfiguration("max_plan_iterations", "must be at least 1")
	}
	for _, lim := range cfg.AxisLimits {
		if lim.Axis < 0 || lim.Axis >= NumAxes {
			return errors.InvalidConfiguration("axis_limits", "axis index out of range")
		}
		if lim.MaxVelocity < 0.0 || lim.MaxAccel < 0.0 {
			return errors.InvalidConfiguration("axis_limits", "bounds must not be negative")
		}
	}
	return nil
}

// calcJunctionParams derives the session-wide junction constraint
// parameters from the active limits.
func (s *Session) calcJunctionParams() {
	scv2 := s.cfg.SquareCornerVelocity * s.cfg.SquareCornerVelocity
	s.junctionDeviation = scv2 * (math.Sqrt(2.0) - 1.0) / s.cfg.MaxAccel
	if s.cfg.MaxAccelToDecel > 0.0 {
		s.accelToDecel = math.Min(s.cfg.MaxAccelToDecel, s.cfg.MaxAccel)
		s.minCruiseRatio = 0.0
	} else {
		s.accelToDecel = s.cfg.MaxAccel * (1.0 - s.cfg.MinCruiseRatio)
		s.minCruiseRatio = s.cfg.MinCruiseRatio
	}
}

// UpdateLimits changes the session limits for subsequently pushed moves.
// Moves already in the pending window keep the parameters they were
// appended under.
func (s *Session) UpdateLimits(u LimitUpdate) error {
	cfg := s.cfg
	if u.MaxVelocity != nil {
		cfg.MaxVelocity = *u.MaxVelocity
	}
	if u.MaxAccel != nil {
		cfg.MaxAccel = *u.MaxAccel
	}
	if u.SquareCornerVelocity != nil {
		cfg.SquareCornerVelocity = *u.SquareCornerVelocity
	}
	if u.MinCruiseRatio != nil {
		cfg.MinCruiseRatio = *u.MinCruiseRatio
		cfg.MaxAccelToDecel = 0.0
	}
	if u.MaxAccelToDecel != nil {
		cfg.MaxAccelToDecel = *u.MaxAccelToDecel
		cfg.MinCruiseRatio = 0.0
	}
	if u.InstantCornerVelocity != nil {
		cfg.InstantCornerVelocity = *u.InstantCornerVelocity
	}
	if err := validateConfig(&cfg); err != nil {
		return err
	}
	s.cfg = cfg
	s.calcJunctionParams()
	return nil
}

// newMove classifies one command into a move record with its initial
// ceilings and speed-squared bookkeeping.
func (s *Session) newMove(distance float64, direction [NumAxes]float64, requestedSpeed float64, kind MoveKind, accelOverride float64) Move {
	accel := s.cfg.MaxAccel
	if accelOverride > 0.0 {
		accel = accelOverride
	}
	velocity := requestedSpeed
	if kind == KindKinematic {
		velocity = math.Min(requestedSpeed, s.cfg.MaxVelocity)
	} else {
		// No distance coupling to spatial neighbors.
		accel = unboundedAccel
	}
	mv := Move{
		Kind:              kind,
		Distance:          distance,
		Direction:         direction,
		Accel:             accel,
		RequestedSpeed:    requestedSpeed,
		MinMoveTime:       nmath.SafeDiv(distance, velocity, 0.0),
		MaxCruiseV2:       velocity * velocity,
		DeltaV2:           2.0 * distance * accel,
		SmoothedDeltaV2:   2.0 * distance * s.accelToDecel,
		junctionDeviation: s.junctionDeviation,
		minCruiseRatio:    s.minCruiseRatio,
	}
	if mv.DeltaV2 < mv.SmoothedDeltaV2 {
		mv.SmoothedDeltaV2 = mv.DeltaV2
	}
	return mv
}

// PushMove classifies, limits and junction-links one move against its
// predecessor and appends it to the pending window. Zero-distance moves are
// recorded as zero-time no-ops and never planned.
func (s *Session) PushMove(distance float64, direction [NumAxes]float64, requestedSpeed float64, kind MoveKind, accelOverride float64) (MoveHandle, error) {
	if distance <= 0.0 {
		h := MoveHandle(len(s.arena))
		s.arena = append(s.arena, Move{Kind: kind, state: stateResolved})
		return h, nil
	}
	mv := s.newMove(distance, direction, requestedSpeed, kind, accelOverride)
	for _, checker := range s.cfg.Checkers {
		if err := checker.CheckMove(&mv); err != nil {
			return -1, err
		}
	}
	for _, lim := range s.cfg.AxisLimits {
		ApplyAxisLimit(&mv, lim)
	}
	ApplyExtrudeOnlyLimit(&mv, s.cfg.ExtrudeOnlyVelocity, s.cfg.ExtrudeOnlyAccel)

	h := MoveHandle(len(s.arena))
	s.arena = append(s.arena, mv)
	if len(s.pending) > 0 {
		prev := &s.arena[s.pending[len(s.pending)-1]]
		s.arena[h].calcJunction(prev, s.cfg.InstantCornerVelocity)
	}
	s.pending = append(s.pending, int(h))

	metrics.MovesPlanned.Inc(metrics.Labels{"kind": kind.String()})
	metrics.PendingWindow.Set(nil, float64(len(s.pending)))

	s.junctionFlush -= mv.MinMoveTime
	if s.junctionFlush <= 0.0 {
		s.flush(true)
	}
	return h, nil
}

// PushDisplacement classifies a raw displacement vector (x, y, z, e deltas
// in mm) into a kinematic or extrude-only move and pushes it.
func (s *Session) PushDisplacement(delta [NumAxes]float64, requestedSpeed float64, accelOverride float64) (MoveHandle, error) {
	moveD := math.Sqrt(delta[AxisX]*delta[AxisX] +
		delta[AxisY]*delta[AxisY] +
		delta[AxisZ]*delta[AxisZ])
	if moveD < minKinematicDistance {
		extrudeD := math.Abs(delta[AxisE])
		if extrudeD == 0.0 {
			return s.PushMove(0.0, [NumAxes]float64{}, requestedSpeed, KindExtrudeOnly, accelOverride)
		}
		var dir [NumAxes]float64
		dir[AxisE] = delta[AxisE] / extrudeD
		return s.PushMove(extrudeD, dir, requestedSpeed, KindExtrudeOnly, accelOverride)
	}
	invMoveD := 1.0 / moveD
	var dir [NumAxes]float64
	for i, d := range delta {
		dir[i] = d * invMoveD
	}
	return s.PushMove(moveD, dir, requestedSpeed, KindKinematic, accelOverride)
}

// Flush resolves every pending move, assuming the sequence comes to a stop
// at its end, and returns all newly finalized moves in order.
func (s *Session) Flush() []MoveHandle {
	s.flush(false)
	return s.drainFinalized()
}

// FlushLazy resolves only the prefix of the pending window whose speeds can
// no longer change; the unresolved tail stays pending for a later flush.
func (s *Session) FlushLazy() []MoveHandle {
	s.flush(true)
	return s.drainFinalized()
}

func (s *Session) drainFinalized() []MoveHandle {
	if len(s.finalized) == 0 {
		return nil
	}
	out := make([]MoveHandle, len(s.finalized))
	copy(out, s.finalized)
	s.finalized = s.finalized[:0]
	return out
}

// Pending returns the number of moves awaiting finalization.
func (s *Session) Pending() int {
	return len(s.pending)
}

// Moves returns the number of moves recorded in the session.
func (s *Session) Moves() int {
	return len(s.arena)
}

// move returns the arena record for a handle.
func (s *Session) move(h MoveHandle) (*Move, error) {
	if h < 0 || int(h) >= len(s.arena) {
		return nil, errors.BadHandleError(int(h), "out of range")
	}
	return &s.arena[h], nil
}

// MoveKind returns the classification recorded for a handle.
func (s *Session) MoveKind(h MoveHandle) (MoveKind, error) {
	mv, err := s.move(h)
	if err != nil {
		return KindKinematic, err
	}
	return mv.Kind, nil
}

// MoveTiming returns the resolved trapezoid for a finalized move.
func (s *Session) MoveTiming(h MoveHandle) (Profile, error) {
	mv, err := s.move(h)
	if err != nil {
		return Profile{}, err
	}
	if !mv.Resolved() {
		return Profile{}, errors.BadHandleError(int(h), "not finalized")
	}
	return mv.Profile, nil
}

// TotalTime sums the total time of the given finalized moves, in seconds.
func (s *Session) TotalTime(handles []MoveHandle) (float64, error) {
	total := 0.0
	for _, h := range handles {
		p, err := s.MoveTiming(h)
		if err != nil {
			return 0.0, err
		}
		total += p.TotalTime()
	}
	return total, nil
}

// TotalPlannedTime sums the total time of every finalized move in the
// session.
func (s *Session) TotalPlannedTime() float64 {
	total := 0.0
	for i := range s.arena {
		if s.arena[i].Resolved() {
			total += s.arena[i].Profile.TotalTime()
		}
	}
	return total
}

// SpeedAt returns the instantaneous achievable speed at the given distance
// along a finalized move.
func (s *Session) SpeedAt(h MoveHandle, distanceAlong float64) (float64, error) {
	p, err := s.MoveTiming(h)
	if err != nil {
		return 0.0, err
	}
	return p.SpeedAt(distanceAlong), nil
}

// SampleProfile subdivides a finalized move into chunks no longer than
// maxChunk for preview rendering.
func (s *Session) SampleProfile(h MoveHandle, maxChunk float64) ([]ProfileChunk, error) {
	p, err := s.MoveTiming(h)
	if err != nil {
		return nil, err
	}
	return p.SampleChunks(maxChunk), nil
}
