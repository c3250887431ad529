// Package toolpath reads classified move commands and runs them through a
// planning session to produce a timing report.
package toolpath

import (
	"encoding/json"
	"io"
	"os"

	"github.com/wight554/velplan/pkg/errors"
	"github.com/wight554/velplan/pkg/planner"
)

// Command is one displacement in a toolpath file: axis deltas in mm plus
// the requested feed rate. A zero accel uses the session ceiling.
type Command struct {
	DX    float64 `json:"dx"`
	DY    float64 `json:"dy"`
	DZ    float64 `json:"dz"`
	DE    float64 `json:"de"`
	Speed float64 `json:"speed"`
	Accel float64 `json:"accel,omitempty"`
}

// MoveReport is the resolved timing of one move.
type MoveReport struct {
	Index    int     `json:"index"`
	Kind     string  `json:"kind"`
	Distance float64 `json:"distance"`
	EntryV   float64 `json:"entry_v"`
	CruiseV  float64 `json:"cruise_v"`
	ExitV    float64 `json:"exit_v"`
	AccelT   float64 `json:"accel_t"`
	CruiseT  float64 `json:"cruise_t"`
	DecelT   float64 `json:"decel_t"`
	Time     float64 `json:"time"`
}

// Report is the full timing result for one toolpath.
type Report struct {
	Source        string       `json:"source,omitempty"`
	Moves         []MoveReport `json:"moves"`
	TotalDistance float64      `json:"total_distance"`
	TotalTime     float64      `json:"total_time"`

	session *planner.Session
	handles []planner.MoveHandle
}

// Load parses a JSON array of commands.
func Load(r io.Reader) ([]Command, error) {
	var cmds []Command
	dec := json.NewDecoder(r)
	if err := dec.Decode(&cmds); err != nil {
		return nil, errors.Wrap(err, errors.ErrInputParse, "invalid toolpath JSON")
	}
	return cmds, nil
}

// LoadFile parses a toolpath file.
func LoadFile(path string) ([]Command, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrInputParse, "unable to open "+path)
	}
	defer f.Close()
	return Load(f)
}

// Estimate runs the commands through a fresh planning session and returns
// the per-move timings with totals.
func Estimate(cfg planner.Config, cmds []Command) (*Report, error) {
	session, err := planner.NewSession(cfg)
	if err != nil {
		return nil, err
	}
	rpt := &Report{session: session}
	for _, cmd := range cmds {
		delta := [planner.NumAxes]float64{cmd.DX, cmd.DY, cmd.DZ, cmd.DE}
		h, err := session.PushDisplacement(delta, cmd.Speed, cmd.Accel)
		if err != nil {
			return nil, err
		}
		rpt.handles = append(rpt.handles, h)
	}
	session.Flush()
	for i, h := range rpt.handles {
		p, err := session.MoveTiming(h)
		if err != nil {
			return nil, err
		}
		kind := planner.KindKinematic
		if mv, err := session.MoveKind(h); err == nil {
			kind = mv
		}
		rpt.Moves = append(rpt.Moves, MoveReport{
			Index:    i,
			Kind:     kind.String(),
			Distance: p.Distance,
			EntryV:   p.EntryV,
			CruiseV:  p.CruiseV,
			ExitV:    p.ExitV,
			AccelT:   p.AccelT,
			CruiseT:  p.CruiseT,
			DecelT:   p.DecelT,
			Time:     p.TotalTime(),
		})
		rpt.TotalDistance += p.Distance
		rpt.TotalTime += p.TotalTime()
	}
	return rpt, nil
}

// SampleMove subdivides one finalized move for preview rendering.
func (r *Report) SampleMove(index int, maxChunk float64) ([]planner.ProfileChunk, error) {
	if index < 0 || index >= len(r.handles) {
		return nil, errors.BadHandleError(index, "out of range")
	}
	return r.session.SampleProfile(r.handles[index], maxChunk)
}

// SpeedAt returns the achievable speed at a distance along one move.
func (r *Report) SpeedAt(index int, distanceAlong float64) (float64, error) {
	if index < 0 || index >= len(r.handles) {
		return 0.0, errors.BadHandleError(index, "out of range")
	}
	return r.session.SpeedAt(r.handles[index], distanceAlong)
}
