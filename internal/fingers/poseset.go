package fingers

import (
	"fmt"
	"os"

	"github.com/go-gl/mathgl/mgl64"
	"gopkg.in/yaml.v3"
)

// JointPose is the authored open and closed local rotation of one joint.
type JointPose struct {
	Open  mgl64.Quat
	Close mgl64.Quat
}

// PoseSet is the read-only open/close table of a hand model, indexed by
// finger and joint. It is shared between hands using the same model.
type PoseSet struct {
	jointsPerFinger int
	poses           []JointPose
}

// NewPoseSet builds a table from flat finger-major rotation arrays.
func NewPoseSet(jointsPerFinger int, open, closed []mgl64.Quat) (*PoseSet, error) {
	if jointsPerFinger < 1 {
		return nil, fmt.Errorf("%w: joints per finger must be positive, got %d", ErrPoseSetShape, jointsPerFinger)
	}
	if len(open) != len(closed) {
		return nil, fmt.Errorf("%w: %d open rotations, %d close rotations", ErrPoseSetShape, len(open), len(closed))
	}
	if len(open) == 0 || len(open)%jointsPerFinger != 0 {
		return nil, fmt.Errorf("%w: %d rotations do not split into fingers of %d joints", ErrPoseSetShape, len(open), jointsPerFinger)
	}

	poses := make([]JointPose, len(open))
	for i := range open {
		poses[i] = JointPose{Open: open[i].Normalize(), Close: closed[i].Normalize()}
	}
	return &PoseSet{jointsPerFinger: jointsPerFinger, poses: poses}, nil
}

func (p *PoseSet) Fingers() int { return len(p.poses) / p.jointsPerFinger }

func (p *PoseSet) JointsPerFinger() int { return p.jointsPerFinger }

func (p *PoseSet) Lookup(finger, joint int) (JointPose, bool) {
	if finger < 0 || joint < 0 || joint >= p.jointsPerFinger || finger >= p.Fingers() {
		return JointPose{}, false
	}
	return p.poses[finger*p.jointsPerFinger+joint], true
}

// poseSetFile is the on-disk asset. Quaternions are [w, x, y, z].
type poseSetFile struct {
	JointsPerFinger int          `yaml:"joints_per_finger"`
	Open            [][4]float64 `yaml:"open_local_rotations"`
	Close           [][4]float64 `yaml:"close_local_rotations"`
}

func toQuats(raw [][4]float64) []mgl64.Quat {
	qs := make([]mgl64.Quat, len(raw))
	for i, r := range raw {
		qs[i] = mgl64.Quat{W: r[0], V: mgl64.Vec3{r[1], r[2], r[3]}}
	}
	return qs
}

func ParsePoseSet(data []byte) (*PoseSet, error) {
	var f poseSetFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse finger poses: %w", err)
	}
	return NewPoseSet(f.JointsPerFinger, toQuats(f.Open), toQuats(f.Close))
}

func LoadPoseSet(path string) (*PoseSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParsePoseSet(data)
}

// CurlPoseSet is a procedural table for hands without an authored asset:
// every joint opens at identity and closes by curling closeDegrees about
// the local X axis.
func CurlPoseSet(fingers, jointsPerFinger int, closeDegrees float64) (*PoseSet, error) {
	n := fingers * jointsPerFinger
	open := make([]mgl64.Quat, n)
	closed := make([]mgl64.Quat, n)
	curl := mgl64.QuatRotate(mgl64.DegToRad(closeDegrees), mgl64.Vec3{1, 0, 0})
	for i := range open {
		open[i] = mgl64.QuatIdent()
		closed[i] = curl
	}
	return NewPoseSet(jointsPerFinger, open, closed)
}
