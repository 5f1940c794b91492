package dynamics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/mv2dsim/internal/dynamo"
	"github.com/san-kum/mv2dsim/internal/physics"
	"github.com/san-kum/mv2dsim/internal/vehicle"
)

const dt = 0.01

const robotXML = `
<vehicle class="differential" name="r1" pose="0 0 0">
  <dynamics wheel_separation="0.3" wheel_radius="0.05" mass="15"
            outline="-0.2 -0.15; 0.2 -0.15; 0.2 0.15; -0.2 0.15"/>
</vehicle>`

const carXML = `
<vehicle class="ackermann" name="c1" pose="0 0 0">
  <dynamics wheelbase="2.5" track_width="1.5" max_steer="30" mass="800"
            outline="-0.5 -0.9; 3.0 -0.9; 3.0 0.9; -0.5 0.9"/>
</vehicle>`

type rig struct {
	t      *testing.T
	engine *physics.Engine
	v      *vehicle.Vehicle
	step   int
}

func newRig(t *testing.T, text string) *rig {
	t.Helper()
	v, err := vehicle.FactoryFromText(nil, text)
	require.NoError(t, err)
	require.NotNil(t, v)

	e := physics.NewEngine(physics.DefaultConfig())
	require.NoError(t, v.CreateMultibodySystem(e))
	return &rig{t: t, engine: e, v: v}
}

// tick runs the four phases for a single vehicle.
func (r *rig) tick(input dynamo.Control) {
	r.t.Helper()
	ctx := dynamo.SimulContext{Time: float64(r.step) * dt, Dt: dt, Step: r.step, Input: input}
	require.NoError(r.t, r.v.PreStep(ctx))
	require.NoError(r.t, r.engine.Step(dt))
	ctx.Time += dt
	require.NoError(r.t, r.v.PostStepCommon(ctx))
	require.NoError(r.t, r.v.PostStep(ctx))
	r.step++
}

func TestRegistered(t *testing.T) {
	classes := vehicle.Classes()
	assert.Contains(t, classes, DifferentialClass)
	assert.Contains(t, classes, AckermannClass)
}

func TestDifferentialCreatesOneBody(t *testing.T) {
	r := newRig(t, robotXML)
	assert.Equal(t, 1, r.engine.BodyCount())
	assert.InDelta(t, 15, r.v.Chassis().Mass(), 1e-9)
	assert.Equal(t, dynamo.Vec3{0, 0, 0}, r.v.Pose())
}

func TestChassisMassMatchesConfig(t *testing.T) {
	tests := []struct {
		name    string
		outline string
	}{
		{"rectangle", "-0.2 -0.15; 0.2 -0.15; 0.2 0.15; -0.2 0.15"},
		{"concave", "0 -1; 2 -1; 2 1; 1 -0.5; 0 1"},
		{"arrow", "-1 -1; 1 0; -1 1; -0.5 0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newRig(t, `<vehicle class="differential" pose="0 0 0"><dynamics wheel_separation="0.3" wheel_radius="0.05" mass="10" outline="`+tt.outline+`"/></vehicle>`)
			assert.InDelta(t, 10, r.v.Chassis().Mass(), 1e-9)
		})
	}
}

func TestDegenerateOutlineRejected(t *testing.T) {
	v, err := vehicle.FactoryFromText(nil, `<vehicle class="differential" pose="0 0 0"><dynamics wheel_separation="0.3" wheel_radius="0.05" mass="10" outline="0 0; 0.002 0; 0.002 0.002; 0 0.002"/></vehicle>`)
	assert.Nil(t, v)
	assert.ErrorIs(t, err, dynamo.ErrMalformedConfig)
}

func TestPoseAfterFactoryEqualsParsedPose(t *testing.T) {
	tests := []struct {
		name string
		text string
		want dynamo.Vec3
	}{
		{"differential", `<vehicle class="differential" pose="1.5 -2 90"><dynamics wheel_separation="0.3" wheel_radius="0.05" mass="15" outline="-0.2 -0.15; 0.2 -0.15; 0.2 0.15; -0.2 0.15"/></vehicle>`, dynamo.Vec3{1.5, -2, math.Pi / 2}},
		{"ackermann", `<vehicle class="ackermann" pose="10 20 -45"><dynamics wheelbase="2.5" track_width="1.5" max_steer="30" mass="800" outline="-0.5 -0.9; 3 -0.9; 3 0.9; -0.5 0.9"/></vehicle>`, dynamo.Vec3{10, 20, -math.Pi / 4}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := vehicle.FactoryFromText(nil, tt.text)
			require.NoError(t, err)
			assert.InDeltaSlice(t, tt.want[:], v.Pose().Slice(), 1e-12)

			e := physics.NewEngine(physics.DefaultConfig())
			require.NoError(t, v.CreateMultibodySystem(e))
			assert.InDeltaSlice(t, tt.want[:], v.Chassis().Transform().Slice(), 1e-12)
		})
	}
}

func TestUnknownClass(t *testing.T) {
	v, err := vehicle.FactoryFromText(nil, `<vehicle class="hovercraft" pose="0 0 0"><dynamics/></vehicle>`)
	assert.Nil(t, v)
	assert.ErrorIs(t, err, dynamo.ErrUnknownVehicleType)
}

func TestMalformedParams(t *testing.T) {
	outline := `outline="-0.2 -0.15; 0.2 -0.15; 0.2 0.15; -0.2 0.15"`
	tests := []struct {
		name string
		text string
	}{
		{"pose abc", `<vehicle class="differential" pose="abc"><dynamics wheel_separation="0.3" wheel_radius="0.05" mass="15" ` + outline + `/></vehicle>`},
		{"no wheel separation", `<vehicle class="differential" pose="0 0 0"><dynamics wheel_radius="0.05" mass="15" ` + outline + `/></vehicle>`},
		{"no wheel radius", `<vehicle class="differential" pose="0 0 0"><dynamics wheel_separation="0.3" mass="15" ` + outline + `/></vehicle>`},
		{"no mass", `<vehicle class="differential" pose="0 0 0"><dynamics wheel_separation="0.3" wheel_radius="0.05" ` + outline + `/></vehicle>`},
		{"no outline", `<vehicle class="differential" pose="0 0 0"><dynamics wheel_separation="0.3" wheel_radius="0.05" mass="15"/></vehicle>`},
		{"negative friction", `<vehicle class="differential" pose="0 0 0"><dynamics wheel_separation="0.3" wheel_radius="0.05" mass="15" friction="-1" ` + outline + `/></vehicle>`},
		{"bad controller", `<vehicle class="differential" pose="0 0 0"><dynamics wheel_separation="0.3" wheel_radius="0.05" mass="15" ` + outline + `><controller class="warp"/></dynamics></vehicle>`},
		{"no wheelbase", `<vehicle class="ackermann" pose="0 0 0"><dynamics track_width="1.5" max_steer="30" mass="800" ` + outline + `/></vehicle>`},
		{"no track width", `<vehicle class="ackermann" pose="0 0 0"><dynamics wheelbase="2.5" max_steer="30" mass="800" ` + outline + `/></vehicle>`},
		{"no max steer", `<vehicle class="ackermann" pose="0 0 0"><dynamics wheelbase="2.5" track_width="1.5" mass="800" ` + outline + `/></vehicle>`},
		{"max steer 90", `<vehicle class="ackermann" pose="0 0 0"><dynamics wheelbase="2.5" track_width="1.5" max_steer="90" mass="800" ` + outline + `/></vehicle>`},
		{"zero wheel radius", `<vehicle class="ackermann" pose="0 0 0"><dynamics wheelbase="2.5" track_width="1.5" max_steer="30" wheel_radius="0" mass="800" ` + outline + `/></vehicle>`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := vehicle.FactoryFromText(nil, tt.text)
			assert.Nil(t, v)
			assert.ErrorIs(t, err, dynamo.ErrMalformedConfig)
		})
	}
}

func TestDifferentialStraightLine(t *testing.T) {
	r := newRig(t, robotXML)

	prevX := r.v.Pose().X()
	for i := 0; i < 200; i++ {
		r.tick(dynamo.Control{10, 10})
		q := r.v.Pose()
		if q.X() <= prevX {
			t.Fatalf("tick %d: x did not advance (%f -> %f)", i, prevX, q.X())
		}
		prevX = q.X()
		if math.Abs(q.Y()) > 1e-9 || math.Abs(q.Yaw()) > 1e-9 {
			t.Fatalf("tick %d: left the line, q=%v", i, q)
		}
	}

	// Equal wheel rates of 10 rad/s on 5 cm wheels settle at 0.5 m/s.
	assert.InDelta(t, 0.5, r.v.Velocity().X(), 1e-3)
	assert.InDelta(t, 0.97, r.v.Pose().X(), 0.05)
}

func TestDifferentialZeroInput(t *testing.T) {
	r := newRig(t, robotXML)
	r.tick(dynamo.Control{0, 0})

	q := r.v.Pose()
	assert.InDelta(t, 0, q.X(), 1e-12)
	assert.InDelta(t, 0, q.Y(), 1e-12)
	assert.InDelta(t, 0, q.Yaw(), 1e-12)

	r.tick(nil)
	assert.InDeltaSlice(t, []float64{0, 0, 0}, r.v.Pose().Slice(), 1e-12)
}

func TestDifferentialSpinInPlace(t *testing.T) {
	r := newRig(t, robotXML)
	for i := 0; i < 100; i++ {
		r.tick(dynamo.Control{-5, 5})
	}
	q := r.v.Pose()
	assert.Greater(t, q.Yaw(), 0.0)
	assert.InDelta(t, 0, q.X(), 1e-6)
	assert.InDelta(t, 0, q.Y(), 1e-6)

	// w = r (wr - wl) / L
	assert.InDelta(t, 0.05*10/0.3, r.v.Velocity().Yaw(), 1e-2)
}

func TestDifferentialCommandAndClamp(t *testing.T) {
	r := newRig(t, `
<vehicle class="differential" pose="0 0 0">
  <dynamics wheel_separation="0.3" wheel_radius="0.05" mass="15" max_wheel_speed="4"
            outline="-0.2 -0.15; 0.2 -0.15; 0.2 0.15; -0.2 0.15"/>
</vehicle>`)
	d := r.v.Model().(*Differential)
	d.SetWheelSpeeds(10, -10)

	r.tick(nil)
	assert.Equal(t, dynamo.Control{4, -4}, r.v.Actuation())

	r.tick(dynamo.Control{1, 2})
	assert.Equal(t, dynamo.Control{1, 2}, r.v.Actuation(), "tick input overrides the stored command")
}

func TestDifferentialTwistController(t *testing.T) {
	r := newRig(t, `
<vehicle class="differential" pose="0 0 0">
  <dynamics wheel_separation="0.3" wheel_radius="0.05" mass="15"
            outline="-0.2 -0.15; 0.2 -0.15; 0.2 0.15; -0.2 0.15">
    <controller class="twist" v="0.5" w="0"/>
  </dynamics>
</vehicle>`)
	for i := 0; i < 100; i++ {
		r.tick(nil)
	}
	assert.InDelta(t, 10, r.v.Actuation()[0], 1e-9)
	assert.InDelta(t, 0.5, r.v.Velocity().X(), 1e-3)
}

func TestDifferentialOdometry(t *testing.T) {
	r := newRig(t, robotXML)
	for i := 0; i < 200; i++ {
		r.tick(dynamo.Control{10, 10})
	}
	odo := r.v.Model().(*Differential).Odometry()

	assert.InDelta(t, r.v.Pose().X(), odo.Distance, 1e-6)
	// Wheel odometry assumes the commanded speed from the first tick on.
	assert.InDelta(t, 0.5*200*dt, odo.Pose.X(), 1e-9)
	assert.Greater(t, odo.Pose.X(), r.v.Pose().X())

	for _, w := range r.v.Model().(*Differential).Wheels() {
		assert.InDelta(t, 10*200*dt, w.Phi, 1e-9)
	}
}

func TestWheelSpeedsFromTwist(t *testing.T) {
	d := &Differential{params: differentialParams{WheelSeparation: 0.3, WheelRadius: 0.05}}
	wl, wr := d.WheelSpeedsFromTwist(0.5, 0)
	assert.InDelta(t, 10, wl, 1e-12)
	assert.InDelta(t, 10, wr, 1e-12)

	wl, wr = d.WheelSpeedsFromTwist(0, 1)
	assert.InDelta(t, -3, wl, 1e-12)
	assert.InDelta(t, 3, wr, 1e-12)
}

func TestAckermannStraight(t *testing.T) {
	r := newRig(t, carXML)
	prevX := 0.0
	for i := 0; i < 300; i++ {
		r.tick(dynamo.Control{5, 0})
		q := r.v.Pose()
		require.Greater(t, q.X(), prevX)
		prevX = q.X()
		require.InDelta(t, 0, q.Y(), 1e-9)
		require.InDelta(t, 0, q.Yaw(), 1e-9)
	}
	assert.InDelta(t, 5, r.v.Velocity().X(), 1e-2)
}

func TestAckermannTurnsLeft(t *testing.T) {
	r := newRig(t, carXML)
	for i := 0; i < 300; i++ {
		r.tick(dynamo.Control{3, 0.2})
	}
	q := r.v.Pose()
	assert.Greater(t, q.Yaw(), 0.0)
	assert.Greater(t, q.Y(), 0.0)

	// Steady state yaw rate follows the bicycle model.
	assert.InDelta(t, 3*math.Tan(0.2)/2.5, r.v.Velocity().Yaw(), 2e-2)
}

func TestAckermannZeroInput(t *testing.T) {
	r := newRig(t, carXML)
	r.tick(nil)
	assert.InDeltaSlice(t, []float64{0, 0, 0}, r.v.Pose().Slice(), 1e-12)
}

func TestAckermannSteerClamp(t *testing.T) {
	r := newRig(t, carXML)
	a := r.v.Model().(*Ackermann)
	a.SetCommand(1, 1.0)
	r.tick(nil)

	assert.InDelta(t, math.Pi/6, r.v.Actuation()[1], 1e-12)
	assert.InDelta(t, math.Pi/6, a.MaxSteer(), 1e-12)
}

func TestAckermannWheelAngles(t *testing.T) {
	a := &Ackermann{params: ackermannParams{Wheelbase: 2.5, TrackWidth: 1.5}}

	left, right := a.WheelAngles(0.3)
	assert.Greater(t, left, 0.3, "inner wheel steers more")
	assert.Less(t, right, 0.3)
	assert.Greater(t, right, 0.0)

	left, right = a.WheelAngles(-0.3)
	assert.Greater(t, left, -0.3)
	assert.Less(t, right, -0.3)

	left, right = a.WheelAngles(0)
	assert.Zero(t, left)
	assert.Zero(t, right)
}

func TestAckermannSteerFromTwist(t *testing.T) {
	a := &Ackermann{params: ackermannParams{Wheelbase: 2.5}}
	steer := a.SteerFromTwist(3, 3*math.Tan(0.2)/2.5)
	assert.InDelta(t, 0.2, steer, 1e-12)
	assert.Zero(t, a.SteerFromTwist(0, 1))
}

func TestAckermannHeadingController(t *testing.T) {
	r := newRig(t, `
<vehicle class="ackermann" pose="0 0 0">
  <dynamics wheelbase="2.5" track_width="1.5" max_steer="30" mass="800"
            outline="-0.5 -0.9; 3.0 -0.9; 3.0 0.9; -0.5 0.9">
    <controller class="heading" v="3" heading="45" kp="1" kd="0"/>
  </dynamics>
</vehicle>`)
	for i := 0; i < 1500; i++ {
		r.tick(nil)
	}
	assert.InDelta(t, math.Pi/4, r.v.Pose().Yaw(), 0.05)
}
