package world_test

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/mv2dsim/internal/confnode"
	_ "github.com/san-kum/mv2dsim/internal/dynamics"
	"github.com/san-kum/mv2dsim/internal/dynamo"
	"github.com/san-kum/mv2dsim/internal/physics"
	"github.com/san-kum/mv2dsim/internal/vehicle"
	"github.com/san-kum/mv2dsim/internal/world"
)

const robot = `
<vehicle class="differential" name="%s" pose="%s">
  <dynamics wheel_separation="0.3" wheel_radius="0.05" mass="15"
            outline="-0.2 -0.15; 0.2 -0.15; 0.2 0.15; -0.2 0.15"/>
</vehicle>`

const twoRobots = `
<world timestep="0.02">
  <vehicle class="differential" name="r1" pose="0 0 0">
    <dynamics wheel_separation="0.3" wheel_radius="0.05" mass="15"
              outline="-0.2 -0.15; 0.2 -0.15; 0.2 0.15; -0.2 0.15"/>
  </vehicle>
  <vehicle class="ackermann" name="c1" pose="0 5 90">
    <dynamics wheelbase="2.5" track_width="1.5" max_steer="30" mass="800"
              outline="-0.5 -0.9; 3.0 -0.9; 3.0 0.9; -0.5 0.9"/>
  </vehicle>
</world>`

// recorder is a test model that logs hook calls into a shared journal.
type recorder struct {
	name    string
	journal *[]string
	failAt  string
	seenQ   []dynamo.Vec3
}

func (r *recorder) LoadDynamicsParams(n confnode.Node) error { return nil }

func (r *recorder) CreateMultibodySystem(f physics.BodyFactory, q0, dq0 dynamo.Vec3) (*physics.Body, error) {
	b, err := f.CreateBody(physics.BodyDef{Position: mgl64.Vec2{q0[0], q0[1]}, Angle: q0[2]})
	if err != nil {
		return nil, err
	}
	return b, b.CreateFixture(physics.FixtureDef{
		Vertices: []mgl64.Vec2{{-1, -1}, {1, -1}, {1, 1}, {-1, 1}},
		Density:  1,
	})
}

func (r *recorder) PreStep(ctx dynamo.SimulContext, chassis *physics.Body) error {
	*r.journal = append(*r.journal, "pre:"+r.name)
	if r.failAt == "pre" {
		return errors.New("actuator jammed")
	}
	chassis.ApplyForce(mgl64.Vec2{4, 0}, chassis.WorldPoint(mgl64.Vec2{}))
	return nil
}

func (r *recorder) PostStep(ctx dynamo.SimulContext, q, dq dynamo.Vec3) error {
	*r.journal = append(*r.journal, "post:"+r.name)
	r.seenQ = append(r.seenQ, q)
	if r.failAt == "post" {
		return errors.New("odometry overflow")
	}
	return nil
}

type countObserver struct{ calls map[string]int }

func (o *countObserver) OnStep(name string, x dynamo.State, u dynamo.Control, t float64) {
	o.calls[name]++
}

type distance struct{ last, sum float64 }

func (d *distance) Name() string { return "dx" }
func (d *distance) Observe(x dynamo.State, u dynamo.Control, t float64) {
	d.sum += math.Abs(x[0] - d.last)
	d.last = x[0]
}
func (d *distance) Value() float64 { return d.sum }
func (d *distance) Reset()         { d.sum, d.last = 0, 0 }

func robotXML(name, pose string) string {
	return fmt.Sprintf(robot, name, pose)
}

var _ = Describe("World", func() {
	var w *world.World

	BeforeEach(func() {
		w = world.New(world.DefaultConfig())
	})

	AfterEach(func() {
		Expect(w.Close()).To(Succeed())
	})

	Describe("loading", func() {
		It("loads every vehicle of a world document", func() {
			Expect(w.LoadWorldText(twoRobots)).To(Succeed())
			Expect(w.Dt()).To(Equal(0.02))
			Expect(w.Vehicles()).To(HaveLen(2))

			c1, ok := w.Vehicle("c1")
			Expect(ok).To(BeTrue())
			Expect(c1.Class()).To(Equal("ackermann"))
			Expect(c1.Pose().Yaw()).To(BeNumerically("~", math.Pi/2, 1e-12))
		})

		It("accepts YAML worlds", func() {
			Expect(w.LoadWorldText(`
world:
  timestep: 0.05
  vehicle:
    - class: differential
      name: y1
      pose: [1, 2, 0]
      dynamics:
        wheel_separation: 0.3
        wheel_radius: 0.05
        mass: 15
        outline: [[-0.2, -0.15], [0.2, -0.15], [0.2, 0.15], [-0.2, 0.15]]
`)).To(Succeed())
			v, ok := w.Vehicle("y1")
			Expect(ok).To(BeTrue())
			Expect(v.Pose()).To(Equal(dynamo.Vec3{1, 2, 0}))
			Expect(w.Dt()).To(Equal(0.05))
		})

		It("adds nothing when one vehicle is malformed", func() {
			err := w.LoadWorldText(`<world>` + robotXML("a", "0 0 0") + robotXML("b", "abc") + `</world>`)
			Expect(err).To(MatchError(dynamo.ErrMalformedConfig))
			Expect(w.Vehicles()).To(BeEmpty())
		})

		It("rejects unknown classes", func() {
			_, err := w.LoadVehicleText(`<vehicle class="hovercraft" pose="0 0 0"><dynamics/></vehicle>`)
			Expect(errors.Is(err, dynamo.ErrUnknownVehicleType)).To(BeTrue())
			Expect(w.Vehicles()).To(BeEmpty())
		})

		It("rejects duplicate names", func() {
			_, err := w.LoadVehicleText(robotXML("r", "0 0 0"))
			Expect(err).NotTo(HaveOccurred())
			_, err = w.LoadVehicleText(robotXML("r", "1 0 0"))
			Expect(err).To(MatchError(dynamo.ErrMalformedConfig))

			err = w.LoadWorldText(`<world>` + robotXML("s", "0 0 0") + robotXML("s", "1 1 0") + `</world>`)
			Expect(err).To(MatchError(dynamo.ErrMalformedConfig))
			Expect(w.Vehicles()).To(HaveLen(1))
		})

		It("rejects other roots and bad time steps", func() {
			Expect(w.LoadWorldText(`<scene/>`)).To(MatchError(dynamo.ErrMalformedConfig))
			Expect(w.LoadWorldText(`<world timestep="0"/>`)).To(MatchError(dynamo.ErrMalformedConfig))
			Expect(w.LoadWorldText(`<world timestep="fast"/>`)).To(MatchError(dynamo.ErrMalformedConfig))
		})
	})

	Describe("initialization", func() {
		It("creates exactly one body per vehicle and keeps configured poses", func() {
			Expect(w.LoadWorldText(twoRobots)).To(Succeed())
			Expect(w.BodyCount()).To(Equal(0))

			Expect(w.Init()).To(Succeed())
			Expect(w.BodyCount()).To(Equal(2))
			Expect(w.Init()).To(Succeed())
			Expect(w.BodyCount()).To(Equal(2))

			for _, v := range w.Vehicles() {
				owner, ok := w.VehicleForBody(v.Chassis().ID())
				Expect(ok).To(BeTrue())
				Expect(owner).To(BeIdenticalTo(v))
			}
			r1, _ := w.Vehicle("r1")
			Expect(r1.Pose()).To(Equal(dynamo.Vec3{0, 0, 0}))
		})

		It("creates bodies immediately for vehicles added later", func() {
			Expect(w.Init()).To(Succeed())
			_, err := w.LoadVehicleText(robotXML("late", "1 1 0"))
			Expect(err).NotTo(HaveOccurred())
			Expect(w.BodyCount()).To(Equal(1))
		})
	})

	Describe("stepping", func() {
		It("runs the four phases in order across vehicles", func() {
			var journal []string
			reg := vehicle.NewRegistry()
			reg.MustRegister("rec", func(p vehicle.Parent, n confnode.Node) (vehicle.Model, error) {
				name, _ := n.Attr("name")
				return &recorder{name: name, journal: &journal}, nil
			})
			w = world.New(world.DefaultConfig(), world.WithRegistry(reg))

			for _, v := range []struct{ name, pose string }{{"a", "0 0 0"}, {"b", "5 0 0"}} {
				_, err := w.LoadVehicleText(`<vehicle class="rec" name="` + v.name + `" pose="` + v.pose + `"><dynamics/></vehicle>`)
				Expect(err).NotTo(HaveOccurred())
			}
			Expect(w.Step()).To(Succeed())
			Expect(journal).To(Equal([]string{"pre:a", "pre:b", "post:a", "post:b"}))

			a, _ := w.Vehicle("a")
			rec := a.Model().(*recorder)
			Expect(rec.seenQ).To(HaveLen(1))
			Expect(rec.seenQ[0]).To(Equal(a.Pose()), "bookkeeping sees the extracted pose")
			Expect(a.Pose().X()).To(BeNumerically(">", 0))
		})

		It("advances the clock only on complete ticks", func() {
			Expect(w.LoadWorldText(twoRobots)).To(Succeed())
			for i := 0; i < 5; i++ {
				Expect(w.Step()).To(Succeed())
			}
			Expect(w.StepIndex()).To(Equal(5))
			Expect(w.Time()).To(BeNumerically("~", 0.1, 1e-12))
		})

		It("changes the time step only before the first tick", func() {
			Expect(w.LoadWorldText(twoRobots)).To(Succeed())
			Expect(w.SetDt(0.005)).To(Succeed())
			Expect(w.Dt()).To(Equal(0.005))
			Expect(w.SetDt(0)).To(MatchError(dynamo.ErrContractViolation))

			Expect(w.Step()).To(Succeed())
			Expect(w.Time()).To(BeNumerically("~", 0.005, 1e-12))
			Expect(w.SetDt(0.01)).To(MatchError(dynamo.ErrContractViolation))
		})

		DescribeTable("aborts a failing tick and stays failed",
			func(failAt, phase string) {
				var journal []string
				reg := vehicle.NewRegistry()
				reg.MustRegister("rec", func(p vehicle.Parent, n confnode.Node) (vehicle.Model, error) {
					return &recorder{name: "x", journal: &journal, failAt: failAt}, nil
				})
				w = world.New(world.DefaultConfig(), world.WithRegistry(reg))
				_, err := w.LoadVehicleText(`<vehicle class="rec" pose="0 0 0"><dynamics/></vehicle>`)
				Expect(err).NotTo(HaveOccurred())

				err = w.Step()
				Expect(errors.Is(err, dynamo.ErrTickFailed)).To(BeTrue())
				var simErr *dynamo.SimulationError
				Expect(errors.As(err, &simErr)).To(BeTrue())
				Expect(simErr.Phase).To(Equal(phase))
				Expect(w.Time()).To(BeZero())
				Expect(w.StepIndex()).To(BeZero())

				Expect(w.Step()).To(MatchError(dynamo.ErrTickFailed))
				Expect(w.Failed()).To(HaveOccurred())
			},
			Entry("in pre-step", "pre", "pre-step"),
			Entry("in post-step", "post", "post-step"),
		)

		It("keeps a differential robot on a straight line", func() {
			_, err := w.LoadVehicleText(robotXML("r", "0 0 0"))
			Expect(err).NotTo(HaveOccurred())
			Expect(w.SetInput("r", dynamo.Control{8, 8})).To(Succeed())

			r, _ := w.Vehicle("r")
			prev := 0.0
			for i := 0; i < 150; i++ {
				Expect(w.Step()).To(Succeed())
				Expect(r.Pose().X()).To(BeNumerically(">", prev))
				prev = r.Pose().X()
				Expect(r.Pose().Y()).To(BeNumerically("~", 0, 1e-9))
				Expect(r.Pose().Yaw()).To(BeNumerically("~", 0, 1e-9))
			}
		})

		It("does not drift without input", func() {
			_, err := w.LoadVehicleText(robotXML("r", "0 0 0"))
			Expect(err).NotTo(HaveOccurred())
			Expect(w.Step()).To(Succeed())

			r, _ := w.Vehicle("r")
			Expect(r.Pose().X()).To(BeNumerically("~", 0, 1e-12))
			Expect(r.Pose().Y()).To(BeNumerically("~", 0, 1e-12))
			Expect(r.Pose().Yaw()).To(BeNumerically("~", 0, 1e-12))
		})

		It("clears inputs and rejects unknown names", func() {
			_, err := w.LoadVehicleText(robotXML("r", "0 0 0"))
			Expect(err).NotTo(HaveOccurred())
			Expect(w.SetInput("nobody", dynamo.Control{1, 1})).To(MatchError(dynamo.ErrUnknownVehicle))

			Expect(w.SetInput("r", dynamo.Control{5, 5})).To(Succeed())
			Expect(w.Step()).To(Succeed())
			Expect(w.SetInput("r", nil)).To(Succeed())
			Expect(w.Step()).To(Succeed())

			r, _ := w.Vehicle("r")
			Expect(r.Actuation()).To(Equal(dynamo.Control{0, 0}))
		})
	})

	Describe("running", func() {
		It("records trajectories, metrics and observer calls", func() {
			w = world.New(world.DefaultConfig(), world.WithMetrics(func(*vehicle.Vehicle) []dynamo.Metric {
				return []dynamo.Metric{&distance{}}
			}))
			Expect(w.LoadWorldText(twoRobots)).To(Succeed())
			Expect(w.SetInput("r1", dynamo.Control{10, 10})).To(Succeed())

			obs := &countObserver{calls: map[string]int{}}
			res, err := w.Run(context.Background(), 1.0, obs)
			Expect(err).NotTo(HaveOccurred())

			Expect(res.StepsTaken).To(Equal(50))
			tr, ok := res.Trajectory("r1")
			Expect(ok).To(BeTrue())
			Expect(tr.States).To(HaveLen(51))
			Expect(tr.Times).To(HaveLen(51))
			Expect(tr.Controls).To(HaveLen(50))
			Expect(tr.Times[50]).To(BeNumerically("~", 1.0, 1e-9))
			Expect(tr.States[50].Pose()).To(Equal(mustVehicle(w, "r1").Pose()))

			Expect(obs.calls).To(Equal(map[string]int{"r1": 50, "c1": 50}))
			Expect(res.Metrics).To(HaveKey("r1.dx"))
			Expect(res.Metrics["r1.dx"]).To(BeNumerically(">", 0.3))
			Expect(res.Metrics["c1.dx"]).To(BeNumerically("~", 0, 1e-9))
		})

		It("stops between ticks when cancelled", func() {
			Expect(w.LoadWorldText(twoRobots)).To(Succeed())
			ctx, cancel := context.WithCancel(context.Background())
			cancel()

			res, err := w.Run(ctx, 1.0)
			Expect(err).To(MatchError(context.Canceled))
			Expect(res.StepsTaken).To(BeZero())
			Expect(w.Time()).To(BeZero())
		})

		It("rejects a non-positive duration", func() {
			_, err := w.Run(context.Background(), 0)
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("removal", func() {
		It("drops the relation entry and destroys the chassis", func() {
			Expect(w.LoadWorldText(twoRobots)).To(Succeed())
			Expect(w.Init()).To(Succeed())

			r1, _ := w.Vehicle("r1")
			chassis := r1.Chassis()
			id := chassis.ID()

			Expect(w.RemoveVehicle("r1")).To(Succeed())
			_, ok := w.VehicleForBody(id)
			Expect(ok).To(BeFalse())
			Expect(chassis.Valid()).To(BeFalse())
			Expect(w.BodyCount()).To(Equal(1))
			Expect(w.Vehicles()).To(HaveLen(1))

			Expect(w.RemoveVehicle("r1")).To(MatchError(dynamo.ErrUnknownVehicle))
			Expect(w.Step()).To(Succeed())
		})

		It("tears everything down on Close", func() {
			Expect(w.LoadWorldText(twoRobots)).To(Succeed())
			Expect(w.Init()).To(Succeed())
			vs := w.Vehicles()

			Expect(w.Close()).To(Succeed())
			Expect(w.BodyCount()).To(BeZero())
			Expect(w.Vehicles()).To(BeEmpty())
			for _, v := range vs {
				Expect(v.Chassis()).To(BeNil())
			}
		})
	})
})

var _ = Describe("Ensemble", func() {
	It("runs independent worlds in parallel", func() {
		e := world.NewEnsemble(func(idx int) (*world.World, error) {
			w := world.New(world.DefaultConfig())
			if _, err := w.LoadVehicleText(robotXML("r", "0 0 0")); err != nil {
				return nil, err
			}
			return w, w.SetInput("r", dynamo.Control{float64(idx + 1), float64(idx + 1)})
		}, 3)

		results, err := e.Run(context.Background(), 0.5)
		Expect(err).NotTo(HaveOccurred())
		Expect(results).To(HaveLen(3))

		var last float64
		for _, res := range results {
			tr, ok := res.Trajectory("r")
			Expect(ok).To(BeTrue())
			x := tr.States[len(tr.States)-1][0]
			Expect(x).To(BeNumerically(">", last))
			last = x
		}
	})

	It("reports build failures", func() {
		e := world.NewEnsemble(func(idx int) (*world.World, error) {
			return nil, errors.New("no map")
		}, 2)
		_, err := e.Run(context.Background(), 0.1)
		Expect(err).To(MatchError("no map"))
	})
})

func mustVehicle(w *world.World, name string) *vehicle.Vehicle {
	v, ok := w.Vehicle(name)
	Expect(ok).To(BeTrue())
	return v
}
