package physics

import (
	"fmt"

	"github.com/ByteArena/box2d"
	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/mv2dsim/internal/dynamo"
)

// StandardGravity is used by friction models to derive normal forces in the
// horizontal plane; the simulated world itself has no gravity by default.
const StandardGravity = 9.81

type Config struct {
	Gravity            mgl64.Vec2
	VelocityIterations int
	PositionIterations int
}

func DefaultConfig() Config {
	return Config{
		VelocityIterations: 8,
		PositionIterations: 3,
	}
}

// BodyID identifies a body for the lifetime of its engine.
type BodyID uint32

type BodyDef struct {
	Position        mgl64.Vec2
	Angle           float64
	LinearVelocity  mgl64.Vec2
	AngularVelocity float64
	LinearDamping   float64
	AngularDamping  float64
}

// BodyFactory is the construction-time view of the engine handed to vehicles.
// DestroyBody is there to roll back a half-built system.
type BodyFactory interface {
	CreateBody(def BodyDef) (*Body, error)
	DestroyBody(b *Body)
}

// Engine wraps a Box2D world. It is not safe for concurrent use.
type Engine struct {
	world  *box2d.B2World
	cfg    Config
	bodies map[BodyID]*Body
	nextID BodyID
	steps  int
}

func NewEngine(cfg Config) *Engine {
	if cfg.VelocityIterations <= 0 {
		cfg.VelocityIterations = DefaultConfig().VelocityIterations
	}
	if cfg.PositionIterations <= 0 {
		cfg.PositionIterations = DefaultConfig().PositionIterations
	}
	w := box2d.MakeB2World(box2d.MakeB2Vec2(cfg.Gravity.X(), cfg.Gravity.Y()))
	return &Engine{
		world:  &w,
		cfg:    cfg,
		bodies: make(map[BodyID]*Body),
		nextID: 1,
	}
}

// CreateBody adds a dynamic body to the world.
func (e *Engine) CreateBody(def BodyDef) (*Body, error) {
	if !(dynamo.Vec3{def.Position.X(), def.Position.Y(), def.Angle}).IsValid() {
		return nil, fmt.Errorf("physics: invalid body pose %v/%v", def.Position, def.Angle)
	}

	bd := box2d.MakeB2BodyDef()
	bd.Type = box2d.B2BodyType.B2_dynamicBody
	bd.Position = toB2(def.Position)
	bd.Angle = def.Angle
	bd.LinearVelocity = toB2(def.LinearVelocity)
	bd.AngularVelocity = def.AngularVelocity
	bd.LinearDamping = def.LinearDamping
	bd.AngularDamping = def.AngularDamping

	id := e.nextID
	e.nextID++

	b2 := e.world.CreateBody(&bd)
	b2.SetUserData(id)

	body := &Body{id: id, b: b2}
	e.bodies[id] = body
	return body, nil
}

// DestroyBody removes a body from the world and invalidates its handle.
func (e *Engine) DestroyBody(b *Body) {
	if b == nil || b.b == nil {
		return
	}
	e.world.DestroyBody(b.b)
	delete(e.bodies, b.id)
	b.b = nil
}

// Step integrates the world by dt seconds.
func (e *Engine) Step(dt float64) error {
	if dt <= 0 {
		return fmt.Errorf("physics: dt must be positive, got %f", dt)
	}
	e.world.Step(dt, e.cfg.VelocityIterations, e.cfg.PositionIterations)
	e.steps++
	return nil
}

func (e *Engine) BodyCount() int { return len(e.bodies) }

// Steps returns how many times the world has been integrated.
func (e *Engine) Steps() int { return e.steps }

// Body looks up a live body by id.
func (e *Engine) Body(id BodyID) (*Body, bool) {
	b, ok := e.bodies[id]
	return b, ok
}

// Transform returns the pose of a body's origin.
func (e *Engine) Transform(b *Body) dynamo.Vec3 { return b.Transform() }

// Velocity returns the world-frame velocity of a body's origin.
func (e *Engine) Velocity(b *Body) dynamo.Vec3 { return b.Velocity() }

func toB2(v mgl64.Vec2) box2d.B2Vec2 {
	return box2d.MakeB2Vec2(v.X(), v.Y())
}

func fromB2(v box2d.B2Vec2) mgl64.Vec2 {
	return mgl64.Vec2{v.X, v.Y}
}
