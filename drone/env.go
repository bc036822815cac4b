package drone

// FeatureVector is the normalized input of the function approximator
type FeatureVector []float64

// FeatureScale holds the normalization constants. Each feature ends up
// approximately within [-0.5, 0.5].
type FeatureScale struct {
	VelocityRange         float64 `mapstructure:"velocity_range" yaml:"velocity_range" json:"velocity_range"`
	ObstacleVelocityRange float64 `mapstructure:"obstacle_velocity_range" yaml:"obstacle_velocity_range" json:"obstacle_velocity_range"`
}

func DefaultFeatureScale() FeatureScale {
	return FeatureScale{
		VelocityRange:         20,
		ObstacleVelocityRange: 60,
	}
}

// Features projects the drone state (and obstacle when present) into a feature vector
func Features(s State, o *Obstacle, cfg Config, scale FeatureScale) FeatureVector {
	fv := FeatureVector{
		s.Y/cfg.CanvasHeight - 0.5,
		s.VY / scale.VelocityRange,
	}
	if o == nil {
		return fv
	}
	return append(fv,
		o.X/cfg.CanvasWidth-0.5,
		o.Y/cfg.CanvasHeight-0.5,
		o.VX/scale.ObstacleVelocityRange,
		o.VY/scale.ObstacleVelocityRange,
	)
}

// Observation is a read-only view of the environment at the start of a tick
type Observation struct {
	State    State
	Obstacle *Obstacle
	Features FeatureVector
}

// StepResult is the outcome of one tick
type StepResult struct {
	State    State
	Obstacle *Obstacle
	Reward   float64
	Crashed  bool
}

// Environment owns the drone and optional obstacle of a single episode
type Environment struct {
	config  Config
	scale   FeatureScale
	reward  RewardFunc
	spawner *ObstacleSpawner

	state    State
	obstacle *Obstacle
}

// NewEnvironment creates an environment. A nil spawner disables the obstacle.
func NewEnvironment(config Config, reward RewardFunc, scale FeatureScale, spawner *ObstacleSpawner) *Environment {
	e := &Environment{
		config:  config,
		scale:   scale,
		reward:  reward,
		spawner: spawner,
	}
	e.Reset()
	return e
}

func (e *Environment) Config() Config {
	return e.config
}

// NumFeatures is the length of the feature vectors produced by Observe
func (e *Environment) NumFeatures() int {
	if e.spawner != nil {
		return 6
	}
	return 2
}

// Reset puts the drone back at the centre and respawns the obstacle
func (e *Environment) Reset() Observation {
	e.state = Middle(e.config)
	if e.spawner != nil {
		o := e.spawner.Spawn()
		e.obstacle = &o
	}
	return e.Observe()
}

func (e *Environment) Observe() Observation {
	return Observation{
		State:    e.state,
		Obstacle: e.obstacleCopy(),
		Features: Features(e.state, e.obstacle, e.config, e.scale),
	}
}

// Step applies the action and gravity, then evaluates reward and crash
func (e *Environment) Step(a Action) StepResult {
	e.state = e.state.Step(a, e.config)
	if e.obstacle != nil {
		o := e.obstacle.Update(e.config.Gravity)
		e.obstacle = &o
	}

	crashed := e.state.Crashed(e.config)
	if e.obstacle != nil && e.state.HitObstacle(*e.obstacle, e.config) {
		crashed = true
	}
	return StepResult{
		State:    e.state,
		Obstacle: e.obstacleCopy(),
		Reward:   e.reward(e.state, e.obstacle),
		Crashed:  crashed,
	}
}

func (e *Environment) obstacleCopy() *Obstacle {
	if e.obstacle == nil {
		return nil
	}
	o := *e.obstacle
	return &o
}
