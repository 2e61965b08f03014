package gpu

// Sampler reads the current state of one GPU.
type Sampler interface {
	Name() string
	Index() int
	Sample() (Sample, error)
	Shutdown() error
}

// Sample is one reading of every supported sensor. Optional sensors the
// board lacks are reported through the Has* flags.
type Sample struct {
	Temperature    float64 // °C
	GraphicsClock  float64 // MHz
	MemoryClock    float64 // MHz
	SMClock        float64 // MHz
	FanSpeed       float64 // percent
	PowerDraw      float64 // W
	HasFanSpeed    bool
	HasPowerDraw   bool
	HasSMClock     bool
	HasMemoryClock bool
}
