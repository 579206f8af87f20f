package audio

import (
	"math"
	"sync/atomic"

	"github.com/sidekey-app/sidekey/config"
)

// atomicFloat32 is a float32 stored as raw bits so the device callback
// can read parameters without locking.
type atomicFloat32 struct {
	bits atomic.Uint32
}

func (f *atomicFloat32) Load() float32 {
	return math.Float32frombits(f.bits.Load())
}

func (f *atomicFloat32) Store(v float32) {
	f.bits.Store(math.Float32bits(v))
}

// Route selects which streams carry the sidetone.
type Route uint32

// Routing policies stored in an atomic cell.
const (
	RouteOutputOnly Route = iota
	RouteLocalOnly
	RouteBoth
)

func routeFromConfig(r config.SidetoneRoute) Route {
	switch r {
	case config.RouteLocalOnly:
		return RouteLocalOnly
	case config.RouteBoth:
		return RouteBoth
	default:
		return RouteOutputOnly
	}
}

// carriesSidetone reports whether a stream includes the tone under the
// route. local distinguishes the monitor stream from the output stream.
func (r Route) carriesSidetone(local bool) bool {
	switch r {
	case RouteBoth:
		return true
	case RouteLocalOnly:
		return local
	default:
		return !local
	}
}

// params are the hot-path parameter cells shared between the control
// thread and the device callbacks. Every access is a single atomic
// operation; the callbacks never see a torn or locked value.
type params struct {
	frequency   atomicFloat32
	toneVolume  atomicFloat32 // output route sidetone volume
	localVolume atomicFloat32 // local monitor sidetone volume
	micVolume   atomicFloat32

	route   atomic.Uint32
	ducking atomic.Bool
	keyDown atomic.Bool

	// Samples of ducking hold remaining after key-up, so mic unmute
	// trails the tone instead of clipping its tail.
	duckingHold atomic.Uint32

	micLevel    atomicFloat32
	outputLevel atomicFloat32
}

func (p *params) apply(s config.Settings) {
	p.frequency.Store(float32(s.SidetoneFrequency))
	p.toneVolume.Store(float32(s.SidetoneVolume))
	p.localVolume.Store(float32(s.LocalSidetoneVolume))
	p.micVolume.Store(float32(s.MicVolume))
	p.route.Store(uint32(routeFromConfig(s.SidetoneRoute)))
	p.ducking.Store(s.MicDucking)
}

func (p *params) loadRoute() Route {
	return Route(p.route.Load())
}

// smooth updates a level cell with fast attack and slow decay so meters
// jump on peaks and fall gently.
func smooth(cell *atomicFloat32, peak float32) {
	current := cell.Load()
	if peak > current {
		cell.Store(peak)
		return
	}
	cell.Store(current*0.95 + peak*0.05)
}
