package state

import (
	"sync"
	"time"

	"github.com/earth-module/tem-dashboard/internal/catalog"
	"github.com/earth-module/tem-dashboard/internal/model"
)

// DefaultOfflineThreshold is the number of consecutive fully failed polling
// cycles after which the module is reported offline.
const DefaultOfflineThreshold = 3

// Partial carries the endpoint results of one polling cycle. A nil member
// means the fetch failed or was not attempted; the matching slice of the
// snapshot is then left untouched.
type Partial struct {
	Outputs *model.OutputsPayload
	Weather *model.WeatherPayload
	Status  *model.StatusPayload
	Keys    *model.KeysPayload
}

// Empty reports whether no slice succeeded.
func (p Partial) Empty() bool {
	return p.Outputs == nil && p.Weather == nil && p.Status == nil && p.Keys == nil
}

// Outcome summarizes a polling cycle for connection accounting.
type Outcome struct {
	Attempted int
	Succeeded int
}

type Options struct {
	Layout           Layout
	OfflineThreshold int
	Now              func() time.Time
}

// Store holds the latest known device state. Writers build the next
// snapshot from a copy and swap it in under the lock, so readers never
// observe a half-merged cycle.
type Store struct {
	catalog   *catalog.Catalog
	threshold int
	now       func() time.Time

	mu      sync.RWMutex
	current Snapshot

	subMu  sync.Mutex
	nextID int
	subs   map[int]chan Snapshot
}

func New(cat *catalog.Catalog, opts Options) *Store {
	layout := opts.Layout
	if layout.CV <= 0 && layout.Gate <= 0 {
		layout = DefaultLayout
	}
	threshold := opts.OfflineThreshold
	if threshold <= 0 {
		threshold = DefaultOfflineThreshold
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	var fields []string
	if cat != nil {
		fields = cat.Fields()
	}
	initial := Snapshot{
		Env:        model.NewEnvironment(fields),
		Connection: ConnectionOffline,
	}
	for _, kind := range []catalog.Kind{catalog.KindCV, catalog.KindGate} {
		for i := 0; i < layout.Count(kind); i++ {
			initial.Outputs = append(initial.Outputs, Channel{
				Kind:    kind,
				Index:   i,
				Name:    kind.ChannelName(i),
				ParamID: defaultParam(kind, i),
			})
		}
	}

	return &Store{
		catalog:   cat,
		threshold: threshold,
		now:       now,
		current:   initial,
		subs:      map[int]chan Snapshot{},
	}
}

// Catalog returns the catalog the store resolves against.
func (s *Store) Catalog() *catalog.Catalog {
	return s.catalog
}

// Snapshot returns a deep copy of the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.clone()
}

// Merge folds the successful slices of p into the snapshot without touching
// connection state.
func (s *Store) Merge(p Partial) Snapshot {
	return s.update(func(next *Snapshot) bool {
		return s.apply(next, p)
	})
}

// ApplyCycle merges p and updates connection accounting in one atomic step.
//
// A cycle with at least one successful slice resets the failure streak and
// marks the module connected. A fully failed cycle grows the streak and
// only flips to offline once the streak reaches the threshold; below it the
// previous state is kept.
func (s *Store) ApplyCycle(p Partial, outcome Outcome) Snapshot {
	return s.update(func(next *Snapshot) bool {
		s.apply(next, p)
		now := s.now()
		next.LastAttempt = now
		if outcome.Succeeded > 0 {
			next.Connection = ConnectionConnected
			next.FailureStreak = 0
			next.LastUpdate = now
			return true
		}
		next.FailureStreak++
		if next.FailureStreak >= s.threshold {
			next.Connection = ConnectionOffline
		}
		return true
	})
}

// AssignOptimistic records a local assignment before the module confirms it.
// It returns false when the channel does not exist in the layout.
func (s *Store) AssignOptimistic(kind catalog.Kind, index, paramID int) bool {
	found := false
	s.update(func(next *Snapshot) bool {
		for i := range next.Outputs {
			ch := &next.Outputs[i]
			if ch.Kind == kind && ch.Index == index {
				ch.ParamID = paramID
				ch.Pending = true
				found = true
				return true
			}
		}
		return false
	})
	return found
}

// RestoreAssignment rolls back an optimistic assignment the module refused.
func (s *Store) RestoreAssignment(kind catalog.Kind, index, paramID int) {
	s.update(func(next *Snapshot) bool {
		for i := range next.Outputs {
			ch := &next.Outputs[i]
			if ch.Kind == kind && ch.Index == index {
				ch.ParamID = paramID
				ch.Pending = false
				return true
			}
		}
		return false
	})
}

// SetKeyPresence records which API keys are configured.
func (s *Store) SetKeyPresence(openWeather, nasa bool) {
	s.update(func(next *Snapshot) bool {
		next.Keys = KeyStatus{Loaded: true, HasOpenWeather: openWeather, HasNasa: nasa}
		return true
	})
}

// SetLocation records a location accepted by the module.
func (s *Store) SetLocation(lat, lng float64, city string) {
	s.update(func(next *Snapshot) bool {
		next.Location = Location{Lat: lat, Lng: lng, City: city, Known: true}
		return true
	})
}

// SetUpdate records the result of an update check.
func (s *Store) SetUpdate(info model.UpdateInfo) {
	s.update(func(next *Snapshot) bool {
		next.Update = info
		return true
	})
}

// Subscribe returns a channel that receives the snapshot after every change.
// Slow subscribers only see the latest snapshot. Call cancel to unsubscribe.
func (s *Store) Subscribe() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 1)
	s.subMu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = ch
	s.subMu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.subMu.Lock()
			delete(s.subs, id)
			s.subMu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

func (s *Store) update(fn func(next *Snapshot) bool) Snapshot {
	s.mu.Lock()
	next := s.current.clone()
	if !fn(&next) {
		s.mu.Unlock()
		return next
	}
	next.Revision++
	s.current = next
	out := next.clone()
	// Publish before releasing mu so subscribers see revisions in order.
	s.publish(out)
	s.mu.Unlock()
	return out
}

func (s *Store) publish(snap Snapshot) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for _, ch := range s.subs {
		msg := snap.clone()
		select {
		case ch <- msg:
			continue
		default:
		}
		// Drop the stale snapshot so the subscriber sees the latest one.
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- msg:
		default:
		}
	}
}

func (s *Store) apply(next *Snapshot, p Partial) bool {
	changed := false
	if p.Outputs != nil {
		mergeOutputs(next, p.Outputs)
		changed = true
	}
	if p.Weather != nil && (p.Weather.HasData == nil || *p.Weather.HasData) {
		for field, v := range p.Weather.Fields {
			if v.Known {
				next.Env[field] = v
			}
		}
		changed = true
	}
	if p.Status != nil {
		mergeStatus(next, p.Status)
		changed = true
	}
	if p.Keys != nil {
		if p.Keys.HasOpenWeather != nil {
			next.Keys.HasOpenWeather = *p.Keys.HasOpenWeather
		}
		if p.Keys.HasNasa != nil {
			next.Keys.HasNasa = *p.Keys.HasNasa
		}
		next.Keys.Loaded = true
		changed = true
	}
	return changed
}

func mergeOutputs(next *Snapshot, p *model.OutputsPayload) {
	for i := range next.Outputs {
		ch := &next.Outputs[i]
		if level, ok := p.Levels[ch.Name]; ok {
			l := level
			ch.Level = &l
		}
		if id, ok := p.Params[ch.Name]; ok {
			ch.ParamID = id
			ch.Pending = false
		}
	}
}

func mergeStatus(next *Snapshot, p *model.StatusPayload) {
	d := &next.Device
	setIf(&d.DeviceID, p.DeviceID)
	setIf(&d.Version, p.Version)
	setIf(&d.IP, p.IP)
	setIf(&d.SSID, p.SSID)
	setIf(&d.RSSI, p.RSSI)
	setIf(&d.FreeHeap, p.FreeHeap)
	setIf(&d.Uptime, p.Uptime)
	setIf(&d.Latitude, p.Latitude)
	setIf(&d.Longitude, p.Longitude)
	setIf(&d.CityName, p.CityName)

	if p.Latitude != nil && p.Longitude != nil {
		next.Location.Lat = *p.Latitude
		next.Location.Lng = *p.Longitude
		next.Location.Known = true
	}
	if p.CityName != nil {
		next.Location.City = *p.CityName
	}
}

func setIf[T any](dst **T, src *T) {
	if src != nil {
		*dst = clonePtr(src)
	}
}
