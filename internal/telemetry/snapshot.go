package telemetry

import "time"

// Reading is one sensor value as the source reports it, all fields as text.
type Reading struct {
	Unit    string
	Current string
	Min     string
	Max     string
	Average string
}

type group struct {
	name     string
	order    []string
	readings map[string]Reading
}

// Snapshot is an ordered mapping of sensor group to ordered readings.
// Sources build it with Add; consumers treat it as read-only.
type Snapshot struct {
	Taken  time.Time
	groups []*group
	index  map[string]int
}

func NewSnapshot(taken time.Time) *Snapshot {
	return &Snapshot{
		Taken: taken,
		index: make(map[string]int),
	}
}

// Add appends reading to groupName, creating the group on first use. Adding
// an existing reading replaces its value and keeps its position.
func (s *Snapshot) Add(groupName, reading string, r Reading) {
	i, ok := s.index[groupName]
	if !ok {
		i = len(s.groups)
		s.index[groupName] = i
		s.groups = append(s.groups, &group{
			name:     groupName,
			readings: make(map[string]Reading),
		})
	}

	g := s.groups[i]
	if _, exists := g.readings[reading]; !exists {
		g.order = append(g.order, reading)
	}
	g.readings[reading] = r
}

// Groups returns the group names in source order.
func (s *Snapshot) Groups() []string {
	names := make([]string, len(s.groups))
	for i, g := range s.groups {
		names[i] = g.name
	}
	return names
}

// Readings returns the reading names of groupName in source order.
func (s *Snapshot) Readings(groupName string) []string {
	i, ok := s.index[groupName]
	if !ok {
		return nil
	}
	return append([]string(nil), s.groups[i].order...)
}

func (s *Snapshot) Reading(groupName, reading string) (Reading, bool) {
	i, ok := s.index[groupName]
	if !ok {
		return Reading{}, false
	}
	r, ok := s.groups[i].readings[reading]
	return r, ok
}

// FindGroupWith returns the first group, in source order, that carries
// reading.
func (s *Snapshot) FindGroupWith(reading string) (string, bool) {
	for _, g := range s.groups {
		if _, ok := g.readings[reading]; ok {
			return g.name, true
		}
	}
	return "", false
}

func (s *Snapshot) Len() int {
	return len(s.groups)
}
