package world

// Snapshot is a read-only copy of the world for renderers
type Snapshot struct {
	Tick   int         `json:"tick"`
	Agents []AgentView `json:"agents"`
	Waste  []WasteView `json:"waste"`
}

// AgentView is one collector as seen by a renderer
type AgentView struct {
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Rotation float64 `json:"rotation"`
}

// WasteView is one waste item as seen by a renderer
type WasteView struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Snapshot copies the current positions and headings
func (w *World) Snapshot() Snapshot {
	s := Snapshot{
		Tick:   w.tick,
		Agents: make([]AgentView, len(w.agents)),
		Waste:  make([]WasteView, len(w.waste)),
	}
	for i, a := range w.agents {
		s.Agents[i] = AgentView{X: a.Pos.X, Y: a.Pos.Y, Rotation: a.Heading}
	}
	for i, ws := range w.waste {
		s.Waste[i] = WasteView{X: ws.Pos.X, Y: ws.Pos.Y}
	}
	return s
}
