package main

import (
	"flag"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/gdamore/tcell/v2"

	"collectorai/internal/config"
	"collectorai/internal/engine"
	"collectorai/internal/eval"
	"collectorai/internal/logging"
	"collectorai/internal/nn"
	"collectorai/internal/world"
)

// arrows indexed by heading octant; screen rows grow downwards like world y
var arrows = []rune{'→', '↘', '↓', '↙', '←', '↖', '↑', '↗'}

type viewer struct {
	screen tcell.Screen
	eng    *engine.Engine

	width, height int
	paused        bool
	training      bool
	status        string
	gen           int
	snap          world.Snapshot
}

func newViewer(eng *engine.Engine, screen tcell.Screen) *viewer {
	v := &viewer{
		screen: screen,
		eng:    eng,
		snap:   eng.Snapshot(),
		status: "space pause | t train one generation | q quit",
	}
	v.width, v.height = screen.Size()
	return v
}

func (v *viewer) draw() {
	v.screen.Clear()

	rows := v.height - 1
	if v.width < 1 || rows < 1 {
		v.screen.Show()
		return
	}
	cell := func(x, y float64) (int, int) {
		return int(x * float64(v.width)) % v.width, int(y * float64(rows)) % rows
	}

	wasteStyle := tcell.StyleDefault.Foreground(tcell.ColorGreen)
	for _, w := range v.snap.Waste {
		cx, cy := cell(w.X, w.Y)
		v.screen.SetContent(cx, cy, '•', nil, wasteStyle)
	}

	agentStyle := tcell.StyleDefault.Foreground(tcell.ColorYellow).Bold(true)
	for _, a := range v.snap.Agents {
		cx, cy := cell(a.X, a.Y)
		v.screen.SetContent(cx, cy, arrow(a.Rotation), nil, agentStyle)
	}

	line := fmt.Sprintf(" gen %d | tick %d | %s", v.gen, v.snap.Tick, v.status)
	if v.paused {
		line += " | paused"
	}
	text := []rune(line)
	statusStyle := tcell.StyleDefault.Reverse(true)
	for x := 0; x < v.width; x++ {
		r := ' '
		if x < len(text) {
			r = text[x]
		}
		v.screen.SetContent(x, rows, r, nil, statusStyle)
	}

	v.screen.Show()
}

func arrow(heading float64) rune {
	octant := int(math.Round(heading/(math.Pi/4))) % len(arrows)
	if octant < 0 {
		octant += len(arrows)
	}
	return arrows[octant]
}

func (v *viewer) handleInput(ev tcell.Event, reports chan<- string) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC {
			return false
		}
		if ev.Key() != tcell.KeyRune {
			return true
		}
		switch ev.Rune() {
		case 'q':
			return false
		case ' ':
			v.paused = !v.paused
		case 't':
			if v.training {
				return true
			}
			v.training = true
			v.status = "training..."
			go func() {
				reports <- v.eng.Train()
			}()
		}

	case *tcell.EventResize:
		v.width, v.height = v.screen.Size()
		v.screen.Sync()
	}
	return true
}

// tick advances the live world one frame. When auto-evolve replaced the
// world, the status line shows the finished generation's report.
func (v *viewer) tick() {
	if v.paused || v.training {
		return
	}
	v.snap = v.eng.Step()
	if gen := v.eng.Generation(); gen != v.gen {
		v.gen = gen
		v.status = v.eng.LastStats().String()
	}
}

// pollEvents forwards screen events to ch until the screen is finalized
func pollEvents(screen tcell.Screen, ch chan<- tcell.Event) {
	for {
		ev := screen.PollEvent()
		if ev == nil {
			return
		}
		ch <- ev
	}
}

func (v *viewer) run(frame time.Duration) {
	ticker := time.NewTicker(frame)
	defer ticker.Stop()

	eventChan := make(chan tcell.Event, 100)
	go pollEvents(v.screen, eventChan)
	reports := make(chan string, 1)

	for {
		select {
		case ev := <-eventChan:
			if !v.handleInput(ev, reports) {
				return
			}

		case report := <-reports:
			v.training = false
			v.status = report
			v.gen = v.eng.Generation()
			v.snap = v.eng.Snapshot()
			v.draw()

		case <-ticker.C:
			v.tick()
			v.draw()
		}
	}
}

func main() {
	configPath := flag.String("config", "", "path to config file (empty uses built-in defaults)")
	championPath := flag.String("champion", "", "champion JSON to watch instead of a random population")
	replayPath := flag.String("replay", "", "replay JSON to watch tick for tick")
	copies := flag.Int("copies", 1, "number of agents driven by the champion")
	fps := flag.Int("fps", 30, "frames per second")
	autoEvolve := flag.Bool("auto-evolve", false, "evolve the live world after every full evaluation window")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	cfg.Engine.AutoEvolve = cfg.Engine.AutoEvolve || *autoEvolve

	var (
		opts   []engine.Option
		status string
	)
	switch {
	case *replayPath != "":
		replay, err := eval.LoadReplay(*replayPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading replay: %v\n", err)
			os.Exit(1)
		}
		opts = append(opts, engine.WithGenomes(replay.Genomes), engine.WithWorldSeed(replay.Seed))
		status = fmt.Sprintf("replay seed %d, %d ticks, collected %v", replay.Seed, replay.Ticks, replay.Collected)
	case *championPath != "":
		champion, err := logging.LoadChampion(*championPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading champion: %v\n", err)
			os.Exit(1)
		}
		genomes := make([]nn.Genome, max(*copies, 1))
		for i := range genomes {
			genomes[i] = champion.Genome
		}
		opts = append(opts, engine.WithGenomes(genomes))
		status = fmt.Sprintf("champion of generation %d, fitness %.0f", champion.Generation, champion.Fitness)
	}

	eng, err := engine.New(cfg, opts...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating engine: %v\n", err)
		os.Exit(1)
	}

	screen, err := tcell.NewScreen()
	if err == nil {
		err = screen.Init()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening terminal: %v\n", err)
		os.Exit(1)
	}
	defer screen.Fini()

	v := newViewer(eng, screen)
	if status != "" {
		v.status = status
	}

	v.run(time.Second / time.Duration(max(*fps, 1)))
}
