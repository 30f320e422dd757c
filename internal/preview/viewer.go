package preview

import (
	"context"

	"github.com/gdamore/tcell/v2"
	"github.com/signalsfoundry/rf-heatmap/internal/logging"
)

// Viewer runs an interactive preview on a tcell screen.
type Viewer struct {
	screen     tcell.Screen
	updates    chan Frame
	regenerate func(context.Context) error
	log        logging.Logger
}

// NewScreen opens and initialises the terminal.
func NewScreen() (tcell.Screen, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, err
	}
	if err := screen.Init(); err != nil {
		return nil, err
	}
	return screen, nil
}

// NewViewer wraps an initialised screen. regenerate runs when 'r' is
// pressed and may be nil.
func NewViewer(screen tcell.Screen, regenerate func(context.Context) error, log logging.Logger) *Viewer {
	if log == nil {
		log = logging.Noop()
	}
	return &Viewer{
		screen:     screen,
		updates:    make(chan Frame, 1),
		regenerate: regenerate,
		log:        log,
	}
}

// Update replaces the pending frame. It never blocks; a frame not yet drawn
// is superseded.
func (v *Viewer) Update(f Frame) {
	for {
		select {
		case v.updates <- f:
			return
		default:
		}
		select {
		case <-v.updates:
		default:
		}
	}
}

// Run draws frames until ctx is cancelled or the user quits with q, Esc or
// Ctrl-C. The screen is finalised on return.
func (v *Viewer) Run(ctx context.Context, initial Frame) {
	defer v.screen.Fini()

	events := make(chan tcell.Event, 8)
	quit := make(chan struct{})
	defer close(quit)
	go func() {
		for {
			ev := v.screen.PollEvent()
			if ev == nil {
				return
			}
			select {
			case events <- ev:
			case <-quit:
				return
			}
		}
	}()

	frame := initial
	v.draw(frame)
	for {
		select {
		case <-ctx.Done():
			return
		case frame = <-v.updates:
			v.draw(frame)
		case ev := <-events:
			switch ev := ev.(type) {
			case *tcell.EventResize:
				v.screen.Sync()
				v.draw(frame)
			case *tcell.EventKey:
				if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC ||
					(ev.Key() == tcell.KeyRune && ev.Rune() == 'q') {
					return
				}
				if ev.Key() == tcell.KeyRune && ev.Rune() == 'r' && v.regenerate != nil {
					if err := v.regenerate(ctx); err != nil {
						v.log.Warn(ctx, "preview regenerate failed", logging.Err(err))
					}
				}
			}
		}
	}
}

func (v *Viewer) draw(f Frame) {
	Render(v.screen, f)
	v.screen.Show()
}
