package windowinfo

import (
	"context"
	"fmt"

	"github.com/yourusername/winsync/internal/invariant"
	"github.com/yourusername/winsync/internal/logging"
	"github.com/yourusername/winsync/internal/native"
	"github.com/yourusername/winsync/internal/state"
	"github.com/yourusername/winsync/internal/types"
)

// run executes one action on the drain goroutine
func (s *Service) run(ctx context.Context, a Action) error {
	switch a := a.(type) {
	case SetSize:
		return s.setSize(ctx, a.Value)
	case SetMinimumSize:
		return s.setMinimumSize(ctx, a.Value)
	case SetState:
		invariant.Assert(s.mode.Value() == types.ModeEdit, "set-state requires edit mode")
		return s.setState(ctx, a.Value)
	case SetResizable:
		if err := s.win.SetResizable(a.Value); err != nil {
			return fmt.Errorf("set resizable: %w", err)
		}
		return nil
	case SetWindowMode:
		switch a.Kind {
		case types.ModeWidget:
			return s.enterWidget(ctx)
		case types.ModeEdit:
			return s.enterEdit(ctx)
		default:
			invariant.Unreachable("unknown window mode", a.Kind)
		}
	case Resync:
		s.resync()
		return nil
	default:
		invariant.Unreachable("unknown action", a)
	}
	return nil
}

// setSize resizes to size. A minimum above size is lowered first so the
// window never clamps the request.
func (s *Service) setSize(ctx context.Context, size types.Vec2) error {
	minimum := s.win.MinimumSize()
	if lowered := minimum.Min(size); lowered != minimum {
		if err := s.win.SetMinimumSize(lowered); err != nil {
			return fmt.Errorf("set minimum size: %w", err)
		}
	}
	return s.confirm.sequence(ctx, step{
		edge:      types.EdgeResize,
		satisfied: func() bool { return s.win.Size() == size },
		call:      func() error { return s.win.SetSize(size) },
	})
}

// setMinimumSize applies the minimum before any growth so the window never
// sees a size below its minimum.
func (s *Service) setMinimumSize(ctx context.Context, minimum types.Vec2) error {
	size := s.win.Size()
	if size.Covers(minimum) {
		if err := s.win.SetMinimumSize(minimum); err != nil {
			return fmt.Errorf("set minimum size: %w", err)
		}
		return nil
	}

	grown := size.Max(minimum)
	return s.confirm.sequence(ctx, step{
		edge:      types.EdgeResize,
		satisfied: func() bool { return s.win.Size() == grown },
		call: func() error {
			if err := s.win.SetMinimumSize(minimum); err != nil {
				return err
			}
			// most substrates grow the window themselves
			if s.win.Size() == grown {
				return nil
			}
			return s.win.SetSize(grown)
		},
	})
}

func (s *Service) unmaximize() step {
	return step{
		edge:      types.EdgeUnmaximize,
		satisfied: func() bool { return !s.win.IsMaximized() },
		call:      s.win.Unmaximize,
	}
}

func (s *Service) maximize() step {
	return step{
		edge:      types.EdgeMaximize,
		satisfied: s.win.IsMaximized,
		call:      s.win.Maximize,
	}
}

func (s *Service) restore() step {
	return step{
		edge:      types.EdgeRestore,
		satisfied: func() bool { return !s.win.IsMinimized() },
		call:      s.win.Restore,
	}
}

func (s *Service) minimize() step {
	return step{
		edge:      types.EdgeMinimize,
		satisfied: s.win.IsMinimized,
		call:      s.win.Minimize,
	}
}

func (s *Service) enterFullScreen() step {
	return step{
		edge:      types.EdgeEnterFullScreen,
		satisfied: s.win.IsFullScreen,
		call:      func() error { return s.win.SetFullScreen(true) },
	}
}

func (s *Service) leaveFullScreen() step {
	return step{
		edge:      types.EdgeLeaveFullScreen,
		satisfied: func() bool { return !s.win.IsFullScreen() },
		call:      func() error { return s.win.SetFullScreen(false) },
	}
}

// setState drives the window into target one confirmed edge at a time
func (s *Service) setState(ctx context.Context, target types.DisplayState) error {
	logging.Debug().
		Str("from", string(s.state.Value())).
		Str("to", string(target)).
		Msg("set state")

	switch target {
	case types.StateNormal:
		return s.confirm.sequence(ctx, s.unmaximize(), s.restore(), s.leaveFullScreen())
	case types.StateMaximized:
		return s.confirm.sequence(ctx, s.restore(), s.leaveFullScreen(), s.maximize())
	case types.StateMinimized:
		return s.confirm.sequence(ctx, s.minimize())
	case types.StateFullscreen:
		return s.confirm.sequence(ctx, s.restore(), s.enterFullScreen())
	default:
		invariant.Unreachable("unknown display state", target)
		return nil
	}
}

// enterWidget remembers the edit state and geometry, then shrinks the window
// to the widget size in the normal state. Leaving edit mode while minimized
// keeps the state the window was in before it was minimized, so returning to
// edit mode brings the window back up instead of minimizing it again.
func (s *Service) enterWidget(ctx context.Context) error {
	if s.mode.Value() == types.ModeWidget {
		return nil
	}

	if cur := native.DisplayState(s.win); !cur.Transient() {
		s.lastState.Set(cur)
	}
	s.mode.Set(types.ModeWidget)

	if err := s.confirm.sequence(ctx, s.unmaximize(), s.restore(), s.leaveFullScreen()); err != nil {
		return err
	}

	size, minimum := s.win.Size(), s.win.MinimumSize()
	s.session.Update(func(sess *state.Session) {
		sess.EditSize = size
		sess.EditMinimumSize = minimum
	})
	logging.Debug().
		Str("editSize", size.String()).
		Str("editMinimumSize", minimum.String()).
		Str("lastState", string(s.lastState.Value())).
		Msg("entered widget mode")

	return s.setSize(ctx, s.opts.WidgetSize)
}

// enterEdit restores the remembered geometry and display state
func (s *Service) enterEdit(ctx context.Context) error {
	if s.mode.Value() == types.ModeEdit {
		return nil
	}
	s.mode.Set(types.ModeEdit)

	sess := s.session.Snapshot()
	if sess.EditMinimumSize != (types.Vec2{}) {
		if err := s.setMinimumSize(ctx, sess.EditMinimumSize); err != nil {
			return err
		}
	}
	if sess.EditSize != (types.Vec2{}) {
		if err := s.setSize(ctx, sess.EditSize); err != nil {
			return err
		}
	}

	target := s.lastState.Value()
	logging.Debug().Str("state", string(target)).Msg("entered edit mode")
	return s.setState(ctx, target)
}
