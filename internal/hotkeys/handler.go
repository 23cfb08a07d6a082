package hotkeys

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/keybind"
	"github.com/BurntSushi/xgbutil/xevent"
)

// Action names what a hotkey does.
type Action string

const (
	// ActionPlanned computes a placement from the display catalog.
	ActionPlanned Action = "planned"
	// ActionFixed uses the fixed-size placement beside the current display.
	ActionFixed Action = "fixed"
)

// ParseAction validates an action name.
func ParseAction(s string) (Action, error) {
	switch Action(s) {
	case ActionPlanned, ActionFixed:
		return Action(s), nil
	case "":
		return ActionPlanned, nil
	}
	return "", fmt.Errorf("unknown action %q (want %s or %s)", s, ActionPlanned, ActionFixed)
}

// Binding ties a key sequence such as "Mod4-Shift-o" to an action.
type Binding struct {
	Action   Action
	Sequence string
}

// Bindings returns the enabled bindings. Empty sequences are skipped.
func Bindings(planned, fixed string) []Binding {
	var out []Binding
	if planned != "" {
		out = append(out, Binding{Action: ActionPlanned, Sequence: planned})
	}
	if fixed != "" {
		out = append(out, Binding{Action: ActionFixed, Sequence: fixed})
	}
	return out
}

// Handler manages global keyboard shortcuts
type Handler struct {
	xu     *xgbutil.XUtil
	root   xproto.Window
	logger *slog.Logger

	parse    func(sequence string) error
	register func(sequence string, callback func()) error
	detach   func()

	mu    sync.Mutex
	bound []Binding
	fire  func(Action)
}

var ignoreModsOnce sync.Once

// NewHandler creates a new hotkey handler on the root window.
func NewHandler(xu *xgbutil.XUtil, root xproto.Window, logger *slog.Logger) *Handler {
	ignoreModsOnce.Do(func() {
		configureIgnoreMods(xu)
	})

	h := &Handler{
		xu:     xu,
		root:   root,
		logger: logger,
	}
	h.parse = func(sequence string) error {
		_, _, err := keybind.ParseString(xu, sequence)
		return err
	}
	h.register = h.RegisterFunc
	h.detach = func() { keybind.Detach(xu, root) }
	return h
}

// Validate checks that every sequence names keys present in the current
// keymap. Nothing is grabbed.
func (h *Handler) Validate(bindings []Binding) error {
	for _, b := range bindings {
		if err := h.parse(b.Sequence); err != nil {
			return fmt.Errorf("invalid %s hotkey %q: %w", b.Action, b.Sequence, err)
		}
	}
	return nil
}

// Bind replaces every registered hotkey with bindings. fire runs on the X
// event loop goroutine. The previous bindings stay in place when bindings do
// not validate, and are restored when a grab fails part way.
func (h *Handler) Bind(bindings []Binding, fire func(Action)) error {
	if err := h.Validate(bindings); err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	prev, prevFire := h.bound, h.fire
	if err := h.grab(bindings, fire); err != nil {
		if len(prev) > 0 {
			if rerr := h.grab(prev, prevFire); rerr != nil {
				h.logger.Error("failed to restore previous hotkeys", "error", rerr)
			} else {
				h.logger.Warn("restored previous hotkeys", "count", len(prev))
			}
		}
		return err
	}
	return nil
}

// grab drops every grab and registers bindings. Nothing stays grabbed when a
// registration fails.
func (h *Handler) grab(bindings []Binding, fire func(Action)) error {
	h.detach()
	h.bound = nil
	h.fire = fire

	for _, b := range bindings {
		b := b
		if err := h.register(b.Sequence, func() {
			h.logger.Info("hotkey triggered", "action", b.Action, "keys", b.Sequence)
			fire(b.Action)
		}); err != nil {
			h.detach()
			h.bound = nil
			return fmt.Errorf("failed to register %s hotkey %q: %w", b.Action, b.Sequence, err)
		}
		h.bound = append(h.bound, b)
		h.logger.Debug("registered hotkey", "action", b.Action, "keys", b.Sequence)
	}
	return nil
}

// Bound returns the currently registered bindings.
func (h *Handler) Bound() []Binding {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]Binding(nil), h.bound...)
}

// RegisterFunc registers an arbitrary hotkey callback.
func (h *Handler) RegisterFunc(keySequence string, callback func()) error {
	return keybind.KeyPressFun(func(xu *xgbutil.XUtil, ev xevent.KeyPressEvent) {
		callback()
	}).Connect(h.xu, h.root, keySequence, true)
}

// Close releases every grab.
func (h *Handler) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.detach()
	h.bound = nil
}

func configureIgnoreMods(xu *xgbutil.XUtil) {
	// Always ignore CapsLock.
	caps := uint16(xproto.ModMaskLock)

	numLock := modMaskForKeysym(xu, "Num_Lock")
	scrollLock := modMaskForKeysym(xu, "Scroll_Lock")

	base := []uint16{caps}
	if numLock != 0 && numLock != caps {
		base = append(base, numLock)
	}
	if scrollLock != 0 && scrollLock != caps && scrollLock != numLock {
		base = append(base, scrollLock)
	}

	xevent.IgnoreMods = ignoreMasks(base)
}

// ignoreMasks returns every combination of the lock modifiers in base,
// including the empty mask.
func ignoreMasks(base []uint16) []uint16 {
	unique := map[uint16]struct{}{0: {}}
	ignore := []uint16{0}
	for subset := 1; subset < (1 << len(base)); subset++ {
		var mask uint16
		for bit := range base {
			if subset&(1<<bit) != 0 {
				mask |= base[bit]
			}
		}
		if _, ok := unique[mask]; ok {
			continue
		}
		unique[mask] = struct{}{}
		ignore = append(ignore, mask)
	}
	return ignore
}

func modMaskForKeysym(xu *xgbutil.XUtil, keysym string) uint16 {
	for _, keycode := range keybind.StrToKeycodes(xu, keysym) {
		if mask := keybind.ModGet(xu, keycode); mask != 0 {
			return mask
		}
	}
	return 0
}
