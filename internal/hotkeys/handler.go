// Package hotkeys grabs the global panel shortcut on the X root window.
package hotkeys

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/keybind"
	"github.com/BurntSushi/xgbutil/xevent"
)

// Handler manages the global keyboard shortcut. Callbacks run on the X
// event loop goroutine.
type Handler struct {
	xu       *xgbutil.XUtil
	root     xproto.Window
	logger   *slog.Logger
	sequence string
	callback func()
}

var ignoreModsOnce sync.Once

// NewHandler creates a new hotkey handler.
func NewHandler(xu *xgbutil.XUtil, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}

	ignoreModsOnce.Do(func() {
		configureIgnoreMods(xu)
	})

	return &Handler{
		xu:     xu,
		root:   xu.RootWin(),
		logger: logger.With("component", "hotkeys"),
	}
}

// Register grabs keySequence and runs callback on every press.
func (h *Handler) Register(keySequence string, callback func()) error {
	h.callback = callback
	seq := Normalize(keySequence)
	if _, _, err := keybind.ParseString(h.xu, seq); err != nil {
		return fmt.Errorf("invalid hotkey %q: %w", keySequence, err)
	}

	err := keybind.KeyPressFun(func(xu *xgbutil.XUtil, ev xevent.KeyPressEvent) {
		h.logger.Debug("hotkey pressed", "sequence", seq)
		callback()
	}).Connect(h.xu, h.root, seq, true)
	if err != nil {
		return fmt.Errorf("failed to grab %q: %w", seq, err)
	}

	h.sequence = seq
	h.logger.Info("hotkey registered", "sequence", seq)
	return nil
}

// Rebind replaces the current grab with keySequence. On failure the
// previous binding is restored. It needs a prior Register call, even a
// failed one, for the callback.
func (h *Handler) Rebind(keySequence string) error {
	seq := Normalize(keySequence)
	if seq == h.sequence || h.callback == nil {
		return nil
	}
	prev := h.sequence

	keybind.Detach(h.xu, h.root)
	if err := h.Register(seq, h.callback); err != nil {
		if prev == "" {
			return err
		}
		if restoreErr := h.Register(prev, h.callback); restoreErr != nil {
			h.logger.Error("failed to restore previous hotkey", "sequence", prev, "error", restoreErr)
		}
		return err
	}
	return nil
}

// Sequence returns the currently grabbed sequence.
func (h *Handler) Sequence() string {
	return h.sequence
}

// Close releases the grab.
func (h *Handler) Close() {
	keybind.Detach(h.xu, h.root)
	h.sequence = ""
}

var modifierAliases = map[string]string{
	"super":   "Mod4",
	"win":     "Mod4",
	"meta":    "Mod4",
	"cmd":     "Mod4",
	"alt":     "Mod1",
	"option":  "Mod1",
	"ctrl":    "Control",
	"control": "Control",
	"shift":   "Shift",
}

// Normalize rewrites friendly modifier names ("Super+Shift+V", "ctrl-alt-p")
// into the Mod-KEY form keybind expects.
func Normalize(seq string) string {
	seq = strings.TrimSpace(seq)
	if seq == "" {
		return ""
	}
	parts := strings.FieldsFunc(seq, func(r rune) bool { return r == '-' || r == '+' })
	if len(parts) == 0 {
		return seq
	}
	for i, p := range parts[:len(parts)-1] {
		if alias, ok := modifierAliases[strings.ToLower(p)]; ok {
			parts[i] = alias
		}
	}
	key := parts[len(parts)-1]
	if len([]rune(key)) == 1 {
		key = strings.ToLower(key)
	}
	parts[len(parts)-1] = key
	return strings.Join(parts, "-")
}

func configureIgnoreMods(xu *xgbutil.XUtil) {
	// Always ignore CapsLock.
	caps := uint16(xproto.ModMaskLock)

	numLock := modMaskForKeysym(xu, "Num_Lock")
	scrollLock := modMaskForKeysym(xu, "Scroll_Lock")

	unique := make(map[uint16]struct{})
	add := func(mask uint16) {
		unique[mask] = struct{}{}
	}

	add(0)
	base := []uint16{caps}
	if numLock != 0 && numLock != caps {
		base = append(base, numLock)
	}
	if scrollLock != 0 && scrollLock != caps && scrollLock != numLock {
		base = append(base, scrollLock)
	}

	for subset := 1; subset < (1 << len(base)); subset++ {
		var mask uint16
		for bit := range base {
			if subset&(1<<bit) != 0 {
				mask |= base[bit]
			}
		}
		add(mask)
	}

	ignore := make([]uint16, 0, len(unique))
	for mask := range unique {
		ignore = append(ignore, mask)
	}

	xevent.IgnoreMods = ignore
}

func modMaskForKeysym(xu *xgbutil.XUtil, keysym string) uint16 {
	for _, keycode := range keybind.StrToKeycodes(xu, keysym) {
		if mask := keybind.ModGet(xu, keycode); mask != 0 {
			return mask
		}
	}
	return 0
}
