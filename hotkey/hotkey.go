// Package hotkey parses key combinations and binds them as global hotkeys.
package hotkey

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrUnsupported is returned by Register on platforms without global
// hotkeys.
var ErrUnsupported = errors.New("global hotkeys are not supported on this platform")

// ErrConflict is returned by Register when an exclusive hotkey is already
// taken.
var ErrConflict = errors.New("hotkey is already registered")

// Modifiers is a set of modifier keys. The values match the Windows
// RegisterHotKey flags.
type Modifiers uint32

const (
	Alt   Modifiers = 0x1
	Ctrl  Modifiers = 0x2
	Shift Modifiers = 0x4
	Win   Modifiers = 0x8
)

var modifierNames = map[string]Modifiers{
	"ctrl":    Ctrl,
	"control": Ctrl,
	"alt":     Alt,
	"shift":   Shift,
	"win":     Win,
	"windows": Win,
	"super":   Win,
}

// A Combo is a key combination: zero or more modifiers plus one key. Key is
// a Windows virtual-key code.
type Combo struct {
	Modifiers Modifiers
	Key       uint32
}

// Parse parses a "+"-joined combination such as "ctrl+alt+t". Names are
// case-insensitive.
func Parse(s string) (Combo, error) {
	if strings.TrimSpace(s) == "" {
		return Combo{}, errors.New("empty hotkey")
	}
	var (
		c      Combo
		hasKey bool
	)
	for _, tok := range strings.Split(s, "+") {
		name := strings.ToLower(strings.TrimSpace(tok))
		if mod, ok := modifierNames[name]; ok {
			c.Modifiers |= mod
			continue
		}
		vk, ok := keyCodes[name]
		if !ok {
			return Combo{}, fmt.Errorf("unknown key %q in hotkey %q", tok, s)
		}
		if hasKey {
			return Combo{}, fmt.Errorf("hotkey %q has more than one key", s)
		}
		c.Key, hasKey = vk, true
	}
	if !hasKey {
		return Combo{}, fmt.Errorf("hotkey %q has no key", s)
	}
	return c, nil
}

// String renders the combo canonically, eg "ctrl+alt+t".
func (c Combo) String() string {
	var parts []string
	for _, m := range []struct {
		mod  Modifiers
		name string
	}{{Ctrl, "ctrl"}, {Alt, "alt"}, {Shift, "shift"}, {Win, "win"}} {
		if c.Modifiers&m.mod != 0 {
			parts = append(parts, m.name)
		}
	}
	return strings.Join(append(parts, keyName(c.Key)), "+")
}

// A Binding is a registered hotkey.
type Binding interface {
	// Close unregisters the hotkey. When it returns, the callback will
	// not be invoked again.
	Close() error
}

// Register binds fn to a global hotkey. fn is called on its own goroutine,
// once per physical press; auto-repeat is ignored.
//
// If suppress is set, the hotkey is registered exclusively and the keystroke
// is consumed. Otherwise it is observed passively and still reaches the
// foreground application.
var Register = register

type closer func() error

func (c closer) Close() error { return c() }

var keyCodes = map[string]uint32{
	"space": 0x20, "enter": 0x0D, "return": 0x0D, "tab": 0x09,
	"esc": 0x1B, "escape": 0x1B, "backspace": 0x08,
	"insert": 0x2D, "delete": 0x2E, "del": 0x2E,
	"home": 0x24, "end": 0x23, "pageup": 0x21, "page_up": 0x21, "pagedown": 0x22, "page_down": 0x22,
	"left": 0x25, "up": 0x26, "right": 0x27, "down": 0x28,
	"pause": 0x13, "printscreen": 0x2C, "print_screen": 0x2C, "capslock": 0x14, "apps": 0x5D,
	"volume_mute": 0xAD, "volume_down": 0xAE, "volume_up": 0xAF,
	"media_next": 0xB0, "media_prev": 0xB1, "media_stop": 0xB2, "media_play_pause": 0xB3,
	";": 0xBA, "plus": 0xBB, "=": 0xBB, ",": 0xBC, "-": 0xBD, "minus": 0xBD, ".": 0xBE,
	"/": 0xBF, "`": 0xC0, "[": 0xDB, "\\": 0xDC, "]": 0xDD, "'": 0xDE,
}

func init() {
	for c := 'a'; c <= 'z'; c++ {
		keyCodes[string(c)] = uint32(c - 'a' + 0x41)
	}
	for c := '0'; c <= '9'; c++ {
		keyCodes[string(c)] = uint32(c - '0' + 0x30)
		keyCodes["num"+string(c)] = uint32(c - '0' + 0x60)
	}
	for i := 1; i <= 24; i++ {
		keyCodes[fmt.Sprintf("f%d", i)] = uint32(0x70 + i - 1)
	}
}

// keyName returns the shortest name of a key code. Ties go to the name that
// sorts first, so that rendering is stable.
func keyName(vk uint32) string {
	var names []string
	for name, code := range keyCodes {
		if code == vk {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return fmt.Sprintf("0x%02X", vk)
	}
	sort.Slice(names, func(i, j int) bool {
		if len(names[i]) != len(names[j]) {
			return len(names[i]) < len(names[j])
		}
		return names[i] < names[j]
	})
	return names[0]
}
