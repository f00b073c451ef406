package domain

import (
	"fmt"
	"strings"
)

// Key is a virtual key code in the range 1..254.
type Key uint8

// MaxKey is the highest key index tracked by the input relay.
const MaxKey Key = 254

// Common virtual key codes.
const (
	KeyBackspace Key = 0x08
	KeyTab       Key = 0x09
	KeyEnter     Key = 0x0D
	KeyShift     Key = 0x10
	KeyControl   Key = 0x11
	KeyMenu      Key = 0x12 // Alt
	KeyPause     Key = 0x13
	KeyEscape    Key = 0x1B
	KeySpace     Key = 0x20
	KeyPageUp    Key = 0x21
	KeyPageDown  Key = 0x22
	KeyEnd       Key = 0x23
	KeyHome      Key = 0x24
	KeyLeft      Key = 0x25
	KeyUp        Key = 0x26
	KeyRight     Key = 0x27
	KeyDown      Key = 0x28
	KeyInsert    Key = 0x2D
	KeyDelete    Key = 0x2E
	Key0         Key = 0x30
	KeyA         Key = 0x41
	KeyF1        Key = 0x70
	KeyLShift    Key = 0xA0
	KeyRShift    Key = 0xA1
	KeyLControl  Key = 0xA2
	KeyRControl  Key = 0xA3
	KeyLMenu     Key = 0xA4
	KeyRMenu     Key = 0xA5
)

var keyNames = map[Key]string{
	KeyBackspace: "Backspace",
	KeyTab:       "Tab",
	KeyEnter:     "Enter",
	KeyShift:     "Shift",
	KeyControl:   "Control",
	KeyMenu:      "Alt",
	KeyPause:     "Pause",
	KeyEscape:    "Escape",
	KeySpace:     "Space",
	KeyPageUp:    "PageUp",
	KeyPageDown:  "PageDown",
	KeyEnd:       "End",
	KeyHome:      "Home",
	KeyLeft:      "Left",
	KeyUp:        "Up",
	KeyRight:     "Right",
	KeyDown:      "Down",
	KeyInsert:    "Insert",
	KeyDelete:    "Delete",
	KeyLShift:    "LShift",
	KeyRShift:    "RShift",
	KeyLControl:  "LControl",
	KeyRControl:  "RControl",
	KeyLMenu:     "LAlt",
	KeyRMenu:     "RAlt",
}

func (k Key) String() string {
	if name, ok := keyNames[k]; ok {
		return name
	}
	switch {
	case k >= Key0 && k <= Key0+9:
		return string(rune('0' + (k - Key0)))
	case k >= KeyA && k < KeyA+26:
		return string(rune('A' + (k - KeyA)))
	case k >= KeyF1 && k < KeyF1+24:
		return fmt.Sprintf("F%d", k-KeyF1+1)
	}
	return fmt.Sprintf("0x%02X", uint8(k))
}

// ParseKey resolves a key name ("Insert", "F5", "A") or a hex code ("0x2D").
// Names are case-insensitive.
func ParseKey(s string) (Key, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty key name")
	}
	var code uint8
	if _, err := fmt.Sscanf(strings.ToLower(s), "0x%x", &code); err == nil {
		if code == 0 || Key(code) > MaxKey {
			return 0, fmt.Errorf("key code out of range: %s", s)
		}
		return Key(code), nil
	}
	for k := Key(1); k <= MaxKey; k++ {
		if strings.EqualFold(k.String(), s) {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown key: %s", s)
}

// KeyEvent is a single key transition with the modifier state at detection time.
type KeyEvent struct {
	Key   Key  `json:"key"`
	Down  bool `json:"down"`
	Ctrl  bool `json:"ctrl"`
	Shift bool `json:"shift"`
	Alt   bool `json:"alt"`
}

func (e KeyEvent) String() string {
	var b strings.Builder
	if e.Ctrl {
		b.WriteString("Ctrl+")
	}
	if e.Shift {
		b.WriteString("Shift+")
	}
	if e.Alt {
		b.WriteString("Alt+")
	}
	b.WriteString(e.Key.String())
	if e.Down {
		b.WriteString(" down")
	} else {
		b.WriteString(" up")
	}
	return b.String()
}
