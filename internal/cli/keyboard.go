package cli

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/aretw0/scripthost/pkg/domain"
	"golang.org/x/term"
)

// releaseDelay is how long a decoded key stays down. Terminals report
// presses only, so the release is synthesized.
const releaseDelay = 70 * time.Millisecond

const ctrlC = 0x03

// KeySink receives key transitions.
type KeySink interface {
	KeyboardMessage(key domain.Key, pressed, ctrl, shift, alt bool)
}

var csiKeys = map[string]domain.Key{
	"A": domain.KeyUp, "B": domain.KeyDown, "C": domain.KeyRight, "D": domain.KeyLeft,
	"H": domain.KeyHome, "F": domain.KeyEnd,
	"2~": domain.KeyInsert, "3~": domain.KeyDelete,
	"1~": domain.KeyHome, "4~": domain.KeyEnd,
	"5~": domain.KeyPageUp, "6~": domain.KeyPageDown,
	"15~": domain.KeyF1 + 4, "17~": domain.KeyF1 + 5, "18~": domain.KeyF1 + 6,
	"19~": domain.KeyF1 + 7, "20~": domain.KeyF1 + 8, "21~": domain.KeyF1 + 9,
	"23~": domain.KeyF1 + 10, "24~": domain.KeyF1 + 11,
	"P": domain.KeyF1, "Q": domain.KeyF1 + 1, "R": domain.KeyF1 + 2, "S": domain.KeyF1 + 3,
}

var ss3Keys = map[byte]domain.Key{
	'P': domain.KeyF1, 'Q': domain.KeyF1 + 1, 'R': domain.KeyF1 + 2, 'S': domain.KeyF1 + 3,
	'A': domain.KeyUp, 'B': domain.KeyDown, 'C': domain.KeyRight, 'D': domain.KeyLeft,
	'H': domain.KeyHome, 'F': domain.KeyEnd,
}

// decodeKeys turns raw terminal input into key presses. interrupted is set
// when Ctrl+C was read; anything after it is dropped.
func decodeKeys(buf []byte) (events []domain.KeyEvent, interrupted bool) {
	for i := 0; i < len(buf); {
		b := buf[i]
		if b == ctrlC {
			return events, true
		}
		if b != 0x1b {
			if ev, ok := plainKey(b); ok {
				events = append(events, ev)
			}
			i++
			continue
		}

		// Lone escape.
		if i+1 >= len(buf) {
			events = append(events, domain.KeyEvent{Key: domain.KeyEscape, Down: true})
			i++
			continue
		}

		switch buf[i+1] {
		case '[':
			end := i + 2
			for end < len(buf) && (buf[end] < 0x40 || buf[end] > 0x7e) {
				end++
			}
			if end >= len(buf) {
				return events, false // truncated sequence
			}
			if ev, ok := csiKey(string(buf[i+2 : end+1])); ok {
				events = append(events, ev)
			}
			i = end + 1
		case 'O':
			if i+2 < len(buf) {
				if k, ok := ss3Keys[buf[i+2]]; ok {
					events = append(events, domain.KeyEvent{Key: k, Down: true})
				}
			}
			i += 3
		case 0x1b:
			events = append(events, domain.KeyEvent{Key: domain.KeyEscape, Down: true})
			i++
		default:
			// Meta prefix.
			if ev, ok := plainKey(buf[i+1]); ok {
				ev.Alt = true
				events = append(events, ev)
			}
			i += 2
		}
	}
	return events, false
}

func plainKey(b byte) (domain.KeyEvent, bool) {
	ev := domain.KeyEvent{Down: true}
	switch {
	case b == '\r' || b == '\n':
		ev.Key = domain.KeyEnter
	case b == '\t':
		ev.Key = domain.KeyTab
	case b == 0x7f || b == 0x08:
		ev.Key = domain.KeyBackspace
	case b == ' ':
		ev.Key = domain.KeySpace
	case b >= 'a' && b <= 'z':
		ev.Key = domain.KeyA + domain.Key(b-'a')
	case b >= 'A' && b <= 'Z':
		ev.Key = domain.KeyA + domain.Key(b-'A')
		ev.Shift = true
	case b >= '0' && b <= '9':
		ev.Key = domain.Key0 + domain.Key(b-'0')
	case b >= 0x01 && b <= 0x1a:
		ev.Key = domain.KeyA + domain.Key(b-0x01)
		ev.Ctrl = true
	default:
		return ev, false
	}
	return ev, true
}

// csiKey decodes the part of a CSI sequence after "ESC [", including xterm
// modifier parameters such as "1;5A" or "15;2~".
func csiKey(seq string) (domain.KeyEvent, bool) {
	ev := domain.KeyEvent{Down: true}
	final := seq[len(seq)-1:]
	params := strings.Split(seq[:len(seq)-1], ";")

	if len(params) == 2 {
		if mod, err := strconv.Atoi(params[1]); err == nil && mod > 1 {
			mod--
			ev.Shift = mod&1 != 0
			ev.Alt = mod&2 != 0
			ev.Ctrl = mod&4 != 0
		}
	}

	name := final
	if final == "~" {
		name = params[0] + "~"
	}
	k, ok := csiKeys[name]
	if !ok {
		return ev, false
	}
	ev.Key = k
	return ev, true
}

// runKeyboard puts the terminal in raw mode and forwards decoded keys to sink
// until ctx ends. Ctrl+C calls interrupt.
func runKeyboard(ctx context.Context, in *os.File, sink KeySink, interrupt func(), logger *slog.Logger) error {
	fd := int(in.Fd())
	state, err := term.MakeRaw(fd)
	if err != nil {
		logger.Warn("Keyboard input disabled", "error", err)
		return nil
	}
	defer func() { _ = term.Restore(fd, state) }()

	// The reader cannot be interrupted; it outlives the loop and exits with
	// the process.
	chunks := make(chan []byte, 8)
	go func() {
		defer close(chunks)
		buf := make([]byte, 64)
		for {
			n, err := in.Read(buf)
			if n > 0 {
				chunks <- bytes.Clone(buf[:n])
			}
			if err != nil {
				if err != io.EOF {
					logger.Debug("Keyboard read failed", "error", err)
				}
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case chunk, ok := <-chunks:
			if !ok {
				return nil
			}
			events, interrupted := decodeKeys(chunk)
			press(sink, events)
			if interrupted {
				interrupt()
				return nil
			}
		}
	}
}

func press(sink KeySink, events []domain.KeyEvent) {
	for _, ev := range events {
		sink.KeyboardMessage(ev.Key, true, ev.Ctrl, ev.Shift, ev.Alt)
		time.AfterFunc(releaseDelay, func() {
			sink.KeyboardMessage(ev.Key, false, ev.Ctrl, ev.Shift, ev.Alt)
		})
	}
}

// crlfWriter translates "\n" to "\r\n" for output written while the terminal
// is in raw mode.
type crlfWriter struct {
	w io.Writer
}

func (c crlfWriter) Write(p []byte) (int, error) {
	if _, err := c.w.Write(bytes.ReplaceAll(p, []byte("\n"), []byte("\r\n"))); err != nil {
		return 0, err
	}
	return len(p), nil
}
