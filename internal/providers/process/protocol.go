package process

import "github.com/aretw0/scripthost/pkg/domain"

// Messages are exchanged as JSON lines over the child's stdin and stdout.
//
// Host to child: tick, key, result, continue, abort.
// Child to host: done, call, log, yield, wait, key_pressed, interval, pause,
// resume, abort.
//
// Every tick and key message is answered with done once the child finished
// handling it. call and key_pressed are answered with result; yield and
// wait with continue.
const (
	msgTick       = "tick"
	msgKey        = "key"
	msgResult     = "result"
	msgContinue   = "continue"
	msgAbort      = "abort"
	msgDone       = "done"
	msgCall       = "call"
	msgLog        = "log"
	msgYield      = "yield"
	msgWait       = "wait"
	msgKeyPressed = "key_pressed"
	msgInterval   = "interval"
	msgPause      = "pause"
	msgResume     = "resume"
)

type message struct {
	Type string `json:"type"`

	// key
	Key   string `json:"key,omitempty"`
	Code  int    `json:"code,omitempty"`
	Down  bool   `json:"down,omitempty"`
	Ctrl  bool   `json:"ctrl,omitempty"`
	Shift bool   `json:"shift,omitempty"`
	Alt   bool   `json:"alt,omitempty"`

	// call / result
	Name  string `json:"name,omitempty"`
	Args  []any  `json:"args,omitempty"`
	Value any    `json:"value,omitempty"`
	Error string `json:"error,omitempty"`

	// log
	Level string `json:"level,omitempty"`
	Msg   string `json:"msg,omitempty"`

	// wait / interval
	MS float64 `json:"ms,omitempty"`
}

func keyMessage(ev domain.KeyEvent) message {
	return message{
		Type:  msgKey,
		Key:   ev.Key.String(),
		Code:  int(ev.Key),
		Down:  ev.Down,
		Ctrl:  ev.Ctrl,
		Shift: ev.Shift,
		Alt:   ev.Alt,
	}
}
