package validator

import (
	"github.com/goliatone/go-formguard/pkg/rules"
)

// EventType names a user interaction the validator reacts to.
type EventType int

const (
	FocusIn EventType = iota
	FocusOut
	KeyUp
	Click
)

func (t EventType) String() string {
	switch t {
	case FocusIn:
		return "focusin"
	case FocusOut:
		return "focusout"
	case KeyUp:
		return "keyup"
	case Click:
		return "click"
	default:
		return "unknown"
	}
}

// KeyTab is the key code of the tab key.
const KeyTab = 9

// Event is an interaction on a field. Key is the key code of KeyUp events.
type Event struct {
	Type EventType
	Name string
	Key  int
}

// EventHandler reacts to an event.
type EventHandler func(v *Validator, e Event) error

// Shift, ctrl, alt, caps lock, end, home, the arrows, insert, num lock and
// AltGr never trigger validation.
var excludedKeys = map[int]bool{
	16: true, 17: true, 18: true, 20: true, 35: true, 36: true, 37: true,
	38: true, 39: true, 40: true, 45: true, 144: true, 225: true,
}

func defaultEvents() map[EventType]EventHandler {
	return map[EventType]EventHandler{
		FocusIn:  onFocusIn,
		FocusOut: onFocusOut,
		KeyUp:    onKeyUp,
		Click:    onClick,
	}
}

// HandleEvent dispatches an interaction to its handler. Events on ignored
// or disabled fields are dropped.
func (v *Validator) HandleEvent(e Event) error {
	h := v.events[e.Type]
	if h == nil {
		return nil
	}
	v.mu.Lock()
	destroyed, ok := v.destroyed, v.validatable(e.Name)
	v.mu.Unlock()
	if destroyed {
		return ErrDestroyed
	}
	if !ok {
		return nil
	}
	return h(v, e)
}

func onFocusIn(v *Validator, e Event) error {
	v.mu.Lock()
	v.lastActive = e.Name
	fx := &effects{}
	if v.focusCleanup {
		fx.unhighlightAll(v.form.ByName(e.Name))
	}
	v.mu.Unlock()
	v.run(fx)
	return nil
}

// onFocusOut validates a text field the user leaves once it failed before
// or when it is not empty and optional.
func onFocusOut(v *Validator, e Event) error {
	v.mu.Lock()
	c := v.form.First(e.Name)
	_, submitted := v.submitted[e.Name]
	validate := c != nil && !c.Checkable() && (submitted || !v.optional(e.Name))
	v.mu.Unlock()
	if !validate {
		return nil
	}
	_, err := v.Element(e.Name)
	return err
}

// onKeyUp re-validates fields that already failed or were validated.
func onKeyUp(v *Validator, e Event) error {
	if excludedKeys[e.Key] {
		return nil
	}
	v.mu.Lock()
	if e.Key == KeyTab && !rules.Filled(v.elementValue(e.Name)) {
		v.mu.Unlock()
		return nil
	}
	_, submitted := v.submitted[e.Name]
	_, known := v.invalid[e.Name]
	v.mu.Unlock()
	if !submitted && !known {
		return nil
	}
	_, err := v.Element(e.Name)
	return err
}

// onClick re-validates checkboxes, radios and selects that already failed.
func onClick(v *Validator, e Event) error {
	v.mu.Lock()
	_, submitted := v.submitted[e.Name]
	v.mu.Unlock()
	if !submitted {
		return nil
	}
	_, err := v.Element(e.Name)
	return err
}

func (v *Validator) optional(name string) bool {
	value := v.elementValue(name)
	res, err := v.rulesFor(name)
	if err != nil {
		return true
	}
	return v.newFieldContext(name, res.Canonical, value).Optional()
}
