package playlist

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
)

// State is the transport-safe form of a session. It never aliases the
// session it was taken from.
type State struct {
	MediaSegments []MediaSegment `json:"mediaSegments"`
	Config        SessionConfig  `json:"config"`
	Meta          SessionMeta    `json:"meta"`
}

// Serialize returns a detached snapshot of s.
func Serialize(s *Session) State {
	return s.State()
}

// Marshal serializes s to its JSON wire form.
func Marshal(s *Session) ([]byte, error) {
	return json.Marshal(s.State())
}

// FromState rebuilds a session from a snapshot. Segments are installed as
// they are; the history is trusted and not resolved again.
func FromState(st State) (*Session, error) {
	if st.Meta.ID == "" {
		return nil, &ValidationError{Field: "meta.id", Reason: "must be a non-empty string"}
	}
	if !ValidName(st.Meta.ID) {
		return nil, &ValidationError{Field: "meta.id", Reason: nameReason}
	}
	s, err := NewSession(st.Meta.ID, st.Config)
	if err != nil {
		return nil, err
	}
	s.segments = cloneSegments(st.MediaSegments)
	s.meta = st.Meta
	return s, nil
}

// Deserialize validates a JSON state object and rebuilds the session it
// describes. The returned error is a *ValidationError naming the first
// offending field.
func Deserialize(data []byte) (*Session, error) {
	st, err := decodeState(data)
	if err != nil {
		return nil, err
	}
	return FromState(st)
}

type object map[string]json.RawMessage

func decodeState(data []byte) (State, error) {
	var st State

	root, err := asObject("state", data)
	if err != nil {
		return st, err
	}

	rawSegs, err := root.array("mediaSegments")
	if err != nil {
		return st, err
	}

	cfg, err := root.object("config")
	if err != nil {
		return st, err
	}
	if st.Config.TargetDuration, err = cfg.integer("config", "targetDuration"); err != nil {
		return st, err
	}
	if st.Config.WindowLength, err = cfg.integer("config", "windowLength"); err != nil {
		return st, err
	}

	meta, err := root.object("meta")
	if err != nil {
		return st, err
	}
	if st.Meta.ID, err = meta.str("meta", "id"); err != nil {
		return st, err
	}
	flags := []struct {
		name string
		dst  *bool
	}{
		{"shouldBeAvailable", &st.Meta.ShouldBeAvailable},
		{"isAvailable", &st.Meta.IsAvailable},
		{"shouldFinish", &st.Meta.ShouldFinish},
		{"isFinished", &st.Meta.IsFinished},
	}
	for _, f := range flags {
		if *f.dst, err = meta.boolean("meta", f.name); err != nil {
			return st, err
		}
	}

	st.MediaSegments = make([]MediaSegment, 0, len(rawSegs))
	for i, raw := range rawSegs {
		prefix := fmt.Sprintf("mediaSegments[%d]", i)
		seg, err := asObject(prefix, raw)
		if err != nil {
			return st, err
		}
		var m MediaSegment
		if m.Duration, err = seg.number(prefix, "duration"); err != nil {
			return st, err
		}
		if m.TimeElapsed, err = seg.number(prefix, "timeElapsed"); err != nil {
			return st, err
		}
		if m.MediaSequence, err = seg.integer(prefix, "mediaSequence"); err != nil {
			return st, err
		}
		if m.DiscontinuitySequence, err = seg.integer(prefix, "discontinuitySequence"); err != nil {
			return st, err
		}
		st.MediaSegments = append(st.MediaSegments, m)
	}

	return st, nil
}

func asObject(field string, raw json.RawMessage) (object, error) {
	if jsonKind(raw) != '{' {
		return nil, &ValidationError{Field: field, Reason: "must be an object"}
	}
	var o object
	if err := json.Unmarshal(raw, &o); err != nil {
		return nil, &ValidationError{Field: field, Reason: err.Error()}
	}
	return o, nil
}

func (o object) array(name string) ([]json.RawMessage, error) {
	raw := o[name]
	if jsonKind(raw) != '[' {
		return nil, &ValidationError{Field: name, Reason: "must be an array"}
	}
	var out []json.RawMessage
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, &ValidationError{Field: name, Reason: err.Error()}
	}
	return out, nil
}

func (o object) object(name string) (object, error) {
	return asObject(name, o[name])
}

func (o object) number(prefix, name string) (float64, error) {
	raw := o[name]
	k := jsonKind(raw)
	if k != '-' && (k < '0' || k > '9') {
		return 0, &ValidationError{Field: prefix + "." + name, Reason: "must be a number"}
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		return 0, &ValidationError{Field: prefix + "." + name, Reason: "must be a number"}
	}
	return f, nil
}

func (o object) integer(prefix, name string) (int, error) {
	f, err := o.number(prefix, name)
	if err != nil {
		return 0, err
	}
	if f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
		return 0, &ValidationError{Field: prefix + "." + name, Reason: "must be an integer"}
	}
	return int(f), nil
}

func (o object) str(prefix, name string) (string, error) {
	var s string
	if jsonKind(o[name]) != '"' || json.Unmarshal(o[name], &s) != nil {
		return "", &ValidationError{Field: prefix + "." + name, Reason: "must be a string"}
	}
	return s, nil
}

func (o object) boolean(prefix, name string) (bool, error) {
	var b bool
	k := jsonKind(o[name])
	if (k != 't' && k != 'f') || json.Unmarshal(o[name], &b) != nil {
		return false, &ValidationError{Field: prefix + "." + name, Reason: "must be a boolean"}
	}
	return b, nil
}

// jsonKind returns the first significant byte of a JSON value, or 0 when absent.
func jsonKind(raw json.RawMessage) byte {
	raw = bytes.TrimLeft(raw, " \t\r\n")
	if len(raw) == 0 {
		return 0
	}
	return raw[0]
}
