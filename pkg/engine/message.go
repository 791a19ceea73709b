// Copyright 2025 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// For commercial licensing, contact: licensing@kraklabs.com
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package engine

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Kind discriminates response messages.
type Kind string

const (
	KindInit      Kind = "init"
	KindNode      Kind = "node"
	KindNodeEdits Kind = "node:edits"
	KindPrint     Kind = "print"
	KindWarn      Kind = "warn"
	KindErr       Kind = "err"
	KindFini      Kind = "fini"
)

// Label returns k for the known kinds and "other" for anything else, so
// that metrics keyed on kind stay bounded whatever an engine sends.
func (k Kind) Label() string {
	switch k {
	case KindInit, KindNode, KindNodeEdits, KindPrint, KindWarn, KindErr, KindFini:
		return string(k)
	default:
		return "other"
	}
}

// Message is one element of a response stream.
type Message struct {
	Kind    Kind
	Payload json.RawMessage
}

// NewMessage builds a message, encoding payload as JSON.
func NewMessage(kind Kind, payload any) (Message, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return Message{}, fmt.Errorf("encode %s payload: %w", kind, err)
	}
	return Message{Kind: kind, Payload: b}, nil
}

// PrintMessage returns a print message carrying text.
func PrintMessage(text string) Message {
	m, _ := NewMessage(KindPrint, map[string]string{"mesg": text})
	return m
}

// WarnMessage returns a warn message carrying text.
func WarnMessage(text string) Message {
	m, _ := NewMessage(KindWarn, map[string]string{"mesg": text})
	return m
}

// ErrMessage returns an err message in the [name, {"mesg": ...}] shape.
func ErrMessage(name, mesg string) Message {
	m, _ := NewMessage(KindErr, []any{name, map[string]string{"mesg": mesg}})
	return m
}

// MarshalJSON encodes the message as ["kind", payload].
func (m Message) MarshalJSON() ([]byte, error) {
	payload := m.Payload
	if len(payload) == 0 {
		payload = json.RawMessage("null")
	}
	kind, err := json.Marshal(string(m.Kind))
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	buf.WriteByte('[')
	buf.Write(kind)
	buf.WriteByte(',')
	if err := json.Compact(&buf, payload); err != nil {
		return nil, fmt.Errorf("compact %s payload: %w", m.Kind, err)
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes ["kind", payload]. A missing payload decodes as null.
func (m *Message) UnmarshalJSON(b []byte) error {
	var parts []json.RawMessage
	if err := json.Unmarshal(b, &parts); err != nil {
		return fmt.Errorf("message is not an array: %w", err)
	}
	if len(parts) == 0 || len(parts) > 2 {
		return fmt.Errorf("message must have 1 or 2 elements, got %d", len(parts))
	}

	var kind string
	if err := json.Unmarshal(parts[0], &kind); err != nil {
		return fmt.Errorf("message kind: %w", err)
	}
	m.Kind = Kind(kind)
	m.Payload = json.RawMessage("null")
	if len(parts) == 2 {
		m.Payload = append(json.RawMessage(nil), parts[1]...)
	}
	return nil
}

// String returns the raw single line representation of the message.
func (m Message) String() string {
	b, err := m.MarshalJSON()
	if err != nil {
		return fmt.Sprintf("[%q,%s]", m.Kind, string(m.Payload))
	}
	return string(b)
}

// Text extracts the human readable text of print, warn and err messages.
// It returns "" when the payload carries none.
func (m Message) Text() string {
	type info struct {
		Mesg string `json:"mesg"`
	}

	switch m.Kind {
	case KindErr:
		var parts []json.RawMessage
		if err := json.Unmarshal(m.Payload, &parts); err != nil || len(parts) < 2 {
			return ""
		}
		var i info
		_ = json.Unmarshal(parts[1], &i)
		return i.Mesg
	default:
		var i info
		if err := json.Unmarshal(m.Payload, &i); err != nil {
			return ""
		}
		return i.Mesg
	}
}

// ErrName returns the error name of an err message, or "".
func (m Message) ErrName() string {
	if m.Kind != KindErr {
		return ""
	}
	var parts []json.RawMessage
	if err := json.Unmarshal(m.Payload, &parts); err != nil || len(parts) == 0 {
		return ""
	}
	var name string
	_ = json.Unmarshal(parts[0], &name)
	return name
}

// Ndef returns the form and primary value of a node message.
func (m Message) Ndef() (form string, valu any, ok bool) {
	if m.Kind != KindNode {
		return "", nil, false
	}
	var node []json.RawMessage
	if err := json.Unmarshal(m.Payload, &node); err != nil || len(node) == 0 {
		return "", nil, false
	}
	var ndef []json.RawMessage
	if err := json.Unmarshal(node[0], &ndef); err != nil || len(ndef) != 2 {
		return "", nil, false
	}
	if err := json.Unmarshal(ndef[0], &form); err != nil {
		return "", nil, false
	}
	if err := json.Unmarshal(ndef[1], &valu); err != nil {
		return "", nil, false
	}
	return form, valu, true
}
