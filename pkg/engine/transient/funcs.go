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

package transient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/expr-lang/expr"

	"github.com/kraklabs/graphload/pkg/engine"
	"github.com/kraklabs/graphload/pkg/storage"
)

// run holds the state of one submission.
type run struct {
	ctx     context.Context
	backend storage.Backend
	view    string
	edits   bool

	msgs   []engine.Message
	count  int
	raised error
}

func (r *run) functions() []expr.Option {
	return []expr.Option{
		expr.Function("json", r.jsonFunc),
		expr.Function("node", r.nodeFunc),
		expr.Function("tag", r.tagFunc),
		expr.Function("print", r.printFunc),
		expr.Function("warn", r.warnFunc),
		expr.Function("fail", r.failFunc),
	}
}

func (r *run) emit(kind engine.Kind, payload any) {
	m, err := engine.NewMessage(kind, payload)
	if err != nil {
		m = engine.ErrMessage("BadMesgValu", err.Error())
	}
	r.msgs = append(r.msgs, m)
}

func (r *run) emitNode(n storage.Node, edits []map[string]any) {
	if r.edits && len(edits) > 0 {
		r.emit(engine.KindNodeEdits, map[string]any{"edits": edits})
	}
	r.emit(engine.KindNode, []any{
		[]any{n.Form, n.Valu},
		map[string]any{"iden": n.Iden, "props": n.Props, "tags": n.Tags},
	})
	r.count++
}

func (r *run) jsonFunc(params ...any) (any, error) {
	if err := r.ctx.Err(); err != nil {
		return nil, err
	}
	if len(params) != 1 {
		return nil, fmt.Errorf("json() takes 1 argument, got %d", len(params))
	}
	s, ok := params[0].(string)
	if !ok {
		return nil, fmt.Errorf("json() argument must be a string, got %T", params[0])
	}

	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return nil, fmt.Errorf("json() invalid document: %w", err)
	}
	return v, nil
}

func (r *run) nodeFunc(params ...any) (any, error) {
	if err := r.ctx.Err(); err != nil {
		return nil, err
	}
	if len(params) < 2 || len(params) > 3 {
		return nil, fmt.Errorf("node() takes 2 or 3 arguments, got %d", len(params))
	}
	form, ok := params[0].(string)
	if !ok {
		return nil, fmt.Errorf("node() form must be a string, got %T", params[0])
	}

	var props map[string]any
	if len(params) == 3 && params[2] != nil {
		props, ok = params[2].(map[string]any)
		if !ok {
			return nil, fmt.Errorf("node() props must be a map, got %T", params[2])
		}
	}

	n, created, err := r.backend.PutNode(r.ctx, r.view, form, params[1], props)
	if err != nil {
		return nil, err
	}

	var edits []map[string]any
	if created {
		edits = append(edits, map[string]any{"type": "node:add", "iden": n.Iden, "form": n.Form, "valu": n.Valu})
	}
	for _, name := range slices.Sorted(maps.Keys(props)) {
		edits = append(edits, map[string]any{"type": "prop:set", "iden": n.Iden, "prop": name, "valu": props[name]})
	}
	r.emitNode(n, edits)

	return map[string]any{"iden": n.Iden, "form": n.Form, "valu": n.Valu}, nil
}

func (r *run) tagFunc(params ...any) (any, error) {
	if err := r.ctx.Err(); err != nil {
		return nil, err
	}
	if len(params) != 3 {
		return nil, fmt.Errorf("tag() takes 3 arguments, got %d", len(params))
	}
	form, ok := params[0].(string)
	if !ok {
		return nil, fmt.Errorf("tag() form must be a string, got %T", params[0])
	}
	tag, ok := params[2].(string)
	if !ok {
		return nil, fmt.Errorf("tag() tag must be a string, got %T", params[2])
	}

	n, added, err := r.backend.AddTag(r.ctx, r.view, form, params[1], tag)
	if err != nil {
		return nil, err
	}

	var edits []map[string]any
	if added {
		edits = append(edits, map[string]any{"type": "tag:add", "iden": n.Iden, "tag": tag})
	}
	r.emitNode(n, edits)

	return map[string]any{"iden": n.Iden, "form": n.Form, "valu": n.Valu}, nil
}

func (r *run) printFunc(params ...any) (any, error) {
	text, err := format("print", params)
	if err != nil {
		return nil, err
	}
	r.msgs = append(r.msgs, engine.PrintMessage(text))
	return nil, nil
}

func (r *run) warnFunc(params ...any) (any, error) {
	text, err := format("warn", params)
	if err != nil {
		return nil, err
	}
	r.msgs = append(r.msgs, engine.WarnMessage(text))
	return nil, nil
}

func (r *run) failFunc(params ...any) (any, error) {
	text, err := format("fail", params)
	if err != nil {
		return nil, err
	}
	r.raised = errors.New(text)
	return nil, r.raised
}

// format applies fmt.Sprintf when the first argument is a string and more
// arguments follow.
func format(name string, params []any) (string, error) {
	if len(params) == 0 {
		return "", fmt.Errorf("%s() takes at least 1 argument", name)
	}
	f, ok := params[0].(string)
	if !ok {
		return fmt.Sprint(params...), nil
	}
	if len(params) == 1 {
		return f, nil
	}
	return fmt.Sprintf(f, params[1:]...), nil
}
