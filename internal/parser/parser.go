// Package parser implements the Go side of the native-parser bridge (spec
// section 6): deserializing the ESTree-shaped JSON a native/JS parser
// produces into internal/ast node values. Every object is expected to carry
// a "type" discriminator tag and a "range": {start, end} byte-offset pair;
// an unknown discriminator is a hard decode error, not a best-effort skip.
package parser

import (
	"encoding/json"
	"fmt"

	"forgehir/internal/ast"
)

// DecodeError reports a JSON payload that does not conform to the ESTree
// grammar: an unknown "type" tag, a missing required field, or a malformed
// range.
type DecodeError struct {
	Pos     ast.Position
	Message string
}

func (e *DecodeError) Error() string { return fmt.Sprintf("%s: %s", e.Pos, e.Message) }

// raw is the shape every ESTree node shares before its variant-specific
// fields are decoded.
type raw struct {
	Type  string `json:"type"`
	Range struct {
		Start uint32 `json:"start"`
		End   uint32 `json:"end"`
	} `json:"range"`
	Loc *rawLoc `json:"loc,omitempty"`
}

type rawLoc struct {
	Start rawLineCol `json:"start"`
}

type rawLineCol struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

func decodeRaw(data []byte) (raw, map[string]json.RawMessage, error) {
	var r raw
	if err := json.Unmarshal(data, &r); err != nil {
		return raw{}, nil, &DecodeError{Message: "malformed node: " + err.Error()}
	}
	var props map[string]json.RawMessage
	if err := json.Unmarshal(data, &props); err != nil {
		return raw{}, nil, &DecodeError{Message: "malformed node fields: " + err.Error()}
	}
	return r, props, nil
}

// startPos is the node's opening byte offset; endPos its closing one. loc,
// when present, only ever carries the start line/column (spec 6: "loc is
// optional"), so endPos never has one.
func (r raw) startPos() ast.Position {
	p := ast.Position{Start: r.Range.Start, End: r.Range.Start}
	if r.Loc != nil {
		p.Line = r.Loc.Start.Line
		p.Column = r.Loc.Start.Column + 1
	}
	return p
}

func (r raw) endPos() ast.Position {
	return ast.Position{Start: r.Range.End, End: r.Range.End}
}

func field(props map[string]json.RawMessage, name string) (json.RawMessage, bool) {
	v, ok := props[name]
	if !ok || string(v) == "null" {
		return nil, false
	}
	return v, true
}

// ranger is satisfied by every concrete *ast.T via its promoted base method;
// composite literals outside package ast can set every exported field except
// the embedded base itself, so finish is how a deserializer stamps the range
// on afterward.
type ranger interface {
	SetRange(t ast.NodeType, start, end ast.Position)
}

func finish(n ranger, t ast.NodeType, start, end ast.Position) {
	n.SetRange(t, start, end)
}

// Decode parses a single JSON-encoded ESTree Program node.
func Decode(data []byte) (*ast.Program, error) {
	n, err := decodeNode(data)
	if err != nil {
		return nil, err
	}
	prog, ok := n.(*ast.Program)
	if !ok {
		return nil, &DecodeError{Message: "top-level node must be a Program"}
	}
	return prog, nil
}

func decodeNode(data []byte) (ast.Node, error) {
	r, props, err := decodeRaw(data)
	if err != nil {
		return nil, err
	}
	start, end := r.startPos(), r.endPos()

	switch r.Type {
	case "Program":
		body, err := decodeStatementList(props, "body")
		if err != nil {
			return nil, err
		}
		node := &ast.Program{Body: body}
		finish(node, ast.NodeProgram, start, end)
		return node, nil

	case "Identifier":
		name, err := stringField(props, "name", start)
		if err != nil {
			return nil, err
		}
		return ast.NewIdentifier(name, start, end), nil

	case "Literal":
		return decodeLiteral(props, start, end)

	case "BlockStatement":
		body, err := decodeStatementList(props, "body")
		if err != nil {
			return nil, err
		}
		node := &ast.BlockStatement{Body: body}
		finish(node, ast.NodeBlockStatement, start, end)
		return node, nil

	case "ExpressionStatement":
		expr, err := decodeExprField(props, "expression", start)
		if err != nil {
			return nil, err
		}
		node := &ast.ExpressionStatement{Expression: expr}
		finish(node, ast.NodeExpressionStatement, start, end)
		return node, nil

	case "EmptyStatement":
		node := &ast.EmptyStatement{}
		finish(node, ast.NodeEmptyStatement, start, end)
		return node, nil

	case "ReturnStatement":
		arg, err := decodeOptionalExprField(props, "argument")
		if err != nil {
			return nil, err
		}
		node := &ast.ReturnStatement{Argument: arg}
		finish(node, ast.NodeReturnStatement, start, end)
		return node, nil

	case "BreakStatement":
		label, err := decodeOptionalIdentField(props, "label")
		if err != nil {
			return nil, err
		}
		node := &ast.BreakStatement{Label: label}
		finish(node, ast.NodeBreakStatement, start, end)
		return node, nil

	case "ContinueStatement":
		label, err := decodeOptionalIdentField(props, "label")
		if err != nil {
			return nil, err
		}
		node := &ast.ContinueStatement{Label: label}
		finish(node, ast.NodeContinueStatement, start, end)
		return node, nil

	case "IfStatement":
		test, err := decodeExprField(props, "test", start)
		if err != nil {
			return nil, err
		}
		cons, err := decodeStmtField(props, "consequent", start)
		if err != nil {
			return nil, err
		}
		alt, err := decodeOptionalStmtField(props, "alternate")
		if err != nil {
			return nil, err
		}
		node := &ast.IfStatement{Test: test, Consequent: cons, Alternate: alt}
		finish(node, ast.NodeIfStatement, start, end)
		return node, nil

	case "ForStatement":
		var init ast.Node
		if initRaw, ok := field(props, "init"); ok {
			n, err := decodeNode(initRaw)
			if err != nil {
				return nil, err
			}
			init = n
		}
		test, err := decodeOptionalExprField(props, "test")
		if err != nil {
			return nil, err
		}
		update, err := decodeOptionalExprField(props, "update")
		if err != nil {
			return nil, err
		}
		body, err := decodeStmtField(props, "body", start)
		if err != nil {
			return nil, err
		}
		node := &ast.ForStatement{Init: init, Test: test, Update: update, Body: body}
		finish(node, ast.NodeForStatement, start, end)
		return node, nil

	case "LabeledStatement":
		label, err := decodeIdentField(props, "label", start)
		if err != nil {
			return nil, err
		}
		body, err := decodeStmtField(props, "body", start)
		if err != nil {
			return nil, err
		}
		node := &ast.LabeledStatement{Label: label, Body: body}
		finish(node, ast.NodeLabeledStatement, start, end)
		return node, nil

	case "SwitchStatement":
		disc, err := decodeExprField(props, "discriminant", start)
		if err != nil {
			return nil, err
		}
		casesRaw, err := arrayField(props, "cases")
		if err != nil {
			return nil, err
		}
		cases := make([]*ast.SwitchCase, 0, len(casesRaw))
		for _, c := range casesRaw {
			cr, cprops, err := decodeRaw(c)
			if err != nil {
				return nil, err
			}
			cstart, cend := cr.startPos(), cr.endPos()
			test, err := decodeOptionalExprField(cprops, "test")
			if err != nil {
				return nil, err
			}
			consequent, err := decodeStatementList(cprops, "consequent")
			if err != nil {
				return nil, err
			}
			cases = append(cases, ast.NewSwitchCase(test, consequent, cstart, cend))
		}
		node := &ast.SwitchStatement{Discriminant: disc, Cases: cases}
		finish(node, ast.NodeSwitchStatement, start, end)
		return node, nil

	case "VariableDeclaration":
		kindStr, err := stringField(props, "kind", start)
		if err != nil {
			return nil, err
		}
		kind, ok := ast.ParseVariableKind(kindStr)
		if !ok {
			return nil, &DecodeError{Pos: start, Message: "unknown variable declaration kind: " + kindStr}
		}
		declsRaw, err := arrayField(props, "declarations")
		if err != nil {
			return nil, err
		}
		decls := make([]*ast.VariableDeclarator, 0, len(declsRaw))
		for _, d := range declsRaw {
			dr, dprops, err := decodeRaw(d)
			if err != nil {
				return nil, err
			}
			dstart, dend := dr.startPos(), dr.endPos()
			id, err := decodePatternField(dprops, "id", dstart)
			if err != nil {
				return nil, err
			}
			init, err := decodeOptionalExprField(dprops, "init")
			if err != nil {
				return nil, err
			}
			decl := &ast.VariableDeclarator{ID: id, Init: init}
			finish(decl, ast.NodeVariableDeclarator, dstart, dend)
			decls = append(decls, decl)
		}
		node := &ast.VariableDeclaration{Kind: kind, Declarations: decls}
		finish(node, ast.NodeVariableDeclaration, start, end)
		return node, nil

	case "FunctionDeclaration":
		fn, err := decodeFunction(props, start, end, ast.NodeFunctionDeclaration, true)
		if err != nil {
			return nil, err
		}
		return &ast.FunctionDeclaration{Function: fn}, nil

	case "FunctionExpression":
		return decodeFunction(props, start, end, ast.NodeFunctionExpression, false)

	case "ArrowFunctionExpression":
		fn, err := decodeFunction(props, start, end, ast.NodeArrowFunctionExpression, false)
		if err != nil {
			return nil, err
		}
		fn.IsArrow = true
		return fn, nil

	case "BinaryExpression":
		opStr, err := stringField(props, "operator", start)
		if err != nil {
			return nil, err
		}
		op, ok := ast.ParseBinaryOperator(opStr)
		if !ok {
			return nil, &DecodeError{Pos: start, Message: "unknown binary operator: " + opStr}
		}
		left, err := decodeExprField(props, "left", start)
		if err != nil {
			return nil, err
		}
		right, err := decodeExprField(props, "right", start)
		if err != nil {
			return nil, err
		}
		node := &ast.BinaryExpression{Operator: op, Left: left, Right: right}
		finish(node, ast.NodeBinaryExpression, start, end)
		return node, nil

	case "LogicalExpression":
		opStr, err := stringField(props, "operator", start)
		if err != nil {
			return nil, err
		}
		op, ok := ast.ParseLogicalOperator(opStr)
		if !ok {
			return nil, &DecodeError{Pos: start, Message: "unknown logical operator: " + opStr}
		}
		left, err := decodeExprField(props, "left", start)
		if err != nil {
			return nil, err
		}
		right, err := decodeExprField(props, "right", start)
		if err != nil {
			return nil, err
		}
		node := &ast.LogicalExpression{Operator: op, Left: left, Right: right}
		finish(node, ast.NodeLogicalExpression, start, end)
		return node, nil

	case "UnaryExpression":
		opStr, err := stringField(props, "operator", start)
		if err != nil {
			return nil, err
		}
		op, ok := ast.ParseUnaryOperator(opStr)
		if !ok {
			return nil, &DecodeError{Pos: start, Message: "unknown unary operator: " + opStr}
		}
		arg, err := decodeExprField(props, "argument", start)
		if err != nil {
			return nil, err
		}
		node := &ast.UnaryExpression{Operator: op, Argument: arg}
		finish(node, ast.NodeUnaryExpression, start, end)
		return node, nil

	case "AssignmentExpression":
		opStr, err := stringField(props, "operator", start)
		if err != nil {
			return nil, err
		}
		op, ok := ast.ParseAssignmentOperator(opStr)
		if !ok {
			return nil, &DecodeError{Pos: start, Message: "unknown assignment operator: " + opStr}
		}
		target, err := decodePatternField(props, "left", start)
		if err != nil {
			return nil, err
		}
		value, err := decodeExprField(props, "right", start)
		if err != nil {
			return nil, err
		}
		node := &ast.AssignmentExpression{Operator: op, Target: target, Value: value}
		finish(node, ast.NodeAssignmentExpression, start, end)
		return node, nil

	case "CallExpression":
		callee, err := decodeExprField(props, "callee", start)
		if err != nil {
			return nil, err
		}
		args, err := decodeArgumentList(props, "arguments")
		if err != nil {
			return nil, err
		}
		node := &ast.CallExpression{Callee: callee, Arguments: args}
		finish(node, ast.NodeCallExpression, start, end)
		return node, nil

	case "ArrayExpression":
		elemsRaw, err := arrayField(props, "elements")
		if err != nil {
			return nil, err
		}
		elems := make([]ast.ArgumentOrSpread, len(elemsRaw))
		for i, e := range elemsRaw {
			if string(e) == "null" {
				continue
			}
			n, err := decodeNode(e)
			if err != nil {
				return nil, err
			}
			expr, ok := n.(ast.Expression)
			if !ok {
				return nil, &DecodeError{Pos: n.NodePos(), Message: "array element is not an expression"}
			}
			elems[i] = expr
		}
		node := &ast.ArrayExpression{Elements: elems}
		finish(node, ast.NodeArrayExpression, start, end)
		return node, nil

	case "SpreadElement":
		arg, err := decodeExprField(props, "argument", start)
		if err != nil {
			return nil, err
		}
		node := &ast.SpreadElement{Argument: arg}
		finish(node, ast.NodeSpreadElement, start, end)
		return node, nil

	case "MemberExpression":
		obj, err := decodeExprField(props, "object", start)
		if err != nil {
			return nil, err
		}
		computed, _ := boolField(props, "computed")
		prop, err := decodeExprField(props, "property", start)
		if err != nil {
			return nil, err
		}
		node := &ast.MemberExpression{Object: obj, Property: prop, Computed: computed}
		finish(node, ast.NodeMemberExpression, start, end)
		return node, nil

	case "ArrayPattern":
		elemsRaw, err := arrayField(props, "elements")
		if err != nil {
			return nil, err
		}
		elems := make([]ast.Pattern, len(elemsRaw))
		for i, e := range elemsRaw {
			if string(e) == "null" {
				continue
			}
			n, err := decodeNode(e)
			if err != nil {
				return nil, err
			}
			p, ok := n.(ast.Pattern)
			if !ok {
				return nil, &DecodeError{Pos: n.NodePos(), Message: "array pattern element is not a pattern"}
			}
			elems[i] = p
		}
		node := &ast.ArrayPattern{Elements: elems}
		finish(node, ast.NodeArrayPattern, start, end)
		return node, nil

	case "ObjectPattern":
		propsRaw, err := arrayField(props, "properties")
		if err != nil {
			return nil, err
		}
		out := make([]*ast.ObjectPatternProperty, 0, len(propsRaw))
		for _, p := range propsRaw {
			pr, pprops, err := decodeRaw(p)
			if err != nil {
				return nil, err
			}
			pstart, pend := pr.startPos(), pr.endPos()
			key, err := decodeIdentField(pprops, "key", pstart)
			if err != nil {
				return nil, err
			}
			value, err := decodePatternField(pprops, "value", pstart)
			if err != nil {
				return nil, err
			}
			shorthand, _ := boolField(pprops, "shorthand")
			computed, _ := boolField(pprops, "computed")
			out = append(out, ast.NewObjectPatternProperty(key, value, shorthand, computed, pstart, pend))
		}
		node := &ast.ObjectPattern{Properties: out}
		finish(node, ast.NodeObjectPattern, start, end)
		return node, nil

	case "AssignmentPattern":
		target, err := decodePatternField(props, "left", start)
		if err != nil {
			return nil, err
		}
		def, err := decodeExprField(props, "right", start)
		if err != nil {
			return nil, err
		}
		node := &ast.AssignmentPattern{Target: target, Default: def}
		finish(node, ast.NodeAssignmentPattern, start, end)
		return node, nil

	case "RestElement":
		arg, err := decodePatternField(props, "argument", start)
		if err != nil {
			return nil, err
		}
		node := &ast.RestElement{Argument: arg}
		finish(node, ast.NodeRestElement, start, end)
		return node, nil

	case "JSXIdentifier":
		name, err := stringField(props, "name", start)
		if err != nil {
			return nil, err
		}
		return ast.NewJSXIdentifier(name, start, end), nil

	case "JSXMemberExpression":
		objRaw, err := decodeExprField(props, "object", start)
		if err != nil {
			return nil, err
		}
		propRaw, ok := field(props, "property")
		if !ok {
			return nil, &DecodeError{Pos: start, Message: "JSXMemberExpression missing property"}
		}
		propNode, err := decodeNode(propRaw)
		if err != nil {
			return nil, err
		}
		prop, ok := propNode.(*ast.JSXIdentifier)
		if !ok {
			return nil, &DecodeError{Pos: start, Message: "JSXMemberExpression.property is not a JSXIdentifier"}
		}
		node := &ast.JSXMemberExpression{Object: objRaw, Property: prop}
		finish(node, ast.NodeJSXMemberExpression, start, end)
		return node, nil

	case "JSXAttribute":
		nameRaw, ok := field(props, "name")
		if !ok {
			return nil, &DecodeError{Pos: start, Message: "JSXAttribute missing name"}
		}
		nameNode, err := decodeNode(nameRaw)
		if err != nil {
			return nil, err
		}
		name, ok := nameNode.(*ast.JSXIdentifier)
		if !ok {
			return nil, &DecodeError{Pos: start, Message: "JSXAttribute.name is not a JSXIdentifier"}
		}
		value, err := decodeOptionalExprField(props, "value")
		if err != nil {
			return nil, err
		}
		node := &ast.JSXAttribute{Name: name, Value: value}
		finish(node, ast.NodeJSXAttribute, start, end)
		return node, nil

	case "JSXSpreadAttribute":
		arg, err := decodeExprField(props, "argument", start)
		if err != nil {
			return nil, err
		}
		node := &ast.JSXSpreadAttribute{Argument: arg}
		finish(node, ast.NodeJSXSpreadAttribute, start, end)
		return node, nil

	case "JSXExpressionContainer":
		expr, err := decodeExprField(props, "expression", start)
		if err != nil {
			return nil, err
		}
		node := &ast.JSXExpressionContainer{Expression: expr}
		finish(node, ast.NodeJSXExpressionContainer, start, end)
		return node, nil

	case "JSXElement":
		var tag ast.Expression
		if tagRaw, ok := field(props, "tag"); ok {
			n, err := decodeNode(tagRaw)
			if err != nil {
				return nil, err
			}
			te, ok := n.(ast.Expression)
			if !ok {
				return nil, &DecodeError{Pos: start, Message: "JSXElement.tag is not an expression"}
			}
			tag = te
		}
		attrsRaw, err := arrayField(props, "attributes")
		if err != nil {
			return nil, err
		}
		attrs := make([]ast.JSXAttributeOrSpread, 0, len(attrsRaw))
		for _, a := range attrsRaw {
			n, err := decodeNode(a)
			if err != nil {
				return nil, err
			}
			attrs = append(attrs, n)
		}
		childrenRaw, err := arrayField(props, "children")
		if err != nil {
			return nil, err
		}
		children := make([]ast.JSXChild, 0, len(childrenRaw))
		for _, c := range childrenRaw {
			n, err := decodeNode(c)
			if err != nil {
				return nil, err
			}
			children = append(children, n)
		}
		selfClosing, _ := boolField(props, "selfClosing")
		node := &ast.JSXElement{Tag: tag, Attrs: attrs, Children: children, SelfClosing: selfClosing}
		finish(node, ast.NodeJSXElement, start, end)
		return node, nil

	default:
		return nil, &DecodeError{Pos: start, Message: "unknown node type: " + r.Type}
	}
}

func decodeLiteral(props map[string]json.RawMessage, start, end ast.Position) (*ast.Literal, error) {
	v, ok := field(props, "value")
	if !ok {
		return ast.NewLiteral(ast.LiteralUndefined, start, end), nil
	}
	s := string(v)
	switch {
	case s == "null":
		return ast.NewLiteral(ast.LiteralNull, start, end), nil
	case s == "true" || s == "false":
		lit := ast.NewLiteral(ast.LiteralBoolean, start, end)
		lit.Bool = s == "true"
		return lit, nil
	case len(s) > 0 && s[0] == '"':
		var str string
		if err := json.Unmarshal(v, &str); err != nil {
			return nil, &DecodeError{Pos: start, Message: "malformed string literal: " + err.Error()}
		}
		lit := ast.NewLiteral(ast.LiteralString, start, end)
		lit.Str = str
		return lit, nil
	default:
		var num float64
		if err := json.Unmarshal(v, &num); err != nil {
			return nil, &DecodeError{Pos: start, Message: "malformed number literal: " + err.Error()}
		}
		lit := ast.NewLiteral(ast.LiteralNumber, start, end)
		lit.Number = num
		return lit, nil
	}
}

func stringField(props map[string]json.RawMessage, name string, pos ast.Position) (string, error) {
	v, ok := field(props, name)
	if !ok {
		return "", &DecodeError{Pos: pos, Message: "missing required field: " + name}
	}
	var s string
	if err := json.Unmarshal(v, &s); err != nil {
		return "", &DecodeError{Pos: pos, Message: "field " + name + " is not a string: " + err.Error()}
	}
	return s, nil
}

func boolField(props map[string]json.RawMessage, name string) (bool, bool) {
	v, ok := field(props, name)
	if !ok {
		return false, false
	}
	var b bool
	if err := json.Unmarshal(v, &b); err != nil {
		return false, false
	}
	return b, true
}

func arrayField(props map[string]json.RawMessage, name string) ([]json.RawMessage, error) {
	v, ok := field(props, name)
	if !ok {
		return nil, nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(v, &items); err != nil {
		return nil, &DecodeError{Message: "field " + name + " is not an array: " + err.Error()}
	}
	return items, nil
}

func decodeStatementList(props map[string]json.RawMessage, name string) ([]ast.Statement, error) {
	items, err := arrayField(props, name)
	if err != nil {
		return nil, err
	}
	out := make([]ast.Statement, 0, len(items))
	for _, item := range items {
		n, err := decodeNode(item)
		if err != nil {
			return nil, err
		}
		stmt, ok := n.(ast.Statement)
		if !ok {
			return nil, &DecodeError{Pos: n.NodePos(), Message: name + " element is not a statement"}
		}
		out = append(out, stmt)
	}
	return out, nil
}

func decodeExprField(props map[string]json.RawMessage, name string, pos ast.Position) (ast.Expression, error) {
	v, ok := field(props, name)
	if !ok {
		return nil, &DecodeError{Pos: pos, Message: "missing required field: " + name}
	}
	n, err := decodeNode(v)
	if err != nil {
		return nil, err
	}
	expr, ok := n.(ast.Expression)
	if !ok {
		return nil, &DecodeError{Pos: n.NodePos(), Message: name + " is not an expression"}
	}
	return expr, nil
}

func decodeOptionalExprField(props map[string]json.RawMessage, name string) (ast.Expression, error) {
	v, ok := field(props, name)
	if !ok {
		return nil, nil
	}
	n, err := decodeNode(v)
	if err != nil {
		return nil, err
	}
	expr, ok := n.(ast.Expression)
	if !ok {
		return nil, &DecodeError{Pos: n.NodePos(), Message: name + " is not an expression"}
	}
	return expr, nil
}

func decodeStmtField(props map[string]json.RawMessage, name string, pos ast.Position) (ast.Statement, error) {
	v, ok := field(props, name)
	if !ok {
		return nil, &DecodeError{Pos: pos, Message: "missing required field: " + name}
	}
	n, err := decodeNode(v)
	if err != nil {
		return nil, err
	}
	stmt, ok := n.(ast.Statement)
	if !ok {
		return nil, &DecodeError{Pos: n.NodePos(), Message: name + " is not a statement"}
	}
	return stmt, nil
}

func decodeOptionalStmtField(props map[string]json.RawMessage, name string) (ast.Statement, error) {
	v, ok := field(props, name)
	if !ok {
		return nil, nil
	}
	n, err := decodeNode(v)
	if err != nil {
		return nil, err
	}
	stmt, ok := n.(ast.Statement)
	if !ok {
		return nil, &DecodeError{Pos: n.NodePos(), Message: name + " is not a statement"}
	}
	return stmt, nil
}

func decodeIdentField(props map[string]json.RawMessage, name string, pos ast.Position) (*ast.Identifier, error) {
	v, ok := field(props, name)
	if !ok {
		return nil, &DecodeError{Pos: pos, Message: "missing required field: " + name}
	}
	n, err := decodeNode(v)
	if err != nil {
		return nil, err
	}
	id, ok := n.(*ast.Identifier)
	if !ok {
		return nil, &DecodeError{Pos: n.NodePos(), Message: name + " is not an identifier"}
	}
	return id, nil
}

func decodeOptionalIdentField(props map[string]json.RawMessage, name string) (*ast.Identifier, error) {
	v, ok := field(props, name)
	if !ok {
		return nil, nil
	}
	n, err := decodeNode(v)
	if err != nil {
		return nil, err
	}
	id, ok := n.(*ast.Identifier)
	if !ok {
		return nil, &DecodeError{Pos: n.NodePos(), Message: name + " is not an identifier"}
	}
	return id, nil
}

func decodePatternField(props map[string]json.RawMessage, name string, pos ast.Position) (ast.Pattern, error) {
	v, ok := field(props, name)
	if !ok {
		return nil, &DecodeError{Pos: pos, Message: "missing required field: " + name}
	}
	n, err := decodeNode(v)
	if err != nil {
		return nil, err
	}
	p, ok := n.(ast.Pattern)
	if !ok {
		return nil, &DecodeError{Pos: n.NodePos(), Message: name + " is not a pattern"}
	}
	return p, nil
}

func decodeArgumentList(props map[string]json.RawMessage, name string) ([]ast.ArgumentOrSpread, error) {
	items, err := arrayField(props, name)
	if err != nil {
		return nil, err
	}
	out := make([]ast.ArgumentOrSpread, 0, len(items))
	for _, item := range items {
		n, err := decodeNode(item)
		if err != nil {
			return nil, err
		}
		expr, ok := n.(ast.Expression)
		if !ok {
			return nil, &DecodeError{Pos: n.NodePos(), Message: name + " element is not an expression"}
		}
		out = append(out, expr)
	}
	return out, nil
}

// decodeFunction is shared by FunctionDeclaration, FunctionExpression, and
// ArrowFunctionExpression; callers pick nt so the node's own NodeType (not
// just its Go struct) reflects which surface form it was.
func decodeFunction(props map[string]json.RawMessage, start, end ast.Position, nt ast.NodeType, requireName bool) (*ast.Function, error) {
	var name *ast.Identifier
	if idRaw, ok := field(props, "id"); ok {
		n, err := decodeNode(idRaw)
		if err != nil {
			return nil, err
		}
		id, ok := n.(*ast.Identifier)
		if !ok {
			return nil, &DecodeError{Pos: n.NodePos(), Message: "function id is not an identifier"}
		}
		name = id
	} else if requireName {
		return nil, &DecodeError{Pos: start, Message: "function declaration missing name"}
	}

	paramItems, err := arrayField(props, "params")
	if err != nil {
		return nil, err
	}
	params := make([]ast.Pattern, 0, len(paramItems))
	for _, p := range paramItems {
		n, err := decodeNode(p)
		if err != nil {
			return nil, err
		}
		pat, ok := n.(ast.Pattern)
		if !ok {
			return nil, &DecodeError{Pos: n.NodePos(), Message: "function parameter is not a pattern"}
		}
		params = append(params, pat)
	}

	async, _ := boolField(props, "async")
	generator, _ := boolField(props, "generator")

	bodyRaw, ok := field(props, "body")
	if !ok {
		return nil, &DecodeError{Pos: start, Message: "function missing body"}
	}
	bodyNode, err := decodeNode(bodyRaw)
	if err != nil {
		return nil, err
	}

	fn := &ast.Function{Name: name, Params: params, IsAsync: async, IsGenerator: generator}
	switch b := bodyNode.(type) {
	case *ast.BlockStatement:
		fn.Body = b
	case ast.Expression:
		fn.ExprBody = b
	default:
		return nil, &DecodeError{Pos: bodyNode.NodePos(), Message: "function body is neither a block nor an expression"}
	}
	finish(fn, nt, start, end)
	return fn, nil
}
