package table

import (
	"fmt"
	"sort"
	"strings"
	"unicode"
)

// UpdatePlan is a parsed update expression that can be applied to items.
// Supported clauses are SET (with +, -, if_not_exists and list_append),
// REMOVE and ADD on numbers. Paths are attribute names or dotted map paths.
type UpdatePlan struct {
	actions []updateAction
}

type actionKind int

const (
	actionSet actionKind = iota
	actionRemove
	actionAdd
)

type updateAction struct {
	kind  actionKind
	path  []string
	value operand
}

// ParseUpdate parses expr, resolving #name and :value placeholders.
// Placeholders that are supplied but never referenced are rejected.
func ParseUpdate(expr string, names map[string]string, values map[string]any) (*UpdatePlan, error) {
	if strings.TrimSpace(expr) == "" {
		if len(names) > 0 {
			return nil, validationf("ExpressionAttributeNames can only be specified when using expressions")
		}
		if len(values) > 0 {
			return nil, validationf("ExpressionAttributeValues can only be specified when using expressions")
		}
		return &UpdatePlan{}, nil
	}

	toks, err := tokenize(expr)
	if err != nil {
		return nil, err
	}

	p := &parser{
		toks:       toks,
		names:      names,
		values:     values,
		usedNames:  make(map[string]bool),
		usedValues: make(map[string]bool),
	}
	actions, err := p.parse()
	if err != nil {
		return nil, err
	}

	if unused := unusedKeys(names, p.usedNames); unused != "" {
		return nil, validationf("Value provided in ExpressionAttributeNames unused in expressions: keys: {%s}", unused)
	}
	if unused := unusedKeys(values, p.usedValues); unused != "" {
		return nil, validationf("Value provided in ExpressionAttributeValues unused in expressions: keys: {%s}", unused)
	}

	seen := make(map[string]bool, len(actions))
	for _, a := range actions {
		joined := strings.Join(a.path, ".")
		for other := range seen {
			if other == joined || strings.HasPrefix(other, joined+".") || strings.HasPrefix(joined, other+".") {
				return nil, validationf("Two document paths overlap with each other; must remove or rewrite one of these paths; path one: [%s], path two: [%s]", other, joined)
			}
		}
		seen[joined] = true
	}

	return &UpdatePlan{actions: actions}, nil
}

func unusedKeys[V any](supplied map[string]V, used map[string]bool) string {
	var unused []string
	for k := range supplied {
		if !used[k] {
			unused = append(unused, k)
		}
	}
	sort.Strings(unused)
	return strings.Join(unused, ", ")
}

// TouchesAttribute reports whether the plan modifies the top-level attribute name
func (u *UpdatePlan) TouchesAttribute(name string) bool {
	for _, a := range u.actions {
		if a.path[0] == name {
			return true
		}
	}
	return false
}

// Apply returns a copy of item with the plan applied. Operands are
// evaluated against the item as it was before the update.
func (u *UpdatePlan) Apply(item Item) (Item, error) {
	next, _ := cloneValue(map[string]any(item)).(map[string]any)
	if next == nil {
		next = make(map[string]any)
	}
	old := map[string]any(item)

	for _, a := range u.actions {
		switch a.kind {
		case actionSet:
			v, err := a.value.eval(old)
			if err != nil {
				return nil, err
			}
			if err := setPath(next, a.path, v); err != nil {
				return nil, err
			}
		case actionRemove:
			removePath(next, a.path)
		case actionAdd:
			v, err := a.value.eval(old)
			if err != nil {
				return nil, err
			}
			inc, ok := toRat(v)
			if !ok {
				return nil, validationf("Incorrect operand type for operator or function; operator: ADD, operand type: %s", typeName(v))
			}
			if cur, found := lookupPath(old, a.path); found {
				base, ok := toRat(cur)
				if !ok {
					return nil, validationf("An operand in the update expression has an incorrect data type")
				}
				inc.Add(inc, base)
			}
			if err := setPath(next, a.path, formatRat(inc)); err != nil {
				return nil, err
			}
		}
	}
	return Item(next), nil
}

// operands

type operand interface {
	eval(item map[string]any) (any, error)
}

type pathOperand struct{ path []string }

func (o pathOperand) eval(item map[string]any) (any, error) {
	v, ok := lookupPath(item, o.path)
	if !ok {
		return nil, validationf("The provided expression refers to an attribute that does not exist in the item")
	}
	return cloneValue(v), nil
}

type valueOperand struct{ v any }

func (o valueOperand) eval(map[string]any) (any, error) {
	return cloneValue(o.v), nil
}

type ifNotExistsOperand struct {
	path     []string
	fallback operand
}

func (o ifNotExistsOperand) eval(item map[string]any) (any, error) {
	if v, ok := lookupPath(item, o.path); ok {
		return cloneValue(v), nil
	}
	return o.fallback.eval(item)
}

type listAppendOperand struct{ a, b operand }

func (o listAppendOperand) eval(item map[string]any) (any, error) {
	a, err := o.a.eval(item)
	if err != nil {
		return nil, err
	}
	b, err := o.b.eval(item)
	if err != nil {
		return nil, err
	}
	la, okA := a.([]any)
	lb, okB := b.([]any)
	if !okA || !okB {
		return nil, validationf("Incorrect operand type for operator or function; operator or function: list_append")
	}
	out := make([]any, 0, len(la)+len(lb))
	out = append(out, la...)
	return append(out, lb...), nil
}

type arithOperand struct {
	op   rune
	a, b operand
}

func (o arithOperand) eval(item map[string]any) (any, error) {
	a, err := o.a.eval(item)
	if err != nil {
		return nil, err
	}
	b, err := o.b.eval(item)
	if err != nil {
		return nil, err
	}
	x, okA := toRat(a)
	y, okB := toRat(b)
	if !okA || !okB {
		return nil, validationf("An operand in the update expression has an incorrect data type")
	}
	if o.op == '-' {
		return formatRat(x.Sub(x, y)), nil
	}
	return formatRat(x.Add(x, y)), nil
}

// tokenizer

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIdent
	tokName
	tokValue
	tokPunct
)

type token struct {
	kind tokenKind
	text string
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

func tokenize(expr string) ([]token, error) {
	var toks []token
	runes := []rune(expr)
	for i := 0; i < len(runes); {
		r := runes[i]
		switch {
		case unicode.IsSpace(r):
			i++
		case r == '#' || r == ':':
			j := i + 1
			for j < len(runes) && isWordRune(runes[j]) {
				j++
			}
			if j == i+1 {
				return nil, validationf("Invalid UpdateExpression: Syntax error; token: \"%c\"", r)
			}
			kind := tokName
			if r == ':' {
				kind = tokValue
			}
			toks = append(toks, token{kind: kind, text: string(runes[i:j])})
			i = j
		case isWordRune(r):
			j := i
			for j < len(runes) && isWordRune(runes[j]) {
				j++
			}
			toks = append(toks, token{kind: tokIdent, text: string(runes[i:j])})
			i = j
		case strings.ContainsRune("=+-(),.[]", r):
			toks = append(toks, token{kind: tokPunct, text: string(r)})
			i++
		default:
			return nil, validationf("Invalid UpdateExpression: Syntax error; token: \"%c\"", r)
		}
	}
	return append(toks, token{kind: tokEOF}), nil
}

// parser

type parser struct {
	toks       []token
	pos        int
	names      map[string]string
	values     map[string]any
	usedNames  map[string]bool
	usedValues map[string]bool
}

func (p *parser) peek() token { return p.toks[p.pos] }

func (p *parser) next() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) isPunct(s string) bool {
	t := p.peek()
	return t.kind == tokPunct && t.text == s
}

func (p *parser) expect(s string) error {
	if !p.isPunct(s) {
		return p.syntaxError()
	}
	p.next()
	return nil
}

func (p *parser) syntaxError() error {
	t := p.peek()
	if t.kind == tokEOF {
		return validationf("Invalid UpdateExpression: Syntax error; token: \"<EOF>\"")
	}
	return validationf("Invalid UpdateExpression: Syntax error; token: \"%s\"", t.text)
}

func (p *parser) parse() ([]updateAction, error) {
	var actions []updateAction
	seen := make(map[string]bool)

	for p.peek().kind != tokEOF {
		t := p.next()
		clause := strings.ToUpper(t.text)
		if t.kind != tokIdent {
			p.pos--
			return nil, p.syntaxError()
		}
		switch clause {
		case "SET", "REMOVE", "ADD":
		case "DELETE":
			return nil, validationf("Invalid UpdateExpression: the DELETE clause requires set attributes, which this table does not support")
		default:
			p.pos--
			return nil, p.syntaxError()
		}
		if seen[clause] {
			return nil, validationf("Invalid UpdateExpression: The \"%s\" section can only be used once in an update expression", clause)
		}
		seen[clause] = true

		for {
			action, err := p.parseAction(clause)
			if err != nil {
				return nil, err
			}
			actions = append(actions, action)
			if !p.isPunct(",") {
				break
			}
			p.next()
		}
	}
	return actions, nil
}

func (p *parser) parseAction(clause string) (updateAction, error) {
	path, err := p.parsePath()
	if err != nil {
		return updateAction{}, err
	}

	switch clause {
	case "SET":
		if err := p.expect("="); err != nil {
			return updateAction{}, err
		}
		value, err := p.parseValue()
		if err != nil {
			return updateAction{}, err
		}
		return updateAction{kind: actionSet, path: path, value: value}, nil
	case "REMOVE":
		return updateAction{kind: actionRemove, path: path}, nil
	default:
		if p.peek().kind != tokValue {
			return updateAction{}, p.syntaxError()
		}
		value, err := p.parseOperand()
		if err != nil {
			return updateAction{}, err
		}
		return updateAction{kind: actionAdd, path: path, value: value}, nil
	}
}

func (p *parser) parseValue() (operand, error) {
	left, err := p.parseOperand()
	if err != nil {
		return nil, err
	}
	if p.isPunct("+") || p.isPunct("-") {
		op := []rune(p.next().text)[0]
		right, err := p.parseOperand()
		if err != nil {
			return nil, err
		}
		return arithOperand{op: op, a: left, b: right}, nil
	}
	return left, nil
}

func (p *parser) parseOperand() (operand, error) {
	t := p.peek()
	switch t.kind {
	case tokValue:
		p.next()
		v, ok := p.values[t.text]
		if !ok {
			return nil, validationf("Invalid UpdateExpression: An expression attribute value used in expression is not defined; attribute value: %s", t.text)
		}
		p.usedValues[t.text] = true
		return valueOperand{v: v}, nil
	case tokIdent:
		if p.toks[p.pos+1].kind == tokPunct && p.toks[p.pos+1].text == "(" {
			return p.parseFunction()
		}
	}

	path, err := p.parsePath()
	if err != nil {
		return nil, err
	}
	return pathOperand{path: path}, nil
}

func (p *parser) parseFunction() (operand, error) {
	name := p.next().text
	p.next() // (

	var result operand
	switch name {
	case "if_not_exists":
		path, err := p.parsePath()
		if err != nil {
			return nil, err
		}
		if err := p.expect(","); err != nil {
			return nil, err
		}
		fallback, err := p.parseOperand()
		if err != nil {
			return nil, err
		}
		result = ifNotExistsOperand{path: path, fallback: fallback}
	case "list_append":
		a, err := p.parseOperand()
		if err != nil {
			return nil, err
		}
		if err := p.expect(","); err != nil {
			return nil, err
		}
		b, err := p.parseOperand()
		if err != nil {
			return nil, err
		}
		result = listAppendOperand{a: a, b: b}
	default:
		return nil, validationf("Invalid UpdateExpression: Invalid function name; function: %s", name)
	}

	if err := p.expect(")"); err != nil {
		return nil, err
	}
	return result, nil
}

func (p *parser) parsePath() ([]string, error) {
	var path []string
	for {
		t := p.peek()
		switch t.kind {
		case tokIdent:
			if isReservedWord(t.text) {
				return nil, validationf("Invalid UpdateExpression: Attribute name is a reserved keyword; reserved keyword: %s", t.text)
			}
			path = append(path, t.text)
		case tokName:
			name, ok := p.names[t.text]
			if !ok {
				return nil, validationf("Invalid UpdateExpression: An expression attribute name used in the document path is not defined; attribute name: %s", t.text)
			}
			p.usedNames[t.text] = true
			path = append(path, name)
		default:
			return nil, p.syntaxError()
		}
		p.next()

		if p.isPunct("[") {
			return nil, validationf("Invalid UpdateExpression: list index paths are not supported")
		}
		if !p.isPunct(".") {
			return path, nil
		}
		p.next()
	}
}

// Only the clause keywords are enforced; they would otherwise be ambiguous.
func isReservedWord(word string) bool {
	switch strings.ToUpper(word) {
	case "SET", "REMOVE", "ADD", "DELETE":
		return true
	}
	return false
}

// document helpers

func lookupPath(doc map[string]any, path []string) (any, bool) {
	var cur any = doc
	for _, name := range path {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[name]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

func setPath(doc map[string]any, path []string, v any) error {
	parent := doc
	for _, name := range path[:len(path)-1] {
		child, ok := parent[name].(map[string]any)
		if !ok {
			return validationf("The document path provided in the update expression is invalid for update")
		}
		parent = child
	}
	parent[path[len(path)-1]] = v
	return nil
}

func removePath(doc map[string]any, path []string) {
	parent := doc
	for _, name := range path[:len(path)-1] {
		child, ok := parent[name].(map[string]any)
		if !ok {
			return
		}
		parent = child
	}
	delete(parent, path[len(path)-1])
}

func cloneValue(v any) any {
	switch tv := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(tv))
		for k, e := range tv {
			out[k] = cloneValue(e)
		}
		return out
	case Item:
		return cloneValue(map[string]any(tv))
	case []any:
		out := make([]any, len(tv))
		for i, e := range tv {
			out[i] = cloneValue(e)
		}
		return out
	default:
		return v
	}
}

func typeName(v any) string {
	if isNumber(v) {
		return "N"
	}
	switch v.(type) {
	case string:
		return "S"
	case bool:
		return "BOOL"
	case nil:
		return "NULL"
	case []any:
		return "L"
	case map[string]any:
		return "M"
	}
	return fmt.Sprintf("%T", v)
}
