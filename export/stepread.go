package export

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/soypat/pcbmag/brep"
	"gonum.org/v1/gonum/spatial/r3"
)

var errSTEPSyntax = errors.New("STEP syntax error")

type stepKind uint8

const (
	valUnset stepKind = iota // $ or *
	valRef
	valNumber
	valString
	valEnum
	valList
	valTyped // typed parameter such as LENGTH_MEASURE(1.)
)

type stepValue struct {
	kind stepKind
	ref  int
	num  float64
	str  string // string, enumeration or type name
	list []stepValue
}

type stepEntity struct {
	typ  string // empty for complex entities
	args []stepValue
}

// ReadSTEP reads the faceted B-rep bodies of a STEP file.
func ReadSTEP(r io.Reader) ([]brep.Solid, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	ents, err := parseSTEP(data)
	if err != nil {
		return nil, err
	}
	var ids []int
	for id, e := range ents {
		if e.typ == "FACETED_BREP" {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return nil, errors.New("STEP file contains no faceted B-rep bodies")
	}
	sort.Ints(ids)
	sr := stepResolver{ents: ents}
	solids := make([]brep.Solid, 0, len(ids))
	for _, id := range ids {
		s, err := sr.brep(id)
		if err != nil {
			return nil, fmt.Errorf("STEP body #%d: %w", id, err)
		}
		solids = append(solids, s)
	}
	return solids, nil
}

type stepResolver struct {
	ents map[int]stepEntity
}

func (sr stepResolver) get(v stepValue, typ string, nargs int) (stepEntity, error) {
	if v.kind != valRef {
		return stepEntity{}, fmt.Errorf("%w: want reference to %s", errSTEPSyntax, typ)
	}
	e, ok := sr.ents[v.ref]
	if !ok {
		return stepEntity{}, fmt.Errorf("%w: dangling reference #%d", errSTEPSyntax, v.ref)
	}
	if typ != "" && e.typ != typ {
		return stepEntity{}, fmt.Errorf("%w: #%d is %s, want %s", errSTEPSyntax, v.ref, e.typ, typ)
	}
	if len(e.args) < nargs {
		return stepEntity{}, fmt.Errorf("%w: #%d %s has %d arguments, want %d", errSTEPSyntax, v.ref, e.typ, len(e.args), nargs)
	}
	return e, nil
}

func (sr stepResolver) brep(id int) (brep.Solid, error) {
	e, err := sr.get(stepValue{kind: valRef, ref: id}, "FACETED_BREP", 2)
	if err != nil {
		return brep.Solid{}, err
	}
	shell, err := sr.get(e.args[1], "CLOSED_SHELL", 2)
	if err != nil {
		return brep.Solid{}, err
	}
	if shell.args[1].kind != valList {
		return brep.Solid{}, fmt.Errorf("%w: closed shell without faces", errSTEPSyntax)
	}
	var faces []brep.Face
	for _, fv := range shell.args[1].list {
		f, err := sr.face(fv)
		if err != nil {
			return brep.Solid{}, err
		}
		faces = append(faces, f)
	}
	return brep.NewSolid(e.args[0].str, faces)
}

func (sr stepResolver) face(v stepValue) (brep.Face, error) {
	e, err := sr.get(v, "", 2)
	if err != nil {
		return brep.Face{}, err
	}
	if e.typ != "FACE_SURFACE" && e.typ != "FACE" {
		return brep.Face{}, fmt.Errorf("%w: #%d is %s, want a face", errSTEPSyntax, v.ref, e.typ)
	}
	if e.args[1].kind != valList {
		return brep.Face{}, fmt.Errorf("%w: face #%d without bounds", errSTEPSyntax, v.ref)
	}
	var f brep.Face
	var holes [][]r3.Vec
	for _, bv := range e.args[1].list {
		b, err := sr.get(bv, "", 3)
		if err != nil {
			return brep.Face{}, err
		}
		if b.typ != "FACE_OUTER_BOUND" && b.typ != "FACE_BOUND" {
			return brep.Face{}, fmt.Errorf("%w: #%d is %s, want a face bound", errSTEPSyntax, bv.ref, b.typ)
		}
		loop, err := sr.polyLoop(b.args[1])
		if err != nil {
			return brep.Face{}, err
		}
		if b.args[2].kind == valEnum && b.args[2].str == "F" {
			for i, j := 0, len(loop)-1; i < j; i, j = i+1, j-1 {
				loop[i], loop[j] = loop[j], loop[i]
			}
		}
		if b.typ == "FACE_OUTER_BOUND" && f.Outer == nil {
			f.Outer = loop
		} else {
			holes = append(holes, loop)
		}
	}
	if f.Outer == nil {
		if len(holes) == 0 {
			return brep.Face{}, fmt.Errorf("%w: face #%d has no bounds", errSTEPSyntax, v.ref)
		}
		f.Outer, holes = holes[0], holes[1:]
	}
	f.Holes = holes
	return f, nil
}

func (sr stepResolver) polyLoop(v stepValue) ([]r3.Vec, error) {
	e, err := sr.get(v, "POLY_LOOP", 2)
	if err != nil {
		return nil, err
	}
	if e.args[1].kind != valList {
		return nil, fmt.Errorf("%w: poly loop #%d without points", errSTEPSyntax, v.ref)
	}
	loop := make([]r3.Vec, 0, len(e.args[1].list))
	for _, pv := range e.args[1].list {
		p, err := sr.get(pv, "CARTESIAN_POINT", 2)
		if err != nil {
			return nil, err
		}
		c := p.args[1]
		if c.kind != valList || len(c.list) != 3 {
			return nil, fmt.Errorf("%w: point #%d is not 3D", errSTEPSyntax, pv.ref)
		}
		var xyz [3]float64
		for i, n := range c.list {
			if n.kind != valNumber {
				return nil, fmt.Errorf("%w: point #%d coordinate is not a number", errSTEPSyntax, pv.ref)
			}
			xyz[i] = n.num
		}
		loop = append(loop, r3.Vec{X: xyz[0], Y: xyz[1], Z: xyz[2]})
	}
	return loop, nil
}

// parseSTEP parses the DATA section of an ISO 10303-21 file into its
// entity instances.
func parseSTEP(data []byte) (map[int]stepEntity, error) {
	start := bytes.Index(data, []byte("DATA;"))
	if start < 0 {
		return nil, fmt.Errorf("%w: no DATA section", errSTEPSyntax)
	}
	p := &stepParser{src: data, pos: start + len("DATA;")}
	ents := make(map[int]stepEntity)
	for {
		p.skipSpace()
		if p.pos >= len(p.src) {
			return nil, fmt.Errorf("%w: unterminated DATA section", errSTEPSyntax)
		}
		if bytes.HasPrefix(p.src[p.pos:], []byte("ENDSEC")) {
			return ents, nil
		}
		id, e, err := p.instance()
		if err != nil {
			return nil, fmt.Errorf("%w at offset %d", err, p.pos)
		}
		ents[id] = e
	}
}

type stepParser struct {
	src []byte
	pos int
}

func (p *stepParser) skipSpace() {
	for p.pos < len(p.src) {
		switch c := p.src[p.pos]; {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			p.pos++
		case c == '/' && p.pos+1 < len(p.src) && p.src[p.pos+1] == '*':
			end := bytes.Index(p.src[p.pos+2:], []byte("*/"))
			if end < 0 {
				p.pos = len(p.src)
				return
			}
			p.pos += end + 4
		default:
			return
		}
	}
}

func (p *stepParser) expect(c byte) error {
	p.skipSpace()
	if p.pos >= len(p.src) || p.src[p.pos] != c {
		return fmt.Errorf("%w: want %q", errSTEPSyntax, c)
	}
	p.pos++
	return nil
}

func (p *stepParser) instance() (int, stepEntity, error) {
	if err := p.expect('#'); err != nil {
		return 0, stepEntity{}, err
	}
	id, err := p.integer()
	if err != nil {
		return 0, stepEntity{}, err
	}
	if err := p.expect('='); err != nil {
		return 0, stepEntity{}, err
	}
	p.skipSpace()
	if p.pos < len(p.src) && p.src[p.pos] == '(' {
		// Complex entity instances are not needed to rebuild bodies.
		if err := p.skipComplex(); err != nil {
			return 0, stepEntity{}, err
		}
		return id, stepEntity{}, p.expect(';')
	}
	typ := p.keyword()
	if typ == "" {
		return 0, stepEntity{}, fmt.Errorf("%w: missing entity type for #%d", errSTEPSyntax, id)
	}
	args, err := p.list()
	if err != nil {
		return 0, stepEntity{}, err
	}
	return id, stepEntity{typ: typ, args: args}, p.expect(';')
}

func (p *stepParser) skipComplex() error {
	depth := 0
	for p.pos < len(p.src) {
		switch p.src[p.pos] {
		case '\'':
			if _, err := p.stringLit(); err != nil {
				return err
			}
			continue
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				p.pos++
				return nil
			}
		}
		p.pos++
	}
	return fmt.Errorf("%w: unterminated complex entity", errSTEPSyntax)
}

func (p *stepParser) integer() (int, error) {
	start := p.pos
	for p.pos < len(p.src) && p.src[p.pos] >= '0' && p.src[p.pos] <= '9' {
		p.pos++
	}
	return strconv.Atoi(string(p.src[start:p.pos]))
}

func isKeywordByte(c byte) bool {
	return c == '_' || (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9')
}

func (p *stepParser) keyword() string {
	start := p.pos
	for p.pos < len(p.src) && isKeywordByte(p.src[p.pos]) {
		p.pos++
	}
	return string(p.src[start:p.pos])
}

// list parses a parenthesised, comma separated parameter list.
func (p *stepParser) list() ([]stepValue, error) {
	if err := p.expect('('); err != nil {
		return nil, err
	}
	var vals []stepValue
	p.skipSpace()
	if p.pos < len(p.src) && p.src[p.pos] == ')' {
		p.pos++
		return vals, nil
	}
	for {
		v, err := p.value()
		if err != nil {
			return nil, err
		}
		vals = append(vals, v)
		p.skipSpace()
		if p.pos >= len(p.src) {
			return nil, fmt.Errorf("%w: unterminated list", errSTEPSyntax)
		}
		switch p.src[p.pos] {
		case ',':
			p.pos++
		case ')':
			p.pos++
			return vals, nil
		default:
			return nil, fmt.Errorf("%w: unexpected %q in list", errSTEPSyntax, p.src[p.pos])
		}
	}
}

func (p *stepParser) value() (stepValue, error) {
	p.skipSpace()
	if p.pos >= len(p.src) {
		return stepValue{}, fmt.Errorf("%w: unexpected end of file", errSTEPSyntax)
	}
	switch c := p.src[p.pos]; {
	case c == '$' || c == '*':
		p.pos++
		return stepValue{kind: valUnset}, nil
	case c == '#':
		p.pos++
		id, err := p.integer()
		return stepValue{kind: valRef, ref: id}, err
	case c == '\'':
		s, err := p.stringLit()
		return stepValue{kind: valString, str: s}, err
	case c == '.':
		end := bytes.IndexByte(p.src[p.pos+1:], '.')
		if end < 0 {
			return stepValue{}, fmt.Errorf("%w: unterminated enumeration", errSTEPSyntax)
		}
		v := stepValue{kind: valEnum, str: string(p.src[p.pos+1 : p.pos+1+end])}
		p.pos += end + 2
		return v, nil
	case c == '(':
		l, err := p.list()
		return stepValue{kind: valList, list: l}, err
	case c == '-' || c == '+' || (c >= '0' && c <= '9'):
		start := p.pos
		p.pos++
		for p.pos < len(p.src) {
			c := p.src[p.pos]
			if !(c >= '0' && c <= '9') && c != '.' && c != 'E' && c != 'e' && c != '-' && c != '+' {
				break
			}
			p.pos++
		}
		f, err := strconv.ParseFloat(string(p.src[start:p.pos]), 64)
		if err != nil {
			return stepValue{}, fmt.Errorf("%w: %v", errSTEPSyntax, err)
		}
		return stepValue{kind: valNumber, num: f}, nil
	case isKeywordByte(c):
		typ := p.keyword()
		l, err := p.list()
		return stepValue{kind: valTyped, str: typ, list: l}, err
	}
	return stepValue{}, fmt.Errorf("%w: unexpected %q", errSTEPSyntax, p.src[p.pos])
}

func (p *stepParser) stringLit() (string, error) {
	p.pos++ // opening quote
	var b []byte
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		p.pos++
		if c != '\'' {
			b = append(b, c)
			continue
		}
		if p.pos < len(p.src) && p.src[p.pos] == '\'' {
			b = append(b, '\'')
			p.pos++
			continue
		}
		return string(bytes.ReplaceAll(b, []byte(`\\`), []byte(`\`))), nil
	}
	return "", fmt.Errorf("%w: unterminated string", errSTEPSyntax)
}
