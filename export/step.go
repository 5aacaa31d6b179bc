package export

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/soypat/pcbmag/brep"
	"gonum.org/v1/gonum/spatial/r3"
)

// stepSchema is the AP214 schema identifier written to STEP headers.
const stepSchema = "AUTOMOTIVE_DESIGN { 1 0 10303 214 1 1 1 1 }"

// stepWriter numbers entity instances as they are written.
type stepWriter struct {
	w    *bufio.Writer
	next int
	err  error
}

func (sw *stepWriter) add(format string, args ...any) int {
	sw.next++
	if sw.err == nil {
		_, sw.err = fmt.Fprintf(sw.w, "#%d=%s;\n", sw.next, fmt.Sprintf(format, args...))
	}
	return sw.next
}

func (sw *stepWriter) line(s string) {
	if sw.err == nil {
		_, sw.err = sw.w.WriteString(s + "\n")
	}
}

// WriteSTEP writes the solids as AP214 faceted B-rep bodies of a single
// product called name. Coordinates are written in millimetres without loss
// of precision.
func WriteSTEP(w io.Writer, name string, solids ...brep.Solid) error {
	if len(solids) == 0 {
		return errors.New("no solids to export")
	}
	sw := &stepWriter{w: bufio.NewWriter(w)}
	stamp := time.Now().UTC().Format("2006-01-02T15:04:05")
	sw.line("ISO-10303-21;")
	sw.line("HEADER;")
	sw.line(fmt.Sprintf("FILE_DESCRIPTION((%s),'2;1');", stepString(name)))
	sw.line(fmt.Sprintf("FILE_NAME(%s,'%s',(''),(''),'pcbmag','pcbmag','');", stepString(name), stamp))
	sw.line(fmt.Sprintf("FILE_SCHEMA(('%s'));", stepSchema))
	sw.line("ENDSEC;")
	sw.line("DATA;")

	appCtx := sw.add("APPLICATION_CONTEXT('automotive design')")
	sw.add("APPLICATION_PROTOCOL_DEFINITION('international standard','automotive_design',2000,#%d)", appCtx)
	prodCtx := sw.add("PRODUCT_CONTEXT('',#%d,'mechanical')", appCtx)
	defCtx := sw.add("PRODUCT_DEFINITION_CONTEXT('part definition',#%d,'design')", appCtx)
	product := sw.add("PRODUCT(%s,%s,'',(#%d))", stepString(name), stepString(name), prodCtx)
	sw.add("PRODUCT_RELATED_PRODUCT_CATEGORY('part',$,(#%d))", product)
	formation := sw.add("PRODUCT_DEFINITION_FORMATION('','',#%d)", product)
	definition := sw.add("PRODUCT_DEFINITION('design','',#%d,#%d)", formation, defCtx)
	shape := sw.add("PRODUCT_DEFINITION_SHAPE('','',#%d)", definition)

	length := sw.add("(LENGTH_UNIT()NAMED_UNIT(*)SI_UNIT(.MILLI.,.METRE.))")
	angle := sw.add("(NAMED_UNIT(*)PLANE_ANGLE_UNIT()SI_UNIT($,.RADIAN.))")
	solidAngle := sw.add("(NAMED_UNIT(*)SI_UNIT($,.STERADIAN.)SOLID_ANGLE_UNIT())")
	uncertainty := sw.add("UNCERTAINTY_MEASURE_WITH_UNIT(LENGTH_MEASURE(1.E-07),#%d,'distance_accuracy_value','confusion accuracy')", length)
	geomCtx := sw.add("(GEOMETRIC_REPRESENTATION_CONTEXT(3)GLOBAL_UNCERTAINTY_ASSIGNED_CONTEXT((#%d))GLOBAL_UNIT_ASSIGNED_CONTEXT((#%d,#%d,#%d))REPRESENTATION_CONTEXT('',''))",
		uncertainty, length, angle, solidAngle)

	origin := sw.add("CARTESIAN_POINT('',(0.E+00,0.E+00,0.E+00))")
	zAxis := sw.add("DIRECTION('',(0.E+00,0.E+00,1.E+00))")
	xAxis := sw.add("DIRECTION('',(1.E+00,0.E+00,0.E+00))")
	items := []int{sw.add("AXIS2_PLACEMENT_3D('',#%d,#%d,#%d)", origin, zAxis, xAxis)}
	for _, s := range solids {
		items = append(items, writeBrep(sw, s))
	}
	rep := sw.add("FACETED_BREP_SHAPE_REPRESENTATION(%s,(%s),#%d)", stepString(name), refList(items), geomCtx)
	sw.add("SHAPE_DEFINITION_REPRESENTATION(#%d,#%d)", shape, rep)
	sw.line("ENDSEC;")
	sw.line("END-ISO-10303-21;")
	if sw.err != nil {
		return sw.err
	}
	return sw.w.Flush()
}

func writeBrep(sw *stepWriter, s brep.Solid) int {
	points := make(map[r3.Vec]int)
	point := func(v r3.Vec) int {
		if id, ok := points[v]; ok {
			return id
		}
		id := sw.add("CARTESIAN_POINT('',%s)", stepTriple(v))
		points[v] = id
		return id
	}
	var faces []int
	for _, f := range s.Faces() {
		var bounds []int
		for i, loop := range f.Loops() {
			ids := make([]int, len(loop))
			for j, v := range loop {
				ids[j] = point(v)
			}
			polyLoop := sw.add("POLY_LOOP('',(%s))", refList(ids))
			kind := "FACE_BOUND"
			if i == 0 {
				kind = "FACE_OUTER_BOUND"
			}
			bounds = append(bounds, sw.add("%s('',#%d,.T.)", kind, polyLoop))
		}
		n := f.Normal()
		ref := orthogonal(n, r3.Sub(f.Outer[1], f.Outer[0]))
		loc := point(f.Outer[0])
		axis := sw.add("DIRECTION('',%s)", stepTriple(n))
		refDir := sw.add("DIRECTION('',%s)", stepTriple(ref))
		placement := sw.add("AXIS2_PLACEMENT_3D('',#%d,#%d,#%d)", loc, axis, refDir)
		plane := sw.add("PLANE('',#%d)", placement)
		faces = append(faces, sw.add("FACE_SURFACE('',(%s),#%d,.T.)", refList(bounds), plane))
	}
	shell := sw.add("CLOSED_SHELL('',(%s))", refList(faces))
	return sw.add("FACETED_BREP(%s,#%d)", stepString(s.Name()), shell)
}

// orthogonal returns the unit component of v perpendicular to the unit
// vector n.
func orthogonal(n, v r3.Vec) r3.Vec {
	return r3.Unit(r3.Sub(v, r3.Scale(r3.Dot(v, n), n)))
}

func refList(ids []int) string {
	var b strings.Builder
	for i, id := range ids {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteByte('#')
		b.WriteString(strconv.Itoa(id))
	}
	return b.String()
}

func stepTriple(v r3.Vec) string {
	return "(" + stepReal(v.X) + "," + stepReal(v.Y) + "," + stepReal(v.Z) + ")"
}

// stepReal formats v with the shortest representation that parses back to
// v. STEP reals always carry a decimal point.
func stepReal(v float64) string {
	if v == 0 {
		return "0.E+00"
	}
	s := strconv.FormatFloat(v, 'E', -1, 64)
	if !strings.Contains(s, ".") {
		s = strings.Replace(s, "E", ".E", 1)
	}
	return s
}

// stepString quotes s as a STEP string. Only printable ASCII is kept.
func stepString(s string) string {
	var b strings.Builder
	b.WriteByte('\'')
	for _, r := range s {
		switch {
		case r == '\'':
			b.WriteString("''")
		case r == '\\':
			b.WriteString(`\\`)
		case r >= 0x20 && r < 0x7f:
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	b.WriteByte('\'')
	return b.String()
}
