package avro

import (
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/ettle/strcase"
)

// goKeywords are the identifiers the Go grammar reserves; a sanitized name
// that collides with one gets a trailing underscore appended.
var goKeywords = map[string]bool{
	"break": true, "default": true, "func": true, "interface": true, "select": true,
	"case": true, "defer": true, "go": true, "map": true, "struct": true,
	"chan": true, "else": true, "goto": true, "package": true, "switch": true,
	"const": true, "fallthrough": true, "if": true, "range": true, "type": true,
	"continue": true, "for": true, "import": true, "return": true, "var": true,
}

// sanitizeIdent replaces every rune that cannot appear in a Go identifier
// with an underscore and, if the result would start with a digit, prefixes
// it with one more, so any Avro name (however punctuated) survives as a
// syntactically valid Go identifier before PascalCasing.
func sanitizeIdent(name string) string {
	var b strings.Builder
	for _, r := range name {
		if r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}
	out := b.String()
	if out == "" {
		return "_"
	}
	if unicode.IsDigit(rune(out[0])) {
		out = "_" + out
	}
	return out
}

// exportIdent sanitizes name, PascalCases it, and suffixes a reserved word
// with an underscore so the result can always be declared as an exported
// Go identifier.
func exportIdent(name string) string {
	candidate := strcase.ToPascal(sanitizeIdent(name))
	if candidate == "" {
		candidate = "Field"
	}
	if goKeywords[candidate] {
		candidate += "_"
	}
	return candidate
}

// Emit generates Go source for schema: one type declaration per named type
// (record/enum/fixed) reachable from schema, emitted in dependency order so
// a type never references another before it is declared. An anonymous
// top-level schema (a bare union or array/map) gets no declaration of its
// own; only the named types reachable from it are emitted.
func Emit(packageName string, schema Schema) (string, error) {
	g := &generator{
		packageName: packageName,
		seen:        make(map[string]bool),
		nameFor:     make(map[string]string),
	}
	g.collect(schema)

	var body strings.Builder
	for _, name := range g.order {
		body.WriteString(g.decls[name])
		body.WriteString("\n")
	}

	var out strings.Builder
	fmt.Fprintf(&out, "package %s\n\n", packageName)
	var imports []string
	if g.usesTime {
		imports = append(imports, `"time"`)
	}
	if g.usesUUID {
		imports = append(imports, `"github.com/google/uuid"`)
	}
	if g.usesAvro {
		imports = append(imports, `"github.com/avrocore/avro"`)
	}
	if len(imports) > 0 {
		out.WriteString("import (\n")
		for _, imp := range imports {
			fmt.Fprintf(&out, "\t%s\n", imp)
		}
		out.WriteString(")\n\n")
	}
	out.WriteString(body.String())
	return out.String(), nil
}

type generator struct {
	packageName string
	seen        map[string]bool
	nameFor     map[string]string // schema full name -> sanitized Go identifier
	order       []string
	decls       map[string]string
	usesUUID    bool
	usesTime    bool
	usesAvro    bool
}

// collect walks schema, emitting named types in dependency (post-)order:
// a type's dependencies are visited, and therefore declared, before it is.
func (g *generator) collect(schema Schema) {
	if g.decls == nil {
		g.decls = make(map[string]string)
	}
	switch s := schema.(type) {
	case *RecordSchema:
		full := GetFullName(s)
		if g.seen[full] {
			return
		}
		g.seen[full] = true
		for _, f := range s.Fields {
			g.collect(f.Type)
		}
		goName := g.goName(full, s.Name)
		g.decls[full] = g.emitRecord(goName, s)
		g.order = append(g.order, full)

	case *EnumSchema:
		full := GetFullName(s)
		if g.seen[full] {
			return
		}
		g.seen[full] = true
		goName := g.goName(full, s.Name)
		g.decls[full] = g.emitEnum(goName, s)
		g.order = append(g.order, full)

	case *FixedSchema:
		full := GetFullName(s)
		if g.seen[full] {
			return
		}
		g.seen[full] = true
		goName := g.goName(full, s.Name)
		g.decls[full] = fmt.Sprintf("// %s is a %d-byte fixed-length field.\ntype %s [%d]byte\n", goName, s.Size, goName, s.Size)
		g.order = append(g.order, full)

	case *ArraySchema:
		g.collect(s.Items)
	case *MapSchema:
		g.collect(s.Values)
	case *UnionSchema:
		for _, t := range s.Types {
			g.collect(t)
		}
	case *LogicalSchema:
		if s.Kind == LogicalUUID {
			g.usesUUID = true
		}
		g.collect(s.Base)
	case *RecursiveSchema:
		g.collect(s.Actual)
	}
}

// goName sanitizes an Avro name into an exported Go identifier, stripping
// the namespace and converting to PascalCase, and disambiguates collisions
// between distinct full names that sanitize to the same identifier.
func (g *generator) goName(fullName, bareName string) string {
	if existing, ok := g.nameFor[fullName]; ok {
		return existing
	}
	base := exportIdent(bareName)
	candidate := base
	suffix := 2
	for usedBy(g.nameFor, candidate) {
		candidate = fmt.Sprintf("%s%d", base, suffix)
		suffix++
	}
	g.nameFor[fullName] = candidate
	return candidate
}

func usedBy(nameFor map[string]string, candidate string) bool {
	for _, v := range nameFor {
		if v == candidate {
			return true
		}
	}
	return false
}

// emitRecord renders s as a Go struct. Every field carries an `avro:"..."`
// tag recording its original (possibly unsanitized) Avro name, since the
// Go field identifier itself may have had to be sanitized and can no
// longer be recomputed losslessly from the wire name alone; the codec
// prefers this tag over recomputing a name when both are available, so an
// Avro field named e.g. "type" or "my-field" still round-trips correctly
// even though "Type"/"MyField" is not a reverse-unique transform of it.
func (g *generator) emitRecord(goName string, s *RecordSchema) string {
	var b strings.Builder
	if s.Doc != "" {
		fmt.Fprintf(&b, "// %s %s\n", goName, s.Doc)
	}
	fmt.Fprintf(&b, "type %s struct {\n", goName)
	used := make(map[string]bool, len(s.Fields))
	for _, f := range s.Fields {
		goType := g.goType(f.Type)
		fieldName := exportIdent(f.Name)
		for suffix := 2; used[fieldName]; suffix++ {
			fieldName = fmt.Sprintf("%s%d", exportIdent(f.Name), suffix)
		}
		used[fieldName] = true
		if f.Doc != "" {
			fmt.Fprintf(&b, "\t// %s\n", f.Doc)
		}
		fmt.Fprintf(&b, "\t%s %s `avro:%q`\n", fieldName, goType, f.Name)
	}
	b.WriteString("}\n")
	return b.String()
}

func (g *generator) emitEnum(goName string, s *EnumSchema) string {
	var b strings.Builder
	fmt.Fprintf(&b, "type %s string\n\n", goName)
	b.WriteString("const (\n")
	symbols := append([]string(nil), s.Symbols...)
	sort.Strings(symbols)
	used := make(map[string]bool, len(symbols))
	for _, sym := range symbols {
		constName := goName + exportIdent(sym)
		for suffix := 2; used[constName]; suffix++ {
			constName = fmt.Sprintf("%s%s%d", goName, exportIdent(sym), suffix)
		}
		used[constName] = true
		fmt.Fprintf(&b, "\t%s %s = %q\n", constName, goName, sym)
	}
	b.WriteString(")\n")
	return b.String()
}

// goType maps schema onto the Go type the host type bridge would derive it
// back from, so generated structs round-trip through DeriveSchema.
func (g *generator) goType(schema Schema) string {
	switch s := schema.(type) {
	case *NullSchema:
		return "struct{}"
	case *BooleanSchema:
		return "bool"
	case *IntSchema:
		return "int32"
	case *LongSchema:
		return "int64"
	case *FloatSchema:
		return "float32"
	case *DoubleSchema:
		return "float64"
	case *BytesSchema:
		return "[]byte"
	case *StringSchema:
		return "string"
	case *ArraySchema:
		return "[]" + g.goType(s.Items)
	case *MapSchema:
		return "map[string]" + g.goType(s.Values)
	case *FixedSchema:
		g.collect(s)
		return g.nameFor[GetFullName(s)]
	case *EnumSchema:
		g.collect(s)
		return g.nameFor[GetFullName(s)]
	case *RecordSchema:
		g.collect(s)
		return "*" + g.nameFor[GetFullName(s)]
	case *RecursiveSchema:
		g.collect(s)
		return "*" + g.nameFor[GetFullName(s.Actual)]
	case *UnionSchema:
		if idx := s.NullIndex(); idx >= 0 && len(s.Types) == 2 {
			for _, t := range s.Types {
				if t.Type() != Null {
					inner := g.goType(t)
					if strings.HasPrefix(inner, "*") || strings.HasPrefix(inner, "[]") || strings.HasPrefix(inner, "map[") {
						return inner
					}
					return "*" + inner
				}
			}
		}
		return "interface{}"
	case *LogicalSchema:
		switch s.Kind {
		case LogicalDecimal:
			g.usesAvro = true
			return "avro.Decimal"
		case LogicalUUID:
			g.usesUUID = true
			return "uuid.UUID"
		case LogicalDate:
			g.usesAvro = true
			return "avro.Date"
		case LogicalTimeMillis, LogicalTimeMicros:
			g.usesTime = true
			return "time.Duration"
		case LogicalTimestampMillis, LogicalTimestampMicros:
			g.usesTime = true
			return "time.Time"
		case LogicalLocalTimestampMillis, LogicalLocalTimestampMicros:
			g.usesAvro = true
			return "avro.LocalTimestamp"
		case LogicalDuration:
			g.usesAvro = true
			return "avro.Duration"
		}
		return g.goType(s.Base)
	default:
		return "interface{}"
	}
}
