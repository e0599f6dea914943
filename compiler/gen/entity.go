package gen

import (
	"github.com/dave/jennifer/jen"

	"github.com/syssam/dynrepo/schema/field"
)

const (
	schemaPkg = "github.com/syssam/dynrepo/schema"
	repoPkg   = "github.com/syssam/dynrepo/repository"
)

// builders maps primitive types to their schema builder.
var builders = map[field.Type]string{
	field.TypeBool:   "Bool",
	field.TypeInt:    "Int",
	field.TypeInt32:  "Int32",
	field.TypeInt64:  "Int64",
	field.TypeString: "String",
	field.TypeTime:   "Time",
}

// Entity renders the file of t: its enums, the entity struct, the
// schema and the typed repository.
func (g *Generator) Entity(t *Type) *jen.File {
	f := g.newFile()
	for _, e := range t.enums {
		genEnum(f, e)
	}
	genStruct(f, t)
	genSchema(f, t)
	genRepository(f, t)
	return f
}

func genEnum(f *jen.File, e *Enum) {
	f.Commentf("%s enumerates the values stored in %s.", e.Name, e.Owner.Table)
	f.Type().Id(e.Name).String()
	f.Line()
	f.Commentf("%s values.", e.Name)
	f.Const().DefsFunc(func(group *jen.Group) {
		for _, v := range e.Values {
			group.Id(enumConst(e.Name, v)).Id(e.Name).Op("=").Lit(v)
		}
	})
	f.Line()
}

func genStruct(f *jen.File, t *Type) {
	f.Commentf("%s is the model entity for the %s table.", t.Name, t.Table)
	f.Type().Id(t.Name).StructFunc(func(group *jen.Group) {
		for _, fd := range t.Fields {
			s := group.Id(fd.StructField()).Add(goType(fd))
			if fd.Comment != "" {
				s.Comment(fd.Comment)
			}
		}
	})
	f.Line()
}

func genSchema(f *jen.File, t *Type) {
	cfg := jen.Dict{jen.Id("Table"): jen.Lit(t.Table)}
	if t.Snake {
		cfg[jen.Id("ColumnNaming")] = jen.Qual(schemaPkg, "SnakeCase")
	}
	args := []jen.Code{jen.Qual(schemaPkg, "Config").Values(cfg)}
	for _, fd := range t.Fields {
		args = append(args, fieldBuilder(t, fd))
	}
	build := jen.Qual(schemaPkg, "MustNew").Types(jen.Id(t.Name)).
		Custom(jen.Options{Open: "(", Close: ")", Separator: ",", Multi: true}, args...)
	// Schemas with relations are assigned in init.
	if t.HasRelations() {
		f.Var().Id(t.Receiver()).Op("*").Qual(schemaPkg, "Schema").Types(jen.Id(t.Name))
		f.Line()
		f.Func().Id("init").Params().Block(
			jen.Id(t.Receiver()).Op("=").Add(build),
		)
	} else {
		f.Var().Id(t.Receiver()).Op("=").Add(build)
	}
	f.Line()
	f.Commentf("Schema returns the schema of %s entities.", t.Name)
	f.Func().Params(jen.Id(t.Name)).Id("Schema").Params().
		Op("*").Qual(schemaPkg, "Schema").Types(jen.Id(t.Name)).
		Block(jen.Return(jen.Id(t.Receiver())))
	f.Line()
}

// fieldBuilder renders the schema builder call of fd.
func fieldBuilder(t *Type, fd *Field) *jen.Statement {
	ref := jen.Func().Params(jen.Id("e").Op("*").Id(t.Name)).Op("*").Add(goType(fd)).Block(
		jen.Return(jen.Op("&").Id("e").Dot(fd.StructField())),
	)
	var s *jen.Statement
	switch fd.Type {
	case field.TypeEnum:
		args := []jen.Code{jen.Lit(fd.Name), ref}
		for _, v := range fd.Enum.Values {
			args = append(args, jen.Id(enumConst(fd.Enum.Name, v)))
		}
		s = jen.Qual(schemaPkg, "Enum").Call(args...)
	case field.TypeRelation:
		name := "Relation"
		if fd.Optional {
			name = "OptionalRelation"
		}
		s = jen.Qual(schemaPkg, name).Call(jen.Lit(fd.Name), ref)
	default:
		s = jen.Qual(schemaPkg, builders[fd.Type]).Call(jen.Lit(fd.Name), ref)
	}
	if fd.Column != "" {
		s.Dot("Column").Call(jen.Lit(fd.Column))
	}
	if fd.Key {
		s.Dot("Key").Call()
	}
	return s
}

func genRepository(f *jen.File, t *Type) {
	repo := t.Name + "Repository"
	f.Commentf("%s stores %s entities.", repo, t.Name)
	f.Type().Id(repo).Struct(
		jen.Op("*").Qual(repoPkg, "Repository").Types(goType(t.Key), jen.Id(t.Name)),
	)
	f.Line()
	f.Commentf("New%s returns the %s repository of reg.", repo, t.Name)
	f.Func().Id("New"+repo).Params(jen.Id("reg").Op("*").Qual(repoPkg, "Registry")).
		Params(jen.Op("*").Id(repo), jen.Error()).
		Block(
			jen.List(jen.Id("r"), jen.Err()).Op(":=").Qual(repoPkg, "For").Types(goType(t.Key), jen.Id(t.Name)).Call(jen.Id("reg")),
			jen.If(jen.Err().Op("!=").Nil()).Block(jen.Return(jen.Nil(), jen.Err())),
			jen.Return(jen.Op("&").Id(repo).Values(jen.Id("r")), jen.Nil()),
		)
	f.Line()

	fields := t.InsertFields()
	if len(fields) < len(t.Fields) {
		f.Commentf("Insert stores a new %s and returns it with its generated key.", t.Name)
	} else {
		f.Commentf("Insert stores a new %s.", t.Name)
	}
	values := jen.Dict{}
	for _, fd := range fields {
		values[jen.Id(fd.StructField())] = jen.Id(fd.ParamName())
	}
	f.Func().Params(jen.Id("r").Op("*").Id(repo)).Id("Insert").
		ParamsFunc(func(group *jen.Group) {
			group.Id("ctx").Qual("context", "Context")
			for _, fd := range fields {
				group.Id(fd.ParamName()).Add(goType(fd))
			}
		}).
		Params(jen.Op("*").Id(t.Name), jen.Error()).
		Block(
			jen.Return(jen.Id("r").Dot("Repository").Dot("Insert").Call(
				jen.Id("ctx"),
				jen.Op("&").Id(t.Name).Values(values),
			)),
		)
}

// goType returns the Go type of a field.
func goType(fd *Field) *jen.Statement {
	switch fd.Type {
	case field.TypeBool:
		return jen.Bool()
	case field.TypeInt:
		return jen.Int()
	case field.TypeInt32:
		return jen.Int32()
	case field.TypeInt64:
		return jen.Int64()
	case field.TypeString:
		return jen.String()
	case field.TypeTime:
		return jen.Qual("time", "Time")
	case field.TypeEnum:
		return jen.Id(fd.Enum.Name)
	case field.TypeRelation:
		if fd.Optional {
			return jen.Op("*").Id(fd.Ref.Name)
		}
		return jen.Id(fd.Ref.Name)
	}
	return jen.Any()
}
