// Package gen generates entity code for dynrepo from schema files.
//
// For every entity of a schema file (see package load) the generator
// writes one Go file holding:
//
//   - the enum types declared by the entity, with one constant per value,
//   - the entity struct,
//   - the schema variable and the Schema method,
//   - a typed repository embedding repository.Repository, with a
//     positional Insert method.
//
// Files are rendered with jennifer, formatted with goimports and written
// in parallel:
//
//	spec, err := load.File("sports.yaml")
//	if err != nil {
//		return err
//	}
//	err = gen.Generate(ctx, spec.Entities, gen.Config{Target: "./sports"})
//
// Invalid schemas are reported as *SchemaError before any file is
// written.
package gen
