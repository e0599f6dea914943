// Package field holds the type vocabulary of entity fields.
//
// Every field of an entity schema has a Type. Classify maps a type to the
// Kind that decides how the value travels between a column and the entity:
//
//	field.Classify(field.TypeString)   // KindPrimitive: typed column read/write
//	field.Classify(field.TypeEnum)     // KindEnum: stored by variant name
//	field.Classify(field.TypeRelation) // KindRelation: stored as the target's key
//
// The primitive set is fixed: bool, int, int32, int64, string and time.
// Integer keys are generated by the database on insert (see Generated).
package field
