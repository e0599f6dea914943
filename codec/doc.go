// Package codec converts between database rows and entities.
//
// A Plan is built once per schema. It binds every field to a decoder,
// which reads the field's column from a Record, and to an encoder, which
// turns the field value into a statement argument:
//
//   - primitive fields are converted between driver values and Go values;
//     NULL reads as the zero value of the field type.
//   - enum fields are stored by variant name; an unknown name fails with
//     an UnknownVariantError.
//   - relation fields store the key of the referenced entity. Decoding
//     loads the referenced entity through the Lookup of its table, and a
//     key with no row fails with a DanglingReferenceError.
package codec
