// Package schema describes the portable text field being edited and checks
// values against it.
//
// A [Type] is a read-only description of the field: display information
// (title, description), whether it is read-only, and the structural rules a
// value must satisfy to be editable (allowed block styles, decorators,
// annotations, list types, inline and block object types, maximum block
// count). Types are usually loaded from YAML with [LoadType]:
//
//	name: body
//	title: Body
//	styles: [normal, h1, h2, blockquote]
//	decorators: [strong, em, code]
//	annotations: [link]
//	objects: [image]
//	rules:
//	  - name: short
//	    expr: len(text(value)) < 5000
//	    message: body is too long
//
// [Validate] reports the first structural problem of a value as a
// [Resolution]: a description of the problem and the patches which fix it.
// Rules are expr-lang expressions evaluated against the value; a failing
// rule produces a resolution without patches.
package schema
