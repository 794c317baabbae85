// Package xmlcodec converts Go object graphs to XML and back.
//
// Types are described by struct tags or by a member table, registered
// under a tag name with an Engine, and then serialized to
// github.com/beevik/etree elements:
//
//	type Question struct {
//	    Prompt  string   `xmlc:"prompt,required"`
//	    Points  int      `xmlc:"points,default=1"`
//	    Answers []Answer `xmlc:"answers"`
//	}
//
//	engine, _ := xmlcodec.New()
//	_ = xmlcodec.Register[Question](engine, "question", nil)
//	el, err := xmlcodec.Serialize(engine, q)
//	back, err := xmlcodec.Deserialize[Question](engine, el)
//
// # Placement
//
// Every member is written in one of three ways, decided from its type:
//
//   - as an attribute, for values that convert losslessly to text: bools,
//     numbers, strings, []byte and types implementing both
//     encoding.TextMarshaler and encoding.TextUnmarshaler;
//   - as repeated <a> children of a member element, for slices, Go arrays
//     and ndarray.Array values;
//   - as a single child element, for structs, pointers to structs and
//     interfaces. Interface values carry one more child element named
//     after the registered tag of their concrete type.
//
// A member equal to its default is omitted unless it is required, marked
// "always", or its type sets ClassConfig.EmitDefaults.
//
// # Arrays
//
// Items are written in row-major order. Multi-dimensional arrays carry
// their lengths in an "l" attribute. An item may carry an explicit "i"
// index; items without one take the next position, with the last
// dimension moving fastest.
//
//	<grid l="2,3"><a v="true"/><a v="false"/>...</grid>
//
// # Errors
//
// Failures wrap one of the Err* sentinels and, when they happen inside a
// document, a *NodeError giving the XML path and member involved.
package xmlcodec
