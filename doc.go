/*
Package structbin implements a compact binary encoding for graphs of objects and arrays,
driven by a schema known to both the writer and the reader.

The schema is never written to the stream. Field names are replaced by small integer ids
taken from a name table, and every value is written with the fixed-width type its schema
declares.

Schemas

A schema is a tree, or a graph, of nodes:

  Scalar(t)     a number, a bool, a string, a UUID, an asset UUID or a byte buffer
  Enum(v...)    a string, written as its position in the list
  Tuple(n...)   a fixed-length array
  Array(n)      a variable-length array
  Object(f...)  a set of named fields

Schemas can also be parsed from JSON with ParseSchema:

  {"name": "string", "position": ["float32", "float32", "float32"], "children": [{"$ref": "node"}]}

Nodes are compared by identity. Using the same node in several places describes a shared shape,
and using a node inside itself describes a recursive one.

References

Objects and arrays found more than once in the value being encoded, the root value and the
composite items of variable-length arrays are written once and referred to by id.
This is what allows cyclic values to be encoded, and decoded values to share their children
the way the original ones did.

Widths

Reference ids and the lengths of arrays, strings and buffers are written with the narrowest
unsigned integer able to hold the largest of them, and a one-byte header tells the reader
which widths were chosen. LegacyLayout writes fixed widths and no header.

Assets

Asset UUIDs identify values stored elsewhere. DecodeWithAssets replaces each of them by the
value returned by a Loader, looking them up concurrently.
*/
package structbin
