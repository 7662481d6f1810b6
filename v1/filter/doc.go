// Package filter compiles MongoDB-style metadata filters into parameterized
// PostgreSQL predicates over a JSONB column.
//
// # Filter syntax
//
// A filter maps metadata field names to a literal (implicit $eq) or to an
// operator object. All fields and all operators under one field are ANDed:
//
//	{
//	    "genre": "fiction",                      // $eq
//	    "price": {"$gte": 100, "$lte": 200},     // range
//	    "lang":  {"$in": ["en", "de"]},          // membership
//	    "author.country": {"$ne": "US"}          // nested field
//	}
//
// Supported operators: $eq, $ne, $gt, $gte, $lt, $lte, $in. Anything else is
// rejected with a *vectordb.ValidationError.
//
// # Typed comparisons
//
// Literals keep their JSON type. A number only compares against numbers, a
// string against strings, a boolean against booleans. Range operators never
// match a field of a different type, so {"price": {"$gt": 100}} does not
// compare "99" as a string. $ne also matches documents where the field is
// missing.
//
// # Safety
//
// The compiled SQL contains only fixed fragments and ? placeholders. Field
// path segments and literals are always bound:
//
//	pred, err := filter.Compile(map[string]any{"price": map[string]any{"$gt": 100}})
//	// pred.SQL:  (jsonb_typeof(metadata -> ?::text) = 'number' AND (metadata -> ?::text #>> '{}')::numeric > ?::numeric)
//	// pred.Args: ["price", "price", int64(100)]
//
// Expression.Matches evaluates the same semantics in memory.
package filter
