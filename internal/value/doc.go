// Package value defines the leaf-value model for tandem data graphs.
//
// A graph node (see internal/store) holds either a composite child node or a
// leaf Value. The Value interface is sealed: only Null, String, Int, Float,
// and Bool implement it. Composites never appear as Values - they are graph
// nodes with identity, versioning, and snapshot caching of their own.
//
// The package also provides canonical JSON serialization used wherever two
// runs must produce byte-identical output: golden trace files, journal rows,
// and final-state assertions. Canonical form follows RFC 8785: object keys
// sorted by UTF-16 code units, NFC-normalized strings, no HTML escaping.
package value
