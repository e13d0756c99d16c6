// Package analysis provides the descriptive statistics behind the stats
// and analyze endpoints.
//
// All reductions are pure functions over in-memory slices; nothing is
// cached between calls. Empty input is rejected explicitly so that NaN
// never reaches a response body.
package analysis
