// Package cursor orders cursor values extracted from records and state.
//
// AtOrBefore(a, b, days) reports whether a is not newer than b, allowing
// days of slack on b. With zero tolerance the values are compared in their
// own kind; with a tolerance both are first coerced to a point in time.
package cursor
