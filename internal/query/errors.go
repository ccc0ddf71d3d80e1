package query

import "errors"

// ErrSyntax indicates a malformed path-query string. Resolution never
// starts for a query that fails to parse.
var ErrSyntax = errors.New("query: syntax error")
