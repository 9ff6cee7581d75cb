package build

import "errors"

// ErrIssuesFound is the cause of the error a strict build returns when it
// finished with failed pages, broken links or unresolved anchors.
var ErrIssuesFound = errors.New("docsite: build finished with issues")
