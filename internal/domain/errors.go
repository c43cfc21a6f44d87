package domain

import "errors"

// ErrPlaceholder means the source holds no file for an issue it lists.
// Sources return it when they only discover this while fetching.
var ErrPlaceholder = errors.New("issue has no file")
