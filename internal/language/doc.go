// Package language maps fence info strings to canonical formatter keys.
//
// A fenced code block's info string is free text ("PYTHON", "py",
// "go title=x"); formatting policy needs one stable identifier per
// language. This package owns that normalization: lower-casing,
// attribute stripping, and a static alias table ("py" → python,
// "yml" → yaml, the sh/bash/zsh family → shell).
//
// The table is read-only after package initialization and shared
// process-wide. Unknown tags resolve to not-found, which callers must
// treat as "leave the block unmodified" — never as an error.
package language
