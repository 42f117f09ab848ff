package language

import (
	"sort"
	"strings"
)

// Key is the canonical identifier for a formatter-supported language,
// used internally after alias resolution. The set of keys is closed:
// it mirrors the languages the mdsf formatter suite handles.
type Key string

const (
	Python     Key = "python"
	JavaScript Key = "javascript"
	TypeScript Key = "typescript"
	Rust       Key = "rust"
	Go         Key = "go"
	Java       Key = "java"
	C          Key = "c"
	Cpp        Key = "cpp"
	CSharp     Key = "csharp"
	Ruby       Key = "ruby"
	PHP        Key = "php"
	Swift      Key = "swift"
	Kotlin     Key = "kotlin"
	Scala      Key = "scala"
	Shell      Key = "shell"
	JSON       Key = "json"
	YAML       Key = "yaml"
	TOML       Key = "toml"
	HTML       Key = "html"
	CSS        Key = "css"
	SCSS       Key = "scss"
	SQL        Key = "sql"
	GraphQL    Key = "graphql"
	Markdown   Key = "markdown"
)

// String returns the string representation of the Key.
func (k Key) String() string {
	return string(k)
}

// IsValid checks whether the Key is one of the supported canonical keys.
func (k Key) IsValid() bool {
	_, ok := keys[k]
	return ok
}

// aliases maps every recognized tag spelling (already lower-cased) to
// its canonical key. Each canonical key also maps to itself, so the
// table is the single source of truth for "which spellings exist".
//
// Invariant: no spelling maps to two different canonical keys. The map
// literal makes duplicates a compile-time error, and the uniqueness of
// the canonical side is covered by a test.
var aliases = map[string]Key{
	"python":     Python,
	"py":         Python,
	"python3":    Python,
	"javascript": JavaScript,
	"js":         JavaScript,
	"typescript": TypeScript,
	"ts":         TypeScript,
	"rust":       Rust,
	"rs":         Rust,
	"go":         Go,
	"golang":     Go,
	"java":       Java,
	"c":          C,
	"cpp":        Cpp,
	"c++":        Cpp,
	"cxx":        Cpp,
	"csharp":     CSharp,
	"cs":         CSharp,
	"c#":         CSharp,
	"ruby":       Ruby,
	"rb":         Ruby,
	"php":        PHP,
	"swift":      Swift,
	"kotlin":     Kotlin,
	"kt":         Kotlin,
	"scala":      Scala,
	// The shell family unifies to a single canonical key; the suite
	// formats all three dialects with the same tool.
	"shell":    Shell,
	"sh":       Shell,
	"bash":     Shell,
	"zsh":      Shell,
	"json":     JSON,
	"yaml":     YAML,
	"yml":      YAML,
	"toml":     TOML,
	"html":     HTML,
	"htm":      HTML,
	"css":      CSS,
	"scss":     SCSS,
	"sql":      SQL,
	"graphql":  GraphQL,
	"gql":      GraphQL,
	"markdown": Markdown,
	"md":       Markdown,
}

// keys is the set of canonical keys, derived from the alias table at
// package init so the two can never drift apart.
var keys = func() map[Key]struct{} {
	set := make(map[Key]struct{})
	for _, k := range aliases {
		set[k] = struct{}{}
	}
	return set
}()

// Resolve normalizes a raw fence info string to a canonical Key.
//
// Normalization: take the first whitespace-separated field (info strings
// may carry attributes like "go title=example"), trim, lower-case, and
// look it up in the alias table. The second return value is false for
// unknown tags and for blocks with no tag at all.
func Resolve(rawTag string) (Key, bool) {
	tag := strings.TrimSpace(rawTag)
	if fields := strings.Fields(tag); len(fields) > 0 {
		tag = fields[0]
	}
	key, ok := aliases[strings.ToLower(tag)]
	return key, ok
}

// IsEnabled reports whether a canonical key is enabled under the given
// allow-list. An empty set means "all languages enabled".
func IsEnabled(key Key, enabled map[Key]struct{}) bool {
	if len(enabled) == 0 {
		return true
	}
	_, ok := enabled[key]
	return ok
}

// Supported returns all canonical keys in sorted order, for stable
// CLI listings.
func Supported() []Key {
	out := make([]Key, 0, len(keys))
	for k := range keys {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// AliasesOf returns the non-canonical spellings that resolve to key,
// in sorted order. The canonical spelling itself is omitted.
func AliasesOf(key Key) []string {
	var out []string
	for spelling, k := range aliases {
		if k == key && spelling != string(key) {
			out = append(out, spelling)
		}
	}
	sort.Strings(out)
	return out
}
