// Package assets provides the stylesheets of generated HTML pages.
//
// # Loader Architecture
//
//	StyleLoader (interface)
//	    │
//	    ├── EmbeddedLoader    - built-in styles compiled into the binary
//	    ├── FilesystemLoader  - {basePath}/styles/{name}.css on disk
//	    └── Resolver          - custom directory first, embedded as fallback
//
// Resolver lets a user override one built-in style, or add new ones, by
// dropping {name}.css in a styles/ directory, without losing the others.
//
// # Security
//
// Style names are validated to prevent path traversal. FilesystemLoader
// resolves symlinks and verifies paths stay within basePath.
package assets
