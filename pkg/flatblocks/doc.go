// Package flatblocks provides small, database-backed content blocks that can
// be embedded into page templates by slug.
//
// A Library wires a ContentStore, an optional Cache and a TemplateRenderer
// and registers two directives with an engine.Library:
//
//	{% flatblock <slug> [<timeout>] [using <template>] %}
//	{% plain_flatblock <slug> [<timeout>] %}
//
// Quoted slugs and template names are literals, bare words are variable
// references resolved at render time. The timeout is the number of seconds
// a fetched block may be served from the cache. A block that does not exist
// renders as an empty string; every other failure is returned to the caller.
//
// Repositories (memory, Postgres), the memory cache and wrapper template
// sources (embedded defaults, memory, filesystem, S3) live in subpackages.
package flatblocks
