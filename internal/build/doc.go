// Package build runs a complete documentation build: it reads the site
// tree, installs the static assets, renders every page, resolves anchor
// references once all pages are done and writes the search index and
// sitemap.
//
// All execution paths (CLI build, preview rebuilds, tests) route through
// BuildService. Per-page failures are logged and counted in the Report but
// never abort the build; only configuration errors and a failure to prepare
// the output directory do.
package build
