// Package site implements the recursive generation pass.
//
// A Walker visits one directory at a time. Each visit moves through a fixed
// sequence of stages (render, extract_title, classify_links, resolve_paths,
// build_nav, render_template, write_page, copy_files, recurse_directories)
// and then recurses into every directory linked from the rendered content,
// handing the child the directory links it was found among as its siblings.
//
// Missing content, broken links and failed copies are logged and collected in
// the Report. Paths outside the source root and link cycles abort the pass.
package site
