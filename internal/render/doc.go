// Package render compiles tutorial pages into static HTML.
//
// Layouts and partials are Go html/template files found under a partials
// directory; each is addressable by its slash separated path without extension,
// so src/hbs/layouts/tutorial.hbs is the template "layouts/tutorial".
// Pages live under the pages directory and may start with YAML frontmatter:
//
//	---
//	title: Basic example
//	layout: layouts/tutorial
//	---
//	<p>Create a picker:</p>
//	{{code `<input id="demo" type="text"/>`}}
//
// A page body is itself a template. Markdown pages (.md) are converted with
// goldmark after template execution. When a layout is named, the rendered body
// is handed to it as .Content.
package render
