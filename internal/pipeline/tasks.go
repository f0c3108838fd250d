package pipeline

import (
	"path/filepath"

	"git.home.luguber.info/inful/buildseq/internal/sequencer"
)

// Task names.
const (
	TaskClean        = "clean"
	TaskJSClean      = "js:clean"
	TaskJSCompile    = "js:compile"
	TaskJS           = "js"
	TaskCSSClean     = "css:clean"
	TaskCSSCompile   = "css:compile"
	TaskCSSMinify    = "css:minify"
	TaskCSS          = "css"
	TaskTutorials    = "tutorials:compile"
	TaskDocsClean    = "docs:clean"
	TaskDocsCompile  = "docs:compile"
	TaskDocsAddDist  = "docs:add-dist"
	TaskDocsAddV2    = "docs:add-v2-docs"
	TaskDocs         = "docs"
	TaskDefault      = "default"
	TaskWatch        = "watch"
	TaskPublishDocs  = "publish-docs"
	TaskPublishNPM   = "publish-npm"
	tutorialsOutName = "tutorials"
)

// TopLevel lists the tasks meant to be invoked directly.
var TopLevel = []string{TaskClean, TaskJS, TaskCSS, TaskDocs, TaskDefault, TaskWatch, TaskPublishDocs, TaskPublishNPM}

func (p *Pipeline) jsDir() string        { return p.path(filepath.Join(p.cfg.Paths.Dist, "js")) }
func (p *Pipeline) cssDir() string       { return p.path(filepath.Join(p.cfg.Paths.Dist, "css")) }
func (p *Pipeline) tutorialsDir() string { return p.path(filepath.Join(p.cfg.Paths.Build, tutorialsOutName)) }
func (p *Pipeline) docsDir() string      { return p.path(p.cfg.Paths.Docs) }
func (p *Pipeline) v2Dir() string        { return filepath.Join(p.docsDir(), "v2") }

func (p *Pipeline) register() {
	r := p.registry
	dist, build := p.path(p.cfg.Paths.Dist), p.path(p.cfg.Paths.Build)

	r.Register(TaskClean, nil, p.clean,
		sequencer.WithOutputs(dist, build),
		sequencer.WithDescription("Empty the dist and build directories"))

	r.Register(TaskJSClean, nil, p.cleanDir(p.jsDir()),
		sequencer.WithOutputs(p.jsDir()),
		sequencer.WithDescription("Empty dist/js"))
	r.Register(TaskJSCompile, []string{TaskJSClean}, p.compileJS,
		sequencer.WithOutputs(p.jsDir()),
		sequencer.WithDescription("Bundle the JavaScript sources and add the license banner"))
	r.Register(TaskJS, []string{TaskJSCompile}, nil,
		sequencer.WithDescription("Build the JavaScript bundle"))

	r.Register(TaskCSSClean, nil, p.cleanDir(p.cssDir()),
		sequencer.WithOutputs(p.cssDir()),
		sequencer.WithDescription("Empty dist/css"))
	r.Register(TaskCSSCompile, []string{TaskCSSClean}, p.compileCSS,
		sequencer.WithOutputs(p.cssDir()),
		sequencer.WithDescription("Compile the SASS entry point, autoprefix and add the license banner"))
	r.Register(TaskCSSMinify, []string{TaskCSSCompile}, p.minifyCSS,
		sequencer.WithOutputs(p.cssDir()),
		sequencer.WithDescription("Write the minified stylesheet"))
	r.Register(TaskCSS, []string{TaskCSSMinify}, nil,
		sequencer.WithDescription("Build the stylesheets"))

	r.Register(TaskTutorials, nil, p.compileTutorials,
		sequencer.WithOutputs(p.tutorialsDir()),
		sequencer.WithDescription("Render the tutorial templates to HTML"))
	r.Register(TaskDocsClean, nil, p.cleanDir(p.docsDir()),
		sequencer.WithOutputs(p.docsDir()),
		sequencer.WithDescription("Empty the documentation output"))
	r.Register(TaskDocsCompile, []string{TaskDocsClean, TaskTutorials}, p.compileDocs,
		sequencer.WithOutputs(p.docsDir()),
		sequencer.WithDescription("Run the API documentation generator"))
	r.Register(TaskDocsAddDist, []string{TaskJS, TaskCSS, TaskDocsCompile}, p.addDistToDocs,
		sequencer.WithOutputs(filepath.Join(p.docsDir(), "dist")),
		sequencer.WithDescription("Copy the built assets into the documentation"))
	r.Register(TaskDocsAddV2, []string{TaskDocsCompile}, p.addV2Docs,
		sequencer.WithOutputs(p.v2Dir()),
		sequencer.WithDescription("Copy the archived v2 documentation from its branch"))
	r.Register(TaskDocs, []string{TaskDocsAddDist}, nil,
		sequencer.WithDescription("Build the documentation site"))

	r.Register(TaskDefault, []string{TaskJS, TaskCSS, TaskDocsAddDist}, nil,
		sequencer.WithDescription("Build everything"))
	r.Register(TaskWatch, []string{TaskDefault}, p.watch,
		sequencer.WithDescription("Build, then rebuild on source changes until interrupted"))

	r.Register(TaskPublishDocs, []string{TaskDefault, TaskDocsAddV2}, p.publishDocs,
		sequencer.WithDescription("Push the documentation to the hosting branch"))
	r.Register(TaskPublishNPM, []string{TaskDefault}, p.publishNPM,
		sequencer.WithOutputs(p.publishFileTargets()...),
		sequencer.WithDescription("Publish the package to the npm registry"))
}

func (p *Pipeline) publishFileTargets() []string {
	out := make([]string, 0, len(p.cfg.Publish.Files))
	for _, f := range p.cfg.Publish.Files {
		out = append(out, filepath.Join(p.path(p.cfg.Paths.Dist), filepath.Base(f)))
	}
	return out
}
