package site

// StageName identifies one step of a directory visit.
type StageName string

// Visit stages, in execution order.
const (
	StageRender             StageName = "render"
	StageExtractTitle       StageName = "extract_title"
	StageClassifyLinks      StageName = "classify_links"
	StageResolvePaths       StageName = "resolve_paths"
	StageBuildNav           StageName = "build_nav"
	StageRenderTemplate     StageName = "render_template"
	StageWritePage          StageName = "write_page"
	StageCopyFiles          StageName = "copy_files"
	StageRecurseDirectories StageName = "recurse_directories"
)

// stageFunc runs one stage against the visit state.
type stageFunc func(w *Walker, r *run, v *visit) error

// stageDef pairs a stage name with its executing function.
type stageDef struct {
	Name StageName
	Fn   stageFunc
}

// pageStages produce and write one page. Recursion is driven by visit itself
// so the stack of open directories stays explicit.
var pageStages = []stageDef{
	{StageRender, (*Walker).stageRender},
	{StageExtractTitle, (*Walker).stageExtractTitle},
	{StageClassifyLinks, (*Walker).stageClassifyLinks},
	{StageResolvePaths, (*Walker).stageResolvePaths},
	{StageBuildNav, (*Walker).stageBuildNav},
	{StageRenderTemplate, (*Walker).stageRenderTemplate},
	{StageWritePage, (*Walker).stageWritePage},
	{StageCopyFiles, (*Walker).stageCopyFiles},
}
