package docs

var topics = []Topic{
	{
		Name:    "quickstart",
		Title:   "Quick Start",
		Summary: "Getting started with stepwise",
		Content: topicQuickstart,
	},
	{
		Name:    "steps",
		Title:   "Steps and Numbering",
		Summary: "Step commits, super steps, and how numbers are assigned",
		Content: topicSteps,
	},
	{
		Name:    "editing",
		Title:   "Editing History",
		Summary: "Editing, rewording and renumbering past steps",
		Content: topicEditing,
	},
	{
		Name:    "manuals",
		Title:   "Manuals",
		Summary: "Templates, views and the diffStep helper",
		Content: topicManuals,
	},
	{
		Name:    "hooks",
		Title:   "Git Hooks",
		Summary: "What the installed hooks enforce and how to relax them",
		Content: topicHooks,
	},
	{
		Name:    "config",
		Title:   "Configuration Reference",
		Summary: "Config file schema, fields, and defaults",
		Content: topicConfig,
	},
	{
		Name:    "submodules",
		Title:   "Nested Tutorials",
		Summary: "Submodules that follow the super steps of their parent",
		Content: topicSubmodules,
	},
}

const topicQuickstart = `Quick Start
===========

1. Create a repository and initialize the tutorial:

    git init my-tutorial && cd my-tutorial
    stepwise init

   This writes .stepwise/config.yaml, the root manual template and
   README.md, commits them as the root of the tutorial and installs the
   git hooks.

2. Make a change, stage it and record it as a step:

    git add .
    stepwise step push -m "Add the server skeleton"

   The commit is named "Step 1.1: Add the server skeleton".

3. When a chapter is complete, close it with a super step:

    stepwise step tag -m "Bootstrapping"

   This creates "Step 1: Bootstrapping" together with its manual
   .stepwise/manuals/templates/step1.tmpl and the rendered view
   .stepwise/manuals/views/step1.md.

4. Inspect the tutorial:

    stepwise status
`

const topicSteps = `Steps and Numbering
===================

Every commit after the root carries a step prefix in its subject:

    Step 1.1: Add the server skeleton     sub step 1 of super step 1
    Step 1.2: Parse flags                 sub step 2 of super step 1
    Step 1: Bootstrapping                 super step 1, closes the chapter
    Step 2.1: Add a handler               first sub step of super step 2

Numbers are never typed by hand. push takes the number that follows the
most recent step, tag takes the next super step. pop removes the most
recent step commit.

Each super step gets a tag (step1, step2, ...) and a branch
(<branch>-step1, ...), plus <branch>-root for the root commit. They are
rebuilt after every history change and can be rebuilt by hand:

    stepwise refs rebuild
`

const topicEditing = `Editing History
===============

    stepwise step edit 1.2 [2.1 ...]

starts an interactive rebase that stops at each listed step. While
stopped you can amend the commit, push new steps after it, or pop it:

    stepwise step push -m "Handle errors"     inserts a new step
    stepwise step pop                          removes the step
    git commit --amend                         changes the step in place

Then run 'git rebase --continue'. The steps that follow are renumbered
to make room, and super steps are replayed so their manual files move
with their number. Renumbering stops at the first super step that is
not affected by the change.

    stepwise step reword [<step>] [-m <message>]

changes a step message without touching its prefix.

    stepwise step edit --update-refs ../other-tutorial 1.2

also replays another tutorial whose manuals reference this one through
diffStep, so its references follow the new numbers.
`

const topicManuals = `Manuals
=======

Each super step owns a Go text/template under the templates directory
(default .stepwise/manuals/templates/stepN.tmpl). It is rendered to the
views directory (default .stepwise/manuals/views/stepN.md) whenever the
step is tagged or replayed. The root template root.tmpl renders to
README.md.

Templates receive:

    {{.Tutorial}}    tutorial name
    {{.Step}}        "root" or the super step number
    {{.Title}}       the step message

and the helper

    {{diffStep "1.2" ""}}          diff of step 1.2 of this tutorial
    {{diffStep "1.2" "server"}}    diff of step 1.2 of submodule server

References to steps that were popped render as a notice instead of a
diff. Re-render every manual with:

    stepwise manual render
`

const topicHooks = `Git Hooks
=========

init installs pre-commit, pre-rebase, prepare-commit-msg and commit-msg
hooks. Existing hooks are kept as <name>.backup.

In strict mode (the default) the hooks reject:

  - new commits not made through 'stepwise step push' or 'step tag'
  - amends outside of 'stepwise step edit'
  - changes to README.md, which is rendered
  - manual files changed outside the super step that owns them
  - rebases not started by stepwise, and rebases of generated branches

While you amend a step, the step prefix is hidden from the commit message
editor and put back afterwards.

Strict mode is set by 'strict: false' in the config, or overridden for
one clone with:

    stepwise store set strict-mode false

'stepwise doctor' reports missing or foreign hooks. 'stepwise hooks
install' reinstalls them.
`

const topicConfig = `Configuration Reference
=======================

File: .stepwise/config.yaml

    name: my-tutorial            # required; root commit and README title
    strict: true                 # enforce hook policies (default true)
    manuals:
      templates: .stepwise/manuals/templates
      views: .stepwise/manuals/views
      root-view: README.md
    submodules:
      - name: server
        path: server             # defaults to name

Manual paths are relative to the repository root and must stay inside it.
Templates and views must be different directories. Submodule names must
be unique.

Environment:

    STEPWISE_LOG    terminal log level: debug, info, warn (default), error
    NO_COLOR        disable colored output

Every process also appends JSON records to .git/stepwise/stepwise.log,
tagged with the session id of the rebase that spawned it.
`

const topicSubmodules = `Nested Tutorials
================

A tutorial can contain other tutorials as git submodules. List them in
the config:

    submodules:
      - name: server
        path: server

When super step N of the parent is replayed, every submodule that has a
step N tag is checked out at it and the new pin is staged in the same
commit. Submodules with fewer super steps keep their checkout.

When a submodule is edited, pass the parent with --update-refs so its
diffStep references follow the renumbered steps:

    cd server
    stepwise step edit --update-refs .. 1.2
`
