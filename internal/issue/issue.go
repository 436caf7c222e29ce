// SPDX-License-Identifier: EPL-2.0

package issue

import (
	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

type Id int

const (
	UnsupportedPlatformId Id = iota + 1
	BootstrapFailedId
	VersionInstallFailedId
	InconsistentInstallId
	VenvLayoutBrokenId
	WorkloadLaunchFailedId
	ConfigLoadFailedId
	PipFailedId
)

type MarkdownMsg string

type HttpLink string

type Renderer interface {
	Render(in string, stylePath string) (string, error)
}

type Issue struct {
	id       Id          // ID used to lookup the issue
	mdMsg    MarkdownMsg // Markdown text that will be rendered
	docLinks []HttpLink  // project docs covering the issue
	extLinks []HttpLink  // external links that might be useful for the user
}

func (i *Issue) Id() Id {
	return i.id
}

func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

func (i *Issue) DocLinks() []HttpLink {
	return slices.Clone(i.docLinks)
}

func (i *Issue) ExtLinks() []HttpLink {
	return slices.Clone(i.extLinks)
}

func (i *Issue) Render(stylePath string) (string, error) {
	extraMd := ""
	if len(i.docLinks) > 0 || len(i.extLinks) > 0 {
		extraMd += "\n\n"
		extraMd += "## See also: "
		for _, link := range i.docLinks {
			extraMd += "- [" + string(link) + "]"
		}
		for _, link := range i.extLinks {
			extraMd += "- [" + string(link) + "]"
		}
	}
	return render(string(i.mdMsg)+extraMd, stylePath)
}

var (
	render = glamour.Render

	unsupportedPlatformIssue = &Issue{
		id: UnsupportedPlatformId,
		mdMsg: `
# Unsupported platform!

pynest only knows how to manage runtimes on Linux, macOS, BSDs and Windows.

## Things you can try:
- Run pynest on a supported operating system
- If you believe your platform should work, open an issue with the output of:
~~~
$ uname -a
~~~`,
	}

	bootstrapFailedIssue = &Issue{
		id: BootstrapFailedId,
		mdMsg: `
# Could not bootstrap the version manager!

Installing the version-management tool itself failed, so no runtime can be
provisioned.

## Common causes:
- No network access (the bootstrap clones the tool from its upstream repo)
- git is not installed or not on PATH
- The target directory is not writable

## Things you can try:
- Check your network connection and proxy settings
- Install git and make sure it is on PATH:
~~~
$ git --version
~~~
- Pick a writable install root in your config:
~~~cue
manager_root: "/home/you/.pyenv"
~~~`,
	}

	versionInstallFailedIssue = &Issue{
		id: VersionInstallFailedId,
		mdMsg: `
# Runtime version installation failed!

The version manager could not build or install the requested runtime version.

## Common causes:
- The version string does not exist upstream
- Missing build dependencies (compiler, headers, libraries)
- Interrupted download

## Things you can try:
- List the versions the manager knows about:
~~~
$ pynest install --list
~~~
- Install the build prerequisites for your distribution
- Re-run with verbose output to see the build log:
~~~
$ pynest --verbose install 3.10.1
~~~`,
	}

	inconsistentInstallIssue = &Issue{
		id: InconsistentInstallId,
		mdMsg: `
# Toolchain state is inconsistent!

The runtime reported an executable location that does not exist on disk. The
installation is present but broken, and retrying the same command will not
fix it.

## Things you can try:
- Reinstall the affected version:
~~~
$ pynest uninstall 3.10.1
$ pynest install 3.10.1
~~~
- Inspect the install root for partial or corrupted trees
- Run the health check:
~~~
$ pynest doctor
~~~`,
	}

	venvLayoutBrokenIssue = &Issue{
		id: VenvLayoutBrokenId,
		mdMsg: `
# Virtual environment is broken!

The environment directory exists but does not contain an interpreter where
one is expected. pynest treats this as "no usable environment" rather than
guessing.

## Things you can try:
- Recreate the environment:
~~~
$ pynest venv delete /path/to/env
$ pynest venv create /path/to/env
~~~
- Check whether something deleted files inside the environment`,
	}

	workloadLaunchFailedIssue = &Issue{
		id: WorkloadLaunchFailedId,
		mdMsg: `
# Could not launch the process!

The process never started, so there is no exit code to report.

## Common causes:
- The executable path does not exist
- The file is not executable
- Permission denied on the working directory

## Things you can try:
- Check the path and permissions of the executable
- Verify the session's interpreter still exists:
~~~
$ pynest doctor
~~~`,
	}

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Failed to load configuration!

Your config file contains syntax errors or invalid values.

## Common issues:
- Invalid CUE syntax (missing quotes, braces, etc.)
- Unknown field names
- Values that violate the schema (e.g. a malformed version string)

## Things you can try:
- Check the error message above for the specific field path
- Compare against the default configuration:
~~~
$ pynest config show
~~~
- Regenerate a fresh default config:
~~~
$ pynest config init
~~~

## Example of a valid config:
~~~cue
default_version: "3.12.0"

ui: {
	color_scheme: "auto"
	verbose: false
}
~~~`,
	}

	pipFailedIssue = &Issue{
		id: PipFailedId,
		mdMsg: `
# Package operation failed!

pip exited with an error while installing, removing or listing packages.

## Common causes:
- Package name does not exist on the index
- No network access
- The environment's interpreter is broken

## Things you can try:
- Check the package name spelling
- Inspect the environment's installed packages:
~~~
$ pynest pip list
~~~
- Recreate the virtual environment if its interpreter is broken`,
	}

	issues = map[Id]*Issue{
		unsupportedPlatformIssue.Id():  unsupportedPlatformIssue,
		bootstrapFailedIssue.Id():      bootstrapFailedIssue,
		versionInstallFailedIssue.Id(): versionInstallFailedIssue,
		inconsistentInstallIssue.Id():  inconsistentInstallIssue,
		venvLayoutBrokenIssue.Id():     venvLayoutBrokenIssue,
		workloadLaunchFailedIssue.Id(): workloadLaunchFailedIssue,
		configLoadFailedIssue.Id():     configLoadFailedIssue,
		pipFailedIssue.Id():            pipFailedIssue,
	}
)

func Values() []*Issue {
	return maps.Values(issues)
}

func Get(id Id) *Issue {
	return issues[id]
}
