// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"maps"
	"slices"
	"strings"

	"github.com/charmbracelet/glamour"
)

const (
	ConfigLoadFailedId Id = iota + 1
	SpitoConfParseFailedId
	WorkspaceRootNotFoundId
	WatcherStartFailedId
	ServerProtocolErrorId
)

type (
	Id int

	MarkdownMsg string

	HttpLink string

	Issue struct {
		id       Id
		mdMsg    MarkdownMsg
		docLinks []HttpLink
	}
)

func (i *Issue) Id() Id {
	return i.id
}

func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

func (i *Issue) DocLinks() []HttpLink {
	return slices.Clone(i.docLinks)
}

// Markdown returns the issue text with its "See also" links appended.
func (i *Issue) Markdown() string {
	var b strings.Builder
	b.WriteString(string(i.mdMsg))
	if len(i.docLinks) > 0 {
		b.WriteString("\n\n## See also\n")
		for _, link := range i.docLinks {
			b.WriteString("- <" + string(link) + ">\n")
		}
	}
	return b.String()
}

// Render renders the issue for a terminal with the named glamour style
// ("dark", "light", "notty", ...).
func (i *Issue) Render(stylePath string) (string, error) {
	return render(i.Markdown(), stylePath)
}

var (
	render = glamour.Render

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Failed to load the server configuration!

The spito-lsp configuration file could not be read or did not match the schema.

## Things you can try:
- Show where the configuration is read from:
~~~
$ spito-lsp config path
~~~
- Compare your file with the defaults:
~~~
$ spito-lsp config show
~~~
- Remove the file to fall back to built-in defaults.`,
		docLinks: []HttpLink{"https://cuelang.org/docs/"},
	}

	spitoConfParseFailedIssue = &Issue{
		id: SpitoConfParseFailedId,
		mdMsg: `
# Failed to parse a spito configuration!

One of the spito.yml / spito.yaml files in your workspace is not valid.
Completion is disabled for the whole workspace until it parses again.

## Common issues:
- Invalid YAML syntax (indentation, unclosed brackets or quotes)
- ` + "`rules`" + ` is not a mapping
- A detailed rule without a ` + "`path`" + ` field

## Example:
~~~yaml
rules:
  check-sshd: rules/sshd.lua
  set-kernel:
    path: rules/kernel.lua
    unsafe: "true"
~~~`,
		docLinks: []HttpLink{"https://yaml.org/spec/1.2.2/"},
	}

	workspaceRootNotFoundIssue = &Issue{
		id: WorkspaceRootNotFoundId,
		mdMsg: `
# Workspace root not found!

The directory to scan for spito configurations does not exist or is not a directory.

## Things you can try:
- Pass an existing directory with ` + "`--root`" + `
- Open a folder (not a single file) in your editor`,
	}

	watcherStartFailedIssue = &Issue{
		id: WatcherStartFailedId,
		mdMsg: `
# Failed to watch the workspace!

Configuration changes will not be picked up until the server restarts.

## Things you can try:
- Raise the inotify watch limit on Linux:
~~~
$ sudo sysctl fs.inotify.max_user_watches=524288
~~~
- Add large generated directories to ` + "`watch.ignore`" + ` in the configuration`,
	}

	serverProtocolErrorIssue = &Issue{
		id: ServerProtocolErrorId,
		mdMsg: `
# Language server protocol error!

The client and the server disagreed about the message stream.

## Things you can try:
- Make sure the editor starts ` + "`spito-lsp serve`" + ` with stdio transport
- Run with ` + "`--verbose`" + ` and check the server log on stderr`,
		docLinks: []HttpLink{"https://microsoft.github.io/language-server-protocol/"},
	}

	issues = map[Id]*Issue{
		configLoadFailedIssue.Id():      configLoadFailedIssue,
		spitoConfParseFailedIssue.Id():  spitoConfParseFailedIssue,
		workspaceRootNotFoundIssue.Id(): workspaceRootNotFoundIssue,
		watcherStartFailedIssue.Id():    watcherStartFailedIssue,
		serverProtocolErrorIssue.Id():   serverProtocolErrorIssue,
	}
)

// Values returns every registered issue ordered by id.
func Values() []*Issue {
	return slices.SortedFunc(maps.Values(issues), func(a, b *Issue) int {
		return int(a.id) - int(b.id)
	})
}

func Get(id Id) *Issue {
	return issues[id]
}
