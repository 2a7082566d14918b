package remotes

import (
	"fmt"
	"strings"

	"github.com/tylerslaton/olmsync/internal/gitrepo"
)

const (
	invalidDefinitionTemplateConstant = "remote definition %d (%q) is invalid: %s"
	emptyNameReasonConstant           = "name must not be empty"
	whitespaceNameReasonConstant      = "name must not contain whitespace"
	duplicateNameReasonConstant       = "name is already defined"
	emptyURLReasonConstant            = "url must not be empty"
	unparseableURLReasonTemplate      = "url is not a recognized git remote: %v"
	emptyTableReasonConstant          = "at least one remote must be defined"
)

// Definition names a remote and the URL it fetches from.
type Definition struct {
	Name string `mapstructure:"name" yaml:"name"`
	URL  string `mapstructure:"url" yaml:"url"`
}

// InvalidDefinitionError reports a remote definition that failed validation.
type InvalidDefinitionError struct {
	Index  int
	Name   string
	Reason string
}

// Error describes the invalid definition.
func (definitionError InvalidDefinitionError) Error() string {
	return fmt.Sprintf(invalidDefinitionTemplateConstant, definitionError.Index, definitionError.Name, definitionError.Reason)
}

// Table is an ordered set of remote definitions with unique names.
type Table struct {
	definitions []Definition
}

// DefaultDefinitions returns the operator-framework remotes used when configuration provides none.
func DefaultDefinitions() []Definition {
	return []Definition{
		{Name: "api", URL: "https://github.com/operator-framework/api"},
		{Name: "operator-registry", URL: "https://github.com/operator-framework/operator-registry"},
		{Name: "operator-lifecycle-manager", URL: "https://github.com/operator-framework/operator-lifecycle-manager"},
		{Name: "upstream", URL: "https://github.com/openshift/operator-framework-olm"},
	}
}

// NewTable validates definitions and returns them as a Table, preserving order.
func NewTable(definitions []Definition) (Table, error) {
	if len(definitions) == 0 {
		return Table{}, InvalidDefinitionError{Index: 0, Reason: emptyTableReasonConstant}
	}

	seenNames := make(map[string]struct{}, len(definitions))
	validatedDefinitions := make([]Definition, 0, len(definitions))
	for definitionIndex, definition := range definitions {
		trimmedDefinition := Definition{Name: strings.TrimSpace(definition.Name), URL: strings.TrimSpace(definition.URL)}

		if len(trimmedDefinition.Name) == 0 {
			return Table{}, InvalidDefinitionError{Index: definitionIndex, Name: definition.Name, Reason: emptyNameReasonConstant}
		}
		if strings.ContainsAny(trimmedDefinition.Name, " \t\n") {
			return Table{}, InvalidDefinitionError{Index: definitionIndex, Name: definition.Name, Reason: whitespaceNameReasonConstant}
		}
		if _, duplicate := seenNames[trimmedDefinition.Name]; duplicate {
			return Table{}, InvalidDefinitionError{Index: definitionIndex, Name: definition.Name, Reason: duplicateNameReasonConstant}
		}
		if len(trimmedDefinition.URL) == 0 {
			return Table{}, InvalidDefinitionError{Index: definitionIndex, Name: definition.Name, Reason: emptyURLReasonConstant}
		}
		if _, parseError := gitrepo.ParseRemoteURL(trimmedDefinition.URL); parseError != nil {
			return Table{}, InvalidDefinitionError{Index: definitionIndex, Name: definition.Name, Reason: fmt.Sprintf(unparseableURLReasonTemplate, parseError)}
		}

		seenNames[trimmedDefinition.Name] = struct{}{}
		validatedDefinitions = append(validatedDefinitions, trimmedDefinition)
	}

	return Table{definitions: validatedDefinitions}, nil
}

// Definitions returns a copy of the table entries in configured order.
func (table Table) Definitions() []Definition {
	return append([]Definition(nil), table.definitions...)
}

// Names returns the configured remote names in configured order.
func (table Table) Names() []string {
	names := make([]string, 0, len(table.definitions))
	for _, definition := range table.definitions {
		names = append(names, definition.Name)
	}
	return names
}
