package nep330

import (
	"fmt"

	"golang.org/x/mod/semver"
)

// Revisions of NEP-330 that introduced fields this package knows about
const (
	RevisionStandards      = "1.1.0"
	RevisionBuildInfo      = "1.2.0"
	RevisionOutputWasmPath = "1.3.0"
)

// SchemaRevision returns the version under which the metadata lists the nep330 standard itself.
// The second return value is false if nep330 isn't listed.
func (m *ContractSourceMetadata) SchemaRevision() (string, bool) {
	for _, s := range m.Standards {
		if s.Standard == StandardName {
			return s.Version, true
		}
	}
	return "", false
}

// RevisionWarnings lists inconsistencies between the declared nep330 revision and the fields in use.
// None of them prevents verification.
func (m *ContractSourceMetadata) RevisionWarnings() []string {
	if m.BuildInfo == nil {
		return nil
	}

	rev, ok := m.SchemaRevision()
	if !ok {
		return []string{fmt.Sprintf("`standards` does not list `%s`, `build_info` requires at least %s", StandardName, RevisionBuildInfo)}
	}
	if !semver.IsValid("v" + rev) {
		return []string{fmt.Sprintf("`%s` standard version %q is not a semantic version", StandardName, rev)}
	}

	var res []string
	if revisionBefore(rev, RevisionBuildInfo) {
		res = append(res, fmt.Sprintf("`build_info` is declared under %s %s, but was introduced in %s", StandardName, rev, RevisionBuildInfo))
	}
	if m.BuildInfo.OutputWasmPath != nil && revisionBefore(rev, RevisionOutputWasmPath) {
		res = append(res, fmt.Sprintf("`output_wasm_path` is declared under %s %s, but was introduced in %s", StandardName, rev, RevisionOutputWasmPath))
	}
	return res
}

func revisionBefore(rev, introduced string) bool {
	return semver.Compare("v"+rev, "v"+introduced) < 0
}
