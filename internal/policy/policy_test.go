// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package policy

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePolicies(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "policies.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	path := writePolicies(t, `
policies:
  - name: Tax Cuts and Jobs Act
    abbreviation: TCJA
    year: 2017
    category: tax
    search_terms: "Tax Cuts and Jobs Act | TCJA"
  - name: Affordable Care Act
    abbreviation: ACA
    year: 2010
    category: health
`)

	policies, err := Load(path)
	require.NoError(t, err)
	require.Len(t, policies, 2)

	assert.Equal(t, "TCJA", policies[0].Abbreviation)
	assert.Equal(t, 2017, policies[0].Year)
	assert.Equal(t, []string{"Tax Cuts and Jobs Act", "TCJA"}, policies[0].SearchTerms)

	// No search terms: the abbreviation stands in.
	assert.Equal(t, []string{"ACA"}, policies[1].SearchTerms)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Load(writePolicies(t, "policies: []\n"))
	assert.Error(t, err)

	_, err = Load(writePolicies(t, "policies:\n  - name: No Abbreviation\n"))
	assert.Error(t, err)
}

func TestSelect(t *testing.T) {
	path := writePolicies(t, `
policies:
  - abbreviation: TCJA
  - abbreviation: ACA
  - abbreviation: NCLB
`)
	policies, err := Load(path)
	require.NoError(t, err)

	all, err := Select(policies, nil)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	some, err := Select(policies, []string{"NCLB", "TCJA"})
	require.NoError(t, err)
	require.Len(t, some, 2)
	assert.Equal(t, "NCLB", some[0].Abbreviation)

	_, err = Select(policies, []string{"NOPE"})
	assert.Error(t, err)
}
