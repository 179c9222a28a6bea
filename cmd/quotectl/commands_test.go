package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pouchworks/quote-service/internal/application"
	apperrors "github.com/pouchworks/quote-service/pkg/errors"
)

const requestJSON = `{
	"baseParams": {"bagTypeId": "flat_3_side", "materialId": "PET", "width": 300, "height": 400, "depth": 100},
	"quantities": [500, 1000, 5000],
	"comparisonMode": "price"
}`

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestCompareFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "request.json")
	require.NoError(t, os.WriteFile(path, []byte(requestJSON), 0o600))

	out, err := execute(t, "", "compare", "--file", path, "--pretty")
	require.NoError(t, err)

	var resp application.MultiQuantityQuoteResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, []int{500, 1000, 5000}, resp.Data.Quantities)
	assert.Equal(t, 5000, resp.Data.Comparison.BestValue.Quantity)
	assert.Contains(t, out, "\n  ")
}

func TestCompareFromStdin(t *testing.T) {
	out, err := execute(t, requestJSON, "compare", "-f", "-")
	require.NoError(t, err)
	assert.Contains(t, out, `"success":true`)
}

func TestCompareErrors(t *testing.T) {
	_, err := execute(t, "", "compare")
	assert.Error(t, err, "missing --file")

	_, err = execute(t, "", "compare", "--file", filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorContains(t, err, "read request")

	_, err = execute(t, "{", "compare", "--file", "-")
	assert.ErrorContains(t, err, "decode request")

	_, err = execute(t, `{"baseParams":{"bagTypeId":"PET"},"quantities":[1000]}`, "compare", "--file", "-")
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.CodeValidationError, appErr.Code)
}

func TestOptions(t *testing.T) {
	out, err := execute(t, "", "options")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Len(t, lines, 16)
	assert.True(t, strings.HasPrefix(lines[0], "ID"))

	out, err = execute(t, "", "options", "--category", "surface-treatment")
	require.NoError(t, err)
	assert.Contains(t, out, "glossy")
	assert.Contains(t, out, "matte")
	assert.NotContains(t, out, "zipper-yes")

	out, err = execute(t, "", "options", "--bag-type", "soft_pouch")
	require.NoError(t, err)
	assert.Contains(t, out, "corner-round")
	assert.NotContains(t, out, "zipper-yes")
}

func TestImpact(t *testing.T) {
	out, err := execute(t, "", "impact", "zipper-yes", "glossy", "foil-stamp")
	require.NoError(t, err)
	assert.Contains(t, out, "multiplier:       1.19")
	assert.Contains(t, out, "minimum quantity: 1000")
	assert.Contains(t, out, "unknown options:  foil-stamp")

	out, err = execute(t, "", "impact", "glossy", "matte", "--bag-type", "box")
	require.NoError(t, err)
	assert.Contains(t, out, "warning: glossy cannot be combined with matte")
	assert.Contains(t, out, "warning: glossy is not available for bag type box")

	_, err = execute(t, "", "impact")
	assert.Error(t, err)
}
