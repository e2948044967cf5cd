package dispatch

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/PierreBx/ariane-xml-sub000/internal/appctx"
	"github.com/PierreBx/ariane-xml-sub000/internal/query"
)

func TestDispatchSetModeDSN(t *testing.T) {
	require := require.New(t)
	ctx := appctx.New()
	res, err := Dispatch(ctx, "SET MODE DSN")
	require.Nil(err)
	require.False(res.IsQuery)
	require.Equal(query.ModeDSN, ctx.Mode())
}

func TestDispatchSetDSNVersionRejectsUnknown(t *testing.T) {
	require := require.New(t)
	ctx := appctx.New()
	_, err := Dispatch(ctx, "SET DSN_VERSION P99")
	require.NotNil(err)
}

func TestDispatchShowMode(t *testing.T) {
	require := require.New(t)
	ctx := appctx.New()
	res, err := Dispatch(ctx, "SHOW MODE")
	require.Nil(err)
	require.Equal("STANDARD", res.Output)
}

func TestDispatchSetDestQuoted(t *testing.T) {
	require := require.New(t)
	ctx := appctx.New()
	dir := filepath.Join(t.TempDir(), "with space", "out")
	res, err := Dispatch(ctx, `SET DEST "`+dir+`"`)
	require.Nil(err)
	require.Equal("OK", res.Output)
	require.Equal(dir, ctx.DestPath())
	_, statErr := os.Stat(dir)
	require.NoError(statErr)
}

func TestDispatchUnrecognizedFallsThroughAsQuery(t *testing.T) {
	require := require.New(t)
	ctx := appctx.New()
	res, err := Dispatch(ctx, `SELECT x FROM "f.xml"`)
	require.Nil(err)
	require.True(res.IsQuery)
	require.Equal(`SELECT x FROM "f.xml"`, res.Remainder)
}

func TestDispatchDescribeWithoutSchemaErrors(t *testing.T) {
	require := require.New(t)
	ctx := appctx.New()
	_, err := Dispatch(ctx, "DESCRIBE 30.001")
	require.NotNil(err)
}

func TestDispatchEmptyLineIsQuery(t *testing.T) {
	require := require.New(t)
	ctx := appctx.New()
	res, err := Dispatch(ctx, "   ")
	require.Nil(err)
	require.True(res.IsQuery)
}
