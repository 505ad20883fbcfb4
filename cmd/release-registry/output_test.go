package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/go-semantic-release/release-registry/pkg/registry"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

func TestPrinterFormats(t *testing.T) {
	_, err := newPrinter("xml", &bytes.Buffer{})
	require.ErrorContains(t, err, "unknown output format")

	counts := registry.DateBucketCount{
		registry.NewDate(2024, time.May, 2): 3,
		registry.NewDate(2024, time.May, 1): 1,
	}

	buf := &bytes.Buffer{}
	p, err := newPrinter(outputJSON, buf)
	require.NoError(t, err)
	require.NoError(t, p.printDateCounts(counts))
	require.JSONEq(t, `[{"date":"2024-05-01","count":1},{"date":"2024-05-02","count":3}]`, buf.String())

	buf.Reset()
	p, err = newPrinter(outputYAML, buf)
	require.NoError(t, err)
	require.NoError(t, p.printDateCounts(counts))
	require.YAMLEq(t, "- date: \"2024-05-01\"\n  count: 1\n- date: \"2024-05-02\"\n  count: 3\n", buf.String())

	buf.Reset()
	p, err = newPrinter(outputText, buf)
	require.NoError(t, err)
	require.NoError(t, p.printValue("1.2.3"))
	require.Equal(t, "1.2.3\n", buf.String())
}

func TestGetDateRange(t *testing.T) {
	cmd := &cobra.Command{}
	addDateRangeFlags(cmd)
	require.NoError(t, cmd.Flags().Set("to", "2024-03-31"))

	from, to, err := getDateRange(cmd, time.UTC)
	require.NoError(t, err)
	require.Equal(t, registry.NewDate(2024, time.March, 31), to)
	require.Equal(t, registry.NewDate(2024, time.March, 1), from)

	require.NoError(t, cmd.Flags().Set("from", "2024-03-15"))
	from, _, err = getDateRange(cmd, time.UTC)
	require.NoError(t, err)
	require.Equal(t, registry.NewDate(2024, time.March, 15), from)

	require.NoError(t, cmd.Flags().Set("from", "15.03.2024"))
	_, _, err = getDateRange(cmd, time.UTC)
	require.Error(t, err)
}
