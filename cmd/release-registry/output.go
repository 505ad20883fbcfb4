package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"github.com/go-semantic-release/release-registry/pkg/registry"
	"gopkg.in/yaml.v3"
)

const (
	outputText = "text"
	outputJSON = "json"
	outputYAML = "yaml"
)

type printer struct {
	format string
	w      io.Writer
}

func newPrinter(format string, w io.Writer) (*printer, error) {
	switch format {
	case outputText, outputJSON, outputYAML:
		return &printer{format: format, w: w}, nil
	default:
		return nil, fmt.Errorf("unknown output format %q", format)
	}
}

// print encodes v as JSON or YAML. In text mode the text callback renders v
// into an aligned table instead.
func (p *printer) print(v any, text func(w io.Writer)) error {
	switch p.format {
	case outputJSON:
		enc := json.NewEncoder(p.w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case outputYAML:
		enc := yaml.NewEncoder(p.w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	}
	tw := tabwriter.NewWriter(p.w, 0, 0, 2, ' ', 0)
	text(tw)
	return tw.Flush()
}

func (p *printer) printArtifacts(artifacts []*registry.Artifact) error {
	return p.print(artifacts, func(w io.Writer) {
		fmt.Fprintln(w, "NAME\tPLATFORM\tVERSION\tSIZE\tMODIFIED\tLOCATION")
		for _, a := range artifacts {
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\n", a.Name, a.PlatformType, a.Version, a.SizeBytes, a.ModifiedAt.Format("2006-01-02 15:04:05"), a.Location)
		}
	})
}

type dateCount struct {
	Date  string `json:"date" yaml:"date"`
	Count int64  `json:"count" yaml:"count"`
}

func (p *printer) printDateCounts(counts registry.DateBucketCount) error {
	res := make([]dateCount, 0, len(counts))
	for d, c := range counts {
		res = append(res, dateCount{Date: d.String(), Count: c})
	}
	sort.Slice(res, func(i, j int) bool {
		return res[i].Date < res[j].Date
	})
	return p.print(res, func(w io.Writer) {
		fmt.Fprintln(w, "DATE\tCOUNT")
		for _, dc := range res {
			fmt.Fprintf(w, "%s\t%d\n", dc.Date, dc.Count)
		}
	})
}

func (p *printer) printIssues(issues []*registry.Issue) error {
	return p.print(issues, func(w io.Writer) {
		fmt.Fprintln(w, "ID\tAPP VERSION\tREPORTED\tVALUE")
		for _, i := range issues {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", i.ID, i.AppVersion, i.OccurredAt.Format("2006-01-02 15:04:05"), i.Value)
		}
	})
}

func (p *printer) printValue(v string) error {
	return p.print(map[string]string{"value": v}, func(w io.Writer) {
		fmt.Fprintln(w, v)
	})
}
