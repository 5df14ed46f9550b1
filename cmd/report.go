package cmd

import (
	"fmt"
	"io"
	"math"
	"text/tabwriter"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/ftl/wsqso/core"
	"github.com/ftl/wsqso/core/candidate"
)

type reportFormat string

const (
	tableFormat reportFormat = "table"
	yamlFormat  reportFormat = "yaml"
)

func parseReportFormat(s string) (reportFormat, error) {
	switch reportFormat(s) {
	case tableFormat, yamlFormat:
		return reportFormat(s), nil
	default:
		return "", errors.Errorf("unknown output format %q", s)
	}
}

type reportDocument struct {
	Cycle      string              `yaml:"cycle"`
	Dial       int64               `yaml:"dial"`
	Candidates []candidateDocument `yaml:"candidates"`
}

type candidateDocument struct {
	Audio float64 `yaml:"audio"`
	RF    int64   `yaml:"rf"`
	SNR   float64 `yaml:"snr"`
}

func writeReport(w io.Writer, format reportFormat, report core.CycleReport, top int) error {
	candidates := candidate.Top(report.Candidates, top)
	switch format {
	case yamlFormat:
		return writeYAMLReport(w, report, candidates)
	default:
		return writeTableReport(w, report, candidates)
	}
}

func writeTableReport(w io.Writer, report core.CycleReport, candidates []core.Candidate) error {
	fmt.Fprintf(w, "cycle %s, dial %v, %d candidates\n", report.Cycle.UTC().Format(time.DateTime), report.Dial, len(report.Candidates))
	if len(candidates) == 0 {
		return nil
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "#\taudio\tRF\tSNR\t")
	for i, c := range candidates {
		fmt.Fprintf(tw, "%d\t%.2f\t%.0f\t%.1f\t\n", i+1, c.Frequency, report.Dial+c.Frequency, c.SNR)
	}
	return tw.Flush()
}

func writeYAMLReport(w io.Writer, report core.CycleReport, candidates []core.Candidate) error {
	document := []reportDocument{{
		Cycle:      report.Cycle.UTC().Format(time.RFC3339),
		Dial:       hz(report.Dial),
		Candidates: make([]candidateDocument, len(candidates)),
	}}
	for i, c := range candidates {
		document[0].Candidates[i] = candidateDocument{
			Audio: math.Round(float64(c.Frequency)*100) / 100,
			RF:    hz(report.Dial + c.Frequency),
			SNR:   math.Round(float64(c.SNR)*10) / 10,
		}
	}

	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(document); err != nil {
		return errors.Wrap(err, "cannot encode report")
	}
	return encoder.Close()
}

func hz(f core.Frequency) int64 {
	return int64(math.Round(float64(f)))
}

// printReports writes all reports until the channel is closed or the context is done.
func printReports(w io.Writer, format reportFormat, top int, reports <-chan core.CycleReport, done <-chan struct{}) error {
	for {
		select {
		case report, ok := <-reports:
			if !ok {
				return nil
			}
			if err := writeReport(w, format, report, top); err != nil {
				return err
			}
		case <-done:
			return nil
		}
	}
}
